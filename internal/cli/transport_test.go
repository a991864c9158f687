package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/internal/config"
	"github.com/aretw0/podium/pkg/notes"
	"github.com/aretw0/podium/pkg/ports"
)

func TestTransport_UDP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Default().SpeakerNotes
	cfg.ListenAddress = "127.0.0.1:0"
	sub, err := OpenSubscriber(ctx, cfg, "/deck.md", nil)
	require.NoError(t, err)
	defer sub.Close()

	cfg.PublishAddress = sub.(*notes.Listener).Addr().String()
	pub, err := OpenPublisher(cfg, nil)
	require.NoError(t, err)
	defer pub.Close()

	ports.RunNotesContract(t, pub, sub, "/deck.md")
}

func TestTransport_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.SpeakerNotesConfig{Transport: "redis", RedisURL: "redis://" + mr.Addr()}
	sub, err := OpenSubscriber(ctx, cfg, "/deck.md", nil)
	require.NoError(t, err)
	defer sub.Close()

	pub, err := OpenPublisher(cfg, nil)
	require.NoError(t, err)
	defer pub.Close()

	ports.RunNotesContract(t, pub, sub, "/deck.md")
}
