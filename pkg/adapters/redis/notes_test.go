package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/pkg/adapters/redis"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/ports"
)

func setup(t *testing.T) *redis.Notes {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client)
}

func TestRedisNotes_Contract(t *testing.T) {
	n := setup(t)
	defer n.Close()

	sub, err := n.Subscribe(context.Background(), "/deck.md")
	require.NoError(t, err)
	defer sub.Close()

	ports.RunNotesContract(t, n, sub, "/deck.md")
}

func TestRedisNotes_LateViewerStartsOnCurrentSlide(t *testing.T) {
	n := setup(t)
	defer n.Close()
	ctx := context.Background()

	require.NoError(t, n.Publish(ctx, domain.NotesEvent{Presentation: "/deck.md", Command: domain.NotesGoTo, Slide: 1}))
	require.NoError(t, n.Publish(ctx, domain.NotesEvent{Presentation: "/deck.md", Command: domain.NotesGoTo, Slide: 6}))

	sub, err := n.Subscribe(ctx, "/deck.md")
	require.NoError(t, err)
	defer sub.Close()

	select {
	case ev := <-sub.Events():
		assert.Equal(t, 6, ev.Slide)
		assert.Equal(t, uint64(2), ev.Seq)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestRedisNotes_CloseEndsEvents(t *testing.T) {
	n := setup(t)
	defer n.Close()

	sub, err := n.Subscribe(context.Background(), "/deck.md")
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events not closed")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := redis.New("not a url")
	assert.Error(t, err)
}
