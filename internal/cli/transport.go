package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/podium/internal/config"
	"github.com/aretw0/podium/pkg/adapters/redis"
	"github.com/aretw0/podium/pkg/notes"
	"github.com/aretw0/podium/pkg/ports"
)

// OpenPublisher creates the speaker notes publisher selected by cfg.
func OpenPublisher(cfg config.SpeakerNotesConfig, logger *slog.Logger) (ports.NotesPublisher, error) {
	if cfg.Transport == "redis" {
		return redis.New(cfg.RedisURL, redis.WithLogger(logger))
	}
	return notes.NewPublisher(cfg.PublishAddress, notes.WithLogger(logger))
}

// OpenSubscriber subscribes to the cursor updates of presentation on the transport
// selected by cfg. The subscription ends with ctx.
func OpenSubscriber(ctx context.Context, cfg config.SpeakerNotesConfig, presentation string, logger *slog.Logger) (ports.NotesSubscriber, error) {
	if cfg.Transport == "redis" {
		n, err := redis.New(cfg.RedisURL, redis.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		sub, err := n.Subscribe(ctx, presentation)
		if err != nil {
			n.Close()
			return nil, err
		}
		return &redisSubscription{Subscription: sub, notes: n}, nil
	}
	return notes.Listen(ctx, cfg.ListenAddress, presentation, notes.WithLogger(logger))
}

// redisSubscription closes the client it was opened with.
type redisSubscription struct {
	*redis.Subscription
	notes *redis.Notes
}

func (s *redisSubscription) Close() error {
	err := s.Subscription.Close()
	if cerr := s.notes.Close(); err == nil {
		err = cerr
	}
	return err
}
