package ports

import (
	"context"

	"github.com/aretw0/podium/pkg/domain"
)

// NotesPublisher sends cursor updates to speaker notes viewers.
type NotesPublisher interface {
	// Publish sends ev. Implementations assign the sequence number.
	Publish(ctx context.Context, ev domain.NotesEvent) error
	Close() error
}

// NotesSubscriber receives cursor updates for one presentation.
type NotesSubscriber interface {
	// Events yields accepted events in order; it is closed when the subscriber stops.
	Events() <-chan domain.NotesEvent
	Close() error
}
