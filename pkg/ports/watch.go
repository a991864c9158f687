package ports

import "context"

// Watchable defines an interface for sources that can notify about changes.
// This is used for hot reload while presenting.
type Watchable interface {
	// Watch returns a channel that is signaled when any watched file changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
