// Package redis carries speaker notes events over Redis pub/sub, for presenter and viewer
// on different hosts.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/notes"
)

// Notes publishes and subscribes to notes events. Every presentation has its own channel;
// the last event is also stored so viewers that join late start on the current slide.
type Notes struct {
	client *backend.Client
	prefix string
	logger *slog.Logger
}

// Option configures Notes.
type Option func(*Notes)

// WithPrefix sets the key and channel prefix.
func WithPrefix(prefix string) Option {
	return func(n *Notes) {
		n.prefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notes) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New connects to the server at url (redis://[:password@]host:port/db).
func New(url string, opts ...Option) (*Notes, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(o), opts...), nil
}

// NewFromClient uses an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Notes {
	n := &Notes{
		client: client,
		prefix: "podium:notes:",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notes) channel(presentation string) string {
	return n.prefix + presentation
}

func (n *Notes) seqKey(presentation string) string {
	return n.prefix + presentation + ":seq"
}

func (n *Notes) lastKey(presentation string) string {
	return n.prefix + presentation + ":last"
}

// Publish assigns ev the next sequence number of its presentation and sends it.
func (n *Notes) Publish(ctx context.Context, ev domain.NotesEvent) error {
	seq, err := n.client.Incr(ctx, n.seqKey(ev.Presentation)).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate notes sequence: %w", err)
	}
	ev.Seq = uint64(seq)
	data, err := notes.Encode(ev)
	if err != nil {
		return err
	}

	pipe := n.client.Pipeline()
	pipe.Set(ctx, n.lastKey(ev.Presentation), data, 0)
	pipe.Publish(ctx, n.channel(ev.Presentation), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish notes event: %w", err)
	}
	return nil
}

// Close closes the client.
func (n *Notes) Close() error {
	return n.client.Close()
}

// Subscribe starts receiving the events of presentation. The stored last event, if any,
// is delivered first.
func (n *Notes) Subscribe(ctx context.Context, presentation string) (*Subscription, error) {
	ps := n.client.Subscribe(ctx, n.channel(presentation))
	// wait for the confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to notes: %w", err)
	}

	s := &Subscription{
		ps:     ps,
		filter: notes.NewSequenceFilter(presentation),
		events: make(chan domain.NotesEvent, 16),
		done:   make(chan struct{}),
		logger: n.logger,
	}

	last, err := n.client.Get(ctx, n.lastKey(presentation)).Bytes()
	switch {
	case errors.Is(err, backend.Nil):
	case err != nil:
		_ = ps.Close()
		return nil, fmt.Errorf("failed to read last notes event: %w", err)
	default:
		s.deliver(last)
	}

	go s.loop()
	return s, nil
}

// Subscription receives the events of one presentation. It implements
// ports.NotesSubscriber.
type Subscription struct {
	ps     *backend.PubSub
	filter *notes.SequenceFilter
	events chan domain.NotesEvent
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Events yields accepted events. It is closed after Close.
func (s *Subscription) Events() <-chan domain.NotesEvent {
	return s.events
}

// Close stops the subscription.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *Subscription) loop() {
	defer close(s.events)
	ch := s.ps.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !s.deliver([]byte(msg.Payload)) {
				return
			}
		case <-s.done:
			return
		}
	}
}

// deliver forwards an accepted payload and reports whether the subscription is still open.
func (s *Subscription) deliver(payload []byte) bool {
	ev, err := notes.Decode(payload)
	if err != nil {
		s.logger.Debug("dropping notes message", "err", err)
		return true
	}
	if !s.filter.Accept(ev) {
		return true
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}
