// Package notes synchronizes a presenting instance with its speaker notes viewers over UDP.
//
// The presenter publishes a JSON envelope every time its cursor moves. Viewers listen on
// the same port, keep only the envelopes of their presentation and drop anything older
// than the last sequence number they accepted.
package notes

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/aretw0/podium/pkg/domain"
)

// DefaultPort is the UDP port used when an address has none.
const DefaultPort = 59418

// DefaultPublishAddress returns the address cursor updates are sent to by default. macOS
// does not deliver loopback broadcasts.
func DefaultPublishAddress() string {
	if runtime.GOOS == "darwin" {
		return fmt.Sprintf("127.0.0.1:%d", DefaultPort)
	}
	return fmt.Sprintf("127.255.255.255:%d", DefaultPort)
}

// DefaultListenAddress returns the address listeners bind to by default. On linux
// listeners bind the broadcast address so several viewers receive every update.
func DefaultListenAddress() string {
	if runtime.GOOS == "linux" {
		return fmt.Sprintf("127.255.255.255:%d", DefaultPort)
	}
	return fmt.Sprintf("127.0.0.1:%d", DefaultPort)
}

// Encode serializes ev as a datagram.
func Encode(ev domain.NotesEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notes event: %w", err)
	}
	return data, nil
}

// Decode parses a datagram.
func Decode(data []byte) (domain.NotesEvent, error) {
	var ev domain.NotesEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", domain.ErrMalformedNotes, err)
	}
	switch ev.Command {
	case domain.NotesGoTo, domain.NotesExit:
	default:
		return ev, fmt.Errorf("%w: unknown command %q", domain.ErrMalformedNotes, ev.Command)
	}
	return ev, nil
}

// SequenceFilter accepts the events of one presentation whose sequence number is greater
// than the last accepted one.
type SequenceFilter struct {
	presentation string
	last         map[string]uint64
}

// NewSequenceFilter creates a filter for presentation.
func NewSequenceFilter(presentation string) *SequenceFilter {
	return &SequenceFilter{presentation: presentation, last: make(map[string]uint64)}
}

// Accept reports whether ev should be applied and records its sequence number if so.
func (f *SequenceFilter) Accept(ev domain.NotesEvent) bool {
	if ev.Presentation != f.presentation {
		return false
	}
	if last, ok := f.last[ev.Presentation]; ok && ev.Seq <= last {
		return false
	}
	f.last[ev.Presentation] = ev.Seq
	return true
}

// Option configures a Publisher or a Listener.
type Option func(*options)

type options struct {
	logger *slog.Logger
	buffer int
}

// WithLogger sets the logger. Dropped datagrams are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBuffer sets the capacity of the listener event channel.
func WithBuffer(n int) Option {
	return func(o *options) {
		o.buffer = n
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		buffer: 16,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
