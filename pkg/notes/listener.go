package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/aretw0/podium/pkg/domain"
)

const maxDatagram = 64 * 1024

// Listener receives the cursor updates of one presentation. It implements
// ports.NotesSubscriber. Several listeners may share a port.
type Listener struct {
	conn   net.PacketConn
	filter *SequenceFilter
	events chan domain.NotesEvent
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Listen binds address and starts receiving events for presentation.
func Listen(ctx context.Context, address, presentation string, opts ...Option) (*Listener, error) {
	o := newOptions(opts)
	lc := net.ListenConfig{Control: reuseControl}
	conn, err := lc.ListenPacket(ctx, "udp4", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for speaker notes on %s: %w", address, err)
	}
	l := &Listener{
		conn:   conn,
		filter: NewSequenceFilter(presentation),
		events: make(chan domain.NotesEvent, o.buffer),
		logger: o.logger,
		done:   make(chan struct{}),
	}
	go l.loop()
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-l.done:
		}
	}()
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Events yields accepted events. It is closed after Close.
func (l *Listener) Events() <-chan domain.NotesEvent {
	return l.events
}

// Close stops the listener.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.conn.Close()
	})
	return err
}

func (l *Listener) loop() {
	defer close(l.events)
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := l.conn.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				l.logger.Debug("notes listener stopped", "err", err)
			}
			return
		}
		ev, err := Decode(buf[:n])
		if err != nil {
			l.logger.Debug("dropping notes datagram", "from", from.String(), "err", err)
			continue
		}
		if !l.filter.Accept(ev) {
			l.logger.Debug("dropping stale notes event", "seq", ev.Seq, "presentation", ev.Presentation)
			continue
		}
		select {
		case l.events <- ev:
		case <-l.done:
			return
		}
	}
}
