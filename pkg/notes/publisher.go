package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aretw0/podium/pkg/domain"
)

// Publisher broadcasts cursor updates over UDP. It implements ports.NotesPublisher.
type Publisher struct {
	conn   net.PacketConn
	addr   *net.UDPAddr
	seq    atomic.Uint64
	logger *slog.Logger
}

// NewPublisher sends to address, which may be a broadcast address.
func NewPublisher(address string, opts ...Option) (*Publisher, error) {
	o := newOptions(opts)
	addr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, fmt.Errorf("invalid publish address %q: %w", address, err)
	}
	lc := net.ListenConfig{Control: broadcastControl}
	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to open notes socket: %w", err)
	}
	p := &Publisher{conn: conn, addr: addr, logger: o.logger}
	// sequence numbers keep growing across restarts of the presenter
	p.seq.Store(uint64(time.Now().UnixNano()))
	return p, nil
}

// Publish assigns the next sequence number to ev and sends it. A refused connection means
// nobody listens and is not an error.
func (p *Publisher) Publish(ctx context.Context, ev domain.NotesEvent) error {
	ev.Seq = p.seq.Add(1)
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = p.conn.SetWriteDeadline(deadline)
	}
	if _, err := p.conn.WriteTo(data, p.addr); err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			p.logger.Debug("notes publish refused", "addr", p.addr.String())
			return nil
		}
		return fmt.Errorf("failed to publish notes event: %w", err)
	}
	p.logger.Debug("notes event published", "seq", ev.Seq, "slide", ev.Slide, "chunk", ev.Chunk)
	return nil
}

// Close releases the socket.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
