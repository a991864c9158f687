//go:build unix

package cli

import (
	"context"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/testutils"
)

type countingSurface struct {
	*render.VirtualSurface
	flushes atomic.Int32
}

func (c *countingSurface) Flush() error {
	c.flushes.Add(1)
	return c.VirtualSurface.Flush()
}

func TestSession_RedrawsOnResize(t *testing.T) {
	p := newPresenter(t, testutils.WriteDeck(t, sessionDeck))
	surface := &countingSurface{VirtualSurface: render.NewVirtualSurface(80, 24)}
	keys := make(chan []byte)
	done := make(chan error, 1)
	s := NewSession(p, surface, keys)
	go func() { done <- s.Run(context.Background()) }()

	// an unbound key makes sure the loop is running and the signal handler installed
	keys <- []byte("x")
	keys <- []byte("x")
	before := surface.flushes.Load()
	require.Positive(t, before)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGWINCH))
	assert.Eventually(t, func() bool { return surface.flushes.Load() > before }, 2*time.Second, 10*time.Millisecond)

	keys <- []byte("q")
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop")
	}
}
