package cli

import (
	"errors"
	"io"
	"sync"

	"github.com/aretw0/podium/internal/render"
)

// Terminal owns the presentation mode of the controlling terminal. It implements
// execution.TerminalReleaser so acquire-terminal snippets can borrow it.
type Terminal struct {
	surface *render.TermSurface
	input   *Input
	stdout  io.Writer
	stderr  io.Writer

	mu      sync.Mutex
	restore func() error
}

// NewTerminal wraps surface. Child processes get input through in and write to stdout and
// stderr directly.
func NewTerminal(surface *render.TermSurface, in *Input, stdout, stderr io.Writer) *Terminal {
	return &Terminal{surface: surface, input: in, stdout: stdout, stderr: stderr}
}

// Enter switches to raw mode on the alternate screen.
func (t *Terminal) Enter() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.restore != nil {
		return nil
	}
	restore, err := t.surface.Enter()
	if err != nil {
		return err
	}
	t.restore = restore
	return nil
}

// Release leaves presentation mode.
func (t *Terminal) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.restore == nil {
		return nil
	}
	err := t.restore()
	t.restore = nil
	return err
}

// Restore re-enters presentation mode and takes input back from a child.
func (t *Terminal) Restore() error {
	t.input.Detach()
	return t.Enter()
}

// Stdio returns the streams for a child that holds the terminal.
func (t *Terminal) Stdio() (io.Reader, io.Writer, io.Writer) {
	return t.input.Attach(), t.stdout, t.stderr
}

// Suspend stops the process the way a shell job is stopped and restores the terminal when
// it is continued.
func (t *Terminal) Suspend() error {
	if err := t.Release(); err != nil {
		return err
	}
	return errors.Join(suspend(), t.Enter())
}
