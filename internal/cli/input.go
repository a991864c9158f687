package cli

import (
	"context"
	"io"
	"sync"
)

// Input reads the terminal in one goroutine and hands the bytes either to the key decoder
// or, while a snippet holds the terminal, to that snippet.
type Input struct {
	r    io.Reader
	keys chan []byte

	mu       sync.Mutex
	attached *io.PipeWriter
}

// NewInput creates an input pump over r. Nothing is read until Start.
func NewInput(r io.Reader) *Input {
	return &Input{r: r, keys: make(chan []byte, 16)}
}

// Keys yields raw input. It is closed when the reader fails or ctx is done.
func (in *Input) Keys() <-chan []byte {
	return in.keys
}

// Start begins reading. A Read blocked on the terminal cannot be interrupted; the
// goroutine exits on the next input after ctx is done.
func (in *Input) Start(ctx context.Context) {
	go func() {
		defer close(in.keys)
		buf := make([]byte, 256)
		for {
			n, err := in.r.Read(buf)
			if n > 0 {
				data := append([]byte(nil), buf[:n]...)
				if pw := in.current(); pw != nil {
					_, _ = pw.Write(data)
				} else {
					select {
					case in.keys <- data:
					case <-ctx.Done():
						return
					}
				}
			}
			if err != nil || ctx.Err() != nil {
				return
			}
		}
	}()
}

func (in *Input) current() *io.PipeWriter {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.attached
}

// Attach diverts input to the returned reader until Detach.
func (in *Input) Attach() io.Reader {
	pr, pw := io.Pipe()
	in.mu.Lock()
	in.attached = pw
	in.mu.Unlock()
	return pr
}

// Detach returns input to the key channel.
func (in *Input) Detach() {
	in.mu.Lock()
	pw := in.attached
	in.attached = nil
	in.mu.Unlock()
	if pw != nil {
		_ = pw.Close()
	}
}
