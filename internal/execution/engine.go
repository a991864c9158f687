// Package execution runs code snippets and out-of-process renderers and keeps their latest
// state in an arena the renderer can read without locks.
package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aretw0/podium/internal/ansi"
	"github.com/aretw0/podium/pkg/adapters/process"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/observability"
)

// Runner executes a snippet through an executor pipeline.
type Runner interface {
	Run(ctx context.Context, spec process.ExecutorSpec, source string, out io.Writer) (int, error)
	RunPty(ctx context.Context, spec process.ExecutorSpec, source string, out io.Writer) (int, error)
	RunAttached(ctx context.Context, spec process.ExecutorSpec, source string, stdin io.Reader, stdout, stderr io.Writer) (int, error)
}

// Executors resolves the executor of a language.
type Executors interface {
	Lookup(language, alternative string) (process.ExecutorSpec, bool)
}

// TerminalReleaser gives the terminal to a child process and takes it back.
type TerminalReleaser interface {
	// Release leaves raw mode and the alternate screen.
	Release() error
	// Restore re-enters presentation mode once the child exits.
	Restore() error
	// Stdio returns the streams handed to the child.
	Stdio() (io.Reader, io.Writer, io.Writer)
}

// Engine owns the execution arena. Each entry has a single writer at a time (the goroutine
// running it) and any number of lock-free readers.
type Engine struct {
	runner    Runner
	executors Executors
	pool      *RenderPool
	logger    *slog.Logger
	metrics   *observability.Metrics
	style     domain.Style

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	updates   chan string
	acquiring atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type entry struct {
	state atomic.Pointer[domain.ExecutionState]
	run   sync.Mutex
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records executions on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithOutputStyle sets the base style of decoded output lines.
func WithOutputStyle(s domain.Style) Option {
	return func(e *Engine) {
		e.style = s
	}
}

// WithRenderPool attaches the pool used for render requests of loaded decks.
func WithRenderPool(p *RenderPool) Option {
	return func(e *Engine) {
		e.pool = p
	}
}

// NewEngine creates an engine. Close releases its goroutines.
func NewEngine(runner Runner, executors Executors, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		runner:    runner,
		executors: executors,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		entries:   make(map[string]*entry),
		updates:   make(chan string, 128),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.pool != nil {
		e.pool.OnResult(e.notify)
	}
	return e
}

// Updates yields the id of every snippet or render key whose state changed.
func (e *Engine) Updates() <-chan string {
	return e.updates
}

// Load resets the arena to the snippets of deck, starts automatic snippets and submits its
// render requests. Entries whose snippet did not change keep their last state; results
// still arriving for dropped entries are discarded.
func (e *Engine) Load(deck *domain.Presentation) {
	e.mu.Lock()
	old := e.entries
	e.entries = make(map[string]*entry, len(deck.Snippets))
	e.order = e.order[:0]
	for _, s := range deck.Snippets {
		if prev, ok := old[s.ID]; ok && sameSnippet(*prev.state.Load(), s) {
			e.entries[s.ID] = prev
			e.order = append(e.order, s.ID)
			continue
		}
		e.registerLocked(s)
	}
	e.mu.Unlock()

	e.StartAuto(e.ctx)
	if e.pool != nil {
		for _, r := range deck.Renders {
			e.pool.Submit(r)
		}
	}
}

func sameSnippet(a, b domain.ExecutionState) bool {
	return a.Language == b.Language && a.Alternative == b.Alternative && a.Source == b.Source &&
		a.Mode == b.Mode && a.Disabled == b.Disabled && a.Expect == b.Expect
}

// Register adds a snippet in the NotStarted state, replacing any entry with the same id.
func (e *Engine) Register(s domain.ExecutionState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registerLocked(s)
}

func (e *Engine) registerLocked(s domain.ExecutionState) {
	s.Status = domain.StatusNotStarted
	ent := &entry{}
	ent.state.Store(&s)
	if _, exists := e.entries[s.ID]; !exists {
		e.order = append(e.order, s.ID)
	}
	e.entries[s.ID] = ent
}

// Snapshot returns the current state of snippet id.
func (e *Engine) Snapshot(id string) (domain.ExecutionState, bool) {
	ent := e.lookup(id)
	if ent == nil {
		return domain.ExecutionState{}, false
	}
	return *ent.state.Load(), true
}

// RenderResult returns the image rendered for key and whether the job finished.
func (e *Engine) RenderResult(key string) (image.Image, bool, error) {
	if e.pool == nil {
		return nil, true, fmt.Errorf("rendering is not available")
	}
	return e.pool.Result(key)
}

func (e *Engine) lookup(id string) *entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.entries[id]
}

// Trigger starts snippet id in the background. Triggering a snippet again re-runs it and
// replaces its output.
func (e *Engine) Trigger(ctx context.Context, id string) error {
	ent := e.lookup(id)
	if ent == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSnippet, id)
	}
	if ent.state.Load().Mode == domain.ModeAcquireTerminal {
		return fmt.Errorf("snippet %s needs the terminal", id)
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.execute(ctx, id, ent)
	}()
	return nil
}

// Run executes snippet id synchronously and returns its final state.
func (e *Engine) Run(ctx context.Context, id string) (domain.ExecutionState, error) {
	ent := e.lookup(id)
	if ent == nil {
		return domain.ExecutionState{}, fmt.Errorf("%w: %s", domain.ErrUnknownSnippet, id)
	}
	e.execute(ctx, id, ent)
	return *ent.state.Load(), nil
}

// StartAuto starts every automatic snippet that has not run yet.
func (e *Engine) StartAuto(ctx context.Context) {
	e.mu.RLock()
	var pending []string
	for _, id := range e.order {
		s := e.entries[id].state.Load()
		if s.Mode.Automatic() && s.Status == domain.StatusNotStarted && !s.Disabled {
			pending = append(pending, id)
		}
	}
	e.mu.RUnlock()

	for _, id := range pending {
		_ = e.Trigger(ctx, id)
	}
}

func (e *Engine) execute(ctx context.Context, id string, ent *entry) {
	ent.run.Lock()
	defer ent.run.Unlock()

	current := *ent.state.Load()
	if current.Disabled {
		current.Status = domain.StatusFailed
		current.Err = domain.ErrExecutionDisabled.Error()
		e.publish(id, ent, current)
		return
	}

	final := e.runSnapshot(ctx, current, func(s domain.ExecutionState) {
		e.publish(id, ent, s)
	})
	e.publish(id, ent, final)
}

// runSnapshot runs s and returns its final state; progress receives intermediate states.
func (e *Engine) runSnapshot(ctx context.Context, s domain.ExecutionState, progress func(domain.ExecutionState)) domain.ExecutionState {
	spec, ok := e.executors.Lookup(s.Language, s.Alternative)
	if !ok {
		s.Status = domain.StatusFailed
		name := s.Language
		if s.Alternative != "" {
			name += ":" + s.Alternative
		}
		s.Err = fmt.Sprintf("%v for %q", domain.ErrNoExecutor, name)
		return s
	}

	s.Status = domain.StatusRunning
	s.Runs++
	s.Output, s.Image, s.Err, s.ExitCode = nil, nil, "", 0
	progress(s)

	out := &liveWriter{base: s, style: e.style, progress: progress, live: s.Mode != domain.ModeAutoImage}
	start := time.Now()

	var code int
	var err error
	if s.Mode == domain.ModePty {
		code, err = e.runner.RunPty(ctx, spec, s.Source, out)
	} else {
		code, err = e.runner.Run(ctx, spec, s.Source, out)
	}

	s.Output = ansi.Decode(out.String(), e.style)
	result := "success"
	switch {
	case err != nil:
		s.Status = domain.StatusFailed
		s.Err = err.Error()
		result = "error"
	case s.Mode == domain.ModeAutoImage:
		s.Status = domain.StatusCompleted
		s.ExitCode = code
		if code != 0 {
			// keep the output: it holds the child's stderr
			s.Err = fmt.Sprintf("exited with code %d", code)
			result = "failure"
			break
		}
		s.Output = nil
		img, _, decodeErr := image.Decode(bytes.NewReader(out.Bytes()))
		if decodeErr != nil {
			s.Status = domain.StatusFailed
			s.Err = fmt.Sprintf("output is not an image: %v", decodeErr)
			result = "error"
			break
		}
		s.Image = img
	default:
		s.Status = domain.StatusCompleted
		s.ExitCode = code
		if code != 0 {
			result = "failure"
		}
	}
	e.metrics.SnippetFinished(string(s.Mode), s.Language, result, time.Since(start).Seconds())
	e.logger.Debug("snippet finished", "id", s.ID, "status", s.Status, "exit_code", s.ExitCode)
	return s
}

func (e *Engine) publish(id string, ent *entry, s domain.ExecutionState) {
	ent.state.Store(&s)
	e.notify(id)
}

func (e *Engine) notify(id string) {
	select {
	case e.updates <- id:
	default:
	}
}

// Acquire runs snippet id with the terminal handed to it. It blocks until the child exits
// and the terminal is restored. Only one snippet can hold the terminal.
func (e *Engine) Acquire(ctx context.Context, id string, term TerminalReleaser) error {
	if !e.acquiring.CompareAndSwap(false, true) {
		return domain.ErrTerminalBusy
	}
	defer e.acquiring.Store(false)

	ent := e.lookup(id)
	if ent == nil {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSnippet, id)
	}
	ent.run.Lock()
	defer ent.run.Unlock()

	s := *ent.state.Load()
	if s.Disabled {
		s.Status, s.Err = domain.StatusFailed, domain.ErrExecutionDisabled.Error()
		e.publish(id, ent, s)
		return domain.ErrExecutionDisabled
	}
	spec, ok := e.executors.Lookup(s.Language, s.Alternative)
	if !ok {
		s.Status, s.Err = domain.StatusFailed, fmt.Sprintf("%v for %q", domain.ErrNoExecutor, s.Language)
		e.publish(id, ent, s)
		return &domain.ExecutionError{SnippetID: id, Err: domain.ErrNoExecutor}
	}

	if err := term.Release(); err != nil {
		return fmt.Errorf("failed to release terminal: %w", err)
	}
	s.Status, s.Runs = domain.StatusRunning, s.Runs+1
	ent.state.Store(&s)

	stdin, stdout, stderr := term.Stdio()
	code, runErr := e.runner.RunAttached(ctx, spec, s.Source, stdin, stdout, stderr)
	restoreErr := term.Restore()

	if runErr != nil {
		s.Status, s.Err = domain.StatusFailed, runErr.Error()
	} else {
		s.Status, s.ExitCode, s.Err = domain.StatusCompleted, code, ""
	}
	e.publish(id, ent, s)

	if runErr != nil {
		runErr = &domain.ExecutionError{SnippetID: id, Err: runErr}
	}
	return errors.Join(runErr, restoreErr)
}

// Close stops background work and waits for running snippets to finish.
func (e *Engine) Close() {
	e.cancel()
	if e.pool != nil {
		e.pool.Close()
	}
	e.wg.Wait()
}

// liveWriter collects output and publishes a Running snapshot on every completed line.
type liveWriter struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	base     domain.ExecutionState
	style    domain.Style
	progress func(domain.ExecutionState)
	live     bool
}

func (w *liveWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, _ := w.buf.Write(p)
	if w.live && bytes.IndexByte(p, '\n') >= 0 {
		s := w.base
		s.Output = ansi.Decode(w.buf.String(), w.style)
		w.progress(s)
	}
	return n, nil
}

func (w *liveWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func (w *liveWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return bytes.Clone(w.buf.Bytes())
}
