package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/execution"
	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/runtime"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/observability"
	"github.com/aretw0/podium/pkg/ports"
)

// Session is the presenting loop: it owns the deck, the cursor and the surface and reacts
// to keys, execution updates, reloads and cancellation.
type Session struct {
	presenter *podium.Presenter
	surface   ports.Surface
	term      *Terminal
	keys      <-chan []byte
	watcher   *Watcher
	publisher ports.NotesPublisher
	validate  bool
	all       bool
	bindings  *KeyBindings
	logger    *slog.Logger
	metrics   *observability.Metrics

	deck     *domain.Presentation
	nav      *runtime.Navigator
	renderer *render.Engine
	decoder  KeyDecoder
	failure  *failure
	modal    modalKind
}

// failure is an error screen shown instead of the deck.
type failure struct {
	title   string
	message string
	// dismissible screens go away on the next key; the others wait for a good reload
	dismissible bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTerminal lets acquire-terminal snippets and suspend borrow the terminal.
func WithTerminal(t *Terminal) SessionOption {
	return func(s *Session) {
		s.term = t
	}
}

// WithWatcher reloads the deck whenever w signals.
func WithWatcher(w *Watcher) SessionOption {
	return func(s *Session) {
		s.watcher = w
	}
}

// WithPublisher sends every cursor move to speaker notes viewers.
func WithPublisher(p ports.NotesPublisher) SessionOption {
	return func(s *Session) {
		s.publisher = p
	}
}

// WithValidation runs validation snippets on load and reload; all extends it to every
// executable snippet.
func WithValidation(all bool) SessionOption {
	return func(s *Session) {
		s.validate = true
		s.all = all
	}
}

// WithKeyBindings replaces the default key bindings.
func WithKeyBindings(kb *KeyBindings) SessionOption {
	return func(s *Session) {
		s.bindings = kb
	}
}

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithSessionMetrics records reloads and notes events.
func WithSessionMetrics(m *observability.Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession creates a session drawing on surface and reading raw input from keys.
func NewSession(p *podium.Presenter, surface ports.Surface, keys <-chan []byte, opts ...SessionOption) *Session {
	s := &Session{
		presenter: p,
		surface:   surface,
		keys:      keys,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bindings == nil {
		s.bindings = DefaultKeyBindings()
	}
	s.decoder = NewKeyDecoder(s.bindings)
	return s
}

// Cursor returns the current position.
func (s *Session) Cursor() domain.Cursor {
	if s.nav == nil {
		return domain.Cursor{}
	}
	return s.nav.Cursor()
}

// Run loads the deck and presents it until the user exits, the keys channel closes or ctx
// is done. Errors loading the first deck are returned before anything is drawn. The slide
// is redrawn whenever the terminal is resized.
func (s *Session) Run(ctx context.Context) error {
	deck, err := s.presenter.Open(ctx)
	if err != nil {
		return err
	}
	s.deck = deck
	s.nav = s.presenter.Navigator(deck, runtime.WithHooks(domain.NavigationHooks{
		OnChange: func(c domain.Cursor) { s.publish(ctx, domain.NotesGoTo, c) },
		OnReload: func(_ *domain.Presentation, c domain.Cursor) { s.publish(ctx, domain.NotesGoTo, c) },
	}))
	s.renderer = s.presenter.Renderer(deck)
	s.runValidation(ctx)

	var reloads <-chan struct{}
	if s.watcher != nil {
		if err := s.watcher.SetFiles(deck.Sources); err != nil {
			s.logger.Warn("failed to watch deck sources", "err", err)
		}
		if reloads, err = s.watcher.Watch(ctx); err != nil {
			s.logger.Warn("hot reload disabled", "err", err)
		}
	}

	resized, stop := resizes()
	defer stop()

	s.publish(ctx, domain.NotesGoTo, s.nav.Cursor())
	defer s.publish(context.WithoutCancel(ctx), domain.NotesExit, domain.Cursor{})
	s.draw()

	updates := s.presenter.Execution().Updates()
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-s.keys:
			if !ok {
				return nil
			}
			for _, ev := range s.decoder.Feed(data) {
				if !s.apply(ctx, ev) {
					return nil
				}
			}
		case <-updates:
			s.draw()
		case <-resized:
			s.draw()
		case _, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			s.reload(ctx)
		}
	}
}

// apply handles one action and reports whether the session keeps running.
func (s *Session) apply(ctx context.Context, ev KeyEvent) bool {
	switch ev.Action {
	case ActionExit:
		return false
	case ActionReload:
		s.reload(ctx)
		return true
	case ActionSuspend:
		if s.term != nil {
			if err := s.term.Suspend(); err != nil {
				s.logger.Warn("suspend failed", "err", err)
			}
		}
		s.draw()
		return true
	}
	if s.failure != nil {
		if s.failure.dismissible {
			s.failure = nil
			s.draw()
		}
		return true
	}

	switch ev.Action {
	case ActionToggleIndex:
		s.toggle(modalIndex)
		return true
	case ActionToggleBindings:
		s.toggle(modalBindings)
		return true
	case ActionCloseModal:
		if s.modal != modalNone {
			s.modal = modalNone
			s.draw()
		}
		return true
	}

	moved := false
	switch ev.Action {
	case ActionNext:
		moved = s.nav.Next()
	case ActionPrevious:
		moved = s.nav.Previous()
	case ActionNextFast:
		moved = s.nav.NextFast()
	case ActionPreviousFast:
		moved = s.nav.PreviousFast()
	case ActionFirst:
		moved = s.nav.First()
	case ActionLast:
		moved = s.nav.Last()
	case ActionGoTo:
		moved = s.nav.GoToSlide(ev.Slide - 1)
	case ActionExecute:
		s.execute(ctx)
		moved = true
	case ActionRedraw:
		moved = true
	}
	if moved {
		s.draw()
	}
	return true
}

// execute runs the first visible snippet that has not run yet, or re-runs the last
// visible one.
func (s *Session) execute(ctx context.Context) {
	engine := s.presenter.Execution()
	var target string
	for _, op := range s.nav.VisibleOperations() {
		out, ok := op.(domain.DrawExecutionOutput)
		if !ok {
			continue
		}
		st, ok := engine.Snapshot(out.SnippetID)
		if !ok || st.Mode.Automatic() || st.Mode == domain.ModeValidate {
			continue
		}
		target = out.SnippetID
		if st.Status == domain.StatusNotStarted {
			break
		}
	}
	if target == "" {
		return
	}

	st, _ := engine.Snapshot(target)
	if st.Mode == domain.ModeAcquireTerminal {
		if s.term == nil {
			s.logger.Warn("snippet needs a terminal", "id", target)
			return
		}
		if err := engine.Acquire(ctx, target, s.term); err != nil {
			s.logger.Warn("snippet failed", "id", target, "err", err)
		}
		return
	}
	if err := engine.Trigger(ctx, target); err != nil {
		s.logger.Warn("failed to start snippet", "id", target, "err", err)
	}
}

// reload recompiles the deck. A deck that fails to compile leaves the previous one in
// place behind an error screen.
func (s *Session) reload(ctx context.Context) {
	deck, err := s.presenter.Compile(ctx)
	if err != nil {
		s.metrics.Reloaded(false)
		s.logger.Error("reload failed", "err", err)
		s.failure = &failure{title: "failed to reload the presentation", message: err.Error()}
		s.draw()
		return
	}
	s.metrics.Reloaded(true)
	s.failure = nil
	s.presenter.Load(deck)
	s.deck = deck
	s.renderer = s.presenter.Renderer(deck)
	s.nav.Reload(deck)
	if s.watcher != nil {
		if err := s.watcher.SetFiles(deck.Sources); err != nil {
			s.logger.Warn("failed to watch deck sources", "err", err)
		}
	}
	s.runValidation(ctx)
	s.draw()
}

func (s *Session) runValidation(ctx context.Context) {
	if !s.validate {
		return
	}
	failed := execution.Failed(s.presenter.Validate(ctx, s.all))
	if len(failed) == 0 {
		return
	}
	var b strings.Builder
	for _, r := range failed {
		fmt.Fprintf(&b, "%s (line %d): %s\n", r.ID, r.Line, describe(r))
		s.logger.Warn("snippet validation failed", "id", r.ID, "line", r.Line, "exit_code", r.ExitCode, "err", r.Err)
	}
	s.failure = &failure{
		title:       fmt.Sprintf("%d snippet(s) failed validation", len(failed)),
		message:     b.String(),
		dismissible: true,
	}
}

// describe explains why a validation result failed.
func describe(r execution.ValidationResult) string {
	switch {
	case r.Err != "":
		return r.Err
	case r.Expect == domain.ExpectFailure:
		return "expected failure but exited with 0"
	default:
		return fmt.Sprintf("exited with code %d", r.ExitCode)
	}
}

func (s *Session) publish(ctx context.Context, cmd domain.NotesCommand, c domain.Cursor) {
	if s.publisher == nil {
		return
	}
	ev := domain.NotesEvent{
		Presentation: s.presenter.Path(),
		Command:      cmd,
		Slide:        c.Slide,
		Chunk:        c.Chunk,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.NotesEvent("publish", "error")
		s.logger.Debug("failed to publish notes event", "err", err)
		return
	}
	s.metrics.NotesEvent("publish", "ok")
}

func (s *Session) toggle(kind modalKind) {
	if s.modal == kind {
		s.modal = modalNone
	} else {
		s.modal = kind
	}
	s.draw()
}

func (s *Session) draw() {
	ops := s.nav.VisibleOperations()
	_, rows := s.surface.Size()
	switch {
	case s.failure != nil:
		ops = s.failure.operations()
	case s.modal == modalIndex:
		ops = indexModal(s.deck, s.nav.Cursor().Slide).operations(s.renderer, rows*4/5)
	case s.modal == modalBindings:
		ops = bindingsModal(s.bindings).operations(s.renderer, rows*4/5)
	}
	if err := s.renderer.Render(ops, s.surface); err != nil {
		s.logger.Debug("render reported errors", "err", err)
	}
}

func (f *failure) operations() []domain.RenderOperation {
	title := domain.Style{Fg: "#f38ba8", Bold: true}
	ops := []domain.RenderOperation{
		domain.ClearScreen{},
		domain.JumpToVerticalMiddle{},
		domain.WriteStyledText{Spans: domain.Line{{Text: f.title, Style: title}}, Alignment: domain.AlignCenter},
		domain.NewLine{},
		domain.NewLine{},
	}
	for _, line := range strings.Split(strings.TrimRight(f.message, "\n"), "\n") {
		ops = append(ops,
			domain.WriteStyledText{Spans: domain.Line{{Text: line}}, Alignment: domain.AlignLeft},
			domain.NewLine{},
		)
	}
	if f.dismissible {
		ops = append(ops,
			domain.NewLine{},
			domain.WriteStyledText{Spans: domain.Line{{Text: "press any key to continue", Style: domain.Style{Dim: true}}}, Alignment: domain.AlignCenter},
		)
	}
	return ops
}
