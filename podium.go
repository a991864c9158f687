package podium

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/podium/internal/compiler"
	"github.com/aretw0/podium/internal/execution"
	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/runtime"
	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/adapters/process"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/observability"
)

// Version is the release of this build.
//
//go:embed VERSION
var Version string

// Presenter is the high-level entry point: it compiles one deck, runs its snippets and
// renders it. It wraps the compiler, the execution engine and the renderer.
type Presenter struct {
	path      string
	themeName string
	themeFile string
	options   domain.Options
	custom    map[string]process.ExecutorSpec

	execEnabled        bool
	execReplaceEnabled bool
	threads            int
	renderer           execution.CommandRenderer
	margin             int

	logger  *slog.Logger
	metrics *observability.Metrics

	executors *process.Registry
	compiler  *compiler.Compiler
	engine    *execution.Engine
	pool      *execution.RenderPool
	theme     *theme.Theme
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Presenter) {
		p.logger = logger
	}
}

// WithTheme selects a built-in theme used when the deck names none.
func WithTheme(name string) Option {
	return func(p *Presenter) {
		p.themeName = name
	}
}

// WithThemeFile loads the base theme from a YAML file instead.
func WithThemeFile(path string) Option {
	return func(p *Presenter) {
		p.themeFile = path
	}
}

// WithOptions sets the deck options; front matter still overrides them.
func WithOptions(opts domain.Options) Option {
	return func(p *Presenter) {
		p.options = opts
	}
}

// WithExecution enables snippets run on request (exec) and on load (replace).
func WithExecution(exec, replace bool) Option {
	return func(p *Presenter) {
		p.execEnabled = exec
		p.execReplaceEnabled = replace
	}
}

// WithExecutors adds or overrides executors by language.
func WithExecutors(custom map[string]process.ExecutorSpec) Option {
	return func(p *Presenter) {
		p.custom = custom
	}
}

// WithRenderThreads sets the number of render workers.
func WithRenderThreads(n int) Option {
	return func(p *Presenter) {
		p.threads = n
	}
}

// WithRenderer configures the external diagram and formula tools.
func WithRenderer(r execution.CommandRenderer) Option {
	return func(p *Presenter) {
		p.renderer = r
	}
}

// WithMargin sets the horizontal margin of rendered slides.
func WithMargin(cols int) Option {
	return func(p *Presenter) {
		p.margin = cols
	}
}

// WithMetrics records executions, render jobs and reloads on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Presenter) {
		p.metrics = m
	}
}

// New prepares a presenter for the deck at path. Nothing is compiled until Load.
func New(path string, opts ...Option) (*Presenter, error) {
	if path == "" {
		return nil, fmt.Errorf("presentation path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	p := &Presenter{
		path:      abs,
		themeName: "dark",
		options:   domain.DefaultOptions(),
		threads:   2,
		margin:    2,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p.logger = p.logger.With("deck", filepath.Base(abs))

	if p.themeFile != "" {
		p.theme, err = theme.LoadFile(p.themeFile)
	} else {
		p.theme, err = theme.Builtin(p.themeName)
	}
	if err != nil {
		return nil, err
	}

	p.executors, err = process.NewRegistry(p.custom)
	if err != nil {
		return nil, err
	}
	p.compiler, err = compiler.New(compiler.Context{
		Theme:              p.theme,
		Options:            p.options,
		Executors:          p.executors,
		ExecEnabled:        p.execEnabled,
		ExecReplaceEnabled: p.execReplaceEnabled,
		Logger:             p.logger,
	})
	if err != nil {
		return nil, err
	}

	p.pool = execution.NewRenderPool(p.renderer, p.threads,
		execution.WithPoolLogger(p.logger),
		execution.WithPoolMetrics(p.metrics),
	)
	p.engine = execution.NewEngine(
		process.NewRunner(process.WithBaseDir(filepath.Dir(abs)), process.WithLogger(p.logger)),
		p.executors,
		execution.WithLogger(p.logger),
		execution.WithMetrics(p.metrics),
		execution.WithRenderPool(p.pool),
		execution.WithOutputStyle(p.theme.Style(theme.ExecutionOutput)),
	)
	return p, nil
}

// Path returns the absolute path of the deck.
func (p *Presenter) Path() string {
	return p.path
}

// Compile builds the deck without touching running snippets. Reloads compile first and
// only Load a deck that compiled.
func (p *Presenter) Compile(ctx context.Context) (*domain.Presentation, error) {
	return p.compiler.CompileFile(ctx, p.path)
}

// Load makes deck the active one: its snippets are registered, automatic ones start and
// render jobs are submitted.
func (p *Presenter) Load(deck *domain.Presentation) {
	p.engine.Load(deck)
}

// Open compiles and loads the deck.
func (p *Presenter) Open(ctx context.Context) (*domain.Presentation, error) {
	deck, err := p.Compile(ctx)
	if err != nil {
		return nil, err
	}
	p.Load(deck)
	return deck, nil
}

// Renderer returns a renderer using the theme deck was compiled with.
func (p *Presenter) Renderer(deck *domain.Presentation) *render.Engine {
	th, err := p.compiler.Theme(deck)
	if err != nil {
		p.logger.Warn("falling back to the base theme", "err", err)
		th = p.theme
	}
	return render.NewEngine(th,
		render.WithResolver(p.engine),
		render.WithMargin(p.margin),
		render.WithLogger(p.logger),
	)
}

// Navigator creates a cursor over deck.
func (p *Presenter) Navigator(deck *domain.Presentation, opts ...runtime.Option) *runtime.Navigator {
	opts = append([]runtime.Option{runtime.WithLogger(p.logger)}, opts...)
	return runtime.NewNavigator(deck, opts...)
}

// Execution returns the snippet execution engine.
func (p *Presenter) Execution() *execution.Engine {
	return p.engine
}

// Validate runs the validation snippets of the loaded deck, or every executable snippet
// when all is set. execution.Failed picks the failures.
func (p *Presenter) Validate(ctx context.Context, all bool) []execution.ValidationResult {
	return p.engine.Validate(ctx, all)
}

// Settle waits until the render jobs and automatic snippets of deck finished. Exports call
// it so their output shows results instead of placeholders.
func (p *Presenter) Settle(ctx context.Context, deck *domain.Presentation) error {
	for _, r := range deck.Renders {
		if _, err := p.pool.Wait(ctx, r.Key()); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if p.settled(deck) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Presenter) settled(deck *domain.Presentation) bool {
	for _, s := range deck.Snippets {
		if !s.Mode.Automatic() || s.Disabled {
			continue
		}
		st, ok := p.engine.Snapshot(s.ID)
		if ok && (st.Status == domain.StatusNotStarted || st.Status == domain.StatusRunning) {
			return false
		}
	}
	return true
}

// Close stops running snippets and render workers.
func (p *Presenter) Close() {
	p.engine.Close()
}
