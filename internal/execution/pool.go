package execution

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/observability"
)

// Renderer turns a render request into an image.
type Renderer interface {
	Render(ctx context.Context, req domain.RenderRequest) (image.Image, error)
}

// RenderPool runs render requests on a fixed number of workers. Results are cached by
// request key and identical in-flight requests share one job.
type RenderPool struct {
	renderer Renderer
	logger   *slog.Logger
	metrics  *observability.Metrics
	notify   func(key string)

	mu      sync.Mutex
	results map[string]*renderResult

	queue  chan *renderResult
	jobs   atomic.Int64
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// renderResult is one job. A retry gets a new one.
type renderResult struct {
	key  string
	req  domain.RenderRequest
	once sync.Once
	done chan struct{}
	img  image.Image
	err  error
}

func (r *renderResult) finish(img image.Image, err error) {
	r.once.Do(func() {
		r.img, r.err = img, err
		close(r.done)
	})
}

// PoolOption configures the pool.
type PoolOption func(*RenderPool)

// WithPoolLogger sets the pool logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *RenderPool) {
		p.logger = logger
	}
}

// WithPoolMetrics records jobs and cache hits on m.
func WithPoolMetrics(m *observability.Metrics) PoolOption {
	return func(p *RenderPool) {
		p.metrics = m
	}
}

// NewRenderPool starts threads workers (at least one).
func NewRenderPool(renderer Renderer, threads int, opts ...PoolOption) *RenderPool {
	if threads < 1 {
		threads = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &RenderPool{
		renderer: renderer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		notify:   func(string) {},
		results:  make(map[string]*renderResult),
		queue:    make(chan *renderResult, 1024),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < threads; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues req unless an identical request is cached or in flight, and returns its key.
// Failed results are retried on the next submission. After Close the job fails at once.
func (p *RenderPool) Submit(req domain.RenderRequest) string {
	key := req.Key()

	p.mu.Lock()
	if r, ok := p.results[key]; ok && !failed(r) {
		p.mu.Unlock()
		p.metrics.RenderCacheHit()
		return key
	}
	r := &renderResult{key: key, req: req, done: make(chan struct{})}
	p.results[key] = r
	p.mu.Unlock()

	if err := p.ctx.Err(); err != nil {
		r.finish(nil, err)
		return key
	}
	select {
	case p.queue <- r:
	case <-p.ctx.Done():
		r.finish(nil, p.ctx.Err())
	}
	return key
}

func failed(r *renderResult) bool {
	select {
	case <-r.done:
		return r.err != nil
	default:
		return false
	}
}

// Result returns the rendered image for key and whether the job finished.
func (p *RenderPool) Result(key string) (image.Image, bool, error) {
	p.mu.Lock()
	r, ok := p.results[key]
	p.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	select {
	case <-r.done:
		return r.img, true, r.err
	default:
		return nil, false, nil
	}
}

// Wait blocks until the job for key finishes.
func (p *RenderPool) Wait(ctx context.Context, key string) (image.Image, error) {
	p.mu.Lock()
	r, ok := p.results[key]
	p.mu.Unlock()
	if !ok {
		return nil, domain.ErrUnknownSnippet
	}
	select {
	case <-r.done:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Jobs returns the number of jobs started so far.
func (p *RenderPool) Jobs() int64 {
	return p.jobs.Load()
}

// Close stops the workers. Queued jobs are abandoned.
func (p *RenderPool) Close() {
	p.cancel()
	p.wg.Wait()
}

func (p *RenderPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case r := <-p.queue:
			p.run(r)
		}
	}
}

func (p *RenderPool) run(r *renderResult) {
	p.jobs.Add(1)
	p.metrics.RenderJobStarted()
	img, err := p.renderer.Render(p.ctx, r.req)
	if err != nil {
		p.logger.Debug("render job failed", "kind", r.req.Kind, "err", err)
	}
	r.finish(img, err)

	p.mu.Lock()
	notify := p.notify
	p.mu.Unlock()
	notify(r.key)
}

// OnResult sets the callback invoked with the key of every finished job.
func (p *RenderPool) OnResult(fn func(key string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = fn
}
