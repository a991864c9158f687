package execution

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/observability"
)

type countingRenderer struct {
	calls   atomic.Int64
	release chan struct{}
	fail    bool
}

func (r *countingRenderer) Render(ctx context.Context, req domain.RenderRequest) (image.Image, error) {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.fail {
		return nil, errors.New("mmdc not found")
	}
	return image.NewRGBA(image.Rect(0, 0, len(req.Source), 1)), nil
}

func TestRenderPool_SingleJobForIdenticalRequests(t *testing.T) {
	renderer := &countingRenderer{release: make(chan struct{})}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	pool := NewRenderPool(renderer, 2, WithPoolMetrics(metrics))
	defer pool.Close()

	req := domain.RenderRequest{Kind: "mermaid", Source: "graph TD; A-->B"}

	var wg sync.WaitGroup
	keys := make([]string, 8)
	for i := range keys {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys[i] = pool.Submit(req)
		}()
	}
	wg.Wait()

	_, ready, _ := pool.Result(keys[0])
	assert.False(t, ready, "pending while the renderer is busy")

	close(renderer.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	img, err := pool.Wait(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, len(req.Source), img.Bounds().Dx())

	// Same request after completion hits the cache.
	assert.Equal(t, keys[0], pool.Submit(req))

	for _, k := range keys {
		assert.Equal(t, keys[0], k)
	}
	assert.Equal(t, int64(1), renderer.calls.Load())
	assert.Equal(t, int64(1), pool.Jobs())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RenderJobs))
	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.RenderCacheHits))
}

func TestRenderPool_FailureIsReportedAndRetried(t *testing.T) {
	renderer := &countingRenderer{fail: true}
	pool := NewRenderPool(renderer, 1)
	defer pool.Close()

	req := domain.RenderRequest{Kind: "mermaid", Source: "x"}
	key := pool.Submit(req)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := pool.Wait(ctx, key)
	assert.ErrorContains(t, err, "mmdc not found")

	_, ready, err := pool.Result(key)
	assert.True(t, ready)
	assert.Error(t, err)

	pool.Submit(req)
	_, _ = pool.Wait(ctx, key)
	assert.Equal(t, int64(2), renderer.calls.Load())
}

func TestEngine_LoadSubmitsRenders(t *testing.T) {
	renderer := &countingRenderer{}
	pool := NewRenderPool(renderer, 2)
	e := NewEngine(&fakeRunner{}, bash, WithRenderPool(pool))
	defer e.Close()

	req := domain.RenderRequest{Kind: "typst", Source: "$x$"}
	e.Load(&domain.Presentation{Renders: []domain.RenderRequest{req, req}})

	deadline := time.After(5 * time.Second)
	for {
		if _, ready, _ := e.RenderResult(req.Key()); ready {
			break
		}
		select {
		case <-e.Updates():
		case <-deadline:
			t.Fatal("render never finished")
		}
	}
	assert.Equal(t, int64(1), renderer.calls.Load())
}

func TestRenderPool_ConcurrentRetryStartsOneJob(t *testing.T) {
	renderer := &countingRenderer{fail: true, release: make(chan struct{}, 1)}
	pool := NewRenderPool(renderer, 4)
	defer pool.Close()

	req := domain.RenderRequest{Kind: "mermaid", Source: "x"}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	renderer.release <- struct{}{}
	key := pool.Submit(req)
	_, err := pool.Wait(ctx, key)
	require.Error(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(req)
		}()
	}
	wg.Wait()

	renderer.release <- struct{}{}
	_, err = pool.Wait(ctx, key)
	assert.ErrorContains(t, err, "mmdc not found")
	assert.Equal(t, int64(2), renderer.calls.Load())
}

func TestRenderPool_SubmitAfterClose(t *testing.T) {
	pool := NewRenderPool(&countingRenderer{}, 1)
	pool.Close()

	key := pool.Submit(domain.RenderRequest{Kind: "mermaid", Source: "x"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := pool.Wait(ctx, key)
	assert.ErrorIs(t, err, context.Canceled)
}
