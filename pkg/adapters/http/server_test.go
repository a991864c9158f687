package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/pkg/domain"
)

type fakeDeck struct {
	p *domain.Presentation
}

func (f *fakeDeck) Presentation() *domain.Presentation { return f.p }

func (f *fakeDeck) SlideHTML(i int) (string, error) {
	return fmt.Sprintf("<div>slide %d</div>", i+1), nil
}

func (f *fakeDeck) WriteHTML(w io.Writer) error {
	_, err := io.WriteString(w, "<html>deck</html>")
	return err
}

func newDeck() *fakeDeck {
	return &fakeDeck{p: &domain.Presentation{
		Metadata: domain.Metadata{Title: "Talk"},
		Slides:   []domain.Slide{{}, {}},
	}}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	rr := get(t, NewHandler(newDeck()), "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	rr := get(t, NewHandler(newDeck()), "/info")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "podium", resp["app"])
	assert.Equal(t, "Talk", resp["title"])
	assert.Equal(t, 2.0, resp["slides"])
}

func TestRootRedirects(t *testing.T) {
	rr := get(t, NewHandler(newDeck()), "/")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/slides/1", rr.Header().Get("Location"))
}

func TestGetSlide(t *testing.T) {
	h := NewHandler(newDeck())

	rr := get(t, h, "/slides/2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<div>slide 2</div>")
	assert.Contains(t, rr.Body.String(), "Talk (2/2)")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/slides/3").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/slides/0").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/slides/x").Code)
}

func TestGetDeck(t *testing.T) {
	rr := get(t, NewHandler(newDeck()), "/deck")
	assert.Equal(t, "<html>deck</html>", rr.Body.String())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "podium_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	rr := get(t, NewHandler(newDeck(), WithMetrics(reg)), "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "podium_test_total 1")

	assert.Equal(t, http.StatusNotFound, get(t, NewHandler(newDeck()), "/metrics").Code)
}

func TestSubscribeEvents(t *testing.T) {
	streams := NewStreamManager(nil)
	h := NewHandler(newDeck(), WithStreams(streams))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rr, req)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond) // wait for the stream to register
	require.NoError(t, streams.Publish(ctx, domain.NotesEvent{Presentation: "/deck.md", Command: domain.NotesGoTo, Slide: 1}))
	streams.Reloaded()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	out := rr.Body.String()
	assert.Contains(t, out, "event: ping")
	assert.Contains(t, out, `"command":"go_to"`)
	assert.Contains(t, out, `"slide":1`)
	assert.True(t, strings.Contains(out, `data: {"command":"reload"}`))
}

func TestStreamManager_Close(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe()
	require.NoError(t, sm.Close())

	_, ok := <-ch
	assert.False(t, ok)
	// unsubscribing after Close must not close the channel twice
	assert.NotPanics(t, cancel)
}
