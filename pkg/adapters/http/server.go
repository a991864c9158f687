// Package http serves a deck to browsers. Pages follow the presenter through server-sent
// events.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/pkg/domain"
)

// Deck is the presentation being served. Implementations must be safe for concurrent use
// since the deck may be reloaded while requests run.
type Deck interface {
	Presentation() *domain.Presentation
	// SlideHTML renders slide i with every chunk visible.
	SlideHTML(i int) (string, error)
	// WriteHTML writes the whole deck as one document.
	WriteHTML(w io.Writer) error
}

// Server routes requests to the deck.
type Server struct {
	Deck    Deck
	Streams *StreamManager
	logger  *slog.Logger
	gather  prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gather = g
	}
}

// WithStreams shares a stream manager so callers can broadcast cursor moves.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates the HTTP handler for deck.
func NewHandler(deck Deck, opts ...Option) http.Handler {
	s := &Server{
		Deck:   deck,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/slides/1", http.StatusFound)
	})
	r.Get("/slides/{n}", s.GetSlide)
	r.Get("/deck", s.GetDeck)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gather != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var slidePage = template.Must(template.New("slide").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>{{.Title}} ({{.Current}}/{{.Total}})</title>
<style>
body { background-color: #000; margin: 0; }
.container { position: relative; font-size: 10px; line-height: 12px; }
.content-line { height: 12px; }
.content-line pre { margin: 0; font-family: monospace; }
</style>
</head>
<body>
{{.Slide}}
<script>
const total = {{.Total}};
let current = {{.Current}};
const go = (n) => { if (n >= 1 && n <= total && n !== current) { window.location.href = "/slides/" + n; } };
document.addEventListener("keydown", (e) => {
  if (e.key === "ArrowRight" || e.key === " ") go(current + 1);
  if (e.key === "ArrowLeft") go(current - 1);
});
const events = new EventSource("/events");
events.onmessage = (e) => {
  const ev = JSON.parse(e.data);
  if (ev.command === "go_to") go(ev.slide + 1);
  if (ev.command === "reload") window.location.reload();
};
</script>
</body>
</html>
`))

// GetSlide handles GET /slides/{n}; n is 1-based.
func (s *Server) GetSlide(w http.ResponseWriter, r *http.Request) {
	p := s.Deck.Presentation()
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 || n > len(p.Slides) {
		http.Error(w, fmt.Sprintf("slide not found: deck has %d slides", len(p.Slides)), http.StatusNotFound)
		return
	}
	slide, err := s.Deck.SlideHTML(n - 1)
	if err != nil {
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusInternalServerError)
		s.logger.Error("slide render failed", "slide", n, "err", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = slidePage.Execute(w, map[string]any{
		"Title":   p.Metadata.Title,
		"Current": n,
		"Total":   len(p.Slides),
		"Slide":   template.HTML(slide),
	})
	if err != nil {
		s.logger.Error("slide page write failed", "err", err)
	}
}

// GetDeck handles GET /deck.
func (s *Server) GetDeck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Deck.WriteHTML(w); err != nil {
		s.logger.Error("deck export failed", "err", err)
	}
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	p := s.Deck.Presentation()
	resp := map[string]any{
		"app":     "podium",
		"version": strings.TrimSpace(podium.Version),
		"title":   p.Metadata.Title,
		"slides":  len(p.Slides),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// StreamManager fans messages out to the connected event streams.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a stream. The returned function unregisters it and closes the
// channel.
func (sm *StreamManager) Subscribe() (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}
	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast sends msg to every stream. Slow streams drop messages.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("event stream buffer full, dropping message")
		}
	}
}

// Publish broadcasts a notes event. It implements ports.NotesPublisher so a presenting
// session can drive browsers the same way it drives notes viewers.
func (sm *StreamManager) Publish(_ context.Context, ev domain.NotesEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	sm.Broadcast(string(data))
	return nil
}

// Reloaded tells pages to reload the deck.
func (sm *StreamManager) Reloaded() {
	sm.Broadcast(`{"command":"reload"}`)
}

// Close ends every open stream.
func (sm *StreamManager) Close() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ch := range sm.subscribers {
		delete(sm.subscribers, ch)
		close(ch)
	}
	return nil
}

// SubscribeEvents handles GET /events (server-sent events).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("event stream connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
