package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors updated while presenting.
type Metrics struct {
	SnippetExecutions *prometheus.CounterVec
	SnippetDuration   *prometheus.HistogramVec
	RenderJobs        prometheus.Counter
	RenderCacheHits   prometheus.Counter
	DeckReloads       *prometheus.CounterVec
	NotesEvents       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SnippetExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podium_snippet_executions_total",
				Help: "Snippet executions by mode and result.",
			},
			[]string{"mode", "result"},
		),
		SnippetDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "podium_snippet_duration_seconds",
				Help:    "Snippet execution time by language.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"language"},
		),
		RenderJobs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podium_render_jobs_total",
			Help: "Render jobs started by the render pool.",
		}),
		RenderCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "podium_render_cache_hits_total",
			Help: "Render requests served from the cache or joined to an in-flight job.",
		}),
		DeckReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podium_deck_reloads_total",
				Help: "Deck reloads by result.",
			},
			[]string{"result"},
		),
		NotesEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podium_notes_events_total",
				Help: "Speaker notes events by direction and outcome.",
			},
			[]string{"direction", "outcome"},
		),
	}
	reg.MustRegister(m.SnippetExecutions, m.SnippetDuration, m.RenderJobs, m.RenderCacheHits, m.DeckReloads, m.NotesEvents)
	return m
}

// SnippetFinished records one execution.
func (m *Metrics) SnippetFinished(mode, language, result string, seconds float64) {
	if m == nil {
		return
	}
	m.SnippetExecutions.WithLabelValues(mode, result).Inc()
	m.SnippetDuration.WithLabelValues(language).Observe(seconds)
}

// RenderJobStarted records a render job leaving the queue.
func (m *Metrics) RenderJobStarted() {
	if m == nil {
		return
	}
	m.RenderJobs.Inc()
}

// RenderCacheHit records a request that did not start a job.
func (m *Metrics) RenderCacheHit() {
	if m == nil {
		return
	}
	m.RenderCacheHits.Inc()
}

// Reloaded records a reload attempt.
func (m *Metrics) Reloaded(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.DeckReloads.WithLabelValues(result).Inc()
}

// NotesEvent records a published or received speaker notes event.
func (m *Metrics) NotesEvent(direction, outcome string) {
	if m == nil {
		return
	}
	m.NotesEvents.WithLabelValues(direction, outcome).Inc()
}
