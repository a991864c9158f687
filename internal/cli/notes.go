package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/aretw0/podium"
	"github.com/aretw0/podium/internal/runtime"
	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/observability"
	"github.com/aretw0/podium/pkg/ports"
)

// NotesViewer follows a presenting instance and shows the speaker notes of its current
// position.
type NotesViewer struct {
	presenter *podium.Presenter
	out       io.Writer
	keys      <-chan []byte
	style     string
	width     int
	logger    *slog.Logger
	metrics   *observability.Metrics

	nav     *runtime.Navigator
	decoder KeyDecoder
}

// NotesOption configures a NotesViewer.
type NotesOption func(*NotesViewer)

// WithNotesStyle selects a glamour style ("dark", "light", "notty"); empty detects it from
// the terminal background.
func WithNotesStyle(style string) NotesOption {
	return func(v *NotesViewer) {
		v.style = style
	}
}

// WithNotesWidth sets the word wrap width.
func WithNotesWidth(cols int) NotesOption {
	return func(v *NotesViewer) {
		v.width = cols
	}
}

// WithNotesLogger sets the viewer logger.
func WithNotesLogger(logger *slog.Logger) NotesOption {
	return func(v *NotesViewer) {
		v.logger = logger
	}
}

// WithNotesMetrics records received events.
func WithNotesMetrics(m *observability.Metrics) NotesOption {
	return func(v *NotesViewer) {
		v.metrics = m
	}
}

// NewNotesViewer creates a viewer writing to out. keys may be nil when the viewer is not
// interactive.
func NewNotesViewer(p *podium.Presenter, out io.Writer, keys <-chan []byte, opts ...NotesOption) *NotesViewer {
	v := &NotesViewer{
		presenter: p,
		out:       out,
		keys:      keys,
		width:     80,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Run compiles the deck and shows its notes, moving whenever sub delivers an event. It
// returns when the presenter exits, the user quits or ctx is done. Snippets are never run.
func (v *NotesViewer) Run(ctx context.Context, sub ports.NotesSubscriber) error {
	deck, err := v.presenter.Compile(ctx)
	if err != nil {
		return err
	}
	v.nav = v.presenter.Navigator(deck)

	render, err := v.renderer()
	if err != nil {
		return err
	}
	v.draw(render)

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-v.keys:
			if !ok {
				return nil
			}
			for _, ev := range v.decoder.Feed(data) {
				switch ev.Action {
				case ActionExit:
					return nil
				case ActionReload:
					if deck, err := v.presenter.Compile(ctx); err == nil {
						v.nav.Reload(deck)
					} else {
						v.logger.Warn("reload failed", "err", err)
					}
					v.draw(render)
				}
			}
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			v.metrics.NotesEvent("listen", "accepted")
			if ev.Command == domain.NotesExit {
				return nil
			}
			v.nav.GoToSlide(ev.Slide)
			v.nav.JumpChunk(ev.Chunk)
			v.draw(render)
		}
	}
}

// Cursor returns the position being shown.
func (v *NotesViewer) Cursor() domain.Cursor {
	if v.nav == nil {
		return domain.Cursor{}
	}
	return v.nav.Cursor()
}

func (v *NotesViewer) renderer() (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(v.width)}
	if v.style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(v.style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create notes renderer: %w", err)
	}
	return r, nil
}

func (v *NotesViewer) draw(r *glamour.TermRenderer) {
	c := v.nav.Cursor()
	deck := v.nav.Deck()
	notes := v.nav.Notes()
	if notes == "" {
		notes = "_no notes_"
	}
	body, err := r.Render(notes)
	if err != nil {
		v.logger.Warn("failed to render notes", "err", err)
		body = notes
	}

	o := termenv.NewOutput(v.out)
	o.ClearScreen()
	header := fmt.Sprintf("slide %d/%d", c.Slide+1, len(deck.Slides))
	if title := v.nav.Slide().Title; title != "" {
		header += " · " + title
	}
	text := o.String(header).Bold().String() + "\n" + body
	// raw mode does not translate line feeds
	fmt.Fprint(v.out, strings.ReplaceAll(text, "\n", "\r\n"))
}
