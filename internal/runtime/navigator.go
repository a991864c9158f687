// Package runtime holds the navigation state machine that moves a cursor over a compiled
// deck.
package runtime

import (
	"io"
	"log/slog"

	"github.com/aretw0/podium/pkg/domain"
)

// Navigator owns the cursor of one deck. It is not safe for concurrent use; the session
// loop is its only caller.
type Navigator struct {
	deck   *domain.Presentation
	cursor domain.Cursor
	hooks  domain.NavigationHooks
	logger *slog.Logger
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithHooks registers navigation callbacks.
func WithHooks(hooks domain.NavigationHooks) Option {
	return func(n *Navigator) {
		n.hooks = hooks
	}
}

// WithLogger sets the navigator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// NewNavigator creates a navigator positioned on the first chunk of deck.
func NewNavigator(deck *domain.Presentation, opts ...Option) *Navigator {
	n := &Navigator{
		deck:   deck,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Deck returns the deck being navigated.
func (n *Navigator) Deck() *domain.Presentation {
	return n.deck
}

// Cursor returns the current position.
func (n *Navigator) Cursor() domain.Cursor {
	return n.cursor
}

// Slide returns the current slide.
func (n *Navigator) Slide() domain.Slide {
	return n.deck.Slides[n.cursor.Slide]
}

// Next moves one chunk forward, crossing into the next slide at its first chunk.
func (n *Navigator) Next() bool {
	c := n.cursor
	switch {
	case c.Chunk+1 < n.deck.ChunkCount(c.Slide):
		c.Chunk++
	case c.Slide+1 < len(n.deck.Slides):
		c = domain.Cursor{Slide: c.Slide + 1}
	default:
		return false
	}
	return n.move(c)
}

// Previous moves one chunk back, crossing into the previous slide at its last chunk.
func (n *Navigator) Previous() bool {
	c := n.cursor
	switch {
	case c.Chunk > 0:
		c.Chunk--
	case c.Slide > 0:
		c = domain.Cursor{Slide: c.Slide - 1, Chunk: n.deck.ChunkCount(c.Slide-1) - 1}
	default:
		return false
	}
	return n.move(c)
}

// NextFast moves to the first chunk of the next slide.
func (n *Navigator) NextFast() bool {
	if n.cursor.Slide+1 >= len(n.deck.Slides) {
		return false
	}
	return n.move(domain.Cursor{Slide: n.cursor.Slide + 1})
}

// PreviousFast moves to the last chunk of the previous slide.
func (n *Navigator) PreviousFast() bool {
	if n.cursor.Slide == 0 {
		return false
	}
	s := n.cursor.Slide - 1
	return n.move(domain.Cursor{Slide: s, Chunk: n.deck.ChunkCount(s) - 1})
}

// GoToSlide moves to the first chunk of slide i, clamped to the deck.
func (n *Navigator) GoToSlide(i int) bool {
	return n.move(domain.Cursor{Slide: clamp(i, 0, len(n.deck.Slides)-1)})
}

// First moves to the first chunk of the deck.
func (n *Navigator) First() bool {
	return n.GoToSlide(0)
}

// Last moves to the first chunk of the last slide.
func (n *Navigator) Last() bool {
	return n.GoToSlide(len(n.deck.Slides) - 1)
}

// JumpChunk moves to chunk i of the current slide, clamped to the slide.
func (n *Navigator) JumpChunk(i int) bool {
	c := n.cursor
	c.Chunk = clamp(i, 0, n.deck.ChunkCount(c.Slide)-1)
	return n.move(c)
}

// Reload replaces the deck and remaps the cursor onto it. The slide index is kept when
// the slide there still has the old title, which covers slides added after the cursor;
// otherwise the old title is looked up; otherwise the index is clamped to the new deck.
func (n *Navigator) Reload(deck *domain.Presentation) {
	old, oldCursor := n.deck, n.cursor
	n.deck = deck

	slide := oldCursor.Slide
	title := ""
	if oldCursor.Slide < len(old.Slides) {
		title = old.Slides[oldCursor.Slide].Title
	}
	if slide >= len(deck.Slides) || deck.Slides[slide].Title != title {
		slide = clamp(slide, 0, len(deck.Slides)-1)
		for i, s := range deck.Slides {
			if title != "" && s.Title == title {
				slide = i
				break
			}
		}
	}
	c := domain.Cursor{Slide: slide, Chunk: clamp(oldCursor.Chunk, 0, deck.ChunkCount(slide)-1)}
	c.Frame = n.frameOf(c)
	n.cursor = c

	n.logger.Debug("deck reloaded", "slides", len(deck.Slides), "slide", c.Slide, "chunk", c.Chunk)
	if n.hooks.OnReload != nil {
		n.hooks.OnReload(deck, c)
	}
}

// VisibleOperations returns the operations of chunks 0..cursor.Chunk of the current
// slide followed by its footer.
func (n *Navigator) VisibleOperations() []domain.RenderOperation {
	return Visible(n.deck, n.cursor)
}

// Visible returns the operations shown at cursor c of deck.
func Visible(deck *domain.Presentation, c domain.Cursor) []domain.RenderOperation {
	if c.Slide < 0 || c.Slide >= len(deck.Slides) {
		return nil
	}
	slide := deck.Slides[c.Slide]
	// latest visible frame chunk per highlighted block
	latest := map[int]int{}
	for i := 0; i <= c.Chunk && i < len(slide.Chunks); i++ {
		if f := slide.Chunks[i].Frame; f != nil {
			latest[f.Block] = i
		}
	}
	var ops []domain.RenderOperation
	for i := 0; i <= c.Chunk && i < len(slide.Chunks); i++ {
		chunk := slide.Chunks[i]
		f := chunk.Frame
		if f == nil {
			ops = append(ops, chunk.Operations...)
			continue
		}
		ops = append(ops, chunk.Operations[:f.Offset]...)
		if f.Index == 0 {
			shown := slide.Chunks[latest[f.Block]]
			ops = append(ops, codeOf(shown)...)
		}
		ops = append(ops, chunk.Operations[f.Offset+f.Length:]...)
	}
	if !slide.NoFooter {
		ops = append(ops, slide.Footer...)
	}
	return ops
}

func codeOf(chunk domain.Chunk) []domain.RenderOperation {
	f := chunk.Frame
	return chunk.Operations[f.Offset : f.Offset+f.Length]
}

// Notes returns the speaker notes of the chunks visible at the cursor.
func (n *Navigator) Notes() string {
	var notes string
	for i, ch := range n.Slide().Chunks {
		if i > n.cursor.Chunk {
			break
		}
		if ch.Note == "" {
			continue
		}
		if notes != "" {
			notes += "\n\n"
		}
		notes += ch.Note
	}
	return notes
}

func (n *Navigator) move(c domain.Cursor) bool {
	c.Frame = n.frameOf(c)
	if c == n.cursor {
		return false
	}
	n.cursor = c
	if n.hooks.OnChange != nil {
		n.hooks.OnChange(c)
	}
	return true
}

func (n *Navigator) frameOf(c domain.Cursor) int {
	if c.Slide >= len(n.deck.Slides) || c.Chunk >= len(n.deck.Slides[c.Slide].Chunks) {
		return 0
	}
	if f := n.deck.Slides[c.Slide].Chunks[c.Chunk].Frame; f != nil {
		return f.Index
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
