package export

import (
	"io"
	"sync"

	"github.com/aretw0/podium/pkg/domain"
)

// Live pairs a deck with the exporter for its theme. Update swaps both when the deck is
// reloaded while it is being served.
type Live struct {
	mu       sync.RWMutex
	deck     *domain.Presentation
	exporter *Exporter
}

// NewLive serves deck through x.
func NewLive(deck *domain.Presentation, x *Exporter) *Live {
	return &Live{deck: deck, exporter: x}
}

// Update replaces the deck and its exporter.
func (l *Live) Update(deck *domain.Presentation, x *Exporter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deck, l.exporter = deck, x
}

func (l *Live) current() (*domain.Presentation, *Exporter) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.deck, l.exporter
}

// Presentation returns the current deck.
func (l *Live) Presentation() *domain.Presentation {
	deck, _ := l.current()
	return deck
}

// SlideHTML renders slide i of the current deck.
func (l *Live) SlideHTML(i int) (string, error) {
	deck, x := l.current()
	return x.Slide(deck, i)
}

// WriteHTML writes the current deck as one document.
func (l *Live) WriteHTML(w io.Writer) error {
	deck, x := l.current()
	return x.WriteHTML(w, deck)
}
