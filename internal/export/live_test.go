package export_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/internal/export"
	"github.com/aretw0/podium/pkg/domain"
)

func TestLive_Update(t *testing.T) {
	p := compileDeck(t)
	live := export.NewLive(p, newExporter(t))
	assert.Same(t, p, live.Presentation())

	html, err := live.SlideHTML(len(p.Slides) - 1)
	require.NoError(t, err)
	assert.Contains(t, html, "bye")

	empty := &domain.Presentation{Slides: []domain.Slide{{}}}
	live.Update(empty, newExporter(t))
	assert.Same(t, empty, live.Presentation())
	_, err = live.SlideHTML(len(p.Slides) - 1)
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, live.WriteHTML(&buf))
	assert.NotContains(t, buf.String(), "bye")
}
