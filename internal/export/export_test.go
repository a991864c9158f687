package export_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/podium/internal/compiler"
	"github.com/aretw0/podium/internal/export"
	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
)

const deck = `---
title: Export <test>
---

First
===

hello a < b

<!-- pause -->

after pause

<!-- end_slide -->

Second
===

bye
`

func compileDeck(t *testing.T) *domain.Presentation {
	t.Helper()
	th, err := theme.Builtin("dark")
	require.NoError(t, err)
	c, err := compiler.New(compiler.Context{Theme: th, Options: domain.DefaultOptions()})
	require.NoError(t, err)
	p, err := c.Compile(context.Background(), []byte(deck), "deck.md")
	require.NoError(t, err)
	return p
}

func newExporter(t *testing.T) *export.Exporter {
	t.Helper()
	th, err := theme.Builtin("dark")
	require.NoError(t, err)
	return export.New(render.NewEngine(th), export.WithSize(60, 20))
}

func TestWriteHTML(t *testing.T) {
	p := compileDeck(t)
	var buf bytes.Buffer
	require.NoError(t, newExporter(t).WriteHTML(&buf, p))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Equal(t, len(p.Slides), strings.Count(out, "<section>"))
	assert.Contains(t, out, "hello a &lt; b")
	// every chunk is visible in the export
	assert.Contains(t, out, "after pause")
	assert.Contains(t, out, "bye")
}

func TestSlide_OutOfRange(t *testing.T) {
	_, err := newExporter(t).Slide(compileDeck(t), 99)
	assert.Error(t, err)
}

func TestWritePDF_Unsupported(t *testing.T) {
	err := newExporter(t).WritePDF(&bytes.Buffer{}, compileDeck(t))
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestCSS(t *testing.T) {
	tests := []struct {
		name  string
		style domain.Style
		want  string
	}{
		{"none", domain.Style{}, ""},
		{"bold", domain.Style{Bold: true}, "font-weight: bold"},
		{"bold italic", domain.Style{Bold: true, Italic: true}, "font-weight: bold; font-style: italic"},
		{"decorations", domain.Style{Strikethrough: true, Underline: true}, "text-decoration: line-through underline"},
		{"fg", domain.Style{Fg: "#010203"}, "color: #010203"},
		{"bg", domain.Style{Bg: "#010203"}, "background-color: #010203"},
		{"size", domain.Style{Size: 3}, "font-size: 30px"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, export.CSS(tt.style))
		})
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, "", export.Color(""))
	assert.Equal(t, "#abcdef", export.Color("#ABCDEF"))
	assert.Equal(t, "#000000", export.Color("16"))
	assert.Equal(t, "#ffffff", export.Color("231"))
	assert.Equal(t, "", export.Color("300"))
}

func TestSpan(t *testing.T) {
	assert.Equal(t, "a&lt;b", export.Span("a<b", domain.Style{}))
	assert.Equal(t, `<span style="font-weight: bold">hi</span>`, export.Span("hi", domain.Style{Bold: true}))
}
