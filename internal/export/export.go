// Package export renders decks to static documents.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"html/template"
	"image/png"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/podium/internal/render"
	"github.com/aretw0/podium/internal/runtime"
	"github.com/aretw0/podium/pkg/domain"
)

const (
	fontSize   = 10
	lineHeight = 12
	// width of a monospace cell as a fraction of the font size
	cellWidth = 0.605
)

// Exporter draws every slide on a virtual surface and converts the cells to HTML.
type Exporter struct {
	renderer   *render.Engine
	cols, rows int
	logger     *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithSize sets the virtual terminal size.
func WithSize(cols, rows int) Option {
	return func(x *Exporter) {
		if cols > 0 && rows > 0 {
			x.cols, x.rows = cols, rows
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Exporter) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// New creates an exporter drawing with renderer.
func New(renderer *render.Engine, opts ...Option) *Exporter {
	x := &Exporter{
		renderer: renderer,
		cols:     100,
		rows:     30,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Slide returns slide i with every chunk visible as an HTML fragment. Renderer errors
// (missing images) are logged; the slide is still produced with the inline error.
func (x *Exporter) Slide(deck *domain.Presentation, i int) (string, error) {
	if i < 0 || i >= len(deck.Slides) {
		return "", fmt.Errorf("slide %d out of range: deck has %d slides", i+1, len(deck.Slides))
	}
	c := domain.Cursor{Slide: i, Chunk: deck.ChunkCount(i) - 1}
	s := render.NewVirtualSurface(x.cols, x.rows)
	if err := x.renderer.Render(runtime.Visible(deck, c), s); err != nil {
		x.logger.Warn("slide rendered with errors", "slide", i+1, "err", err)
	}
	return x.grid(s)
}

func (x *Exporter) grid(s *render.VirtualSurface) (string, error) {
	var sb strings.Builder
	sb.WriteString(`<div class="container">`)
	for r := 0; r < x.rows; r++ {
		sb.WriteString(`<div class="content-line"><pre>`)
		var (
			cur  domain.Style
			text strings.Builder
		)
		for c := 0; c < x.cols; c++ {
			cell := s.Cell(c, r)
			if cell.Style != cur && text.Len() > 0 {
				sb.WriteString(Span(text.String(), cur))
				text.Reset()
			}
			cur = cell.Style
			text.WriteString(cell.Text)
		}
		if text.Len() > 0 {
			sb.WriteString(Span(text.String(), cur))
		}
		sb.WriteString("</pre></div>")
	}
	for _, img := range s.Images {
		tag, err := imageTag(img)
		if err != nil {
			return "", err
		}
		sb.WriteString(tag)
	}
	sb.WriteString("</div>")
	return sb.String(), nil
}

func imageTag(img render.PlacedImage) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	px := func(cells int, unit float64) int {
		return int(math.Ceil(float64(cells) * unit))
	}
	return fmt.Sprintf(`<img src="data:image/png;base64,%s" style="position: absolute; left: %dpx; top: %dpx; width: %dpx; height: %dpx" />`,
		base64.StdEncoding.EncodeToString(buf.Bytes()),
		px(img.Col, fontSize*cellWidth), px(img.Row, lineHeight),
		px(img.Cols, fontSize*cellWidth), px(img.Rows, lineHeight),
	), nil
}

// Span returns text escaped and wrapped in a span carrying style as CSS.
func Span(text string, style domain.Style) string {
	text = html.EscapeString(text)
	css := CSS(style)
	if css == "" {
		return text
	}
	return fmt.Sprintf(`<span style="%s">%s</span>`, css, text)
}

// CSS converts a style to inline CSS declarations.
func CSS(style domain.Style) string {
	var decls, decorations []string
	if style.Bold {
		decls = append(decls, "font-weight: bold")
	}
	if style.Italic {
		decls = append(decls, "font-style: italic")
	}
	if style.Dim {
		decls = append(decls, "opacity: 0.6")
	}
	if style.Strikethrough {
		decorations = append(decorations, "line-through")
	}
	if style.Underline {
		decorations = append(decorations, "underline")
	}
	if c := Color(style.Fg); c != "" {
		decls = append(decls, "color: "+c)
	}
	if c := Color(style.Bg); c != "" {
		decls = append(decls, "background-color: "+c)
	}
	if len(decorations) > 0 {
		decls = append(decls, "text-decoration: "+strings.Join(decorations, " "))
	}
	if style.Size > 1 {
		decls = append(decls, fmt.Sprintf("font-size: %dpx", fontSize*style.Size))
	}
	return strings.Join(decls, "; ")
}

// Color converts a style color to a CSS hex color. Palette indexes use the xterm palette.
func Color(c domain.Color) string {
	s := string(c)
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(s, "#"):
		return strings.ToLower(s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 255 {
		return ""
	}
	var tc termenv.Color = termenv.ANSI256Color(n)
	if n < 16 {
		tc = termenv.ANSIColor(n)
	}
	return termenv.ConvertToRGB(tc).Hex()
}

var document = template.Must(template.New("deck").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>{{.Title}}</title>
<style>
html, body { margin: 0; padding: 0; }
body { background-color: {{.Background}}; }
.container { position: relative; font-size: {{.FontSize}}px; line-height: {{.LineHeight}}px; width: {{.Width}}px; }
.content-line { height: {{.LineHeight}}px; margin: 0; padding: 0; }
.content-line pre { margin: 0; padding: 0; font-family: monospace; }
section { page-break-after: always; margin-bottom: {{.LineHeight}}px; }
</style>
</head>
<body>
{{range .Slides}}<section>{{.}}</section>
{{end}}</body>
</html>
`))

// WriteHTML writes the whole deck as one HTML document, one section per slide.
func (x *Exporter) WriteHTML(w io.Writer, deck *domain.Presentation) error {
	data := struct {
		Title      string
		Background template.CSS
		FontSize   int
		LineHeight int
		Width      int
		Slides     []template.HTML
	}{
		Title:      deck.Metadata.Title,
		Background: template.CSS(background(deck)),
		FontSize:   fontSize,
		LineHeight: lineHeight,
		Width:      int(math.Ceil(float64(x.cols) * fontSize * cellWidth)),
	}
	for i := range deck.Slides {
		slide, err := x.Slide(deck, i)
		if err != nil {
			return err
		}
		data.Slides = append(data.Slides, template.HTML(slide))
	}
	if err := document.Execute(w, data); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	x.logger.Info("deck exported", "format", "html", "slides", len(deck.Slides))
	return nil
}

// WritePDF is not available in this build; converting the HTML export is left to
// external tools.
func (x *Exporter) WritePDF(io.Writer, *domain.Presentation) error {
	return fmt.Errorf("pdf export: %w", domain.ErrUnsupported)
}

// background is the color of the first SetStyle of the deck.
func background(deck *domain.Presentation) string {
	for _, slide := range deck.Slides {
		for _, chunk := range slide.Chunks {
			for _, op := range chunk.Operations {
				if s, ok := op.(domain.SetStyle); ok {
					if c := Color(s.Style.Bg); c != "" {
						return c
					}
					return "#000000"
				}
			}
		}
	}
	return "#000000"
}
