package domain

// Color is either a "#rrggbb" hex value, an ANSI palette index ("0".."255") or empty for
// the terminal default.
type Color string

// Style describes how a span of text is drawn.
type Style struct {
	Fg            Color `yaml:"fg,omitempty"`
	Bg            Color `yaml:"bg,omitempty"`
	Bold          bool  `yaml:"bold,omitempty"`
	Italic        bool  `yaml:"italic,omitempty"`
	Underline     bool  `yaml:"underline,omitempty"`
	Strikethrough bool  `yaml:"strikethrough,omitempty"`
	Dim           bool  `yaml:"dim,omitempty"`
	// Size is the font size multiplier (1..7). Zero means 1.
	Size int `yaml:"size,omitempty"`
}

// Merge returns s with every attribute set in o applied on top.
func (s Style) Merge(o Style) Style {
	if o.Fg != "" {
		s.Fg = o.Fg
	}
	if o.Bg != "" {
		s.Bg = o.Bg
	}
	s.Bold = s.Bold || o.Bold
	s.Italic = s.Italic || o.Italic
	s.Underline = s.Underline || o.Underline
	s.Strikethrough = s.Strikethrough || o.Strikethrough
	s.Dim = s.Dim || o.Dim
	if o.Size > 0 {
		s.Size = o.Size
	}
	return s
}

// FontSize returns the effective font size, never less than 1.
func (s Style) FontSize() int {
	if s.Size < 1 {
		return 1
	}
	return s.Size
}

// Span is a run of text sharing one style.
type Span struct {
	Text  string
	Style Style
}

// Line is a sequence of spans drawn on one visual row before wrapping.
type Line []Span

// Text returns the plain text of the line.
func (l Line) Text() string {
	var n int
	for _, s := range l {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range l {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// Alignment of text within the current drawing rectangle.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment validates an alignment keyword.
func ParseAlignment(s string) (Alignment, bool) {
	switch Alignment(s) {
	case AlignLeft, AlignCenter, AlignRight:
		return Alignment(s), true
	}
	return "", false
}
