// Package markdown turns a markdown document into the flat list of elements the deck
// compiler consumes.
package markdown

// Element is one top-level markdown block.
type Element interface {
	// Position returns the 1-based source line of the element, or 0 when unknown.
	Position() int
	isElement()
}

// Text is a run of inline text with its markdown emphasis.
type Text struct {
	Value  string
	Bold   bool
	Italic bool
	Strike bool
	Code   bool
	Link   string
}

// Inline is one line of inline text.
type Inline []Text

// Plain returns the text without formatting.
func (in Inline) Plain() string {
	var s string
	for _, t := range in {
		s += t.Value
	}
	return s
}

type (
	// SetextHeading is a heading underlined with === or ---; it titles a slide.
	SetextHeading struct {
		Text Inline
		Line int
	}
	// Heading is an ATX heading (# ... ######).
	Heading struct {
		Level int
		Text  Inline
		Line  int
	}
	// Paragraph holds lines separated by hard line breaks.
	Paragraph struct {
		Lines []Inline
		Line  int
	}
	// Image is an image standing on its own within a paragraph.
	Image struct {
		Path  string
		Alt   string
		Title string
		Line  int
	}
	// List is a flattened list; nesting is carried by ListItem.Depth.
	List struct {
		Items []ListItem
		Line  int
	}
	// CodeBlock is a fenced or indented code block.
	CodeBlock struct {
		Info string
		Code string
		Line int
	}
	// Comment is a raw HTML block; command comments are among them.
	Comment struct {
		Source string
		Line   int
	}
	// BlockQuote holds the quoted lines.
	BlockQuote struct {
		Lines []Inline
		Line  int
	}
	// Table is a GFM table.
	Table struct {
		Header []Inline
		Rows   [][]Inline
		Line   int
	}
	// ThematicBreak is a horizontal rule.
	ThematicBreak struct {
		Line int
	}
)

// ListItem is one item of a List.
type ListItem struct {
	Depth   int
	Ordered bool
	Number  int
	Text    Inline
}

func (e SetextHeading) Position() int { return e.Line }
func (e Heading) Position() int       { return e.Line }
func (e Paragraph) Position() int     { return e.Line }
func (e Image) Position() int         { return e.Line }
func (e List) Position() int          { return e.Line }
func (e CodeBlock) Position() int     { return e.Line }
func (e Comment) Position() int       { return e.Line }
func (e BlockQuote) Position() int    { return e.Line }
func (e Table) Position() int         { return e.Line }
func (e ThematicBreak) Position() int { return e.Line }

func (SetextHeading) isElement() {}
func (Heading) isElement()       {}
func (Paragraph) isElement()     {}
func (Image) isElement()         {}
func (List) isElement()          {}
func (CodeBlock) isElement()     {}
func (Comment) isElement()       {}
func (BlockQuote) isElement()    {}
func (Table) isElement()         {}
func (ThematicBreak) isElement() {}
