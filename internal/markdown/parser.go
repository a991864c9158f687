package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Document is a parsed markdown file.
type Document struct {
	FrontMatter string
	Elements    []Element
}

// Parser converts markdown sources to elements. It is safe for concurrent use.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a parser with GFM tables and strikethrough enabled.
func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

// Parse splits the front matter and converts the body to elements.
func (p *Parser) Parse(src []byte) Document {
	fm, body := SplitFrontMatter(src)
	root := p.md.Parser().Parse(text.NewReader(body))

	w := &walker{src: body}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n)
	}
	return Document{FrontMatter: fm, Elements: w.out}
}

type walker struct {
	src []byte
	out []Element
}

func (w *walker) block(n ast.Node) {
	line := w.lineOf(n)
	switch v := n.(type) {
	case *ast.Heading:
		txt := w.inline(v)
		if w.isSetext(v) {
			w.out = append(w.out, SetextHeading{Text: txt, Line: line})
			return
		}
		w.out = append(w.out, Heading{Level: v.Level, Text: txt, Line: line})
	case *ast.Paragraph:
		w.paragraph(v, line)
	case *ast.TextBlock:
		w.paragraph(v, line)
	case *ast.List:
		list := List{Line: line}
		w.listItems(v, 0, &list)
		w.out = append(w.out, list)
	case *ast.FencedCodeBlock:
		info := ""
		if v.Info != nil {
			info = strings.TrimSpace(string(v.Info.Segment.Value(w.src)))
		}
		if v.Lines().Len() > 0 {
			line--
		} else if v.Info != nil {
			line = w.lineAt(v.Info.Segment.Start)
		}
		w.out = append(w.out, CodeBlock{Info: info, Code: w.raw(v.Lines()), Line: line})
	case *ast.CodeBlock:
		w.out = append(w.out, CodeBlock{Code: w.raw(v.Lines()), Line: line})
	case *ast.HTMLBlock:
		src := w.raw(v.Lines())
		if v.HasClosure() {
			src += string(v.ClosureLine.Value(w.src))
		}
		w.out = append(w.out, Comment{Source: src, Line: line})
	case *ast.Blockquote:
		q := BlockQuote{Line: line}
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			if len(q.Lines) > 0 {
				q.Lines = append(q.Lines, Inline{})
			}
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
				q.Lines = append(q.Lines, w.lines(c)...)
			default:
				for _, l := range strings.Split(strings.TrimRight(w.raw(c.Lines()), "\n"), "\n") {
					q.Lines = append(q.Lines, Inline{{Value: l}})
				}
			}
		}
		w.out = append(w.out, q)
	case *ast.ThematicBreak:
		w.out = append(w.out, ThematicBreak{Line: line})
	case *east.Table:
		w.out = append(w.out, w.table(v, line))
	default:
		// Unknown blocks are flattened into their children.
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c)
		}
	}
}

func (w *walker) paragraph(n ast.Node, line int) {
	b := &inlineBuilder{src: w.src, images: true}
	b.walk(n, Text{})
	for _, part := range b.parts {
		switch p := part.(type) {
		case Image:
			p.Line = line
			w.out = append(w.out, p)
		case []Inline:
			w.out = append(w.out, Paragraph{Lines: p, Line: line})
		}
	}
}

func (w *walker) listItems(list *ast.List, depth int, out *List) {
	number := list.Start
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		li := ListItem{Depth: depth, Ordered: list.IsOrdered(), Number: number}
		number++

		idx := len(out.Items)
		out.Items = append(out.Items, li)
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.List:
				w.listItems(v, depth+1, out)
			case *ast.Paragraph, *ast.TextBlock:
				for _, l := range w.lines(v) {
					if len(out.Items[idx].Text) > 0 {
						out.Items[idx].Text = append(out.Items[idx].Text, Text{Value: " "})
					}
					out.Items[idx].Text = append(out.Items[idx].Text, l...)
				}
			}
		}
	}
}

func (w *walker) table(t *east.Table, line int) Table {
	out := Table{Line: line}
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []Inline
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, w.inline(cell))
		}
		if _, ok := row.(*east.TableHeader); ok {
			out.Header = cells
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// inline flattens all lines of n into one.
func (w *walker) inline(n ast.Node) Inline {
	var out Inline
	for i, l := range w.lines(n) {
		if i > 0 {
			out = append(out, Text{Value: " "})
		}
		out = append(out, l...)
	}
	return out
}

func (w *walker) lines(n ast.Node) []Inline {
	b := &inlineBuilder{src: w.src}
	b.walk(n, Text{})
	var out []Inline
	for _, part := range b.parts {
		if lines, ok := part.([]Inline); ok {
			out = append(out, lines...)
		}
	}
	return out
}

func (w *walker) raw(segs *text.Segments) string {
	var buf bytes.Buffer
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(w.src))
	}
	return buf.String()
}

// isSetext reports whether the heading line does not start with '#'.
func (w *walker) isSetext(h *ast.Heading) bool {
	if h.Lines().Len() == 0 {
		return false
	}
	i := h.Lines().At(0).Start
	for i > 0 && w.src[i-1] != '\n' {
		i--
	}
	for i < len(w.src) && (w.src[i] == ' ' || w.src[i] == '\t') {
		i++
	}
	return i < len(w.src) && w.src[i] != '#'
}

func (w *walker) lineOf(n ast.Node) int {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return w.lineAt(n.Lines().At(0).Start)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if l := w.lineOf(c); l > 0 {
			return l
		}
		if t, ok := c.(*ast.Text); ok {
			return w.lineAt(t.Segment.Start)
		}
	}
	return 0
}

func (w *walker) lineAt(offset int) int {
	if offset > len(w.src) {
		offset = len(w.src)
	}
	return bytes.Count(w.src[:offset], []byte("\n")) + 1
}

// inlineBuilder accumulates lines of inline text; images optionally split the output.
type inlineBuilder struct {
	src    []byte
	images bool
	parts  []any
	lines  []Inline
}

func (b *inlineBuilder) add(t Text) {
	if t.Value == "" {
		return
	}
	if len(b.lines) == 0 {
		b.lines = append(b.lines, nil)
	}
	last := len(b.lines) - 1
	b.lines[last] = append(b.lines[last], t)
}

func (b *inlineBuilder) newLine() {
	if len(b.lines) == 0 {
		b.lines = append(b.lines, nil)
	}
	b.lines = append(b.lines, nil)
}

func (b *inlineBuilder) flush() {
	for len(b.lines) > 0 && len(b.lines[len(b.lines)-1]) == 0 {
		b.lines = b.lines[:len(b.lines)-1]
	}
	if len(b.lines) > 0 {
		b.parts = append(b.parts, b.lines)
	}
	b.lines = nil
}

func (b *inlineBuilder) walk(n ast.Node, style Text) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		s := style
		switch v := c.(type) {
		case *ast.Text:
			s.Value = string(v.Segment.Value(b.src))
			b.add(s)
			if v.HardLineBreak() {
				b.newLine()
			} else if v.SoftLineBreak() {
				b.add(Text{Value: " ", Bold: s.Bold, Italic: s.Italic, Strike: s.Strike})
			}
		case *ast.String:
			s.Value = string(v.Value)
			b.add(s)
		case *ast.CodeSpan:
			s.Code = true
			s.Value = plain(v, b.src)
			b.add(s)
		case *ast.Emphasis:
			if v.Level >= 2 {
				s.Bold = true
			} else {
				s.Italic = true
			}
			b.walk(v, s)
		case *east.Strikethrough:
			s.Strike = true
			b.walk(v, s)
		case *ast.Link:
			s.Link = string(v.Destination)
			b.walk(v, s)
		case *ast.AutoLink:
			s.Link = string(v.URL(b.src))
			s.Value = string(v.Label(b.src))
			b.add(s)
		case *ast.Image:
			if !b.images {
				b.walk(v, s)
				continue
			}
			b.flush()
			b.parts = append(b.parts, Image{Path: string(v.Destination), Alt: plain(v, b.src), Title: string(v.Title)})
		case *ast.RawHTML:
		default:
			b.walk(c, s)
		}
	}
	if n.Type() == ast.TypeBlock {
		b.flush()
	}
}

func plain(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(plain(c, src))
		}
	}
	return sb.String()
}
