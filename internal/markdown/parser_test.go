package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontMatter(t *testing.T) {
	src := []byte("---\ntitle: hi\n---\n# Body\n")
	fm, body := SplitFrontMatter(src)

	assert.Equal(t, "title: hi\n", fm)
	assert.Equal(t, "\n\n\n# Body\n", string(body))

	fm, body = SplitFrontMatter([]byte("# No front matter\n"))
	assert.Empty(t, fm)
	assert.Equal(t, "# No front matter\n", string(body))
}

func TestParseHeadings(t *testing.T) {
	doc := NewParser().Parse([]byte("Title\n===\n\n## Sub\n\nOther\n---\n"))
	require.Len(t, doc.Elements, 3)

	setext, ok := doc.Elements[0].(SetextHeading)
	require.True(t, ok)
	assert.Equal(t, "Title", setext.Text.Plain())
	assert.Equal(t, 1, setext.Line)

	h, ok := doc.Elements[1].(Heading)
	require.True(t, ok)
	assert.Equal(t, 2, h.Level)
	assert.Equal(t, "Sub", h.Text.Plain())
	assert.Equal(t, 4, h.Line)

	_, ok = doc.Elements[2].(SetextHeading)
	assert.True(t, ok)
}

func TestParseParagraphInlines(t *testing.T) {
	doc := NewParser().Parse([]byte("some **bold** and *it* with `code`\nsoft break\n"))
	require.Len(t, doc.Elements, 1)

	p := doc.Elements[0].(Paragraph)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, "some bold and it with code soft break", p.Lines[0].Plain())

	var bold, italic, code bool
	for _, txt := range p.Lines[0] {
		bold = bold || (txt.Bold && txt.Value == "bold")
		italic = italic || (txt.Italic && txt.Value == "it")
		code = code || (txt.Code && txt.Value == "code")
	}
	assert.True(t, bold)
	assert.True(t, italic)
	assert.True(t, code)
}

func TestParseHardBreak(t *testing.T) {
	doc := NewParser().Parse([]byte("first\\\nsecond\n"))
	p := doc.Elements[0].(Paragraph)
	require.Len(t, p.Lines, 2)
	assert.Equal(t, "first", p.Lines[0].Plain())
	assert.Equal(t, "second", p.Lines[1].Plain())
}

func TestParseImageSplitsParagraph(t *testing.T) {
	doc := NewParser().Parse([]byte("before ![alt](img.png) after\n"))
	require.Len(t, doc.Elements, 3)
	assert.Equal(t, "img.png", doc.Elements[1].(Image).Path)
	assert.Equal(t, "after", doc.Elements[2].(Paragraph).Lines[0].Plain()[1:])
}

func TestParseNestedList(t *testing.T) {
	doc := NewParser().Parse([]byte("* one\n    * nested\n* two\n\n3. three\n4. four\n"))
	require.Len(t, doc.Elements, 2)

	list := doc.Elements[0].(List)
	require.Len(t, list.Items, 3)
	assert.Equal(t, 0, list.Items[0].Depth)
	assert.Equal(t, 1, list.Items[1].Depth)
	assert.Equal(t, "nested", list.Items[1].Text.Plain())
	assert.Equal(t, "two", list.Items[2].Text.Plain())

	ordered := doc.Elements[1].(List)
	require.Len(t, ordered.Items, 2)
	assert.True(t, ordered.Items[0].Ordered)
	assert.Equal(t, 3, ordered.Items[0].Number)
	assert.Equal(t, 4, ordered.Items[1].Number)
}

func TestParseCodeAndComments(t *testing.T) {
	src := "<!-- pause -->\n\n```rust +exec {1,3}\nfn main() {}\n```\n"
	doc := NewParser().Parse([]byte(src))
	require.Len(t, doc.Elements, 2)

	c := doc.Elements[0].(Comment)
	assert.Equal(t, "<!-- pause -->\n", c.Source)
	assert.Equal(t, 1, c.Line)

	code := doc.Elements[1].(CodeBlock)
	assert.Equal(t, "rust +exec {1,3}", code.Info)
	assert.Equal(t, "fn main() {}\n", code.Code)
	assert.Equal(t, 3, code.Line)
}

func TestParseMultilineComment(t *testing.T) {
	doc := NewParser().Parse([]byte("<!--\nspeaker_note: |\n  hi\n-->\n"))
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, "<!--\nspeaker_note: |\n  hi\n-->\n", doc.Elements[0].(Comment).Source)
}

func TestParseTableQuoteBreak(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n> quoted\n\n***\n"
	doc := NewParser().Parse([]byte(src))
	require.Len(t, doc.Elements, 3)

	table := doc.Elements[0].(Table)
	require.Len(t, table.Header, 2)
	assert.Equal(t, "a", table.Header[0].Plain())
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2", table.Rows[0][1].Plain())

	quote := doc.Elements[1].(BlockQuote)
	assert.Equal(t, "quoted", quote.Lines[0].Plain())

	_, ok := doc.Elements[2].(ThematicBreak)
	assert.True(t, ok)
}

func TestParseKeepsLinesAfterFrontMatter(t *testing.T) {
	doc := NewParser().Parse([]byte("---\ntitle: x\n---\n\n# Heading\n"))
	assert.Equal(t, "title: x\n", doc.FrontMatter)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, 5, doc.Elements[0].Position())
}
