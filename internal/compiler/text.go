package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/aretw0/podium/internal/markdown"
	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
)

// spans styles inline text for element, applying emphasis and the slide font size.
func (b *builder) spans(in markdown.Inline, element string) domain.Line {
	base := b.theme.Style(element)
	size := b.fontSize()
	line := make(domain.Line, 0, len(in))
	for _, t := range in {
		s := base
		s.Bold = s.Bold || t.Bold
		s.Italic = s.Italic || t.Italic
		s.Strikethrough = s.Strikethrough || t.Strike
		if t.Code {
			s = s.Merge(b.theme.Elements[theme.InlineCode].Style)
		}
		if t.Link != "" {
			s = s.Merge(b.theme.Elements[theme.Link].Style)
		}
		if size > 1 {
			s.Size = size
		}
		line = append(line, domain.Span{Text: t.Value, Style: s})
	}
	return line
}

func (b *builder) alignment(element string) domain.Alignment {
	if b.state.alignment != "" {
		return b.state.alignment
	}
	return b.theme.Alignment(element)
}

func (b *builder) text(line domain.Line, element string) {
	if len(line) == 0 {
		return
	}
	b.push(domain.WriteStyledText{Spans: line, Alignment: b.alignment(element)})
}

func (b *builder) prefixed(line domain.Line, element string) domain.Line {
	prefix := b.theme.Prefix(element)
	if prefix == "" {
		return line
	}
	style := b.theme.Style(element)
	if size := b.fontSize(); size > 1 {
		style.Size = size
	}
	return append(domain.Line{{Text: prefix, Style: style}}, line...)
}

func (b *builder) slideTitle(e markdown.SetextHeading) {
	if b.opts.ImplicitSlideEnds && b.state.last != lastNone {
		b.endSlide()
		b.state.dirty = true
	}
	b.state.title = e.Text.Plain()
	b.newLines(1)
	b.text(b.spans(e.Text, theme.SlideTitle), theme.SlideTitle)
	b.newLines(1)
}

func (b *builder) heading(e markdown.Heading) {
	element := theme.Heading(e.Level)
	b.text(b.prefixed(b.spans(e.Text, element), element), element)
	b.newLines(1)
}

func (b *builder) paragraph(lines []markdown.Inline, element string) {
	for _, l := range lines {
		b.text(b.spans(l, element), element)
		b.newLines(b.fontSize())
	}
}

func (b *builder) quote(e markdown.BlockQuote) {
	style := b.theme.Style(theme.BlockQuote)
	width := 0
	for _, l := range e.Lines {
		width = max(width, runewidth.StringWidth(l.Plain()))
	}
	for _, l := range e.Lines {
		line := b.prefixed(b.spans(l, theme.BlockQuote), theme.BlockQuote)
		if fill := width - runewidth.StringWidth(l.Plain()); fill > 0 {
			line = append(line, domain.Span{Text: strings.Repeat(" ", fill), Style: style})
		}
		b.text(line, theme.BlockQuote)
		b.newLines(b.fontSize())
	}
}

func (b *builder) table(e markdown.Table) {
	widths := make([]int, len(e.Header))
	measure := func(row []markdown.Inline) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell.Plain()))
		}
	}
	measure(e.Header)
	for _, row := range e.Rows {
		measure(row)
	}

	style := b.theme.Style(theme.Table)
	row := func(cells []markdown.Inline, bold bool) {
		var line domain.Line
		for i, width := range widths {
			if i > 0 {
				line = append(line, domain.Span{Text: " │ ", Style: style})
			}
			var cell markdown.Inline
			if i < len(cells) {
				cell = cells[i]
			}
			spans := b.spans(cell, theme.Table)
			for j := range spans {
				spans[j].Style.Bold = spans[j].Style.Bold || bold
			}
			line = append(line, spans...)
			if fill := width - runewidth.StringWidth(cell.Plain()); fill > 0 {
				line = append(line, domain.Span{Text: strings.Repeat(" ", fill), Style: style})
			}
		}
		b.text(line, theme.Table)
		b.newLines(1)
	}

	row(e.Header, true)
	var sep strings.Builder
	for i, width := range widths {
		margin := 1
		if i > 0 {
			sep.WriteString("┼")
			if i < len(widths)-1 {
				margin++
			}
		}
		sep.WriteString(strings.Repeat("─", width+margin))
	}
	b.text(domain.Line{{Text: sep.String(), Style: style}}, theme.Table)
	b.newLines(1)
	for _, r := range e.Rows {
		row(r, false)
	}
}

func (b *builder) thematicBreak() {
	if b.opts.EndSlideShorthand {
		b.endSlide()
		b.state.ignoreBreak = true
		return
	}
	b.push(domain.DrawSeparator{Style: b.theme.Style(theme.Separator)}, domain.NewLine{})
}

func (b *builder) image(e markdown.Image) error {
	size, err := parseImageAlt(e.Alt)
	if err != nil {
		return err
	}
	p := b.resolve(e.Path)
	if _, err := b.c.cc.ReadFile(p); err != nil {
		return fmt.Errorf("failed to load image %s: %w", e.Path, err)
	}
	b.push(domain.DrawImage{Ref: domain.ImageRef{Path: p}, Size: size})
	return nil
}

// parseImageAlt reads sizing attributes from alt texts like "image:width:50%".
func parseImageAlt(alt string) (domain.ImageSize, error) {
	var size domain.ImageSize
	for _, field := range strings.Fields(alt) {
		rest, ok := strings.CutPrefix(field, "image:")
		if !ok {
			continue
		}
		key, value, _ := strings.Cut(rest, ":")
		switch key {
		case "width", "w":
			w, err := parsePercent(value)
			if err != nil {
				return size, fmt.Errorf("invalid image attribute %q: %w", field, err)
			}
			size.WidthPercent = w
		default:
			return size, fmt.Errorf("unknown image attribute %q", field)
		}
	}
	return size, nil
}

func (b *builder) list(e markdown.List) {
	if b.endedInList && len(b.ops) == 0 && len(b.chunks) > 0 {
		last := &b.chunks[len(b.chunks)-1]
		if n := len(last.Operations); n > 0 {
			if _, ok := last.Operations[n-1].(domain.NewLine); ok {
				last.Operations = last.Operations[:n-1]
			}
		}
	}
	start := 0
	if b.state.last == lastList && len(b.ops) == 0 {
		start = b.state.lastIndex + 1
	}

	incremental := b.opts.IncrementalLists
	if b.state.incremental != nil {
		incremental = *b.state.incremental
	}
	if incremental && b.opts.PauseBeforeIncrementalLists {
		b.pause()
	}
	indexes := listIndexer{next: start}
	for i, item := range e.Items {
		if i > 0 && incremental {
			b.pause()
		}
		b.listItem(indexes.index(item.Depth), item)
	}
	if incremental && b.opts.PauseAfterIncrementalLists {
		b.pause()
	}
}

var bullets = []string{"•", "◦", "▪"}

func (b *builder) listItem(index int, item markdown.ListItem) {
	size := b.fontSize()
	indent := 3
	switch {
	case item.Depth == 0:
		indent = (3 + size - 1) / size
	case size > 1:
		indent = 2
	}
	prefix := strings.Repeat(" ", (item.Depth+1)*indent)
	switch {
	case item.Ordered:
		prefix += strconv.Itoa(max(item.Number, index+1)) + ". "
	case item.Depth == 0 && b.theme.Prefix(theme.List) != "":
		prefix += b.theme.Prefix(theme.List) + "  "
	default:
		prefix += bullets[min(item.Depth, len(bullets)-1)] + "  "
	}

	style := b.theme.Style(theme.List)
	if size > 1 {
		style.Size = size
	}
	line := append(domain.Line{{Text: prefix, Style: style}}, b.spans(item.Text, theme.List)...)
	b.push(domain.WriteStyledText{Spans: line, Alignment: b.alignment(theme.List)})

	n := b.opts.ListItemNewlines
	if b.state.itemNewlines > 0 {
		n = b.state.itemNewlines
	}
	b.newLines(max(n, 1))
	if item.Depth == 0 {
		b.state.last = lastList
		b.state.lastIndex = index
	}
}

// listIndexer numbers list items per depth, resuming the outer count when a nested
// list ends.
type listIndexer struct {
	next  int
	depth int
	saved []int
}

func (l *listIndexer) index(depth int) int {
	switch {
	case depth > l.depth:
		l.saved = append(l.saved, l.next)
		l.next = 0
	case depth < l.depth:
		for d := depth; d < l.depth; d++ {
			if n := len(l.saved); n > 0 {
				l.next = l.saved[n-1]
				l.saved = l.saved[:n-1]
			} else {
				l.next = 0
			}
		}
	}
	l.depth = depth
	i := l.next
	l.next++
	return i
}

func (b *builder) intro(meta domain.Metadata) {
	line := func(text, element string) {
		b.text(domain.Line{{Text: text, Style: b.theme.Style(element)}}, element)
		b.newLines(1)
	}
	b.push(domain.JumpToVerticalMiddle{})
	for _, l := range nonEmptyLines(meta.Title) {
		line(l, theme.IntroTitle)
	}
	for _, l := range nonEmptyLines(meta.SubTitle) {
		line(l, theme.IntroSubtitle)
	}
	if meta.Event != "" || meta.Location != "" || meta.Date != "" {
		b.newLines(2)
		for _, s := range []string{meta.Event, meta.Location, meta.Date} {
			if s != "" {
				line(s, theme.IntroEvent)
			}
		}
	}
	if len(meta.Authors) > 0 {
		b.newLines(3)
		for _, a := range meta.Authors {
			line(a, theme.IntroAuthor)
		}
	}
	b.state.title = "Introduction"
	b.endSlide()
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(strings.TrimSpace(s), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
