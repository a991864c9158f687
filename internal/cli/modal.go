package cli

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalIndex
	modalBindings
)

type styler interface {
	Style(element string) domain.Style
}

// modal is a boxed list drawn in the middle of an otherwise empty screen.
type modal struct {
	title string
	rows  []domain.Line
	// selected is the highlighted row, or -1.
	selected int
}

// indexModal lists the slide titles of deck with the current one selected.
func indexModal(deck *domain.Presentation, current int) modal {
	m := modal{title: "Slides", selected: current}
	digits := len(fmt.Sprint(len(deck.Slides)))
	for i, s := range deck.Slides {
		title := s.Title
		if title == "" {
			title = "-"
		}
		m.rows = append(m.rows, domain.Line{{Text: fmt.Sprintf("%-*d: %s", digits, i+1, title)}})
	}
	return m
}

// bindingsModal lists the keys bound to each action.
func bindingsModal(kb *KeyBindings) modal {
	m := modal{title: "Key bindings", selected: -1}
	for _, h := range kb.Help() {
		line := domain.Line{{Text: h.Label, Style: domain.Style{Bold: true}}, {Text: ": "}}
		for i, k := range h.Keys {
			if i > 0 {
				line = append(line, domain.Span{Text: ", "})
			}
			if k == " " {
				k = "<space>"
			}
			line = append(line, domain.Span{Text: k, Style: domain.Style{Italic: true}})
		}
		m.rows = append(m.rows, line)
	}
	return m
}

// operations draws the modal using the modal styles of styles. At most maxRows rows are
// shown, scrolled so the selection stays visible.
func (m modal) operations(styles styler, maxRows int) []domain.RenderOperation {
	base := styles.Style(theme.Modal)
	selection := base.Merge(styles.Style(theme.ModalSelection))

	rows, selected := m.rows, m.selected
	if maxRows > 0 && len(rows) > maxRows {
		start := 0
		if selected > 0 {
			start = min(max(0, selected-maxRows/2), len(rows)-maxRows)
		}
		rows = rows[start : start+maxRows]
		selected -= start
	}

	width := max(12, runewidth.StringWidth(m.title))
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r.Text()))
	}
	border := strings.Repeat("─", width+4)

	ops := []domain.RenderOperation{
		domain.SetStyle{Style: styles.Style(theme.Default)},
		domain.ClearScreen{},
		domain.JumpToVerticalMiddle{},
	}
	line := func(spans domain.Line) {
		ops = append(ops, domain.WriteStyledText{Spans: spans, Alignment: domain.AlignCenter}, domain.NewLine{})
	}
	boxed := func(content domain.Line, style domain.Style) domain.Line {
		pad := width - runewidth.StringWidth(content.Text())
		out := domain.Line{{Text: "│  ", Style: base}}
		for _, sp := range content {
			out = append(out, domain.Span{Text: sp.Text, Style: style.Merge(sp.Style)})
		}
		return append(out,
			domain.Span{Text: strings.Repeat(" ", pad), Style: style},
			domain.Span{Text: "  │", Style: base},
		)
	}

	line(domain.Line{{Text: "┌" + border + "┐", Style: base}})
	left := (width - runewidth.StringWidth(m.title)) / 2
	title := domain.Line{{Text: strings.Repeat(" ", left) + m.title, Style: domain.Style{Bold: true}}}
	line(boxed(title, base))
	line(domain.Line{{Text: "├" + border + "┤", Style: base}})
	for i, r := range rows {
		style := base
		if i == selected {
			style = selection
		}
		line(boxed(r, style))
	}
	line(domain.Line{{Text: "└" + border + "┘", Style: base}})
	return ops
}
