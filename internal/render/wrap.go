package render

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/aretw0/podium/pkg/domain"
)

// wrap breaks line into rows of at most width display columns, at word boundaries when
// possible. Whitespace at a break is dropped; trailing whitespace of the last row is kept
// so padded blocks keep their width.
func wrap(line domain.Line, width int) []domain.Line {
	if width <= 0 {
		return []domain.Line{line}
	}
	var (
		out  []domain.Line
		cur  domain.Line
		used int
	)
	flush := func() {
		out = append(out, trimRight(cur))
		cur, used = nil, 0
	}
	for _, sp := range line {
		for _, piece := range words(sp.Text) {
			w := runewidth.StringWidth(piece)
			if used+w <= width {
				cur = appendSpan(cur, piece, sp.Style)
				used += w
				continue
			}
			if strings.TrimSpace(piece) == "" {
				if used > 0 {
					flush()
				}
				continue
			}
			if used > 0 {
				flush()
			}
			for w > width {
				head, rest := cut(piece, width)
				cur = appendSpan(cur, head, sp.Style)
				flush()
				piece, w = rest, runewidth.StringWidth(rest)
			}
			cur = appendSpan(cur, piece, sp.Style)
			used = w
		}
	}
	if len(cur) > 0 || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

// words splits s into alternating runs of spaces and non-spaces.
func words(s string) []string {
	var out []string
	start := 0
	var inSpace bool
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i > 0 && sp != inSpace {
			out = append(out, s[start:i])
			start = i
		}
		inSpace = sp
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// cut returns the longest prefix of s fitting width columns, at least one rune.
func cut(s string, width int) (string, string) {
	used := 0
	for i, r := range s {
		w := runewidth.RuneWidth(r)
		if used+w > width && i > 0 {
			return s[:i], s[i:]
		}
		used += w
	}
	return s, ""
}

func appendSpan(l domain.Line, text string, style domain.Style) domain.Line {
	if n := len(l); n > 0 && l[n-1].Style == style {
		l[n-1].Text += text
		return l
	}
	return append(l, domain.Span{Text: text, Style: style})
}

func trimRight(l domain.Line) domain.Line {
	for len(l) > 0 {
		last := &l[len(l)-1]
		last.Text = strings.TrimRightFunc(last.Text, unicode.IsSpace)
		if last.Text != "" {
			break
		}
		l = l[:len(l)-1]
	}
	return l
}

func width(l domain.Line) int {
	n := 0
	for _, s := range l {
		n += runewidth.StringWidth(s.Text)
	}
	return n
}
