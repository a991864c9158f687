// Package highlight turns source code into styled lines using chroma.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/aretw0/podium/pkg/domain"
)

// Highlighter tokenizes code with a fixed chroma style.
type Highlighter struct {
	style *chroma.Style
}

// New returns a highlighter for the named chroma style, falling back to chroma's default.
func New(styleName string) *Highlighter {
	return &Highlighter{style: styles.Get(styleName)}
}

// Lines returns one styled line per source line. base is applied under every token.
func (h *Highlighter) Lines(language, code string, base domain.Style) []domain.Line {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	code = strings.TrimSuffix(code, "\n")
	it, err := lexer.Tokenise(nil, code+"\n")
	if err != nil {
		return plain(code, base)
	}

	var out []domain.Line
	for _, tokens := range chroma.SplitTokensIntoLines(it.Tokens()) {
		var line domain.Line
		for _, tok := range tokens {
			value := strings.TrimRight(tok.Value, "\n")
			if value == "" {
				continue
			}
			line = append(line, domain.Span{Text: value, Style: base.Merge(h.styleOf(tok.Type))})
		}
		out = append(out, line)
	}
	want := strings.Count(code, "\n") + 1
	for len(out) < want {
		out = append(out, nil)
	}
	return out[:want]
}

func (h *Highlighter) styleOf(t chroma.TokenType) domain.Style {
	entry := h.style.Get(t)
	var s domain.Style
	if entry.Colour.IsSet() {
		s.Fg = domain.Color(entry.Colour.String())
	}
	s.Bold = entry.Bold == chroma.Yes
	s.Italic = entry.Italic == chroma.Yes
	s.Underline = entry.Underline == chroma.Yes
	return s
}

func plain(code string, base domain.Style) []domain.Line {
	var out []domain.Line
	for _, l := range strings.Split(code, "\n") {
		out = append(out, domain.Line{{Text: l, Style: base}})
	}
	return out
}
