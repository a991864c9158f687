// Package ansi decodes process output containing SGR escape sequences into styled lines.
package ansi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/podium/pkg/domain"
)

// Decode splits output into lines and converts SGR sequences into span styles.
// Other escape sequences are dropped. Carriage returns rewind to the line start.
func Decode(output string, base domain.Style) []domain.Line {
	output = strings.TrimSuffix(output, "\n")
	if output == "" {
		return nil
	}
	d := decoder{style: base, base: base}
	for _, raw := range strings.Split(output, "\n") {
		d.line(raw)
	}
	return d.out
}

type decoder struct {
	base  domain.Style
	style domain.Style
	out   []domain.Line
}

func (d *decoder) line(raw string) {
	if i := strings.LastIndexByte(strings.TrimSuffix(raw, "\r"), '\r'); i >= 0 {
		raw = raw[i+1:]
	}
	raw = strings.TrimSuffix(raw, "\r")

	var line domain.Line
	var text strings.Builder
	emit := func() {
		if text.Len() > 0 {
			line = append(line, domain.Span{Text: text.String(), Style: d.style})
			text.Reset()
		}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != 0x1b {
			if c == '\t' {
				text.WriteString("    ")
				continue
			}
			text.WriteByte(c)
			continue
		}
		if i+1 >= len(raw) {
			break
		}
		switch raw[i+1] {
		case '[':
			end := i + 2
			for end < len(raw) && (raw[end] < 0x40 || raw[end] > 0x7e) {
				end++
			}
			if end >= len(raw) {
				i = len(raw)
				continue
			}
			if raw[end] == 'm' {
				emit()
				d.sgr(raw[i+2 : end])
			}
			i = end
		case ']':
			// OSC, terminated by BEL or ST.
			end := strings.IndexAny(raw[i:], "\a")
			if st := strings.Index(raw[i:], "\x1b\\"); st >= 0 && (end < 0 || st < end) {
				end = st + 1
			}
			if end < 0 {
				i = len(raw)
				continue
			}
			i += end
		default:
			i++
		}
	}
	emit()
	d.out = append(d.out, line)
}

func (d *decoder) sgr(params string) {
	if params == "" {
		d.style = d.base
		return
	}
	codes := strings.Split(params, ";")
	for i := 0; i < len(codes); i++ {
		n, err := strconv.Atoi(codes[i])
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			d.style = d.base
		case n == 1:
			d.style.Bold = true
		case n == 2:
			d.style.Dim = true
		case n == 3:
			d.style.Italic = true
		case n == 4:
			d.style.Underline = true
		case n == 9:
			d.style.Strikethrough = true
		case n == 22:
			d.style.Bold, d.style.Dim = false, false
		case n == 23:
			d.style.Italic = false
		case n == 24:
			d.style.Underline = false
		case n == 29:
			d.style.Strikethrough = false
		case n >= 30 && n <= 37:
			d.style.Fg = index(n - 30)
		case n >= 90 && n <= 97:
			d.style.Fg = index(n - 90 + 8)
		case n >= 40 && n <= 47:
			d.style.Bg = index(n - 40)
		case n >= 100 && n <= 107:
			d.style.Bg = index(n - 100 + 8)
		case n == 39:
			d.style.Fg = d.base.Fg
		case n == 49:
			d.style.Bg = d.base.Bg
		case n == 38 || n == 48:
			c, used := extended(codes[i+1:])
			i += used
			if c == "" {
				continue
			}
			if n == 38 {
				d.style.Fg = c
			} else {
				d.style.Bg = c
			}
		}
	}
}

// extended parses "5;n" and "2;r;g;b" color arguments.
func extended(args []string) (domain.Color, int) {
	if len(args) == 0 {
		return "", 0
	}
	switch args[0] {
	case "5":
		if len(args) < 2 {
			return "", len(args)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n > 255 {
			return "", 2
		}
		return index(n), 2
	case "2":
		if len(args) < 4 {
			return "", len(args)
		}
		var rgb [3]int
		for j := 0; j < 3; j++ {
			v, err := strconv.Atoi(args[1+j])
			if err != nil || v < 0 || v > 255 {
				return "", 4
			}
			rgb[j] = v
		}
		return domain.Color(fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])), 4
	}
	return "", 1
}

func index(n int) domain.Color {
	return domain.Color(strconv.Itoa(n))
}
