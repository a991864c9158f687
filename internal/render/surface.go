package render

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/podium/pkg/domain"
	"github.com/aretw0/podium/pkg/ports"
)

// TermSurface draws on a terminal. Output is buffered until Flush.
type TermSurface struct {
	w       io.Writer
	fd      int
	encoder ports.ImageEncoder
	buf     bytes.Buffer
	out     *termenv.Output
}

// NewTermSurface draws to w. fd is the terminal file descriptor used for sizing and raw
// mode; pass -1 when w is not a terminal.
func NewTermSurface(w io.Writer, fd int, profile termenv.Profile, encoder ports.ImageEncoder) *TermSurface {
	s := &TermSurface{w: w, fd: fd, encoder: encoder}
	s.out = termenv.NewOutput(&s.buf, termenv.WithProfile(profile))
	return s
}

func (s *TermSurface) Size() (int, int) {
	if s.fd >= 0 {
		if cols, rows, err := term.GetSize(s.fd); err == nil && cols > 0 && rows > 0 {
			return cols, rows
		}
	}
	return 80, 24
}

func (s *TermSurface) Clear(style domain.Style) {
	s.out.ClearScreen()
	if style.Bg == "" {
		return
	}
	cols, rows := s.Size()
	blank := strings.Repeat(" ", cols)
	for r := 0; r < rows; r++ {
		s.Print(0, r, blank, style)
	}
}

func (s *TermSurface) Print(col, row int, text string, style domain.Style) int {
	s.out.MoveCursor(row+1, col+1)
	s.buf.WriteString(s.styled(text, style).String())
	return runewidth.StringWidth(text)
}

func (s *TermSurface) styled(text string, style domain.Style) termenv.Style {
	st := s.out.String(text)
	if style.Fg != "" {
		st = st.Foreground(s.out.Color(string(style.Fg)))
	}
	if style.Bg != "" {
		st = st.Background(s.out.Color(string(style.Bg)))
	}
	if style.Bold {
		st = st.Bold()
	}
	if style.Italic {
		st = st.Italic()
	}
	if style.Underline {
		st = st.Underline()
	}
	if style.Strikethrough {
		st = st.CrossOut()
	}
	if style.Dim {
		st = st.Faint()
	}
	return st
}

func (s *TermSurface) DrawImage(col, row int, img image.Image, cols, rows int) error {
	data, err := s.encoder.Encode(img, cols, rows)
	if err != nil {
		return fmt.Errorf("%s encoder: %w", s.encoder.Protocol(), err)
	}
	s.out.MoveCursor(row+1, col+1)
	s.buf.Write(data)
	return nil
}

func (s *TermSurface) Flush() error {
	_, err := s.w.Write(s.buf.Bytes())
	s.buf.Reset()
	return err
}

// Enter switches the terminal to raw mode on the alternate screen. The returned function
// restores it.
func (s *TermSurface) Enter() (restore func() error, err error) {
	var state *term.State
	if s.fd >= 0 {
		if state, err = term.MakeRaw(s.fd); err != nil {
			return nil, fmt.Errorf("failed to enter raw mode: %w", err)
		}
	}
	direct := termenv.NewOutput(s.w)
	direct.AltScreen()
	direct.HideCursor()
	return func() error {
		direct.ShowCursor()
		direct.ExitAltScreen()
		if state != nil {
			return term.Restore(s.fd, state)
		}
		return nil
	}, nil
}

// Cell is one column of a VirtualSurface. Wide runes leave an empty continuation cell.
type Cell struct {
	Text  string
	Style domain.Style
}

// PlacedImage records an image drawn on a VirtualSurface.
type PlacedImage struct {
	Col, Row   int
	Cols, Rows int
	Image      image.Image
}

// VirtualSurface is an in-memory cell grid used by tests and exports.
type VirtualSurface struct {
	cols, rows int
	cells      []Cell
	Images     []PlacedImage
}

// NewVirtualSurface creates a blank cols x rows surface.
func NewVirtualSurface(cols, rows int) *VirtualSurface {
	v := &VirtualSurface{cols: cols, rows: rows, cells: make([]Cell, cols*rows)}
	v.Clear(domain.Style{})
	return v
}

func (v *VirtualSurface) Size() (int, int) { return v.cols, v.rows }

func (v *VirtualSurface) Clear(style domain.Style) {
	for i := range v.cells {
		v.cells[i] = Cell{Text: " ", Style: style}
	}
	v.Images = nil
}

func (v *VirtualSurface) Print(col, row int, text string, style domain.Style) int {
	used := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		c := col + used
		if row >= 0 && row < v.rows && c >= 0 && c+w <= v.cols {
			v.cells[row*v.cols+c] = Cell{Text: string(r), Style: style}
			if w == 2 {
				v.cells[row*v.cols+c+1] = Cell{Style: style}
			}
		}
		used += w
	}
	return used
}

func (v *VirtualSurface) DrawImage(col, row int, img image.Image, cols, rows int) error {
	v.Images = append(v.Images, PlacedImage{Col: col, Row: row, Cols: cols, Rows: rows, Image: img})
	return nil
}

func (v *VirtualSurface) Flush() error { return nil }

// Cell returns the cell at col, row.
func (v *VirtualSurface) Cell(col, row int) Cell {
	if col < 0 || col >= v.cols || row < 0 || row >= v.rows {
		return Cell{}
	}
	return v.cells[row*v.cols+col]
}

// Line returns the text of row with trailing spaces removed.
func (v *VirtualSurface) Line(row int) string {
	var sb strings.Builder
	for c := 0; c < v.cols; c++ {
		sb.WriteString(v.Cell(c, row).Text)
	}
	return strings.TrimRight(sb.String(), " ")
}

// String returns every row, one per line.
func (v *VirtualSurface) String() string {
	lines := make([]string, v.rows)
	for r := range lines {
		lines[r] = v.Line(r)
	}
	return strings.Join(lines, "\n")
}
