package termimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/muesli/termenv"
	"github.com/nfnt/resize"
)

// ASCII draws images with half block characters: every cell shows two vertical pixels,
// the upper one as foreground and the lower one as background.
type ASCII struct {
	// Profile limits the colors used. The zero value means true color.
	Profile termenv.Profile
}

func (ASCII) Protocol() string { return ProtocolASCII }

func (a ASCII) Encode(img image.Image, cols, rows int) ([]byte, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", cols, rows)
	}
	scaled := resize.Resize(uint(cols), uint(rows*2), img, resize.Bilinear)
	b := scaled.Bounds()

	var out bytes.Buffer
	for y := 0; y < rows; y++ {
		if y > 0 {
			fmt.Fprintf(&out, termenv.CSI+termenv.CursorBackSeq, cols)
			fmt.Fprintf(&out, termenv.CSI+termenv.CursorDownSeq, 1)
		}
		for x := 0; x < cols; x++ {
			top := scaled.At(b.Min.X+x, b.Min.Y+2*y)
			bottom := scaled.At(b.Min.X+x, b.Min.Y+2*y+1)
			s := a.Profile.String("▀").
				Foreground(a.Profile.Color(hex(top))).
				Background(a.Profile.Color(hex(bottom)))
			out.WriteString(s.String())
		}
	}
	return out.Bytes(), nil
}

func hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
