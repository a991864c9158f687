package ports

import (
	"image"

	"github.com/aretw0/podium/pkg/domain"
)

// Surface is a drawing target addressed in cells. Writes outside the surface are clipped.
type Surface interface {
	// Size returns the number of columns and rows.
	Size() (cols, rows int)

	// Clear fills the whole surface with the background of style.
	Clear(style domain.Style)

	// Print writes text at (col, row) and returns the number of columns used.
	Print(col, row int, text string, style domain.Style) int

	// DrawImage draws img scaled to fit cols x rows cells with its top-left corner at (col, row).
	DrawImage(col, row int, img image.Image, cols, rows int) error

	// Flush makes everything drawn so far visible.
	Flush() error
}

// ImageEncoder encodes an image for a terminal graphics protocol.
type ImageEncoder interface {
	// Protocol returns the protocol name (ascii, kitty, iterm2).
	Protocol() string

	// Encode returns the bytes that draw img over cols x rows cells at the current cursor.
	Encode(img image.Image, cols, rows int) ([]byte, error)
}

// StyleResolver maps an element kind (for example "heading1" or "code") to its style.
type StyleResolver interface {
	Style(element string) domain.Style
	Alignment(element string) domain.Alignment
}
