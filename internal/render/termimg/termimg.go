// Package termimg loads images and encodes them for terminal graphics protocols.
package termimg

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/aretw0/podium/pkg/ports"
)

// Protocols understood by New.
const (
	ProtocolASCII  = "ascii"
	ProtocolKitty  = "kitty"
	ProtocolITerm2 = "iterm2"
)

// Decode reads a png, jpeg or gif image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// Load decodes the image file at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Detect picks the best protocol from the environment. getenv is usually os.Getenv.
func Detect(getenv func(string) string) string {
	switch {
	case getenv("KITTY_WINDOW_ID") != "", strings.Contains(getenv("TERM"), "kitty"),
		getenv("TERM_PROGRAM") == "ghostty":
		return ProtocolKitty
	case getenv("TERM_PROGRAM") == "iTerm.app", getenv("TERM_PROGRAM") == "WezTerm",
		getenv("LC_TERMINAL") == "iTerm2":
		return ProtocolITerm2
	}
	return ProtocolASCII
}

// New returns the encoder for protocol. Unknown protocols fall back to ascii.
func New(protocol string) ports.ImageEncoder {
	switch protocol {
	case ProtocolKitty:
		return Kitty{}
	case ProtocolITerm2:
		return ITerm2{}
	}
	return ASCII{}
}
