package termimg

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

const kittyChunk = 4096

// Kitty encodes images with the kitty graphics protocol.
type Kitty struct{}

func (Kitty) Protocol() string { return ProtocolKitty }

func (Kitty) Encode(img image.Image, cols, rows int) ([]byte, error) {
	payload, err := pngBase64(img)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	for first := true; first || len(payload) > 0; first = false {
		n := min(kittyChunk, len(payload))
		chunk := payload[:n]
		payload = payload[n:]
		more := 0
		if len(payload) > 0 {
			more = 1
		}
		if first {
			fmt.Fprintf(&out, "\x1b_Gf=100,a=T,q=2,c=%d,r=%d,m=%d;%s\x1b\\", cols, rows, more, chunk)
		} else {
			fmt.Fprintf(&out, "\x1b_Gm=%d;%s\x1b\\", more, chunk)
		}
	}
	return out.Bytes(), nil
}

// ITerm2 encodes images with the iTerm2 inline image protocol.
type ITerm2 struct{}

func (ITerm2) Protocol() string { return ProtocolITerm2 }

func (ITerm2) Encode(img image.Image, cols, rows int) ([]byte, error) {
	payload, err := pngBase64(img)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("\x1b]1337;File=inline=1;width=%d;height=%d;preserveAspectRatio=1:%s\a",
		cols, rows, payload)), nil
}

func pngBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
