package service

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// FillTransparent sets the color channels of every fully transparent pixel of a PNG to fill, keeping them
// transparent. Images without transparent pixels are returned unchanged.
func FillTransparent(data []byte, fill color.NRGBA) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return data, nil
	}

	nrgba := imaging.Clone(img)
	changed := false
	for i := 0; i+3 < len(nrgba.Pix); i += 4 {
		if nrgba.Pix[i+3] != 0 {
			continue
		}
		nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2] = fill.R, fill.G, fill.B
		changed = true
	}

	if !changed {
		return data, nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, nrgba, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return buf.Bytes(), nil
}

// ParseHexColor parses "#rrggbb" or "rrggbb" into an opaque color.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
