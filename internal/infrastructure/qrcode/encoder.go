// Package qrcode renders QR symbols to PNG.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/lucasb-eyer/go-colorful"
	qr "github.com/skip2/go-qrcode"

	"github.com/qrforge/qr-service/internal/core/domain"
)

var ErrEmptyText = errors.New("qr text is empty")

// Encoder renders text at medium error correction. Output is a function of
// its inputs only.
type Encoder struct {
	level qr.RecoveryLevel
}

func NewEncoder() *Encoder {
	return &Encoder{level: qr.Medium}
}

// Encode draws the symbol centred on a Size x Size canvas with a quiet zone
// of Margin modules on each side.
func (e *Encoder) Encode(text string, opts domain.RenderOptions) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	fg, err := parseColor(opts.Colors.Foreground, domain.DefaultQRColor)
	if err != nil {
		return nil, err
	}
	bg, err := parseColor(opts.Colors.Background, domain.DefaultQRBackground)
	if err != nil {
		return nil, err
	}
	size := opts.Size
	if size <= 0 {
		size = domain.DefaultQRSize
	}
	margin := opts.Margin
	if margin < 0 {
		margin = 0
	}

	code, err := qr.New(text, e.level)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()

	modules := len(bitmap) + 2*margin
	scale := size / modules
	if scale < 1 {
		return nil, fmt.Errorf("encode qr: %d modules do not fit in %dpx", modules, size)
	}
	offset := (size - len(bitmap)*scale) / 2

	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{bg, fg})
	// index 0 (background) is the zero value, only dark modules are drawn
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0, y0 := offset+x*scale, offset+y*scale
			for py := y0; py < y0+scale; py++ {
				for px := x0; px < x0+scale; px++ {
					img.SetColorIndex(px, py, 1)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func parseColor(hex, fallback string) (color.Color, error) {
	if hex == "" {
		hex = fallback
	}
	// #rgba and #rrggbbaa are accepted at the API; the canvas is opaque.
	switch len(hex) {
	case 5:
		hex = hex[:4]
	case 9:
		hex = hex[:7]
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
