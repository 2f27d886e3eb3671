package qrcode

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrforge/qr-service/internal/core/domain"
)

func TestEncoder_Deterministic(t *testing.T) {
	enc := NewEncoder()
	opts := domain.DefaultRenderOptions("#336699")

	a, err := enc.Encode("https://example.com", opts)
	require.NoError(t, err)
	b, err := enc.Encode("https://example.com", opts)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b), "same input must render identical bytes")

	other, err := enc.Encode("https://example.org", opts)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, other))
}

func TestEncoder_ImageGeometryAndColors(t *testing.T) {
	raw, err := NewEncoder().Encode("hello", domain.DefaultRenderOptions("#FF0000"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultQRSize, img.Bounds().Dx())
	assert.Equal(t, domain.DefaultQRSize, img.Bounds().Dy())

	// corner is quiet zone
	assert.Equal(t, color.RGBAModel.Convert(color.White), color.RGBAModel.Convert(img.At(0, 0)))

	var sawForeground bool
	red := color.RGBAModel.Convert(color.RGBA{R: 0xff, A: 0xff})
	for y := 0; y < img.Bounds().Dy() && !sawForeground; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if color.RGBAModel.Convert(img.At(x, y)) == red {
				sawForeground = true
				break
			}
		}
	}
	assert.True(t, sawForeground, "expected modules drawn in the foreground colour")
}

func TestEncoder_Rejects(t *testing.T) {
	enc := NewEncoder()

	_, err := enc.Encode("", domain.DefaultRenderOptions(""))
	assert.True(t, errors.Is(err, ErrEmptyText))

	_, err = enc.Encode("x", domain.DefaultRenderOptions("not-a-color"))
	assert.Error(t, err)

	_, err = enc.Encode(strings.Repeat("a", 5000), domain.DefaultRenderOptions(""))
	assert.Error(t, err, "payload beyond QR capacity")
}

func TestParseColor_Forms(t *testing.T) {
	red := color.RGBA{R: 0xff, A: 0xff}
	for _, in := range []string{"#f00", "#F00C", "#ff0000", "#FF000080"} {
		got, err := parseColor(in, domain.DefaultQRColor)
		require.NoError(t, err, in)
		assert.Equal(t, red, got, in)
	}

	got, err := parseColor("", domain.DefaultQRBackground)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, got)

	_, err = parseColor("#12345", domain.DefaultQRColor)
	assert.Error(t, err)
}
