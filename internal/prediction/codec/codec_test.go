package codec

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"png data uri", "data:image/png;base64,XYZ", "XYZ"},
		{"jpeg data uri", "data:image/jpeg;base64,abc=", "abc="},
		{"bare payload", "XYZ", "XYZ"},
		{"empty", "", ""},
		{"data scheme without comma", "data:image/png", "data:image/png"},
		{"comma without scheme", "a,b", "a,b"},
		{"empty payload", "data:image/png;base64,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.in))
		})
	}
}

func TestEncode_Idempotent(t *testing.T) {
	once := Encode("data:image/png;base64,XYZ")
	assert.Equal(t, once, Encode(once))
}

func TestRasterize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	src.Set(5, 5, color.Black)

	uri, err := Rasterize(src, 16)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(Encode(uri))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 16, decoded.Bounds().Dy())

	// Transparent background is flattened to white.
	r, g, b, a := decoded.At(15, 15).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestRasterize_Errors(t *testing.T) {
	_, err := Rasterize(nil, 16)
	assert.Error(t, err)

	_, err = Rasterize(image.NewRGBA(image.Rect(0, 0, 0, 0)), 16)
	assert.Error(t, err)

	_, err = RasterizeReader(strings.NewReader("not an image"), 16)
	assert.Error(t, err)
}

func TestRasterizeReader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))

	uri, err := RasterizeReader(&buf, 4)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}
