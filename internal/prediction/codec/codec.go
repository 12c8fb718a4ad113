// Package codec turns canvas output into the payload the classification
// backend expects.
package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
)

const (
	dataURIScheme = "data:"
	pngDataURI    = "data:image/png;base64,"
)

// Encode strips a data-URI prefix such as "data:image/png;base64," and returns
// the bare payload. Anything without a recognised prefix is returned unchanged.
func Encode(raw string) string {
	if !strings.HasPrefix(raw, dataURIScheme) {
		return raw
	}
	i := strings.IndexByte(raw, ',')
	if i < 0 {
		return raw
	}
	return raw[i+1:]
}

// Rasterize flattens img onto white, resizes it to size x size and returns it
// as a PNG data URI.
func Rasterize(img image.Image, size uint) (string, error) {
	if img == nil {
		return "", fmt.Errorf("codec: nil image")
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return "", fmt.Errorf("codec: empty image %dx%d", b.Dx(), b.Dy())
	}

	// Canvas exports are transparent where nothing was drawn.
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	var out image.Image = flat
	if size > 0 {
		out = resize.Resize(size, size, flat, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return "", fmt.Errorf("codec: encode png: %w", err)
	}
	return pngDataURI + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// RasterizeReader decodes a PNG or JPEG stream and rasterizes it.
func RasterizeReader(r io.Reader, size uint) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("codec: decode image: %w", err)
	}
	return Rasterize(img, size)
}
