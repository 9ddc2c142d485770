// Package watermark stamps a text mark onto downloaded images.
package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

// DefaultColor is translucent pink.
var DefaultColor = color.NRGBA{R: 255, G: 192, B: 203, A: 204}

// Options controls placement of the mark. Zero values select defaults.
type Options struct {
	Text   string
	Color  color.Color
	Margin int
	// Scale multiplies the 7x13 bitmap face. Zero derives it from the image size.
	Scale int
}

// ErrEmptyImage is returned when the source has no pixels.
var ErrEmptyImage = errors.New("watermark: empty image")

// Apply decodes src, draws the mark in the bottom-right corner and returns
// the result as PNG.
func Apply(src []byte, opts Options) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("watermark: decode: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	if text := strings.TrimSpace(opts.Text); text != "" {
		stamp(canvas, text, opts)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, canvas); err != nil {
		return nil, fmt.Errorf("watermark: encode: %w", err)
	}
	return out.Bytes(), nil
}

func stamp(canvas *image.RGBA, text string, opts Options) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	width := font.MeasureString(face, text).Ceil()
	height := metrics.Height.Ceil()
	if width <= 0 || height <= 0 {
		return
	}

	col := opts.Color
	if col == nil {
		col = DefaultColor
	}
	layer := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(text)

	bounds := canvas.Bounds()
	margin := opts.Margin
	if margin <= 0 {
		margin = 20
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = max(1, min(bounds.Dx(), bounds.Dy())/256)
	}
	for scale > 1 && width*scale+2*margin > bounds.Dx() {
		scale--
	}
	if width*scale+2*margin > bounds.Dx() || height*scale+2*margin > bounds.Dy() {
		margin = 0
	}

	right := bounds.Max.X - margin
	bottom := bounds.Max.Y - margin
	target := image.Rect(right-width*scale, bottom-height*scale, right, bottom).Intersect(bounds)
	if target.Empty() {
		return
	}
	draw.NearestNeighbor.Scale(canvas, target, layer, layer.Bounds(), draw.Over, nil)
}
