// Package render rasterizes drawing payloads into PNG images for the
// remote embed and into scaled-down local previews.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/dmitrijs2005/sketchsync/internal/common"

	_ "image/jpeg"
)

// Renderer produces raster images from an opaque drawing payload.
type Renderer interface {
	// Render returns the embed-ready PNG: the drawing placed on a white
	// canvas with padding around it.
	Render(drawing []byte) ([]byte, error)
	// Thumbnail returns a PNG preview whose longer side is at most maxDim
	// pixels. Drawings already within the limit are re-encoded unscaled.
	Thumbnail(drawing []byte, maxDim int) ([]byte, error)
}

// PNG renders PNG and JPEG drawing payloads.
type PNG struct {
	// MinWidth and MinHeight set the smallest canvas Render produces.
	MinWidth  int
	MinHeight int
	// Padding is the white margin added on every side.
	Padding int
}

// NewPNG returns a renderer with the default canvas geometry.
func NewPNG() *PNG {
	return &PNG{MinWidth: 400, MinHeight: 300, Padding: 20}
}

func decode(drawing []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(drawing))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorImageEncoding, err)
	}
	return img, nil
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorImageEncoding, err)
	}
	return buf.Bytes(), nil
}

func (p *PNG) Render(drawing []byte) ([]byte, error) {
	img, err := decode(drawing)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w := b.Dx() + 2*p.Padding
	h := b.Dy() + 2*p.Padding
	if w < p.MinWidth {
		w = p.MinWidth
	}
	if h < p.MinHeight {
		h = p.MinHeight
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	offset := image.Pt((w-b.Dx())/2, (h-b.Dy())/2)
	draw.Draw(canvas, b.Sub(b.Min).Add(offset), img, b.Min, draw.Over)

	return encode(canvas)
}

func (p *PNG) Thumbnail(drawing []byte, maxDim int) ([]byte, error) {
	img, err := decode(drawing)
	if err != nil {
		return nil, err
	}
	if maxDim <= 0 {
		return nil, fmt.Errorf("%w: thumbnail dimension %d", common.ErrorImageEncoding, maxDim)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer > maxDim {
		w = w * maxDim / longer
		h = h * maxDim / longer
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)

	return encode(dst)
}
