// Package render paints engine state into RGB pixel buffers.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
)

// Frame is one reusable RGBA pixel buffer. A frame is an atomic unit: it is
// fully repainted every tick, so no cross-tick cleanup is ever needed.
type Frame struct {
	img *image.RGBA
}

// NewFrame allocates a frame of the given dimensions.
func NewFrame(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("frame dimensions must be positive, got %dx%d", width, height)
	}
	return &Frame{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return f.img.Rect.Dx()
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.img.Rect.Dy()
}

// Image exposes the underlying RGBA image.
func (f *Frame) Image() *image.RGBA {
	return f.img
}

// Clear fills the whole frame with one color.
func (f *Frame) Clear(c color.RGBA) {
	draw.Draw(f.img, f.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// FillRect fills an axis-aligned rectangle, clipped to the frame.
func (f *Frame) FillRect(x, y, w, h int, c color.RGBA) {
	r := image.Rect(x, y, x+w, y+h).Intersect(f.img.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(f.img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// FadeToBlack darkens every pixel toward black by alpha/255. Used for the
// seamless-loop fade overlay.
func (f *Frame) FadeToBlack(alpha uint8) {
	if alpha == 0 {
		return
	}
	keep := uint32(255 - alpha)
	pix := f.img.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = uint8(uint32(pix[i+0]) * keep / 255)
		pix[i+1] = uint8(uint32(pix[i+1]) * keep / 255)
		pix[i+2] = uint8(uint32(pix[i+2]) * keep / 255)
		pix[i+3] = 255
	}
}

// EncodePNG writes the frame as PNG.
func (f *Frame) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, f.img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
