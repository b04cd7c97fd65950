package surface

import (
	"image"
	"image/color"
	"image/draw"
)

// DrawTarget is the staging canvas a caller paints a frame into before it is
// uploaded. It borrows write access to one Surface's pixels: it never owns
// server resources, and discarding it costs nothing. The underlying image is
// a plain RGBA buffer, so everything in image/draw and x/image works on it.
type DrawTarget struct {
	img *image.RGBA
}

// NewDrawTarget returns a black canvas of the given size.
func NewDrawTarget(width, height int) *DrawTarget {
	t := &DrawTarget{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	t.Clear(color.Black)
	return t
}

// Image exposes the staging buffer for drawing.
func (t *DrawTarget) Image() *image.RGBA { return t.img }

// Bounds reports the drawable area.
func (t *DrawTarget) Bounds() image.Rectangle { return t.img.Bounds() }

// Set writes one pixel.
func (t *DrawTarget) Set(x, y int, c color.Color) { t.img.Set(x, y, c) }

// Clear fills the whole canvas with one color.
func (t *DrawTarget) Clear(c color.Color) {
	draw.Draw(t.img, t.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Viewport returns a target restricted to one rectangle of the same staging
// buffer. Writes through the viewport land in the parent canvas; the viewport
// reports its own origin at (0,0) so per-monitor drawing code stays in local
// coordinates.
func (t *DrawTarget) Viewport(r image.Rectangle) *DrawTarget {
	sub := t.img.SubImage(r.Intersect(t.img.Bounds())).(*image.RGBA)
	local := sub.Rect.Sub(sub.Rect.Min)
	return &DrawTarget{img: &image.RGBA{
		Pix:    sub.Pix,
		Stride: sub.Stride,
		Rect:   local,
	}}
}
