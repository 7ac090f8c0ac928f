package image

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Resampler scales a region of a source image to a new size.
type Resampler interface {
	// Resize returns region sr of src scaled to w x h pixels.
	Resize(src image.Image, sr image.Rectangle, w, h int) (image.Image, error)
	Name() string
}

// DrawResampler resamples with a golang.org/x/image/draw interpolator.
type DrawResampler struct {
	Kernel draw.Interpolator
}

// NewDrawResampler returns a Catmull-Rom resampler, the closest pure-Go match
// to Lanczos quality.
func NewDrawResampler() *DrawResampler {
	return &DrawResampler{Kernel: draw.CatmullRom}
}

// Name implements Resampler.
func (r *DrawResampler) Name() string {
	return "draw"
}

// Resize implements Resampler.
func (r *DrawResampler) Resize(src image.Image, sr image.Rectangle, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	sr = sr.Intersect(src.Bounds())
	if sr.Empty() {
		return nil, fmt.Errorf("empty source region")
	}
	kernel := r.Kernel
	if kernel == nil {
		kernel = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	kernel.Scale(dst, dst.Bounds(), src, sr, draw.Src, nil)
	return dst, nil
}

// NewResampler returns the resampler registered under name. Unknown names
// fall back to the pure-Go resampler.
func NewResampler(name string) Resampler {
	switch strings.ToLower(name) {
	case "opencv", "lanczos":
		return NewOpenCVResampler()
	default:
		return NewDrawResampler()
	}
}

// Fill paints the whole of dst with c.
func Fill(dst draw.Image, c color.Color) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// DrawCenteredText writes lines of text centered on dst using the built-in
// bitmap face.
func DrawCenteredText(dst draw.Image, lines []string, c color.Color) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 4
	bounds := dst.Bounds()
	total := lineHeight * len(lines)
	y := bounds.Min.Y + (bounds.Dy()-total)/2 + face.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	for _, line := range lines {
		width := d.MeasureString(line).Ceil()
		x := bounds.Min.X + (bounds.Dx()-width)/2
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
		y += lineHeight
	}
}
