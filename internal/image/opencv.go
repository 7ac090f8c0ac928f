package image

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVResampler resamples with OpenCV's Lanczos-4 interpolation.
type OpenCVResampler struct {
	Interpolation gocv.InterpolationFlags
}

// NewOpenCVResampler creates a Lanczos-4 resampler.
func NewOpenCVResampler() *OpenCVResampler {
	return &OpenCVResampler{Interpolation: gocv.InterpolationLanczos4}
}

// Name implements Resampler.
func (r *OpenCVResampler) Name() string {
	return "opencv"
}

// Resize implements Resampler.
func (r *OpenCVResampler) Resize(src image.Image, sr image.Rectangle, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	sb := src.Bounds()
	sr = sr.Intersect(sb)
	if sr.Empty() {
		return nil, fmt.Errorf("empty source region")
	}

	mat, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	// Mat coordinates start at zero regardless of the image's bounds origin.
	region := mat.Region(sr.Sub(sb.Min))
	defer region.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(region, &dst, image.Pt(w, h), 0, 0, r.Interpolation)

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert resized mat: %w", err)
	}
	return out, nil
}
