// Package image provides plate image loading, lookup, and resampling.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"anpr-validator/pkg/geometry"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Side indicates which camera of a vehicle pass an image comes from.
type Side int

const (
	SideFront Side = iota
	SideRear
)

// Sides lists both sides in display order.
var Sides = [...]Side{SideFront, SideRear}

func (s Side) String() string {
	switch s {
	case SideFront:
		return "Front"
	case SideRear:
		return "Rear"
	default:
		return "Unknown"
	}
}

// Key returns the short lowercase name used in judgement keys and exports.
func (s Side) Key() string {
	switch s {
	case SideFront:
		return "front"
	case SideRear:
		return "rear"
	default:
		return "unknown"
	}
}

// ParseSide converts "front"/"rear" (any case) to a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "fr":
		return SideFront, nil
	case "rear", "re", "back":
		return SideRear, nil
	default:
		return SideFront, fmt.Errorf("unknown side %q", s)
	}
}

// Layer is a decoded capture for one side of a record.
type Layer struct {
	Path  string      // Resolved file path
	Image image.Image // Decoded raster
	Side  Side
}

// Load decodes the image at path.
func Load(path string, side Side) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Layer{Path: path, Image: img, Side: side}, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Size returns the image dimensions.
func (l *Layer) Size() geometry.Size {
	return geometry.Size{
		Width:  float64(l.Width()),
		Height: float64(l.Height()),
	}
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// CountImages returns the number of supported image files directly inside dir.
func CountImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read image folder: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && IsSupportedFormat(e.Name()) {
			n++
		}
	}
	return n, nil
}
