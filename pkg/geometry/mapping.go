package geometry

// ToDisplayRect returns where an image of the given size lands on a canvas
// when drawn at scale and centered.
func ToDisplayRect(image, canvas Size, scale float64) Rect {
	w := image.Width * scale
	h := image.Height * scale
	return Rect{
		X:      (canvas.Width - w) / 2,
		Y:      (canvas.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}

// ScreenToImage converts a canvas position to source-image coordinates for
// an image displayed in display at scale. The second result is false when
// the position falls outside the image.
func ScreenToImage(x, y float64, display Rect, scale float64) (Point2D, bool) {
	if scale <= 0 {
		return Point2D{}, false
	}
	p := Point2D{
		X: (x - display.X) / scale,
		Y: (y - display.Y) / scale,
	}
	w := display.Width / scale
	h := display.Height / scale
	if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
		return Point2D{}, false
	}
	return p, true
}

// ImageToScreen is the inverse of ScreenToImage.
func ImageToScreen(p Point2D, display Rect, scale float64) Point2D {
	return Point2D{
		X: display.X + p.X*scale,
		Y: display.Y + p.Y*scale,
	}
}
