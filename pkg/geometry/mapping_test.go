package geometry

import (
	"math"
	"testing"
)

func TestToDisplayRect_Centers(t *testing.T) {
	r := ToDisplayRect(NewSize(200, 100), NewSize(400, 300), 1.5)

	if r.Width != 300 || r.Height != 150 {
		t.Fatalf("expected 300x150, got %vx%v", r.Width, r.Height)
	}
	if r.X != 50 || r.Y != 75 {
		t.Errorf("expected origin (50,75), got (%v,%v)", r.X, r.Y)
	}
}

func TestScreenToImage_RoundTrip(t *testing.T) {
	img := NewSize(640, 480)
	canvas := NewSize(800, 600)
	scales := []float64{0.01, 0.3, 0.5, 1, 1.2345, 2, 7.5, 100}
	points := []Point2D{
		{0, 0},
		{0.5, 0.5},
		{319.25, 240.75},
		{639, 479},
		{639.9, 479.9},
		{12, 400},
	}

	for _, s := range scales {
		display := ToDisplayRect(img, canvas, s)
		for _, p := range points {
			screen := ImageToScreen(p, display, s)
			got, ok := ScreenToImage(screen.X, screen.Y, display, s)
			if !ok {
				t.Fatalf("scale %v: point %+v reported out of bounds", s, p)
			}
			if math.Abs(got.X-p.X) > 1e-6 || math.Abs(got.Y-p.Y) > 1e-6 {
				t.Errorf("scale %v: expected %+v, got %+v", s, p, got)
			}
		}
	}
}

func TestScreenToImage_OutOfBounds(t *testing.T) {
	display := ToDisplayRect(NewSize(100, 100), NewSize(300, 300), 1)

	cases := []struct {
		name string
		x, y float64
	}{
		{"left of image", 99, 150},
		{"above image", 150, 99},
		{"right edge", 200, 150},
		{"below image", 150, 250},
		{"far away", -1000, 5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := ScreenToImage(tc.x, tc.y, display, 1); ok {
				t.Errorf("expected (%v,%v) to be out of bounds", tc.x, tc.y)
			}
		})
	}
}

func TestScreenToImage_ZeroScale(t *testing.T) {
	if _, ok := ScreenToImage(10, 10, Rect{}, 0); ok {
		t.Error("expected zero scale to report out of bounds")
	}
}

func TestCenteredSquare(t *testing.T) {
	bounds := NewSize(1000, 800)

	tests := []struct {
		name   string
		center PointInt
		side   int
		bounds Size
		want   RectInt
	}{
		{"interior", PointInt{500, 400}, 300, bounds, RectInt{350, 250, 300, 300}},
		{"top-left corner shifts", PointInt{10, 20}, 300, bounds, RectInt{0, 0, 300, 300}},
		{"bottom-right corner shifts", PointInt{990, 790}, 300, bounds, RectInt{700, 500, 300, 300}},
		{"small image shrinks", PointInt{50, 40}, 300, NewSize(120, 90), RectInt{0, 0, 120, 90}},
		{"narrow image shrinks one axis", PointInt{60, 700}, 300, NewSize(120, 800), RectInt{0, 500, 120, 300}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CenteredSquare(tc.center, tc.side, tc.bounds)
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}
