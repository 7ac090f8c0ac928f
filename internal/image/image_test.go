package image

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes a solid w x h PNG to path.
func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	Fill(img, color.RGBA{R: 200, G: 30, B: 30, A: 255})
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolver_Order(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		files []string
		ref   string
		want  string
	}{
		{"literal name", []string{"cam1.png", "cam1.png.jpg"}, "cam1.png", "cam1.png"},
		{"extension appended", []string{"12345.jpeg", "x_12345"}, "12345", "12345.jpeg"},
		{"jpg before png", []string{"777.png", "777.jpg"}, "777", "777.jpg"},
		{"nan artifact stripped", []string{"555.png"}, "555.NaN", "555.png"},
		{"suffix scan", []string{"2024_01_lane3_9981.jpg"}, "9981", "2024_01_lane3_9981.jpg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := filepath.Join(dir, tc.name)
			if err := os.MkdirAll(sub, 0o755); err != nil {
				t.Fatal(err)
			}
			for _, f := range tc.files {
				touch(t, filepath.Join(sub, f))
			}
			got, err := NewResolver(sub).Resolve(tc.ref)
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tc.ref, err)
			}
			if want := filepath.Join(sub, tc.want); got != want {
				t.Errorf("expected %s, got %s", want, got)
			}
		})
	}
}

func TestResolver_NotFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "other.jpg"))

	r := NewResolver(dir)
	for _, ref := range []string{"missing", "", "   "} {
		if _, err := r.Resolve(ref); !errors.Is(err, ErrImageNotFound) {
			t.Errorf("Resolve(%q): expected ErrImageNotFound, got %v", ref, err)
		}
	}

	if _, err := NewResolver("").Resolve("other"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound without a folder, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plate.png")
	writePNG(t, path, 64, 32)

	layer, err := Load(path, SideRear)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if layer.Width() != 64 || layer.Height() != 32 {
		t.Errorf("expected 64x32, got %dx%d", layer.Width(), layer.Height())
	}
	if layer.Side != SideRear {
		t.Errorf("expected rear side, got %v", layer.Side)
	}

	bad := filepath.Join(dir, "broken.jpg")
	touch(t, bad)
	if _, err := Load(bad, SideFront); err == nil {
		t.Error("expected decode error for a non-image file")
	}
}

func TestCountImages(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"a.jpg", "b.PNG", "c.tiff", "notes.txt", "d.webp"} {
		touch(t, filepath.Join(dir, f))
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	n, err := CountImages(dir)
	if err != nil {
		t.Fatalf("CountImages failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 images, got %d", n)
	}
}

func TestDrawResampler_Resize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	Fill(src, color.RGBA{G: 255, A: 255})

	out, err := NewDrawResampler().Resize(src, image.Rect(10, 10, 60, 35), 200, 100)
	if err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("expected 200x100 output, got %v", b)
	}
	if _, g, _, _ := out.At(100, 50).RGBA(); g>>8 != 255 {
		t.Errorf("expected green pixel, got g=%d", g>>8)
	}

	if _, err := NewDrawResampler().Resize(src, image.Rect(500, 500, 600, 600), 10, 10); err == nil {
		t.Error("expected error for a region outside the image")
	}
	if _, err := NewDrawResampler().Resize(src, src.Bounds(), 0, 10); err == nil {
		t.Error("expected error for a zero target size")
	}
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"front": SideFront, "REAR": SideRear, " fr ": SideFront} {
		got, err := ParseSide(in)
		if err != nil || got != want {
			t.Errorf("ParseSide(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseSide("left"); err == nil {
		t.Error("expected error for unknown side")
	}
}
