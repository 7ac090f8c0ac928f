package viewport

import (
	"errors"
	"image"
	"testing"

	vimage "anpr-validator/internal/image"
	"anpr-validator/pkg/geometry"
)

// newLoaded returns a controller showing a 1000x500 image on a 520x320
// canvas: fit scale 0.5, display rect (10, 35, 500, 250).
func newLoaded(t *testing.T) *Controller {
	t.Helper()
	c := New(vimage.SideFront, nil)
	c.Load(image.NewRGBA(image.Rect(0, 0, 1000, 500)), geometry.NewSize(520, 320))
	return c
}

func TestLoad_FitScale(t *testing.T) {
	c := newLoaded(t)
	st := c.State()
	if st.Mode != ModeNormal {
		t.Fatalf("expected normal mode, got %v", st.Mode)
	}
	if st.FitScale != 0.5 {
		t.Errorf("expected fit scale 0.5, got %v", st.FitScale)
	}
	r := c.DisplayRect()
	if r.X != 10 || r.Y != 35 || r.Width != 500 || r.Height != 250 {
		t.Errorf("unexpected display rect %+v", r)
	}
	if c.ZoomLabel() != "Normal View" {
		t.Errorf("unexpected label %q", c.ZoomLabel())
	}
}

func TestLoad_DefaultCanvas(t *testing.T) {
	c := New(vimage.SideRear, nil)
	c.Load(image.NewRGBA(image.Rect(0, 0, 380, 280)), geometry.Size{})
	st := c.State()
	if st.Canvas.Width != DefaultCanvasWidth || st.Canvas.Height != DefaultCanvasHeight {
		t.Errorf("expected default canvas, got %+v", st.Canvas)
	}
	if st.FitScale != 1 {
		t.Errorf("expected fit scale 1, got %v", st.FitScale)
	}
}

func TestClickZoom(t *testing.T) {
	c := newLoaded(t)

	if !c.ClickZoom(260, 160) {
		t.Fatal("expected click inside the image to zoom")
	}
	st := c.State()
	if st.Mode != ModeZoomed {
		t.Fatalf("expected zoomed mode, got %v", st.Mode)
	}
	if st.Focus != (geometry.PointInt{X: 500, Y: 250}) {
		t.Errorf("unexpected focus %+v", st.Focus)
	}
	want := geometry.RectInt{X: 350, Y: 100, Width: 300, Height: 300}
	if st.Crop != want {
		t.Errorf("expected crop %+v, got %+v", want, st.Crop)
	}
	if st.ZoomFactor != 1 {
		t.Errorf("expected zoom factor 1, got %v", st.ZoomFactor)
	}
	if c.ZoomLabel() != "Zoomed: 1.0x" {
		t.Errorf("unexpected label %q", c.ZoomLabel())
	}

	// The zoomed window is 300x300 centered at (110, 10). Its top-left pixel
	// maps back to the crop origin.
	if !c.ClickZoom(110, 10) {
		t.Fatal("expected click inside the zoom window to zoom")
	}
	st = c.State()
	if st.Focus != (geometry.PointInt{X: 350, Y: 100}) {
		t.Errorf("expected focus at the old crop origin, got %+v", st.Focus)
	}
	if st.Crop != (geometry.RectInt{X: 200, Y: 0, Width: 300, Height: 300}) {
		t.Errorf("expected crop shifted inside the image, got %+v", st.Crop)
	}
}

func TestClickZoom_OutsideIgnored(t *testing.T) {
	c := newLoaded(t)
	before := c.State()

	for _, p := range [][2]float64{{5, 100}, {260, 30}, {510, 160}, {260, 285}} {
		if c.ClickZoom(p[0], p[1]) {
			t.Errorf("click at %v should be ignored", p)
		}
	}
	if c.State() != before {
		t.Error("ignored clicks must not change state")
	}

	c.ClickZoom(260, 160)
	zoomed := c.State()
	if c.ClickZoom(109, 50) {
		t.Error("click left of the zoom window should be ignored")
	}
	if c.State() != zoomed {
		t.Error("ignored click changed zoomed state")
	}
}

func TestClickZoom_NoImage(t *testing.T) {
	c := New(vimage.SideFront, nil)
	if c.ClickZoom(200, 150) {
		t.Error("click without an image should be ignored")
	}
}

func TestReset_RestoresFitScale(t *testing.T) {
	c := newLoaded(t)
	fit := c.State().FitScale
	before := c.DisplayRect()

	c.ZoomToPoint(geometry.PointInt{X: 10, Y: 490})
	c.ZoomToPoint(geometry.PointInt{X: 999, Y: 0})
	c.Reset()

	st := c.State()
	if st.Mode != ModeNormal || st.FitScale != fit {
		t.Errorf("expected normal mode at %v, got %v at %v", fit, st.Mode, st.FitScale)
	}
	if c.DisplayRect() != before {
		t.Errorf("display rect changed: %+v vs %+v", c.DisplayRect(), before)
	}
}

func TestZoomIn_Idempotent(t *testing.T) {
	c := newLoaded(t)
	c.ZoomIn()
	first := c.State()
	if first.Focus != (geometry.PointInt{X: 500, Y: 250}) {
		t.Errorf("expected zoom on the image center, got %+v", first.Focus)
	}
	c.ZoomIn()
	if c.State() != first {
		t.Errorf("second ZoomIn changed state: %+v", c.State())
	}

	c.ZoomOut()
	if c.State().Mode != ModeNormal {
		t.Error("ZoomOut should return to the normal view")
	}
}

func TestZoomFactor_Ceiling(t *testing.T) {
	c := New(vimage.SideFront, nil)
	c.Load(image.NewRGBA(image.Rect(0, 0, 1600, 1200)), geometry.NewSize(1000, 1000))
	c.ZoomIn()
	if got := c.State().ZoomFactor; got != MaxZoom {
		t.Errorf("expected zoom factor capped at %v, got %v", MaxZoom, got)
	}
	if c.ZoomLabel() != "Zoomed: 2.0x" {
		t.Errorf("unexpected label %q", c.ZoomLabel())
	}
}

func TestZoom_SmallImage(t *testing.T) {
	c := New(vimage.SideFront, nil)
	c.Load(image.NewRGBA(image.Rect(0, 0, 120, 80)), geometry.NewSize(400, 300))
	c.ZoomToPoint(geometry.PointInt{X: 60, Y: 40})
	st := c.State()
	if st.Crop != (geometry.RectInt{X: 0, Y: 0, Width: 120, Height: 80}) {
		t.Errorf("expected crop clipped to the image, got %+v", st.Crop)
	}
}

func TestResize(t *testing.T) {
	c := newLoaded(t)
	c.Resize(geometry.NewSize(1020, 620))
	if got := c.State().FitScale; got != 1 {
		t.Errorf("expected fit scale 1 after resize, got %v", got)
	}

	c.ZoomIn()
	c.Resize(geometry.NewSize(320, 320))
	if got := c.State().ZoomFactor; got != 1 {
		t.Errorf("expected zoom factor 1 after shrinking, got %v", got)
	}
}

func TestLoadFailed(t *testing.T) {
	c := newLoaded(t)
	c.ZoomIn()
	c.LoadFailed("Image not found:\nm1f", true)

	if c.HasImage() {
		t.Error("expected no image after a failed load")
	}
	st := c.State()
	if st.Mode != ModeNormal || st.Message != "Image not found:\nm1f" {
		t.Errorf("unexpected state %+v", st)
	}
	if c.ClickZoom(260, 160) {
		t.Error("click on a placeholder should be ignored")
	}

	img := c.Render(200, 100)
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("unexpected frame size %v", img.Bounds())
	}
}

type countingResampler struct {
	calls int
	err   error
}

func (r *countingResampler) Name() string { return "counting" }

func (r *countingResampler) Resize(src image.Image, sr image.Rectangle, w, h int) (image.Image, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func TestRender_CachesFrames(t *testing.T) {
	rs := &countingResampler{}
	c := New(vimage.SideFront, rs)
	c.Load(image.NewRGBA(image.Rect(0, 0, 1000, 500)), geometry.NewSize(520, 320))

	c.Render(520, 320)
	c.Render(520, 320)
	if rs.calls != 1 {
		t.Errorf("expected one resample for an unchanged view, got %d", rs.calls)
	}

	c.ZoomIn()
	c.Render(520, 320)
	if rs.calls != 2 {
		t.Errorf("expected a new resample after zooming, got %d", rs.calls)
	}

	c.Render(1020, 620)
	if got := c.State().Canvas; got.Width != 1020 || got.Height != 620 {
		t.Errorf("Render should adopt the frame size, got %+v", got)
	}
}

func TestRender_ResamplerError(t *testing.T) {
	c := New(vimage.SideFront, &countingResampler{err: errors.New("boom")})
	c.Load(image.NewRGBA(image.Rect(0, 0, 100, 100)), geometry.NewSize(400, 300))
	img := c.Render(400, 300)
	if img.Bounds().Dx() != 400 {
		t.Errorf("expected a full frame even on error, got %v", img.Bounds())
	}
}
