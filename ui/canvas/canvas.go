// Package canvas provides the image canvas for one viewport side.
package canvas

import (
	"image"
	"sync"

	"anpr-validator/internal/viewport"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// ViewportCanvas displays a viewport controller and routes clicks and wheel
// events to it. Rendering happens in raster pixels, so tap positions are
// converted from fyne units before reaching the controller.
type ViewportCanvas struct {
	widget.BaseWidget

	vp     *viewport.Controller
	raster *fynecanvas.Raster

	mu          sync.Mutex
	pixW, pixH  int // Last raster size in pixels
	minSize     fyne.Size
	onChange    func()
	onLeftClick func(x, y float64) // Pixel coordinates, after the zoom was applied
}

// NewViewportCanvas creates a canvas bound to vp.
func NewViewportCanvas(vp *viewport.Controller) *ViewportCanvas {
	vc := &ViewportCanvas{
		vp: vp,
		minSize: fyne.NewSize(
			viewport.DefaultCanvasWidth,
			viewport.DefaultCanvasHeight,
		),
	}
	vc.raster = fynecanvas.NewRaster(vc.draw)
	vc.raster.ScaleMode = fynecanvas.ImageScalePixels
	vc.ExtendBaseWidget(vc)
	return vc
}

// Viewport returns the bound controller.
func (vc *ViewportCanvas) Viewport() *viewport.Controller {
	return vc.vp
}

// OnChange sets the callback invoked after a click or wheel event changed
// the zoom state.
func (vc *ViewportCanvas) OnChange(callback func()) {
	vc.onChange = callback
}

// OnLeftClick sets a callback receiving the pixel position of every tap.
func (vc *ViewportCanvas) OnLeftClick(callback func(x, y float64)) {
	vc.onLeftClick = callback
}

// SetMinSize sets the minimum widget size.
func (vc *ViewportCanvas) SetMinSize(size fyne.Size) {
	vc.minSize = size
	vc.Refresh()
}

// draw is the raster drawing function.
func (vc *ViewportCanvas) draw(w, h int) image.Image {
	vc.mu.Lock()
	vc.pixW, vc.pixH = w, h
	vc.mu.Unlock()
	return vc.vp.Render(w, h)
}

// toPixels converts a widget position into raster pixel coordinates.
func (vc *ViewportCanvas) toPixels(pos fyne.Position) (float64, float64, bool) {
	size := vc.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return 0, 0, false
	}
	// Reject positions outside the widget
	if pos.X < 0 || pos.Y < 0 || pos.X > size.Width || pos.Y > size.Height {
		return 0, 0, false
	}

	vc.mu.Lock()
	pw, ph := vc.pixW, vc.pixH
	vc.mu.Unlock()
	if pw == 0 || ph == 0 {
		pw, ph = int(size.Width), int(size.Height)
	}
	x := float64(pos.X) * float64(pw) / float64(size.Width)
	y := float64(pos.Y) * float64(ph) / float64(size.Height)
	return x, y, true
}

// Tapped zooms on the clicked point.
func (vc *ViewportCanvas) Tapped(ev *fyne.PointEvent) {
	x, y, ok := vc.toPixels(ev.Position)
	if !ok {
		return
	}
	if vc.vp.ClickZoom(x, y) {
		vc.changed()
	}
	if vc.onLeftClick != nil {
		vc.onLeftClick(x, y)
	}
}

// TappedSecondary returns to the fitted view.
func (vc *ViewportCanvas) TappedSecondary(*fyne.PointEvent) {
	vc.vp.Reset()
	vc.changed()
}

// Scrolled uses the wheel for zoom.
func (vc *ViewportCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		vc.vp.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		vc.vp.ZoomOut()
	} else {
		return
	}
	vc.changed()
}

// ZoomIn zooms on the image center.
func (vc *ViewportCanvas) ZoomIn() {
	vc.vp.ZoomIn()
	vc.changed()
}

// ZoomOut returns to the fitted view.
func (vc *ViewportCanvas) ZoomOut() {
	vc.vp.ZoomOut()
	vc.changed()
}

func (vc *ViewportCanvas) changed() {
	vc.raster.Refresh()
	if vc.onChange != nil {
		vc.onChange()
	}
}

// Refresh redraws the raster.
func (vc *ViewportCanvas) Refresh() {
	vc.raster.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (vc *ViewportCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &viewportCanvasRenderer{canvas: vc}
}

type viewportCanvasRenderer struct {
	canvas *ViewportCanvas
}

func (r *viewportCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *viewportCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.minSize
}

func (r *viewportCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *viewportCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *viewportCanvasRenderer) Destroy() {}
