// Package viewport implements the per-side zoom state of a displayed capture.
package viewport

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	vimage "anpr-validator/internal/image"
	"anpr-validator/pkg/geometry"

	"golang.org/x/image/draw"
)

const (
	// CropSize is the side length, in source pixels, of the zoom window.
	CropSize = 300
	// MaxZoom caps the magnification applied to a zoom window.
	MaxZoom = 2.0
	// Margin is the canvas padding, in pixels, kept free around the image.
	Margin = 20

	DefaultCanvasWidth  = 400
	DefaultCanvasHeight = 300
)

// Mode is the display mode of a viewport.
type Mode int

const (
	ModeNormal Mode = iota
	ModeZoomed
)

func (m Mode) String() string {
	if m == ModeZoomed {
		return "Zoomed"
	}
	return "Normal"
}

// State is a snapshot of a viewport's display state.
type State struct {
	Mode       Mode
	FitScale   float64
	ZoomFactor float64
	Focus      geometry.PointInt // Source pixel the zoom window is centered on
	Crop       geometry.RectInt  // Zoom window, valid in ModeZoomed
	Canvas     geometry.Size
	ImageSize  geometry.Size
	Message    string // Placeholder text shown when there is no image
}

var (
	backgroundColor  = color.RGBA{R: 236, G: 240, B: 241, A: 255}
	placeholderColor = color.RGBA{R: 127, G: 140, B: 141, A: 255}
	errorColor       = color.RGBA{R: 192, G: 57, B: 43, A: 255}
)

// Controller owns the zoom state machine for one side. It is safe for use
// from the UI thread and the renderer at the same time.
type Controller struct {
	mu        sync.Mutex
	side      vimage.Side
	img       image.Image
	state     State
	isError   bool
	resampler vimage.Resampler

	frameKey   frameKey
	frameImage image.Image
}

type frameKey struct {
	mode  Mode
	scale float64
	crop  geometry.RectInt
	w, h  int
}

// New creates an empty controller for side.
func New(side vimage.Side, resampler vimage.Resampler) *Controller {
	if resampler == nil {
		resampler = vimage.NewDrawResampler()
	}
	c := &Controller{side: side, resampler: resampler}
	c.state = State{
		Mode:       ModeNormal,
		ZoomFactor: 1,
		Canvas:     normalizeCanvas(geometry.Size{}),
		Message:    "No image\nor path not set",
	}
	return c
}

// Side returns the side this controller displays.
func (c *Controller) Side() vimage.Side {
	return c.side
}

// Load displays img fitted to canvas and resets any zoom.
func (c *Controller) Load(img image.Image, canvas geometry.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := img.Bounds()
	c.img = img
	c.isError = false
	c.frameImage = nil
	c.state = State{
		Mode:       ModeNormal,
		ZoomFactor: 1,
		Canvas:     normalizeCanvas(canvas),
		ImageSize:  geometry.NewSize(float64(b.Dx()), float64(b.Dy())),
	}
	c.state.FitScale = fitScale(c.state.ImageSize, c.state.Canvas)
}

// LoadFailed clears the image and shows message in its place. isError selects
// the error styling.
func (c *Controller) LoadFailed(message string, isError bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.img = nil
	c.isError = isError
	c.frameImage = nil
	c.state = State{
		Mode:       ModeNormal,
		ZoomFactor: 1,
		Canvas:     c.state.Canvas,
		Message:    message,
	}
}

// HasImage reports whether an image is loaded.
func (c *Controller) HasImage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img != nil
}

// State returns a snapshot of the display state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DisplayRect returns where the current image or zoom window sits on the canvas.
func (c *Controller) DisplayRect() geometry.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayRect()
}

// ClickZoom zooms on the source pixel under canvas position (x, y). Clicks
// outside the displayed image are ignored and return false.
func (c *Controller) ClickZoom(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.img == nil {
		return false
	}
	p, ok := geometry.ScreenToImage(x, y, c.displayRect(), c.scale())
	if !ok {
		return false
	}
	pt := p.ToInt()
	if c.state.Mode == ModeZoomed {
		pt.X += c.state.Crop.X
		pt.Y += c.state.Crop.Y
	}
	pt.X = geometry.ClampInt(pt.X, 0, int(c.state.ImageSize.Width)-1)
	pt.Y = geometry.ClampInt(pt.Y, 0, int(c.state.ImageSize.Height)-1)
	c.zoomToPoint(pt)
	return true
}

// ZoomToPoint shows the zoom window centered on source pixel p.
func (c *Controller) ZoomToPoint(p geometry.PointInt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil {
		return
	}
	c.zoomToPoint(p)
}

// ZoomIn zooms on the image center from the normal view. When already
// zoomed it re-centers on the current focus without magnifying further.
func (c *Controller) ZoomIn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img == nil {
		return
	}
	if c.state.Mode == ModeZoomed {
		c.zoomToPoint(c.state.Focus)
		return
	}
	bounds := geometry.NewRect(0, 0, c.state.ImageSize.Width, c.state.ImageSize.Height)
	c.zoomToPoint(bounds.Center().ToInt())
}

// ZoomOut returns to the fitted view. There is no intermediate step.
func (c *Controller) ZoomOut() {
	c.Reset()
}

// Reset returns to the fitted view.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Mode = ModeNormal
	c.state.ZoomFactor = 1
	c.state.Crop = geometry.RectInt{}
}

// ZoomLabel describes the current mode for the status line.
func (c *Controller) ZoomLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode == ModeZoomed {
		return fmt.Sprintf("Zoomed: %.1fx", c.state.ZoomFactor)
	}
	return "Normal View"
}

// Resize adapts to a new canvas size. The fit scale is recomputed and, when
// zoomed, so is the zoom factor for the same window.
func (c *Controller) Resize(canvas geometry.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resize(canvas)
}

// Render draws the current view into a w x h frame.
func (c *Controller) Render(w, h int) image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	if float64(w) != c.state.Canvas.Width || float64(h) != c.state.Canvas.Height {
		c.resize(geometry.NewSize(float64(w), float64(h)))
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	vimage.Fill(out, backgroundColor)

	if c.img == nil {
		col := placeholderColor
		if c.isError {
			col = errorColor
		}
		vimage.DrawCenteredText(out, strings.Split(c.state.Message, "\n"), col)
		return out
	}

	scaled, err := c.frame()
	if err != nil {
		vimage.DrawCenteredText(out, []string{"Error rendering image:", err.Error()}, errorColor)
		return out
	}
	r := c.displayRect()
	origin := image.Pt(int(math.Round(r.X)), int(math.Round(r.Y)))
	draw.Draw(out, scaled.Bounds().Sub(scaled.Bounds().Min).Add(origin), scaled, scaled.Bounds().Min, draw.Src)
	return out
}

func (c *Controller) zoomToPoint(p geometry.PointInt) {
	crop := geometry.CenteredSquare(p, CropSize, c.state.ImageSize)
	if crop.Empty() {
		return
	}
	c.state.Mode = ModeZoomed
	c.state.Focus = p
	c.state.Crop = crop
	c.state.ZoomFactor = zoomFactor(crop, c.state.Canvas)
}

func (c *Controller) resize(canvas geometry.Size) {
	c.state.Canvas = normalizeCanvas(canvas)
	if c.img == nil {
		return
	}
	c.state.FitScale = fitScale(c.state.ImageSize, c.state.Canvas)
	if c.state.Mode == ModeZoomed {
		c.state.ZoomFactor = zoomFactor(c.state.Crop, c.state.Canvas)
	}
}

func (c *Controller) scale() float64 {
	if c.state.Mode == ModeZoomed {
		return c.state.ZoomFactor
	}
	return c.state.FitScale
}

func (c *Controller) displayRect() geometry.Rect {
	if c.state.Mode == ModeZoomed {
		crop := geometry.NewSize(float64(c.state.Crop.Width), float64(c.state.Crop.Height))
		return geometry.ToDisplayRect(crop, c.state.Canvas, c.state.ZoomFactor)
	}
	return geometry.ToDisplayRect(c.state.ImageSize, c.state.Canvas, c.state.FitScale)
}

// frame returns the resampled image for the current state, reusing the
// previous result when nothing changed.
func (c *Controller) frame() (image.Image, error) {
	r := c.displayRect()
	key := frameKey{
		mode:  c.state.Mode,
		scale: c.scale(),
		crop:  c.state.Crop,
		w:     max(1, int(math.Round(r.Width))),
		h:     max(1, int(math.Round(r.Height))),
	}
	if c.frameImage != nil && key == c.frameKey {
		return c.frameImage, nil
	}

	b := c.img.Bounds()
	src := b
	if c.state.Mode == ModeZoomed {
		src = image.Rect(c.state.Crop.X, c.state.Crop.Y,
			c.state.Crop.X+c.state.Crop.Width, c.state.Crop.Y+c.state.Crop.Height).Add(b.Min)
	}
	scaled, err := c.resampler.Resize(c.img, src, key.w, key.h)
	if err != nil {
		return nil, err
	}
	c.frameKey = key
	c.frameImage = scaled
	return scaled, nil
}

func normalizeCanvas(s geometry.Size) geometry.Size {
	if s.Width <= 0 {
		s.Width = DefaultCanvasWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultCanvasHeight
	}
	return s
}

// available returns the usable canvas extent along one axis.
func available(extent float64) float64 {
	return math.Max(extent-Margin, 1)
}

func fitScale(img, canvas geometry.Size) float64 {
	if img.IsEmpty() {
		return 1
	}
	return math.Min(available(canvas.Width)/img.Width, available(canvas.Height)/img.Height)
}

func zoomFactor(crop geometry.RectInt, canvas geometry.Size) float64 {
	f := MaxZoom
	f = math.Min(f, available(canvas.Width)/float64(crop.Width))
	f = math.Min(f, available(canvas.Height)/float64(crop.Height))
	return f
}
