// Package panels provides UI panels for the application.
package panels

import (
	"fmt"

	"anpr-validator/internal/app"
	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/verdict"
	"anpr-validator/ui/canvas"
	"anpr-validator/ui/dialogs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SidePanel shows one side of the current record: the recognized text, the
// zoomable image and the verdict buttons.
type SidePanel struct {
	session   *app.Session
	side      vimage.Side
	window    fyne.Window
	canvas    *canvas.ViewportCanvas
	container fyne.CanvasObject

	textLabel    *widget.Label
	zoomLabel    *widget.Label
	verdictLabel *widget.Label
}

// NewSidePanel creates the panel for side.
func NewSidePanel(session *app.Session, side vimage.Side) *SidePanel {
	sp := &SidePanel{
		session: session,
		side:    side,
	}

	// Initialize all labels first (before any callbacks can fire)
	sp.textLabel = widget.NewLabel("")
	sp.textLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	sp.textLabel.Alignment = fyne.TextAlignCenter
	sp.zoomLabel = widget.NewLabel("Normal View")
	sp.verdictLabel = widget.NewLabel("")
	sp.verdictLabel.Alignment = fyne.TextAlignCenter

	sp.canvas = canvas.NewViewportCanvas(session.Viewport(side))
	sp.canvas.OnChange(sp.updateZoomLabel)

	correctBtn := widget.NewButton("Correct", func() {
		sp.record(verdict.Correct)
	})
	correctBtn.Importance = widget.SuccessImportance
	incorrectBtn := widget.NewButton("Incorrect", sp.showReasons)
	incorrectBtn.Importance = widget.DangerImportance

	zoomInBtn := widget.NewButton("+", sp.canvas.ZoomIn)
	zoomOutBtn := widget.NewButton("-", sp.canvas.ZoomOut)
	resetBtn := widget.NewButton("Reset", sp.canvas.ZoomOut)

	title := widget.NewLabelWithStyle(side.String()+" Image", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	top := container.NewVBox(title, sp.textLabel)
	zoomBar := container.NewHBox(widget.NewLabel("Zoom:"), zoomOutBtn, zoomInBtn, resetBtn, sp.zoomLabel)
	bottom := container.NewVBox(
		zoomBar,
		container.NewGridWithColumns(2, correctBtn, incorrectBtn),
		sp.verdictLabel,
	)

	sp.container = container.NewBorder(top, bottom, nil, nil, sp.canvas)
	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.window = w
}

// Canvas returns the image canvas.
func (sp *SidePanel) Canvas() *canvas.ViewportCanvas {
	return sp.canvas
}

// Update refreshes the panel for the current record.
func (sp *SidePanel) Update() {
	rec, _, err := sp.session.Current()
	if err != nil {
		sp.textLabel.SetText("")
		sp.verdictLabel.SetText("")
	} else {
		text := rec.Text(sp.side)
		if text == "" {
			text = "-"
		}
		sp.textLabel.SetText(fmt.Sprintf("%s: %s", sp.side, text))
		sp.showVerdict(sp.session.Verdict(sp.side))
	}
	sp.canvas.Refresh()
	sp.updateZoomLabel()
}

func (sp *SidePanel) showVerdict(v verdict.Verdict) {
	if v == verdict.None {
		sp.verdictLabel.SetText("")
		return
	}
	sp.verdictLabel.SetText("Marked: " + v.Label())
}

func (sp *SidePanel) updateZoomLabel() {
	sp.zoomLabel.SetText(sp.session.Viewport(sp.side).ZoomLabel())
}

func (sp *SidePanel) showReasons() {
	if sp.window == nil {
		return
	}
	dialogs.NewReasonDialog(sp.side, sp.window, func(_ vimage.Side, v verdict.Verdict) {
		sp.record(v)
	}).Show()
}

// record sends v to the session. A ledger write error still records the
// verdict and is reported by the main window through EventLedgerError.
func (sp *SidePanel) record(v verdict.Verdict) {
	err := sp.session.RecordVerdict(sp.side, v)
	current := sp.session.Verdict(sp.side)
	if err != nil && current != v && sp.window != nil {
		dialog.ShowError(err, sp.window)
	}
	sp.showVerdict(current)
}
