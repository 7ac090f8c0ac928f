// Package dialogs provides application dialogs.
package dialogs

import (
	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/verdict"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// ReasonDialog asks the operator why a recognized value is wrong.
type ReasonDialog struct {
	side   vimage.Side
	window fyne.Window
	dlg    dialog.Dialog

	// Callback
	onPick func(vimage.Side, verdict.Verdict)
}

// NewReasonDialog creates a reason picker for side.
func NewReasonDialog(side vimage.Side, window fyne.Window, onPick func(vimage.Side, verdict.Verdict)) *ReasonDialog {
	return &ReasonDialog{
		side:   side,
		window: window,
		onPick: onPick,
	}
}

// Show displays the dialog.
func (d *ReasonDialog) Show() {
	reasons := verdict.Reasons()
	buttons := make([]fyne.CanvasObject, 0, len(reasons))
	for _, o := range reasons {
		v := o.Verdict
		btn := widget.NewButton(o.Label, func() {
			d.dlg.Hide()
			if d.onPick != nil {
				d.onPick(d.side, v)
			}
		})
		btn.Importance = widget.DangerImportance
		buttons = append(buttons, btn)
	}

	content := container.NewVBox(
		widget.NewLabel("Select the error type:"),
		container.NewGridWithColumns(2, buttons...),
	)
	d.dlg = dialog.NewCustom("Select Error Type - "+d.side.String(), "Cancel", content, d.window)
	d.dlg.Show()
}
