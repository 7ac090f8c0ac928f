// Package mainwindow provides the main application window.
package mainwindow

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"anpr-validator/internal/app"
	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/navigator"
	"anpr-validator/internal/record"
	"anpr-validator/internal/version"
	"anpr-validator/ui/panels"
	"anpr-validator/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "ANPR Validation Tool"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	prefs   *prefs.Prefs

	sides      [2]*panels.SidePanel
	infoLabel  *widget.Label
	statsLabel *widget.Label
	statusBar  *widget.Label
	prevBtn    *widget.Button
	nextBtn    *widget.Button
}

// New creates a new main window.
func New(fyneApp fyne.App, session *app.Session, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.setupEventHandlers()

	w := p.FloatWithFallback(prefs.KeyWindowWidth, 1200)
	h := p.FloatWithFallback(prefs.KeyWindowHeight, 800)
	mw.Resize(fyne.NewSize(float32(w), float32(h)))
	mw.SetCloseIntercept(mw.onClose)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.infoLabel = widget.NewLabel("Load a CSV file to start")
	mw.infoLabel.Alignment = fyne.TextAlignCenter
	mw.statsLabel = widget.NewLabel("")
	mw.statusBar = widget.NewLabel("Ready")

	for _, side := range vimage.Sides {
		sp := panels.NewSidePanel(mw.session, side)
		sp.SetWindow(mw.Window)
		mw.sides[side] = sp
	}

	mw.prevBtn = widget.NewButton("< Previous", func() { mw.session.Previous() })
	mw.nextBtn = widget.NewButton("Next >", func() { mw.session.Next() })
	mw.updateNavButtons()

	split := container.NewHSplit(
		mw.sides[vimage.SideFront].Container(),
		mw.sides[vimage.SideRear].Container(),
	)
	split.SetOffset(0.5)

	nav := container.NewHBox(mw.prevBtn, mw.nextBtn, widget.NewSeparator(), mw.statsLabel)

	content := container.NewBorder(
		container.NewPadded(mw.infoLabel),    // top
		container.NewVBox(nav, mw.statusBar), // bottom
		nil,                                  // left
		nil,                                  // right
		split,                                // center
	)
	mw.SetContent(content)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Load CSV...", mw.onLoadCSV),
		fyne.NewMenuItem("Choose Image Folder...", mw.onChooseImageDir),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Ledger", mw.onSave),
		fyne.NewMenuItem("Export Judgements...", mw.onExportJudgements),
	)

	navMenu := fyne.NewMenu("Navigate",
		fyne.NewMenuItem("Previous Record", func() { mw.session.Previous() }),
		fyne.NewMenuItem("Next Record", func() { mw.session.Next() }),
		fyne.NewMenuItem("Go to Record...", mw.onJump),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, navMenu, helpMenu))
}

// setupKeys binds the arrow keys to navigation.
func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft:
			mw.session.Previous()
		case fyne.KeyRight:
			mw.session.Next()
		}
	})
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventDatasetLoaded, func(data interface{}) {
		info, ok := data.(app.DatasetInfo)
		if !ok {
			return
		}
		mw.SetTitle(appTitle + " - " + filepath.Base(info.Path))
		msg := fmt.Sprintf("Loaded %d records. Results: %s", info.Records, filepath.Base(info.LedgerPath))
		if info.Resumed > 0 {
			msg += fmt.Sprintf(" (%d rows resumed)", info.Resumed)
		}
		mw.updateStatus(msg)
	})

	mw.session.On(app.EventRecordChanged, func(data interface{}) {
		mw.refreshRecord()
	})

	mw.session.On(app.EventImagesChanged, func(data interface{}) {
		for _, sp := range mw.sides {
			sp.Update()
		}
		mw.updateStatus("New images found in the image folder")
	})

	mw.session.On(app.EventVerdictRecorded, func(data interface{}) {
		ev, ok := data.(app.VerdictEvent)
		if !ok {
			return
		}
		mw.updateStatus(fmt.Sprintf("%s %s: %s", ev.RecordID, ev.Side, ev.Verdict.Label()))
	})

	mw.session.On(app.EventStatsChanged, func(data interface{}) {
		if st, ok := data.(navigator.Stats); ok {
			mw.updateStats(st)
		}
	})

	mw.session.On(app.EventLedgerError, func(data interface{}) {
		if err, ok := data.(error); ok {
			dialog.ShowError(fmt.Errorf("%w\n\nVerdicts are kept and will be written on the next save.", err), mw.Window)
		}
	})
}

// refreshRecord updates every widget for the current record.
func (mw *MainWindow) refreshRecord() {
	rec, index, err := mw.session.Current()
	if err != nil {
		mw.infoLabel.SetText("Load a CSV file to start")
	} else {
		mw.infoLabel.SetText(recordInfo(rec, index, mw.session.Stats().Total))
	}
	for _, sp := range mw.sides {
		sp.Update()
	}
	mw.updateNavButtons()
}

// recordInfo formats the header line for a record.
func recordInfo(rec record.SourceRecord, index, total int) string {
	parts := []string{
		fmt.Sprintf("Record %d of %d", index+1, total),
		"ID: " + rec.ID(),
	}
	if s, ok := record.PairSimilarity(rec); ok {
		parts = append(parts, fmt.Sprintf("Front/Rear match: %.0f%%", s*100))
	}
	return strings.Join(parts, "  |  ")
}

func (mw *MainWindow) updateStats(st navigator.Stats) {
	mw.statsLabel.SetText(fmt.Sprintf("Judged: %d  Correct: %d  Incorrect: %d", st.Judged, st.Correct, st.Incorrect))
}

func (mw *MainWindow) updateNavButtons() {
	_, index, err := mw.session.Current()
	if err != nil {
		mw.prevBtn.Disable()
		mw.nextBtn.Disable()
		return
	}
	if index > 0 {
		mw.prevBtn.Enable()
	} else {
		mw.prevBtn.Disable()
	}
	if index < mw.session.Stats().Total-1 {
		mw.nextBtn.Enable()
	} else {
		mw.nextBtn.Disable()
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// Restore reopens the last dataset and image folder from preferences.
func (mw *MainWindow) Restore(defaultImageDir string) {
	imageDir := mw.prefs.String(prefs.KeyLastImageDir)
	if imageDir == "" {
		imageDir = defaultImageDir
	}
	if imageDir != "" {
		mw.session.SetImageDir(imageDir)
	}

	csvPath := mw.prefs.String(prefs.KeyLastCSV)
	if csvPath == "" {
		return
	}
	if _, err := os.Stat(csvPath); err != nil {
		log.Printf("Restore: last CSV %s unavailable: %v", csvPath, err)
		return
	}
	if err := mw.session.LoadDataset(csvPath, imageDir); err != nil {
		log.Printf("Restore: %v", err)
	}
}

// OpenDataset loads csvPath, keeping the current image folder.
func (mw *MainWindow) OpenDataset(csvPath string) {
	if err := mw.session.LoadDataset(csvPath, mw.session.ImageDir()); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetString(prefs.KeyLastCSV, csvPath)
}

// listableDir returns path as a ListableURI, or nil.
func listableDir(path string) fyne.ListableURI {
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// Menu action handlers

func (mw *MainWindow) onLoadCSV() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.OpenDataset(reader.URI().Path())
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	if last := mw.prefs.String(prefs.KeyLastCSV); last != "" {
		if loc := listableDir(filepath.Dir(last)); loc != nil {
			fd.SetLocation(loc)
		}
	}
	fd.Show()
}

func (mw *MainWindow) onChooseImageDir() {
	fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		dir := uri.Path()
		n, err := vimage.CountImages(dir)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if n == 0 {
			dialog.ShowInformation("No Images", "The selected folder contains no supported images.", mw.Window)
		}
		mw.session.SetImageDir(dir)
		mw.prefs.SetString(prefs.KeyLastImageDir, dir)
		mw.refreshRecord()
		mw.updateStatus(fmt.Sprintf("Image folder: %s (%d images)", dir, n))
	}, mw.Window)
	if loc := listableDir(mw.session.ImageDir()); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSave() {
	if err := mw.session.Save(); err != nil {
		if errors.Is(err, app.ErrNoDataset) {
			dialog.ShowInformation("Nothing to Save", "Load a CSV file first.", mw.Window)
		}
		return
	}
	mw.updateStatus("Saved " + mw.session.LedgerPath())
}

func (mw *MainWindow) onExportJudgements() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if err := mw.session.ExportJudgements(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Judgements exported to " + path)
	}, mw.Window)
	fd.SetFileName("validation_results.json")
	fd.Show()
}

func (mw *MainWindow) onJump() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("Record number")
	dialog.ShowForm("Go to Record", "Go", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Record", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			var n int
			if _, err := fmt.Sscanf(entry.Text, "%d", &n); err != nil {
				return
			}
			mw.session.Jump(n - 1)
		}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s v%s\n\n"+
			"Review license plate readings against their front and rear captures.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			appTitle, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

func (mw *MainWindow) onClose() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if err := mw.prefs.SaveIfChanged(); err != nil {
		log.Printf("Preferences: %v", err)
	}
	if err := mw.session.Close(); err != nil {
		log.Printf("Session: close: %v", err)
	}
	mw.Close()
}
