// Package main provides the entry point for the ANPR Validator application.
package main

import (
	"log"
	"os"

	"anpr-validator/internal/app"
	"anpr-validator/internal/config"
	"anpr-validator/internal/version"
	"anpr-validator/ui/mainwindow"
	"anpr-validator/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appTitle = "ANPR Validator"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	cfg := config.Load()
	appPrefs := prefs.Load()

	fyneApp := fyneapp.NewWithID("io.anpr.validator")
	fyneApp.Settings().SetTheme(&app.ValidatorTheme{})

	session := app.NewSession(app.OptionsFromConfig(cfg))
	log.Printf("Config: resampler %s, auto-advance %v", cfg.Resampler, cfg.AutoAdvance)

	win := mainwindow.New(fyneApp, session, appPrefs)

	// Handle command line arguments: [dataset.csv [image-dir]]
	if len(os.Args) > 2 {
		appPrefs.SetString(prefs.KeyLastImageDir, os.Args[2])
	}
	if len(os.Args) > 1 {
		appPrefs.SetString(prefs.KeyLastCSV, os.Args[1])
	}
	win.Restore(cfg.ImageDir)

	win.ShowAndRun()
}
