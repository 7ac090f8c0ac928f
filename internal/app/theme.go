package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// ValidatorTheme provides a custom theme for the application.
type ValidatorTheme struct{}

var _ fyne.Theme = (*ValidatorTheme)(nil)

// Verdict button colors.
var (
	CorrectColor = color.NRGBA{R: 0x27, G: 0xAE, B: 0x60, A: 0xFF}
	ReasonColor  = color.NRGBA{R: 0xC0, G: 0x39, B: 0x2B, A: 0xFF}
)

func (t *ValidatorTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x29, G: 0x80, B: 0xB9, A: 0xFF}
	case theme.ColorNameSuccess:
		return CorrectColor
	case theme.ColorNameError:
		return ReasonColor
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *ValidatorTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *ValidatorTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *ValidatorTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 14 // Plate text must stay readable next to the images
	default:
		return theme.DefaultTheme().Size(name)
	}
}
