//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type agogoTheme struct {
	dark bool
}

func (t *agogoTheme) variant() fyne.ThemeVariant {
	if t.dark {
		return theme.VariantDark
	}
	return theme.VariantLight
}

func (t *agogoTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		if t.dark {
			return color.RGBA{18, 18, 18, 255}
		}
		return color.RGBA{245, 242, 235, 255}
	case theme.ColorNameForeground:
		if t.dark {
			return color.RGBA{200, 200, 200, 255}
		}
		return color.RGBA{30, 30, 30, 255}
	}
	return theme.DefaultTheme().Color(name, t.variant())
}

func (t *agogoTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *agogoTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *agogoTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
