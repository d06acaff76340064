//go:build gui

package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/go-gl/glfw/v3.3/glfw"

	"agogo/layout"
	"agogo/sound"
)

type Config struct {
	Triggers   [sound.Mouths]func()
	Layout     *layout.Layout
	Background string // image shown under the regions, optional
	ImageMode  bool
	Dark       bool
	Overlay    bool
	Status     string // initial status bar text
	Version    string
}

type App struct {
	cfg        Config
	fyneApp    fyne.App
	window     fyne.Window
	theme      *agogoTheme
	instrument *Instrument
	buttons    fyne.CanvasObject
	body       *fyne.Container
	status     *widget.Label
}

func NewApp(cfg Config) *App {
	if cfg.Layout == nil {
		cfg.Layout = layout.Default()
	}
	return &App{cfg: cfg, theme: &agogoTheme{dark: cfg.Dark}}
}

// Run shows the window and blocks in the fyne event loop. It must be called
// from the main goroutine.
func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.agogo.gui")
	a.fyneApp.Settings().SetTheme(a.theme)
	a.fyneApp.SetIcon(iconResource())

	// Get primary monitor work area for sizing
	var screenW, screenH int
	monitor := glfw.GetPrimaryMonitor()
	if monitor != nil {
		_, _, screenW, screenH = monitor.GetWorkarea()
	} else {
		screenW, screenH = 1920, 1080 // fallback
	}

	a.window = a.fyneApp.NewWindow("Agogô " + a.cfg.Version)
	a.instrument = NewInstrument(a.cfg.Layout, a.cfg.Triggers, a.cfg.Background, a.cfg.Overlay)
	a.buttons = a.buttonGrid()
	a.status = widget.NewLabel(a.cfg.Status)

	imageCheck := widget.NewCheck("Image", a.setImageMode)
	imageCheck.SetChecked(a.cfg.ImageMode)
	darkCheck := widget.NewCheck("Dark", a.setDark)
	darkCheck.SetChecked(a.cfg.Dark)
	overlayCheck := widget.NewCheck("Regions", a.instrument.SetOverlay)
	overlayCheck.SetChecked(a.cfg.Overlay)

	bar := container.NewHBox(imageCheck, darkCheck, overlayCheck, a.status)
	a.body = container.NewStack(a.currentScreen())
	a.window.SetContent(container.NewBorder(bar, nil, nil, nil, a.body))

	// Reference canvas plus the top bar, shrunk to fit small screens.
	w := float32(layout.Reference.Width)
	h := float32(layout.Reference.Height) + bar.MinSize().Height
	if scale := min(float32(screenW)*0.9/w, float32(screenH)*0.9/h); scale < 1 {
		w, h = w*scale, h*scale
	}
	a.window.Resize(fyne.NewSize(w, h))
	a.window.CenterOnScreen()
	a.window.SetOnClosed(a.instrument.Stop)

	a.window.ShowAndRun()
	return nil
}

func (a *App) buttonGrid() fyne.CanvasObject {
	grid := container.NewGridWithColumns(sound.Mouths)
	for mouth := sound.Mouths; mouth >= 1; mouth-- {
		trigger := a.cfg.Triggers[mouth-1]
		grid.Add(widget.NewButton(fmt.Sprint(mouth), trigger))
	}
	return container.NewCenter(container.NewGridWrap(fyne.NewSize(4*180+3*16, 180), grid))
}

func (a *App) currentScreen() fyne.CanvasObject {
	if a.cfg.ImageMode {
		return a.instrument
	}
	return a.buttons
}

func (a *App) setImageMode(on bool) {
	a.cfg.ImageMode = on
	if a.body == nil {
		return
	}
	a.body.Objects = []fyne.CanvasObject{a.currentScreen()}
	a.body.Refresh()
}

func (a *App) setDark(on bool) {
	a.theme.dark = on
	if a.fyneApp != nil {
		a.fyneApp.Settings().SetTheme(&agogoTheme{dark: on})
	}
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// EventSink implementation
func (a *App) Strike(mouth int) {
	if a.instrument != nil {
		a.instrument.Flash(mouth)
	}
}

func (a *App) DeviceLine(text string) {
	fyne.Do(func() {
		if a.status != nil {
			a.status.SetText(text)
		}
	})
}
