//go:build gui

package main

import (
	"context"
	"runtime"

	"agogo/gui"
	"agogo/shutdown"
)

const guiAvailable = true

func runGUI(inst *instrument, opts uiOptions) error {
	// Fyne and GLFW need the main OS thread.
	runtime.LockOSThread()

	app := gui.NewApp(gui.Config{
		Triggers:   inst.triggers,
		Layout:     opts.layout,
		Background: opts.background,
		ImageMode:  opts.imageMode,
		Dark:       opts.dark,
		Overlay:    opts.overlay,
		Status:     inst.deviceLine(),
		Version:    version,
	})
	setSink(app)
	defer setSink(nil)

	ctx, stop := shutdown.Context(context.Background())
	defer stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			app.Quit()
		case <-done:
		}
	}()
	return gui.Run(app)
}
