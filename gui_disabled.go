//go:build !gui

package main

import "errors"

const guiAvailable = false

func runGUI(*instrument, uiOptions) error {
	return errors.New("built without GUI support (rebuild with -tags gui)")
}
