//go:build !linux

package main

import (
	"os"
	"runtime"
)

// Core Audio and the GUI driver expect the main goroutine on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}
