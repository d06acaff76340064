package main

// EventSink abstracts the display layer so both the Bubble Tea TUI
// and the fyne GUI can receive the same instrument events.
type EventSink interface {
	Strike(mouth int)
	DeviceLine(text string)
}
