package doctor

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"agogo/shutdown"
)

// guardTerminal restores stdin's terminal state and exits on the first
// termination signal. The device picker of a previous run may have left the
// terminal raw.
func guardTerminal() {
	fd := int(os.Stdin.Fd())
	state, err := term.GetState(fd)
	if err != nil {
		state = nil // not a terminal
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		if state != nil {
			term.Restore(fd, state)
		}
		fmt.Println("\nInterrupted")
		os.Exit(1)
	}()
}
