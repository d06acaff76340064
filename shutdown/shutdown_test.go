package shutdown

import (
	"context"
	"os"
	"testing"
)

func TestContextStop(t *testing.T) {
	ctx, stop := Context(context.Background())
	if ctx.Err() != nil {
		t.Fatal("context canceled before any signal")
	}
	stop()
	if ctx.Err() == nil {
		t.Error("stop did not cancel the context")
	}
}

func TestSignalsIncludeInterrupt(t *testing.T) {
	for _, s := range signals {
		if s == os.Interrupt {
			return
		}
	}
	t.Error("os.Interrupt not handled")
}
