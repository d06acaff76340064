package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"agogo/audio"
	"agogo/layout"
	"agogo/log"
	"agogo/shape"
	"agogo/sound"
)

// stdoutSink prints strikes for the stdin driver.
type stdoutSink struct{}

func (stdoutSink) Strike(mouth int)       { fmt.Printf("STRIKE %d\n", mouth) }
func (stdoutSink) DeviceLine(text string) { fmt.Printf("DEVICE %s\n", text) }

// runTestMode drives the instrument headless from stdin against a fake
// output that pulls audio in real time. Commands, one per line:
//
//	TAP n       strike mouth n
//	CLICK x y   strike whatever region covers (x, y) on the layout canvas
//	WAIT        block until every sample is decoded
//	SLEEP ms
//	STATS       print strike and output counters
//	RELEASE     release the sound service
//	QUIT
func runTestMode(assets [sound.Mouths]sound.Asset, assetsLabel string, l *layout.Layout) int {
	fakeCtx := audio.NewFakeContext(true)
	defer fakeCtx.Close()

	inst, err := newInstrument(fakeCtx, nil, "fake", assets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer inst.Close()
	log.SessionStart("test", inst.output, inst.device, assetsLabel)

	setSink(stdoutSink{})
	defer setSink(nil)

	strike := func(mouth int) {
		if err := inst.svc.Play(mouth); err != nil {
			fmt.Printf("IGNORED %d: %v\n", mouth, err)
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToUpper(fields[0]) {
		case "TAP":
			if len(fields) != 2 {
				fmt.Println("ERROR usage: TAP n")
				continue
			}
			mouth, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Printf("ERROR bad mouth %q\n", fields[1])
				continue
			}
			strike(mouth)

		case "CLICK":
			if len(fields) != 3 {
				fmt.Println("ERROR usage: CLICK x y")
				continue
			}
			x, errX := strconv.ParseFloat(fields[1], 64)
			y, errY := strconv.ParseFloat(fields[2], 64)
			if errX != nil || errY != nil {
				fmt.Printf("ERROR bad point %s %s\n", fields[1], fields[2])
				continue
			}
			mouth := l.HitTest(shape.Point{X: x, Y: y}, l.Canvas)
			if mouth == 0 {
				fmt.Printf("MISS %s %s\n", fields[1], fields[2])
				continue
			}
			strike(mouth)

		case "WAIT":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := inst.pool.WaitLoaded(ctx)
			cancel()
			if err != nil {
				fmt.Printf("ERROR %v\n", err)
				continue
			}
			fmt.Println("LOADED")

		case "SLEEP":
			if len(fields) == 2 {
				if ms, err := strconv.Atoi(fields[1]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}

		case "STATS":
			var stats audio.FakeStats
			if pbs := fakeCtx.Playbacks(); len(pbs) > 0 {
				stats = pbs[0].Stats()
			}
			fmt.Printf("STATS strikes=%d active=%d loud=%d state=%s\n",
				inst.strikes.Load(), inst.pool.Active(), stats.Loud, inst.svc.State())

		case "RELEASE":
			inst.svc.Release()
			fmt.Println("RELEASED")

		case "QUIT":
			return 0

		default:
			fmt.Printf("ERROR unknown command %q\n", fields[0])
		}
	}
	return 0
}
