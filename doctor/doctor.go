package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"agogo/asset"
	"agogo/audio"
	"agogo/layout"
	"agogo/pool"
	"agogo/shape"
	"agogo/sound"
)

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run(assetsDir, layoutPath string) int {
	guardTerminal()

	fmt.Println("agogo doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	allPass := true

	assets, ok := checkAssets(assetsDir)
	if !ok {
		allPass = false
	}
	if !checkLayout(layoutPath) {
		allPass = false
	}
	if allPass && !checkPlayback(assets, bufio.NewReader(os.Stdin)) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

func checkAssets(dir string) ([sound.Mouths]sound.Asset, bool) {
	fmt.Println()
	fmt.Println("[1/3] Sound files")
	if dir == "" {
		fmt.Println("No -assets directory, using the built-in tones")
	}

	assets, err := asset.Resolve(dir)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return assets, false
	}

	for i, a := range assets {
		rc, err := a.Open()
		if err != nil {
			fmt.Printf("  FAIL: mouth %d: %v\n", i+1, err)
			return assets, false
		}
		start := time.Now()
		pcm, err := asset.Decode(a.Name(), rc)
		rc.Close()
		if err != nil {
			fmt.Printf("  FAIL: mouth %d (%s): %v\n", i+1, a.Name(), err)
			return assets, false
		}
		fmt.Printf("  mouth %d: %s, %.2fs at %d Hz (decoded in %s)\n",
			i+1, a.Name(), pcm.Duration(), pcm.SampleRate, time.Since(start).Round(time.Millisecond))
		if pcm.Duration() > 3 {
			fmt.Printf("  Warning: %s is long for a percussive sample\n", a.Name())
		}
	}
	fmt.Println("  PASS: all four samples decode")
	return assets, true
}

func checkLayout(path string) bool {
	fmt.Println()
	fmt.Println("[2/3] Tap regions")

	l := layout.Default()
	if path != "" {
		var err error
		l, err = layout.Load(path)
		if err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return false
		}
		fmt.Printf("Loaded %s\n", path)
	}

	f := l.Frame(l.Canvas)
	pass := true
	for _, r := range l.Regions {
		center := f.Canvas(r, shape.Point{X: r.Size.Width / 2, Y: r.Size.Height / 2})
		got := l.HitTest(center, l.Canvas)
		switch {
		case r.Outline().Area() == 0:
			fmt.Printf("  FAIL: mouth %d has an empty outline\n", r.Mouth)
			pass = false
		case got != r.Mouth:
			fmt.Printf("  FAIL: center of mouth %d is covered by mouth %d\n", r.Mouth, got)
			pass = false
		default:
			fmt.Printf("  mouth %d: reachable at (%.0f, %.0f)\n", r.Mouth, center.X, center.Y)
		}
	}
	if pass {
		fmt.Println("  PASS: every mouth is reachable")
	}
	return pass
}

func checkPlayback(assets [sound.Mouths]sound.Asset, reader *bufio.Reader) bool {
	fmt.Println()
	fmt.Println("[3/3] Audio output")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no playback devices found")
		return false
	}

	var device *audio.DeviceInfo
	if len(devices) == 1 {
		device = &devices[0]
		fmt.Printf("Using device: %s\n", device.Name)
	} else {
		fmt.Println()
		fmt.Println("Select output device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		devChoice = strings.TrimSpace(devChoice)
		idx := 0
		if devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Printf("  FAIL: invalid choice\n")
			return false
		}
		device = &devices[idx]
		fmt.Printf("Selected: %s\n", device.Name)
	}
	if audio.IsBluetooth(device.Name) {
		fmt.Println("  Warning: wireless outputs add noticeable latency to strikes")
	}

	out, err := ctx.NewPlayback(device, pool.DefaultConfig.PlaybackConfig())
	if err != nil {
		fmt.Printf("  FAIL: cannot open output: %v\n", err)
		return false
	}
	p, err := pool.New(out, pool.DefaultConfig)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	svc, err := sound.New(p, assets)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	defer svc.Release()

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.WaitLoaded(waitCtx); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	fmt.Println()
	fmt.Print("Press Enter to hear mouths 4, 3, 2, 1...")
	reader.ReadString('\n')
	for mouth := sound.Mouths; mouth >= 1; mouth-- {
		if err := svc.Play(mouth); err != nil {
			fmt.Printf("  FAIL: mouth %d: %v\n", mouth, err)
			return false
		}
		time.Sleep(400 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if askYes(reader, "Did you hear four strikes, low to high? [y/n]: ") {
		fmt.Println("  PASS: playback verified by user")
		return true
	}

	fmt.Println("  FAIL: playback not confirmed")
	return false
}

// askYes prints prompt and reads one answer line from r. All prompts share r
// so that lines it has already buffered are not lost.
func askYes(r *bufio.Reader, prompt string) bool {
	fmt.Print(prompt)
	answer, _ := r.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}
