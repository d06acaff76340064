package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"agogo/asset"
	"agogo/audio"
	"agogo/doctor"
	"agogo/layout"
	"agogo/log"
	"agogo/pool"
	"agogo/sound"
)

var version = "dev"

// backgroundFile is looked up in the assets directory for the image screen.
const backgroundFile = "agogo.png"

type uiOptions struct {
	layout     *layout.Layout
	background string
	imageMode  bool
	dark       bool
	overlay    bool
}

var (
	sinkMu sync.Mutex
	sink   EventSink
)

func setSink(s EventSink) {
	sinkMu.Lock()
	sink = s
	sinkMu.Unlock()
}

func currentSink() EventSink {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	return sink
}

// instrument is the running sound service plus what the front ends show
// about it.
type instrument struct {
	svc      *sound.Service
	pool     *pool.Pool
	triggers [sound.Mouths]func()
	output   string
	device   string
	strikes  atomic.Int64
	started  time.Time
}

func newInstrument(ctx audio.Context, dev *audio.DeviceInfo, output string, assets [sound.Mouths]sound.Asset) (*instrument, error) {
	cfg := pool.DefaultConfig
	cfg.Logger = log.Diag{}

	out, err := ctx.NewPlayback(dev, cfg.PlaybackConfig())
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	p, err := pool.New(out, cfg)
	if err != nil {
		return nil, err
	}

	in := &instrument{pool: p, output: output, device: out.DeviceName(), started: time.Now()}
	svc, err := sound.New(p, assets, sound.WithLogger(log.Diag{}), sound.WithObserver(in.observe))
	if err != nil {
		return nil, err
	}
	in.svc = svc
	in.triggers = svc.Triggers()
	return in, nil
}

func (in *instrument) observe(mouth int, stream sound.StreamID) {
	in.strikes.Add(1)
	log.Strike(mouth, int(stream))
	if s := currentSink(); s != nil {
		s.Strike(mouth)
	}
}

func (in *instrument) deviceLine() string {
	suffix := ""
	if audio.IsBluetooth(in.device) {
		suffix = " (BT!)"
	}
	return "out: " + in.device + suffix + " [" + in.output + "]"
}

func (in *instrument) Close() error {
	log.SessionEnd(int(in.strikes.Load()), time.Since(in.started))
	return in.svc.Close()
}

func openOutput(output string) (audio.Context, error) {
	switch output {
	case "default", "":
		return audio.NewContext()
	case "oto":
		return audio.NewOtoContext(pool.DefaultConfig.PlaybackConfig())
	}
	return nil, fmt.Errorf("unknown output %q (use default or oto)", output)
}

func outputName(output string) string {
	if output == "oto" {
		return "oto"
	}
	return defaultOutputName
}

func run() int {
	guiFlag := flag.Bool("gui", false, "Run the desktop interface (requires a build with -tags gui)")
	assetsFlag := flag.String("assets", "", "Directory with sound1..sound4 (.flac or .wav); default: $AGOGO_ASSETS, then built-in tones")
	layoutFlag := flag.String("layout", "", "YAML file describing the tap regions")
	outputFlag := flag.String("output", "default", "Audio output: default or oto")
	deviceFlag := flag.String("device", "", "Use named output device")
	setupFlag := flag.Bool("setup", false, "Select output device (otherwise uses system default)")
	buttonsFlag := flag.Bool("buttons", false, "Start on the button screen instead of the image")
	darkFlag := flag.Bool("dark", false, "Start in dark mode")
	overlayFlag := flag.Bool("overlay", true, "Tint the tap regions on the image screen")
	exportFlag := flag.String("export", "", "Write the built-in tones as FLAC files to this directory and exit")
	printLayoutFlag := flag.Bool("print-layout", false, "Print the active layout as YAML and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	verboseFlag := flag.Bool("verbose", false, "Write debug records to the diagnostics log")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("agogo %s\n", version)
		return 0
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	log.SetVerbose(*verboseFlag)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
		crashFile.Close()
	}

	assetsDir := *assetsFlag
	if assetsDir == "" {
		assetsDir = os.Getenv("AGOGO_ASSETS")
	}

	if *exportFlag != "" {
		written, err := asset.Export(*exportFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		for _, path := range written {
			fmt.Println(path)
		}
		return 0
	}

	if *doctorFlag {
		return doctor.Run(assetsDir, *layoutFlag)
	}

	l := layout.Default()
	if *layoutFlag != "" {
		l, err = layout.Load(*layoutFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if *printLayoutFlag {
		data, err := l.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	}

	assets, err := asset.Resolve(assetsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	assetsLabel := "built-in"
	if assetsDir != "" {
		assetsLabel = assetsDir
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *testFlag {
		return runTestMode(assets, assetsLabel, l)
	}

	if *guiFlag && !guiAvailable {
		fmt.Fprintln(os.Stderr, "Error: built without GUI support (rebuild with -tags gui)")
		return 1
	}

	ctx, err := openOutput(*outputFlag)
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		return 1
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		selectedDevice, err = audio.FindDevice(ctx, *deviceFlag)
		if err != nil {
			log.Warnf("device lookup failed: %v", err)
			fmt.Printf("Warning: %v, using default device\n", err)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	inst, err := newInstrument(ctx, selectedDevice, outputName(*outputFlag), assets)
	if err != nil {
		log.Errorf("instrument init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer inst.Close()

	ui := "tui"
	if *guiFlag {
		ui = "gui"
	}
	log.SessionStart(ui, inst.output, inst.device, assetsLabel)

	background := ""
	if assetsDir != "" {
		if p := filepath.Join(assetsDir, backgroundFile); fileExists(p) {
			background = p
		}
	}
	opts := uiOptions{
		layout:     l,
		background: background,
		imageMode:  !*buttonsFlag,
		dark:       *darkFlag,
		overlay:    *overlayFlag,
	}

	if *guiFlag {
		if err := runGUI(inst, opts); err != nil {
			log.Errorf("GUI error: %v", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := runTUI(inst, opts); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
