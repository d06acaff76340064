package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog    zerolog.Logger
	diagFile   *os.File
	strikeFile *os.File
	logMu      sync.Mutex
	logReady   bool
	verbose    bool
	pid        int
	dir        string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: AGOGO_LOG_PATH environment variable
	if envPath := os.Getenv("AGOGO_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return defaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

// SetVerbose enables debug records. Takes effect at the next Init.
func SetVerbose(v bool) {
	verbose = v
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	strikePath := filepath.Join(dir, "strike_log.txt")
	strikeFile, err = os.OpenFile(strikePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	diagLog = zerolog.New(consoleWriter).Level(level).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if strikeFile != nil {
		strikeFile.Close()
		strikeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

// Diag adapts the package functions to the Logger interfaces of sound and
// pool.
type Diag struct{}

func (Diag) Debugf(format string, args ...any) { Debugf(format, args...) }
func (Diag) Warnf(format string, args ...any)  { Warnf(format, args...) }

func SessionStart(ui, output, device, assets string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("ui", ui).
		Str("output", output).
		Str("device", device).
		Str("assets", assets).
		Msg("session_start")
}

func SessionEnd(strikes int, elapsed time.Duration) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("strikes", strikes).
		Float64("elapsed_s", elapsed.Seconds()).
		Msg("session_end")
}

// Strike records one played mouth in strike_log.txt, one line per strike:
// "2006-01-02 15:04:05.000\t[pid]\tmouth=N\tstream=S".
func Strike(mouth, stream int) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if strikeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\tmouth=%d\tstream=%d\n", time.Now().Format("2006-01-02 15:04:05.000"), pid, mouth, stream)
	strikeFile.WriteString(line)
}
