package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir(""); SetVerbose(false) })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("AGOGO_LOG_PATH", "/tmp/agogo-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/agogo-env-log" {
		t.Errorf("got %q, want /tmp/agogo-env-log", got)
	}
}

func TestResolveDirFlagBeatsEnv(t *testing.T) {
	t.Setenv("AGOGO_LOG_PATH", "/tmp/agogo-env-log")
	got, err := ResolveDir("/tmp/flag")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/flag" {
		t.Errorf("got %q, want /tmp/flag", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("AGOGO_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "agogo") {
		t.Errorf("default directory %q does not name the app", got)
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"diagnostics_log.txt", "strike_log.txt"} {
		path := filepath.Join(tmp, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestStrike(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	Strike(3, 7)
	Strike(1, 8)

	data, err := os.ReadFile(filepath.Join(tmp, "strike_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), data)
	}
	fields := strings.Split(lines[0], "\t")
	if len(fields) != 4 || fields[2] != "mouth=3" || fields[3] != "stream=7" {
		t.Errorf("unexpected line %q", lines[0])
	}
}

func TestDebugNeedsVerbose(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Debugf("quiet %d", 1)
	Close()

	SetVerbose(true)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Diag{}.Debugf("loud %d", 2)
	Diag{}.Warnf("warned")
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "quiet 1") {
		t.Error("debug record written without verbose")
	}
	if !strings.Contains(out, "loud 2") || !strings.Contains(out, "warned") {
		t.Errorf("missing records: %q", out)
	}
}

func TestSessionRecords(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatal(err)
	}
	SessionStart("tui", "pulse", "system default", "defaults")
	SessionEnd(7, 1500*time.Millisecond)
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"session_start", "output=pulse", "session_end", "strikes=7"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("diagnostics missing %q: %s", want, data)
		}
	}
}

func TestCallsBeforeInitAreNoops(t *testing.T) {
	setupLogDir(t)
	Info("nothing")
	Strike(1, 1)
	SessionEnd(0, 0)
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
