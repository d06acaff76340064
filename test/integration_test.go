//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("AGOGO_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "AGOGO_TEST_BIN not set; run: go build -o /tmp/agogo . && AGOGO_TEST_BIN=/tmp/agogo go test -tags integration ./test/")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runAgogo(t *testing.T, stdin string, env []string, args ...string) (logDir, out string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), env...)

	data, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("agogo exited with error: %v\noutput: %s", err, data)
	}
	return logDir, string(data)
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func strikeLines(t *testing.T, logDir string) []string {
	t.Helper()
	text := strings.TrimSpace(readLog(t, logDir, "strike_log.txt"))
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

var statsRe = regexp.MustCompile(`STATS strikes=(\d+) active=(\d+) loud=(\d+) state=(\w+)`)

func lastStats(t *testing.T, out string) (strikes, loud int, state string) {
	t.Helper()
	m := statsRe.FindAllStringSubmatch(out, -1)
	if len(m) == 0 {
		t.Fatalf("no STATS line in output:\n%s", out)
	}
	last := m[len(m)-1]
	strikes, _ = strconv.Atoi(last[1])
	loud, _ = strconv.Atoi(last[3])
	return strikes, loud, last[4]
}

// --- Test mode ---

func TestTapStrikes(t *testing.T) {
	logDir, out := runAgogo(t, cmds("WAIT", "TAP 1", "TAP 4", "STATS", "QUIT"), nil, "-test")

	for _, want := range []string{"LOADED", "STRIKE 1", "STRIKE 4"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strikes, _, state := lastStats(t, out); strikes != 2 || state != "ready" {
		t.Errorf("strikes=%d state=%s, want 2 ready", strikes, state)
	}

	lines := strikeLines(t, logDir)
	if len(lines) != 2 {
		t.Fatalf("strike_log.txt has %d lines, want 2: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "mouth=1") || !strings.Contains(lines[1], "mouth=4") {
		t.Errorf("unexpected strike log: %q", lines)
	}
}

func TestStrikeIsAudible(t *testing.T) {
	_, out := runAgogo(t, cmds("WAIT", "TAP 2", "SLEEP 300", "STATS", "QUIT"), nil, "-test")
	if _, loud, _ := lastStats(t, out); loud == 0 {
		t.Errorf("no audible frames after a strike:\n%s", out)
	}
}

func TestSilentWithoutStrikes(t *testing.T) {
	_, out := runAgogo(t, cmds("WAIT", "SLEEP 200", "STATS", "QUIT"), nil, "-test")
	if strikes, loud, _ := lastStats(t, out); strikes != 0 || loud != 0 {
		t.Errorf("strikes=%d loud=%d, want silence", strikes, loud)
	}
}

func TestClickRegions(t *testing.T) {
	// Centers of mouths 1 and 2 on the 900x600 reference canvas.
	logDir, out := runAgogo(t, cmds("WAIT", "CLICK 720 395", "CLICK 610 290", "CLICK 10 10", "QUIT"), nil, "-test")

	for _, want := range []string{"STRIKE 1", "STRIKE 2", "MISS 10 10"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := len(strikeLines(t, logDir)); n != 2 {
		t.Errorf("strike_log.txt has %d lines, want 2", n)
	}
}

func TestUnknownMouthIgnored(t *testing.T) {
	logDir, out := runAgogo(t, cmds("WAIT", "TAP 0", "TAP 5", "TAP -1", "STATS", "QUIT"), nil, "-test")

	for _, want := range []string{"IGNORED 0", "IGNORED 5", "IGNORED -1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "STRIKE") {
		t.Errorf("unexpected strike:\n%s", out)
	}
	if lines := strikeLines(t, logDir); len(lines) != 0 {
		t.Errorf("strike_log.txt should be empty: %q", lines)
	}
}

func TestTapAfterRelease(t *testing.T) {
	_, out := runAgogo(t, cmds("WAIT", "TAP 3", "RELEASE", "TAP 3", "RELEASE", "STATS", "QUIT"), nil, "-test")

	if strings.Count(out, "STRIKE 3") != 1 {
		t.Errorf("want exactly one strike before release:\n%s", out)
	}
	if !strings.Contains(out, "IGNORED 3") {
		t.Errorf("tap after release not ignored:\n%s", out)
	}
	if strikes, _, state := lastStats(t, out); strikes != 1 || state != "released" {
		t.Errorf("strikes=%d state=%s, want 1 released", strikes, state)
	}
}

func TestSessionRecords(t *testing.T) {
	logDir, _ := runAgogo(t, cmds("WAIT", "TAP 1", "QUIT"), nil, "-test")

	diag := readLog(t, logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", `"ui":"test"`, `"assets":"built-in"`, "session_end", `"strikes":1`} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %q:\n%s", want, diag)
		}
	}
	if _, err := os.Stat(filepath.Join(logDir, "crash_log.txt")); err != nil {
		t.Errorf("crash_log.txt not created: %v", err)
	}
}

func TestLogPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	cmd := exec.Command(testBinary, "-test")
	cmd.Stdin = strings.NewReader(cmds("WAIT", "TAP 2", "QUIT"))
	cmd.Env = append(os.Environ(), "AGOGO_LOG_PATH="+dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("agogo exited with error: %v\noutput: %s", err, out)
	}
	if lines := strikeLines(t, dir); len(lines) != 1 {
		t.Errorf("strike_log.txt in AGOGO_LOG_PATH has %d lines, want 1", len(lines))
	}
}

// --- Assets ---

func TestExportedAssetsPlay(t *testing.T) {
	assets := filepath.Join(t.TempDir(), "sounds")
	_, out := runAgogo(t, "", nil, "-export", assets)
	for i := 1; i <= 4; i++ {
		name := filepath.Join(assets, fmt.Sprintf("sound%d.flac", i))
		if !strings.Contains(out, name) {
			t.Errorf("export output missing %s:\n%s", name, out)
		}
		if _, err := os.Stat(name); err != nil {
			t.Errorf("exported file: %v", err)
		}
	}

	logDir, out := runAgogo(t, cmds("WAIT", "TAP 4", "SLEEP 200", "STATS", "QUIT"), []string{"AGOGO_ASSETS=" + assets}, "-test")
	if _, loud, _ := lastStats(t, out); loud == 0 {
		t.Errorf("exported samples not audible:\n%s", out)
	}
	if diag := readLog(t, logDir, "diagnostics_log.txt"); !strings.Contains(diag, assets) {
		t.Errorf("session_start should name the assets dir:\n%s", diag)
	}
}

func TestMissingAssetsFail(t *testing.T) {
	cmd := exec.Command(testBinary, "-logpath", t.TempDir(), "-assets", t.TempDir(), "-test")
	cmd.Stdin = strings.NewReader(cmds("QUIT"))
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure with an empty assets dir, output: %s", out)
	}
	if !strings.Contains(string(out), "sound1") {
		t.Errorf("error should name the missing file: %s", out)
	}
}

// --- Layout ---

func TestPrintLayout(t *testing.T) {
	_, out := runAgogo(t, "", nil, "-print-layout")
	for _, want := range []string{"canvas:", "regions:", "mouth: 4", "mouth: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("layout output missing %q:\n%s", want, out)
		}
	}
}

func TestCustomLayout(t *testing.T) {
	// One big upright box per mouth; mouth 1 covers the middle of the canvas.
	yaml := `canvas: {width: 900, height: 600}
regions:
  - {mouth: 4, offset: {x: -300, y: 0}, size: {width: 100, height: 100}}
  - {mouth: 3, offset: {x: -150, y: 0}, size: {width: 100, height: 100}}
  - {mouth: 2, offset: {x: 150, y: 0}, size: {width: 100, height: 100}}
  - {mouth: 1, offset: {x: 0, y: 0}, size: {width: 100, height: 100}}
`
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	_, out := runAgogo(t, cmds("WAIT", "CLICK 450 320", "QUIT"), nil, "-test", "-layout", path)
	if !strings.Contains(out, "STRIKE 1") {
		t.Errorf("click on custom region did not strike mouth 1:\n%s", out)
	}
}

func TestVersion(t *testing.T) {
	_, out := runAgogo(t, "", nil, "-version")
	if !strings.HasPrefix(out, "agogo ") {
		t.Errorf("unexpected version output %q", out)
	}
}
