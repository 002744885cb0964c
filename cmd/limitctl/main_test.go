package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/adapters/lyc"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func xyResult(name string, pts ...domain.LimitPoint) *domain.Result {
	r := domain.NewResult(0, 0, 0, "SP1", "FR", name, domain.ValueTypeXY, 1)
	r.Upper.Enabled = true
	r.SetChannelPoints(domain.Upper, [][]domain.LimitPoint{pts})
	return r
}

func peakResult() *domain.Result {
	r := domain.NewResult(0, 1, 0, "SP1", "THD", "Peak", domain.ValueTypeMeter, 1)
	r.Upper.Enabled = true
	r.Upper.Meter[0] = 0.5
	return r
}

func writeFamily(t *testing.T, path string, results ...*domain.Result) {
	t.Helper()
	if err := lyc.NewFileStore(nil, false).Save(path, domain.FamilyFromResults(results)); err != nil {
		t.Fatalf("write family %s: %v", path, err)
	}
}

func readFamily(t *testing.T, path string) *domain.LimitFamily {
	t.Helper()
	f, err := lyc.NewFileStore(nil, false).Load(path)
	if err != nil {
		t.Fatalf("read family %s: %v", path, err)
	}
	return f
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.lyc")
	bad := filepath.Join(dir, "bad.lyc")
	writeFamily(t, good, xyResult("Level", domain.NewXYPoint(100, -3), domain.NewXYPoint(1000, -3)), peakResult())
	writeFamily(t, bad, xyResult("Level", domain.NewXYPoint(100, -3), domain.NewXYPoint(50, -3)))

	out, err := runCLI(t, "validate", good)
	if err != nil {
		t.Fatalf("validate good file: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 entries, 0 limit errors") {
		t.Fatalf("unexpected summary: %s", out)
	}

	out, err = runCLI(t, "validate", bad)
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "non_sequential_x") {
		t.Fatalf("expected the failing limit to be listed, got %s", out)
	}
}

func TestValidateRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.lyc")
	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := runCLI(t, "validate", path); err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Fatalf("expected malformed file error, got %v", err)
	}
}

func TestReconcileStrategies(t *testing.T) {
	for _, tc := range []struct {
		strategy string
		entries  int
	}{
		{"remove", 1},
		{"add", 2},
	} {
		t.Run(tc.strategy, func(t *testing.T) {
			dir := t.TempDir()
			family := filepath.Join(dir, "family.lyc")
			current := filepath.Join(dir, "current.lyc")
			out := filepath.Join(dir, "out.lyc")

			writeFamily(t, family, xyResult("Level", domain.NewXYPoint(100, -3), domain.NewXYPoint(1000, -3)), peakResult())
			writeFamily(t, current, xyResult("Level"))

			text, err := runCLI(t, "reconcile", "--family", family, "--current", current, "--out", out, "--strategy", tc.strategy)
			if err != nil {
				t.Fatalf("reconcile: %v\n%s", err, text)
			}
			if !strings.Contains(text, "1 results took limits") {
				t.Fatalf("unexpected summary: %s", text)
			}

			got := readFamily(t, out)
			if len(got.Entries) != tc.entries {
				t.Fatalf("expected %d entries, got %d", tc.entries, len(got.Entries))
			}
			level, ok := got.Entry(domain.NewKey("SP1", "FR", "Level"))
			if !ok {
				t.Fatalf("level missing from output")
			}
			if len(level.XUpper) != 2 || level.XUpper[1] != 1000 {
				t.Fatalf("expected imported curve, got %v", level.XUpper)
			}
		})
	}
}

func TestReconcileUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	family := filepath.Join(dir, "family.lyc")
	writeFamily(t, family, peakResult())

	_, err := runCLI(t, "reconcile", "--family", family, "--current", family, "--strategy", "guess")
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Fatalf("expected unknown strategy error, got %v", err)
	}
}

func TestConfigValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "opcua:\n  endpoint: opc.tcp://localhost:4840\nexport:\n  on_graph_missing: abort\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCLI(t, "--config", path, "config", "validate", "--instrument")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "looks good") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := runCLI(t, "config", "validate"); err == nil {
		t.Fatalf("expected --config to be required")
	}

	badPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badPath, []byte("export:\n  on_graph_missing: retry\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runCLI(t, "--config", badPath, "config", "validate"); err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
}

func TestExportRequiresEndpoint(t *testing.T) {
	family := filepath.Join(t.TempDir(), "family.lyc")
	writeFamily(t, family, peakResult())

	_, err := runCLI(t, "export", "--family", family)
	if err == nil || !strings.Contains(err.Error(), "endpoint is required") {
		t.Fatalf("expected missing endpoint error, got %v", err)
	}
}
