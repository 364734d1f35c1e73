package e2e

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

// buildBinary compiles cmd/cmpnc into a temporary directory.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "cmpnc"
	if runtime.GOOS == "windows" {
		binName = "cmpnc.exe"
	}
	binPath := filepath.Join(t.TempDir(), binName)

	// go test runs in test/e2e; build from the module root.
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/cmpnc")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build cmpnc: %v", err)
	}
	return binPath
}

// writeDataset writes a CDF file with a 4-step time series of 3 points.
func writeDataset(t *testing.T, path string, last float64) {
	t.Helper()
	w, err := netcdf.OpenWriter(path, netcdf.KindCDF)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := util.NewOrderedMap([]string{"title"}, map[string]any{"title": "e2e"})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddAttributes(attrs); err != nil {
		t.Fatal(err)
	}
	vars := []struct {
		name string
		v    api.Variable
	}{
		{"lon", api.Variable{Values: []float64{10, 20, 30}, Dimensions: []string{"lon"}}},
		{"temp", api.Variable{
			Values:     [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10, 11, last}},
			Dimensions: []string{"time", "lon"},
		}},
		{"flag", api.Variable{
			Values:     [][]int32{{0, 1, 0}, {1, 0, 1}, {0, 0, 0}, {1, 1, 1}},
			Dimensions: []string{"time", "lon"},
		}},
		{"name", api.Variable{Values: "abcd", Dimensions: []string{"nchar"}}},
	}
	for _, v := range vars {
		if err := w.AddVar(v.name, v.v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

// TestCLI_E2E verifies the built binary against real netCDF files.
func TestCLI_E2E(t *testing.T) {
	binPath := buildBinary(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.nc")
	b := filepath.Join(dir, "b.nc")
	c := filepath.Join(dir, "c.nc")
	writeDataset(t, a, 12)
	writeDataset(t, b, 12)
	writeDataset(t, c, 12.5)

	tests := []struct {
		name     string
		args     []string
		wantOut  string // substring of stdout+stderr, case-insensitive
		wantCode int
	}{
		{"Identical", []string{"compare", a, b}, "", 0},
		{"Identical Verbose", []string{"compare", "-v", "-p", "4", a, b}, "files seem to be identical", 0},
		{"Skips Text", []string{"compare", "-v", a, b}, "skipping check for this variable", 0},
		{"Data Difference", []string{"compare", a, c}, "[temp]", 1},
		{"Within Tolerance", []string{"compare", "--atol", "0.5", a, c}, "", 0},
		{"Summary", []string{"compare", "-s", a, c}, "--- summary ---", 1},
		{"Missing File", []string{"compare", a, filepath.Join(dir, "missing.nc")}, "missing.nc", 1},
		{"One Argument", []string{"compare", a}, "error", 2},
		{"Help", []string{"--help"}, "usage", 0},
		{"Version", []string{"version"}, "cmpnc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := exec.Command(binPath, tt.args...)
			cmd.Stdout = &out
			cmd.Stderr = &out
			err := cmd.Run()

			code := 0
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\noutput:\n%s", code, tt.wantCode, out.String())
			}
			if !strings.Contains(strings.ToLower(out.String()), tt.wantOut) {
				t.Errorf("output does not contain %q\noutput:\n%s", tt.wantOut, out.String())
			}
		})
	}
}

func TestCLI_E2E_Report(t *testing.T) {
	binPath := buildBinary(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.nc")
	c := filepath.Join(dir, "c.nc")
	writeDataset(t, a, 12)
	writeDataset(t, c, 99)
	report := filepath.Join(dir, "out", "report.json")

	cmd := exec.Command(binPath, "compare", "--report", report, a, c)
	if err := cmd.Run(); err == nil {
		t.Fatal("expected a failing exit status")
	}
	raw, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(raw), `"temp"`) {
		t.Errorf("report should name the failing variable:\n%s", raw)
	}
}
