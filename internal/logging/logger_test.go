package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"
)

// entries decodes one JSON object per line.
func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("not a JSON entry: %q: %v", line, err)
		}
		out = append(out, e)
	}
	return out
}

func TestFieldHelpers(t *testing.T) {
	t.Parallel()
	cause := errors.New("bad block")
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("variable", "temp"), "variable", "temp"},
		{"Int", Int("units", 7), "units", 7},
		{"Uint64", Uint64("heap", 1 << 20), "heap", uint64(1 << 20)},
		{"Float64", Float64("seconds", 0.25), "seconds", 0.25},
		{"Bool", Bool("unlimited", true), "unlimited", true},
		{"Err", Err(cause), "error", cause},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.field.Key != tt.key || tt.field.Value != tt.value {
				t.Errorf("got %+v, want %s=%v", tt.field, tt.key, tt.value)
			}
		})
	}
}

// The default level keeps a plain comparison silent on stderr: worker and
// stage progress is logged at debug, only anomalies at warn.
func TestNewDefaultLevelIsWarn(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Format: "json", Component: "cmpnc"})
	logger.Debug("unit finished", Int("evaluated", 3))
	logger.Info("run finished", Bool("pass", true))
	if buf.Len() != 0 {
		t.Fatalf("debug and info should be filtered, got %q", buf.String())
	}

	logger.Warn("structural mismatch", String("kind", "attribute-value"))
	got := entries(t, &buf)
	if len(got) != 1 || got[0]["level"] != "warn" || got[0]["kind"] != "attribute-value" {
		t.Errorf("entries = %v", got)
	}
}

func TestNewLevels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		level string
		want  []string
	}{
		{"debug", []string{"debug", "info", "warn", "error"}},
		{"info", []string{"info", "warn", "error"}},
		{"WARN", []string{"warn", "error"}},
		{"error", []string{"error"}},
		{"chatty", []string{"warn", "error"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := New(&buf, Options{Level: tt.level, Format: "json"})
			logger.Debug("d")
			logger.Info("i")
			logger.Warn("w")
			logger.Error("e", errors.New("x"))

			var levels []string
			for _, e := range entries(t, &buf) {
				levels = append(levels, e["level"].(string))
			}
			if strings.Join(levels, ",") != strings.Join(tt.want, ",") {
				t.Errorf("levels = %v, want %v", levels, tt.want)
			}
		})
	}
}

// A worker logs through run -> unit/group child loggers derived with
// WithFields; every entry must carry the whole chain.
func TestWithFieldsWorkerChain(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	root := New(&buf, Options{Level: "debug", Format: "json", Component: "cmpnc"})
	run := root.WithFields(String("run", "4f1c"))
	unit := run.WithFields(String("unit", "growth-2"), String("group", "growth"))

	unit.Debug("variable differs", String("variable", "temp"), Int("index", 57), Err(errors.New("values differ")))
	unit.Debug("unit finished",
		Int("evaluated", 2),
		Int("failed", 1),
		Float64("seconds", 0.5),
	)
	run.Warn("structural mismatch", String("kind", "dimension-count"))

	got := entries(t, &buf)
	if len(got) != 3 {
		t.Fatalf("got %d entries: %s", len(got), buf.String())
	}
	for _, e := range got[:2] {
		if e["component"] != "cmpnc" || e["run"] != "4f1c" || e["unit"] != "growth-2" || e["group"] != "growth" {
			t.Errorf("unit entry lost context: %v", e)
		}
		if _, ok := e["time"]; !ok {
			t.Errorf("entry has no timestamp: %v", e)
		}
	}
	if got[0]["index"] != float64(57) || got[0]["error"] != "values differ" {
		t.Errorf("difference entry = %v", got[0])
	}
	if got[1]["seconds"] != 0.5 || got[1]["failed"] != float64(1) {
		t.Errorf("finish entry = %v", got[1])
	}
	if _, leaked := got[2]["unit"]; leaked || got[2]["run"] != "4f1c" {
		t.Errorf("run entry should carry run but not unit: %v", got[2])
	}
}

func TestErrorEntry(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Format: "json"})
	logger.Error("writing report failed", errors.New("permission denied"), String("path", "out/report.json"))

	got := entries(t, &buf)
	if len(got) != 1 {
		t.Fatalf("got %d entries", len(got))
	}
	e := got[0]
	if e["level"] != "error" || e["error"] != "permission denied" || e["path"] != "out/report.json" {
		t.Errorf("entry = %v", e)
	}
	if e["message"] != "writing report failed" {
		t.Errorf("message = %v", e["message"])
	}
}

func TestApplyFieldsTypes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Level: "debug", Format: "json"})
	logger.Debug("types",
		Field{Key: "records", Value: int64(1200)},
		Uint64("heap", 4096),
		Bool("masked", false),
		Field{Key: "shape", Value: []int{100, 2, 3}},
		Field{Key: "timeout", Value: 2 * time.Second},
	)

	e := entries(t, &buf)[0]
	if e["records"] != float64(1200) || e["heap"] != float64(4096) || e["masked"] != false {
		t.Errorf("scalar fields = %v", e)
	}
	shape, ok := e["shape"].([]any)
	if !ok || len(shape) != 3 || shape[0] != float64(100) {
		t.Errorf("shape = %#v", e["shape"])
	}
	if _, ok := e["timeout"]; !ok {
		t.Error("unknown types are encoded, not dropped")
	}
}

func TestNewConsoleFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New(&buf, Options{Format: "console", NoColor: true, Component: "cmpnc"})
	logger.WithFields(String("run", "4f1c")).Warn("structural mismatch", String("kind", "variable-names"))

	out := buf.String()
	for _, want := range []string{"WRN", "structural mismatch", "run=4f1c", "kind=variable-names", "component=cmpnc"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output %q should contain %q", out, want)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("NoColor output must not contain escape codes")
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Error("console output should not be JSON")
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	NewLogger(&buf, "worker").Info("unit started", String("unit", "fixed-0"))
	e := entries(t, &buf)[0]
	if e["component"] != "worker" || e["unit"] != "fixed-0" || e["level"] != "info" {
		t.Errorf("entry = %v", e)
	}
	if NewDefaultLogger() == nil {
		t.Error("NewDefaultLogger returned nil")
	}
}

func TestPrintfAndPrintln(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := NewLogger(&buf, "cmpnc")
	logger.Printf("compared %d of %d units", 3, 7)
	logger.Println("files", "differ")

	got := entries(t, &buf)
	if len(got) != 2 {
		t.Fatalf("got %d entries", len(got))
	}
	if got[0]["message"] != "compared 3 of 7 units" || got[1]["message"] != "files differ" {
		t.Errorf("messages = %v, %v", got[0]["message"], got[1]["message"])
	}
}

func TestStdLoggerAdapter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		log  func(Logger)
		want string
	}{
		{"info", func(l Logger) { l.Info("run finished", Bool("pass", true)) }, "[INFO] run finished run=4f1c pass=true"},
		{"warn", func(l Logger) { l.Warn("unit aborted", Int("variables", 2)) }, "[WARN] unit aborted run=4f1c variables=2"},
		{"debug", func(l Logger) { l.Debug("skipping text variable", String("variable", "label")) }, "[DEBUG] skipping text variable run=4f1c variable=label"},
		{"error", func(l Logger) { l.Error("open failed", errors.New("no such file")) }, "[ERROR] open failed run=4f1c error=no such file"},
		{"printf", func(l Logger) { l.Printf("%d units", 4) }, "4 units"},
		{"println", func(l Logger) { l.Println("done", 1) }, "done 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := NewStdLoggerAdapter(log.New(&buf, "", 0)).WithFields(String("run", "4f1c"))
			tt.log(logger)
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStdLoggerAdapterChildDoesNotMutateParent(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	parent := NewStdLoggerAdapter(log.New(&buf, "", 0)).WithFields(String("run", "4f1c"))
	a := parent.WithFields(String("unit", "fixed-0"))
	b := parent.WithFields(String("unit", "fixed-1"))
	a.Info("a")
	b.Info("b")
	parent.Info("p")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"[INFO] a run=4f1c unit=fixed-0",
		"[INFO] b run=4f1c unit=fixed-1",
		"[INFO] p run=4f1c",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()
	logger := Nop()
	logger.Warn("structural mismatch")
	logger.Error("open failed", errors.New("x"))
	logger.WithFields(String("unit", "growth-0")).Debug("unit finished")
}
