package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dchandan/cmpnc/internal/compare"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/orchestration"
)

func finishedReport() *orchestration.Report {
	return &orchestration.Report{
		Stage:    orchestration.StageVerdict,
		Duration: 2 * time.Second,
		Verdict: compare.Verdict{
			Pass:   false,
			Counts: compare.Counts{Passed: 5, Failed: 2, Skipped: 1},
		},
		Findings: []apperrors.StructuralMismatch{
			{Kind: apperrors.KindAttributeValue, Name: "units"},
			{Kind: apperrors.KindAttributeValue, Name: "title"},
		},
	}
}

func TestRecorderObserveUnit(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.ObserveUnit(compare.PartialResult{Group: compare.Fixed, Duration: time.Millisecond})
	r.ObserveUnit(compare.PartialResult{Group: compare.Growth, Duration: time.Millisecond})
	r.ObserveUnit(compare.PartialResult{Group: compare.Growth, Duration: time.Millisecond})

	if got := testutil.ToFloat64(r.units.WithLabelValues("fixed")); got != 1 {
		t.Errorf("fixed units = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.units.WithLabelValues("growth")); got != 2 {
		t.Errorf("growth units = %v, want 2", got)
	}
	if n := testutil.CollectAndCount(r.unitSeconds); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestRecorderObserveRun(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.ObserveRun(finishedReport())

	tests := []struct {
		result string
		want   float64
	}{
		{"passed", 5},
		{"failed", 2},
		{"skipped", 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(r.variables.WithLabelValues(tt.result)); got != tt.want {
			t.Errorf("variables{%s} = %v, want %v", tt.result, got, tt.want)
		}
	}
	if got := testutil.ToFloat64(r.mismatches.WithLabelValues(apperrors.KindAttributeValue)); got != 2 {
		t.Errorf("mismatches = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.verdict); got != 0 {
		t.Errorf("verdict = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.runSeconds); got != 2 {
		t.Errorf("run seconds = %v, want 2", got)
	}

	pass := &orchestration.Report{Stage: orchestration.StageVerdict, Verdict: compare.Verdict{Pass: true}}
	r.ObserveRun(pass)
	if got := testutil.ToFloat64(r.verdict); got != 1 {
		t.Errorf("verdict after pass = %v, want 1", got)
	}
}

func TestRecorderWriteTextfile(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.ObserveRun(finishedReport())

	path := filepath.Join(t.TempDir(), "cmpnc.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	for _, want := range []string{
		`cmpnc_variables_total{result="failed"} 2`,
		"cmpnc_run_verdict 0",
		"cmpnc_host_memory_percent",
		"go_goroutines",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestReadMemory(t *testing.T) {
	t.Parallel()
	snap := ReadMemory()
	if snap.HeapAlloc == 0 {
		t.Error("HeapAlloc should be > 0")
	}
	if snap.Sys == 0 {
		t.Error("Sys should be > 0")
	}
}
