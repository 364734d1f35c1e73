package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dchandan/cmpnc/internal/compare"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/orchestration"
)

// ReportFailure is one failed variable in a JSON report.
type ReportFailure struct {
	Variable string `json:"variable"`
	Index    *int   `json:"index,omitempty"`
	Message  string `json:"message"`
}

// ReportFinding is one structural mismatch in a JSON report.
type ReportFinding struct {
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// RunReport is the JSON document written by --report.
type RunReport struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	File1       string          `json:"file1"`
	File2       string          `json:"file2"`
	Pass        bool            `json:"pass"`
	Stage       string          `json:"stage"`
	Error       string          `json:"error,omitempty"`
	Growth      *ReportGrowth   `json:"growth_dimension,omitempty"`
	Counts      compare.Counts  `json:"counts"`
	Variables   ReportVariables `json:"variables"`
	Failures    []ReportFailure `json:"failures,omitempty"`
	Findings    []ReportFinding `json:"structural_findings,omitempty"`
	Units       int             `json:"work_units"`
	DurationMS  float64         `json:"duration_ms"`
}

// ReportGrowth describes the growth dimension.
type ReportGrowth struct {
	Name      string `json:"name"`
	Length    int    `json:"length"`
	Unlimited bool   `json:"unlimited"`
}

// ReportVariables lists variables by outcome.
type ReportVariables struct {
	Passed  []string `json:"passed"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped"`
}

// BuildRunReport converts a run into its JSON document. runErr is the error
// Run returned, if any.
func BuildRunReport(r orchestration.Report, runErr error) RunReport {
	out := RunReport{
		RunID:       r.RunID,
		GeneratedAt: time.Now().UTC(),
		File1:       r.File1,
		File2:       r.File2,
		Pass:        runErr == nil && r.Pass(),
		Stage:       r.Stage.String(),
		Counts:      r.Verdict.Counts,
		Variables: ReportVariables{
			Passed:  nonNil(r.Verdict.Passed),
			Failed:  nonNil(r.Verdict.Failed),
			Skipped: nonNil(r.Verdict.Skipped),
		},
		Units:      r.Units,
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	if r.GrowthAxis.Found() {
		out.Growth = &ReportGrowth{Name: r.GrowthAxis.Name, Length: r.GrowthAxis.Len, Unlimited: r.GrowthAxis.Unlimited}
	}
	for _, name := range r.Verdict.Failed {
		f := r.Verdict.Failures[name]
		rf := ReportFailure{Variable: name, Message: f.Message}
		if f.Index >= 0 {
			idx := f.Index
			rf.Index = &idx
		}
		out.Failures = append(out.Failures, rf)
	}
	sort.SliceStable(out.Failures, func(i, j int) bool { return out.Failures[i].Variable < out.Failures[j].Variable })

	findings := r.Findings
	var se apperrors.StructuralError
	if errors.As(runErr, &se) {
		findings = se.Mismatches
	}
	for _, m := range findings {
		out.Findings = append(out.Findings, ReportFinding{Kind: m.Kind, Name: m.Name, Message: m.Message})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// WriteReport writes the JSON report of a run to path, creating parent
// directories as needed.
func WriteReport(path string, r orchestration.Report, runErr error) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(BuildRunReport(r, runErr), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
