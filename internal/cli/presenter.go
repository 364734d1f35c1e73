package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dchandan/cmpnc/internal/compare"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/format"
	"github.com/dchandan/cmpnc/internal/orchestration"
	"github.com/dchandan/cmpnc/internal/ui"
)

// Indentation of the per-variable lines.
const (
	passLabel = "        PASS: "
	failLabel = "        FAIL: "
)

// PresentationOptions configures how a run is presented.
type PresentationOptions struct {
	Verbose bool
	Summary bool
}

// Presenter narrates a run. As an orchestration.Observer it prints the
// verbose narration stage by stage; DisplayResult prints the outcome.
type Presenter struct {
	out     io.Writer
	palette ui.Palette
	opts    PresentationOptions
}

var _ orchestration.Observer = (*Presenter)(nil)

// NewPresenter creates a Presenter writing to out.
func NewPresenter(out io.Writer, palette ui.Palette, opts PresentationOptions) *Presenter {
	return &Presenter{out: out, palette: palette, opts: opts}
}

// StageCompleted implements orchestration.Observer.
func (p *Presenter) StageCompleted(stage orchestration.Stage, r *orchestration.Report) {
	if !p.opts.Verbose {
		return
	}
	switch stage {
	case orchestration.StageDimensionsChecked:
		if r.GrowthAxis.Found() {
			fmt.Fprintf(p.out, "Found unlimited dimension %s of length %d\n", r.GrowthAxis.Name, r.GrowthAxis.Len)
		}
		fmt.Fprintln(p.out, p.palette.Heading("Comparing Dimensions"))
		p.displayCheck(r.Dimensions, "dimensions", "Dimension")
	case orchestration.StageAttributesChecked:
		fmt.Fprintln(p.out, p.palette.Heading("Comparing Attributes"))
		if r.AttributesSkipped {
			fmt.Fprintln(p.out, p.palette.Dim("  Skipping attribute comparison"))
			return
		}
		p.displayCheck(r.Attributes, "attributes", "Attribute")
	case orchestration.StageVariablesChecked:
		fmt.Fprintln(p.out, p.palette.Heading("Comparing Variables"))
		for _, m := range r.Variables.Mismatches {
			fmt.Fprintf(p.out, "  %s\n", p.palette.Fail(m.Message))
		}
	case orchestration.StageFixedDispatched:
		fmt.Fprintln(p.out, "    Variables without unlimited dimension:")
		p.displayVerdict(r.FixedVars, r.Fixed)
	case orchestration.StageGrowthDispatched:
		fmt.Fprintln(p.out, "    Variables WITH unlimited dimension:")
		p.displayVerdict(r.GrowthVars, r.Growth)
	}
}

func (p *Presenter) displayCheck(c compare.StructureCheck, plural, singular string) {
	if c.OK() {
		fmt.Fprintf(p.out, "  Both files have %d %s\n", c.Count, plural)
	}
	for _, m := range c.Mismatches {
		fmt.Fprintf(p.out, "  %s\n", p.palette.Fail(m.Message))
	}
	for _, name := range c.Same {
		fmt.Fprintf(p.out, "  %s %s same\n", singular, name)
	}
}

func (p *Presenter) displayVerdict(order []string, v compare.Verdict) {
	failed := make(map[string]bool, len(v.Failed))
	for _, n := range v.Failed {
		failed[n] = true
	}
	skipped := make(map[string]bool, len(v.Skipped))
	for _, n := range v.Skipped {
		skipped[n] = true
	}
	for _, name := range order {
		switch {
		case skipped[name]:
			fmt.Fprintf(p.out, "  %s\n", name)
			fmt.Fprintln(p.out, p.palette.Skip("    Skipping check for this variable"))
		case failed[name]:
			fmt.Fprintf(p.out, "%s%s\n", p.palette.Fail(failLabel), name)
			if f, ok := v.Failures[name]; ok {
				fmt.Fprintf(p.out, "          %s\n", p.palette.Dim(FormatFailure(f)))
			}
		default:
			fmt.Fprintf(p.out, "%s%s\n", p.palette.Pass(passLabel), name)
		}
	}
}

// FormatFailure renders why a variable failed.
func FormatFailure(f compare.Failure) string {
	if f.Index >= 0 {
		return fmt.Sprintf("%s (first differing index %d)", f.Message, f.Index)
	}
	return f.Message
}

// DisplayResult prints the outcome of a completed run. Plain mode prints
// nothing on success and only the failed variables on failure.
func (p *Presenter) DisplayResult(r orchestration.Report) {
	if r.Pass() {
		if p.opts.Verbose {
			fmt.Fprintln(p.out, p.palette.Pass("Files seem to be identical"))
		}
	} else {
		if len(r.Verdict.Failed) > 0 {
			fmt.Fprintln(p.out, "These variables are not the same between the two files:")
			fmt.Fprintln(p.out, r.Verdict.Failed)
		}
		fmt.Fprintln(p.out, p.palette.Fail("Files are not identical"))
	}
	if p.opts.Summary {
		p.DisplaySummary(r)
	}
}

// DisplaySummary prints the two paths, the counts and the structural
// findings.
func (p *Presenter) DisplaySummary(r orchestration.Report) {
	c := r.Verdict.Counts
	fmt.Fprintf(p.out, "\n%s\n", p.palette.Heading("--- Summary ---"))
	fmt.Fprintf(p.out, "  File 1:  %s\n", r.File1)
	fmt.Fprintf(p.out, "  File 2:  %s\n", r.File2)
	if r.GrowthAxis.Found() {
		fmt.Fprintf(p.out, "  Growth dimension: %s (length %s)\n", r.GrowthAxis.Name, format.FormatCount(r.GrowthAxis.Len))
	} else {
		fmt.Fprintln(p.out, "  Growth dimension: none")
	}
	fmt.Fprintf(p.out, "  Passed:  %s\n", p.palette.Pass(fmt.Sprint(c.Passed)))
	fmt.Fprintf(p.out, "  Failed:  %s\n", p.palette.Fail(fmt.Sprint(c.Failed)))
	fmt.Fprintf(p.out, "  Skipped: %s\n", p.palette.Skip(fmt.Sprint(c.Skipped)))
	if len(r.Findings) > 0 {
		fmt.Fprintf(p.out, "  Structural findings: %d\n", len(r.Findings))
		for _, m := range r.Findings {
			fmt.Fprintf(p.out, "    - %s\n", m.Message)
		}
	}
	fmt.Fprintf(p.out, "  Work units: %d (parallelism %d)\n", r.Units, max(r.FixedPlan.Parallelism, r.GrowthPlan.Parallelism))
	fmt.Fprintf(p.out, "  Duration: %s\n", format.FormatExecutionDuration(r.Duration))
}

// HandleError prints a run error to out and returns the exit code for it.
func (p *Presenter) HandleError(err error, out io.Writer) int {
	if err == nil {
		return apperrors.ExitSuccess
	}
	var se apperrors.StructuralError
	switch {
	case errors.As(err, &se):
		for _, m := range se.Mismatches {
			fmt.Fprintf(out, "%s\n", p.palette.Fail(m.Message))
		}
		fmt.Fprintln(out, p.palette.Fail("Files are not identical"))
	case apperrors.IsContextError(err):
		fmt.Fprintf(out, "%s\n", p.palette.Skip("Comparison interrupted"))
	default:
		fmt.Fprintf(out, "%s %v\n", p.palette.Fail("Error:"), err)
	}
	return apperrors.ExitCode(err)
}
