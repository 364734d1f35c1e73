package compare

import (
	"cmp"
	"slices"
)

// Counts summarises a verdict.
type Counts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// UnitError is an error attached to a partial result.
type UnitError struct {
	UnitID string
	Err    error
}

// Verdict is the merged outcome of a group, or of a whole run.
type Verdict struct {
	Pass     bool
	Failed   []string
	Skipped  []string
	Passed   []string
	Failures map[string]Failure
	Errors   []UnitError
	Counts   Counts
}

// notEvaluated is recorded for a variable no partial result mentioned.
const notEvaluated = "not evaluated"

// Aggregate merges the partial results of one group. order lists the
// group's variables in dataset order; the verdict lists follow it, so the
// outcome does not depend on the order of results. A variable fails if any
// of its units failed it; a variable no unit evaluated is failed too.
func Aggregate(order []string, results []PartialResult) Verdict {
	evaluated := make(map[string]bool)
	failed := make(map[string]bool)
	skipped := make(map[string]bool)
	failures := make(map[string]Failure)
	succeeded := true
	var unitErrs []UnitError

	for _, r := range results {
		succeeded = succeeded && r.Succeeded
		for _, n := range r.Evaluated {
			evaluated[n] = true
		}
		for _, n := range r.Skipped {
			skipped[n] = true
		}
		for _, n := range r.Failed {
			failed[n] = true
		}
		for n, f := range r.Failures {
			if prev, ok := failures[n]; !ok || lessFailure(f, prev) {
				failures[n] = f
			}
		}
		if r.Err != nil {
			unitErrs = append(unitErrs, UnitError{UnitID: r.UnitID, Err: r.Err})
		}
	}
	slices.SortFunc(unitErrs, func(a, b UnitError) int { return cmp.Compare(a.UnitID, b.UnitID) })

	v := Verdict{Failures: make(map[string]Failure), Errors: unitErrs}
	for _, n := range order {
		switch {
		case !evaluated[n]:
			v.Failed = append(v.Failed, n)
			v.Failures[n] = Failure{Index: -1, Message: notEvaluated}
		case failed[n]:
			v.Failed = append(v.Failed, n)
			v.Failures[n] = failures[n]
		case skipped[n]:
			v.Skipped = append(v.Skipped, n)
		default:
			v.Passed = append(v.Passed, n)
		}
	}
	v.Pass = succeeded && len(v.Failed) == 0
	v.Counts = Counts{Passed: len(v.Passed), Failed: len(v.Failed), Skipped: len(v.Skipped)}
	return v
}

// lessFailure orders failures by index, then message.
func lessFailure(a, b Failure) bool {
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return a.Message < b.Message
}

// Merge combines group verdicts into the run verdict, listing variables in
// order. order must hold every distinct variable of the groups once; a
// variable no group reported is failed.
func Merge(order []string, groups ...Verdict) Verdict {
	status := make(map[string]int)
	const (
		passedStatus = iota + 1
		skippedStatus
		failedStatus
	)
	out := Verdict{Pass: true, Failures: make(map[string]Failure)}
	for _, g := range groups {
		out.Pass = out.Pass && g.Pass
		for _, n := range g.Passed {
			status[n] = max(status[n], passedStatus)
		}
		for _, n := range g.Skipped {
			status[n] = max(status[n], skippedStatus)
		}
		for _, n := range g.Failed {
			status[n] = failedStatus
		}
		for n, f := range g.Failures {
			if prev, ok := out.Failures[n]; !ok || lessFailure(f, prev) {
				out.Failures[n] = f
			}
		}
		out.Errors = append(out.Errors, g.Errors...)
	}

	for _, n := range order {
		switch status[n] {
		case failedStatus:
			out.Failed = append(out.Failed, n)
		case skippedStatus:
			out.Skipped = append(out.Skipped, n)
		case passedStatus:
			out.Passed = append(out.Passed, n)
		default:
			out.Failed = append(out.Failed, n)
			out.Failures[n] = Failure{Index: -1, Message: notEvaluated}
		}
	}
	out.Counts = Counts{
		Passed:  PassedCount(len(order), len(out.Failed), len(out.Skipped)),
		Failed:  len(out.Failed),
		Skipped: len(out.Skipped),
	}
	out.Pass = out.Pass && len(out.Failed) == 0
	return out
}

// PassedCount returns total - failed - skipped, where total is
// len(fixed) + len(growth) counted over distinct names.
func PassedCount(total, failed, skipped int) int {
	return total - failed - skipped
}
