package compare

import "time"

// Failure records why a variable failed in one unit.
type Failure struct {
	// Index is the growth index being compared, or -1 for whole-variable reads.
	Index   int
	Message string
}

// PartialResult is produced exactly once per work unit.
type PartialResult struct {
	UnitID    string
	Group     Group
	Succeeded bool
	Evaluated []string
	Failed    []string
	Skipped   []string
	Failures  map[string]Failure
	Err       error
	Duration  time.Duration
}

func newPartialResult(u WorkUnit) *PartialResult {
	return &PartialResult{
		UnitID:    u.ID,
		Group:     u.Group,
		Succeeded: true,
		Failures:  make(map[string]Failure),
	}
}

func (r *PartialResult) pass(name string) {
	r.Evaluated = append(r.Evaluated, name)
}

func (r *PartialResult) skip(name string) {
	r.Evaluated = append(r.Evaluated, name)
	r.Skipped = append(r.Skipped, name)
}

func (r *PartialResult) fail(name string, index int, err error) {
	r.Evaluated = append(r.Evaluated, name)
	r.Failed = append(r.Failed, name)
	r.Succeeded = false
	r.Failures[name] = Failure{Index: index, Message: err.Error()}
}
