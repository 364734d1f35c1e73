package orchestration

import (
	"context"
	"io"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dchandan/cmpnc/internal/compare"
	"github.com/dchandan/cmpnc/internal/dataset"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/partition"
	"github.com/dchandan/cmpnc/internal/tolerance"
)

const steps = 100

func series(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * 0.25
	}
	return out
}

// scenario builds two copies of a dataset with dimensions {x: 3, y: 2,
// t: 100 (unlimited)}, coordinate variables x and y, a growth variable
// data(t, y, x) and a text variable.
func scenario(mutate func(b *dataset.Memory)) *dataset.MemoryOpener {
	build := func(name string) *dataset.Memory {
		return &dataset.Memory{
			Name: name,
			Dims: []dataset.Dimension{
				{Name: "x", Len: 3},
				{Name: "y", Len: 2},
				{Name: "t", Len: steps, Unlimited: true},
			},
			Attrs: []dataset.Attribute{{Name: "title", Value: "run"}, {Name: "units", Value: "K"}},
			Vars: []dataset.MemoryVariable{
				{Variable: dataset.Variable{Name: "x", Dims: []string{"x"}, Shape: []int{3}}, Data: series(3)},
				{Variable: dataset.Variable{Name: "y", Dims: []string{"y"}, Shape: []int{2}}, Data: series(2)},
				{
					Variable: dataset.Variable{Name: "data", Dims: []string{"t", "y", "x"}, Shape: []int{steps, 2, 3}},
					Data:     series(steps * 6),
				},
				{Variable: dataset.Variable{Name: "label", DType: dataset.Text, Dims: []string{"x"}, Shape: []int{3}}},
			},
		}
	}
	a, b := build("a.nc"), build("b.nc")
	if mutate != nil {
		mutate(b)
	}
	return dataset.NewMemoryOpener(a, b)
}

func options(p int) Options {
	return Options{Parallelism: p, Tolerance: tolerance.Default()}
}

func TestRunIdenticalCopies(t *testing.T) {
	t.Parallel()
	opener := scenario(nil)
	var stages []Stage
	obs := ObserverFunc(func(s Stage, _ *Report) { stages = append(stages, s) })

	r, err := New(opener, options(4), WithObserver(obs)).Run(context.Background(), "a.nc", "b.nc")
	require.NoError(t, err)

	assert.True(t, r.Pass())
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, compare.GrowthAxis{Name: "t", Len: steps, Unlimited: true}, r.GrowthAxis)
	assert.Equal(t, []string{"x", "y", "label"}, r.FixedVars)
	assert.Equal(t, []string{"data"}, r.GrowthVars)
	assert.Equal(t, partition.ByIndex, r.GrowthPlan.Strategy)
	assert.Equal(t, 4, r.GrowthPlan.Parallelism)
	assert.Equal(t, 3+4, r.Units)

	assert.Equal(t, compare.Counts{Passed: 3, Skipped: 1}, r.Verdict.Counts)
	assert.Equal(t, []string{"label"}, r.Verdict.Skipped)
	assert.Equal(t, []Stage{
		StageStart, StageDimensionsChecked, StageAttributesChecked, StageVariablesChecked, StageVariablesPartitioned,
		StageFixedDispatched, StageGrowthDispatched, StageAggregated, StageVerdict,
	}, stages)
	assert.Equal(t, opener.Opens(), opener.Closes(), "every handle is closed")
}

func TestRunGrowthDifference(t *testing.T) {
	t.Parallel()
	opener := scenario(func(b *dataset.Memory) {
		b.Vars[2].Data[57*6+4] += 1
	})

	r, err := New(opener, options(4)).Run(context.Background(), "a.nc", "b.nc")
	require.NoError(t, err)

	assert.False(t, r.Pass())
	assert.Equal(t, []string{"data"}, r.Verdict.Failed)
	assert.Equal(t, 57, r.Verdict.Failures["data"].Index)
	assert.Equal(t, compare.Counts{Passed: 2, Failed: 1, Skipped: 1}, r.Verdict.Counts)
	assert.True(t, r.Fixed.Pass)
	assert.False(t, r.Growth.Pass)
}

func TestRunParallelismAgrees(t *testing.T) {
	t.Parallel()
	mutate := func(b *dataset.Memory) {
		b.Vars[0].Data[1] = 42
		b.Vars[2].Data[10] = -1
	}
	want, err := New(scenario(mutate), options(1)).Run(context.Background(), "a.nc", "b.nc")
	require.NoError(t, err)

	for _, p := range []int{2, 3, 8, 200} {
		got, err := New(scenario(mutate), options(p)).Run(context.Background(), "a.nc", "b.nc")
		require.NoError(t, err)
		assert.Equal(t, want.Verdict.Failed, got.Verdict.Failed, "parallelism %d", p)
		assert.Equal(t, want.Verdict.Skipped, got.Verdict.Skipped, "parallelism %d", p)
		assert.Equal(t, want.Verdict.Passed, got.Verdict.Passed, "parallelism %d", p)
		assert.Equal(t, want.Verdict.Counts, got.Verdict.Counts, "parallelism %d", p)
		assert.Equal(t, want.Verdict.Failures, got.Verdict.Failures, "parallelism %d", p)
	}
}

func TestRunAttributeMismatch(t *testing.T) {
	t.Parallel()
	mutate := func(b *dataset.Memory) { b.Attrs[1].Value = "degC" }

	t.Run("strict", func(t *testing.T) {
		t.Parallel()
		r, err := New(scenario(mutate), options(2)).Run(context.Background(), "a.nc", "b.nc")
		var se apperrors.StructuralError
		require.ErrorAs(t, err, &se)
		require.Len(t, se.Mismatches, 1)
		assert.Equal(t, apperrors.KindAttributeValue, se.Mismatches[0].Kind)
		assert.Equal(t, "units", se.Mismatches[0].Name)
		assert.Equal(t, apperrors.ExitFailure, apperrors.ExitCode(err))
		assert.Equal(t, StageAttributesChecked, r.Stage)
		assert.False(t, r.Pass())
		assert.Zero(t, r.Units, "no variable was compared")
	})

	t.Run("continue on error", func(t *testing.T) {
		t.Parallel()
		opts := options(2)
		opts.ContinueOnError = true
		r, err := New(scenario(mutate), opts).Run(context.Background(), "a.nc", "b.nc")
		require.NoError(t, err)
		require.Len(t, r.Findings, 1)
		assert.True(t, r.Verdict.Pass, "every variable matches")
		assert.False(t, r.Pass(), "the attribute mismatch fails the run")
		assert.Equal(t, compare.Counts{Passed: 3, Skipped: 1}, r.Verdict.Counts)
	})

	t.Run("ignore attributes", func(t *testing.T) {
		t.Parallel()
		opts := options(2)
		opts.IgnoreAttributes = true
		r, err := New(scenario(mutate), opts).Run(context.Background(), "a.nc", "b.nc")
		require.NoError(t, err)
		assert.True(t, r.AttributesSkipped)
		assert.True(t, r.Pass())
	})
}

func TestRunContinuesOverCommonVariables(t *testing.T) {
	t.Parallel()
	opener := scenario(func(b *dataset.Memory) {
		b.Vars = b.Vars[1:] // drop x
	})
	opts := options(3)
	opts.ContinueOnError = true
	r, err := New(opener, opts).Run(context.Background(), "a.nc", "b.nc")
	require.NoError(t, err)

	assert.NotEmpty(t, r.Findings)
	assert.Equal(t, []string{"y", "label"}, r.FixedVars)
	assert.Equal(t, compare.Counts{Passed: 2, Skipped: 1}, r.Verdict.Counts)
	assert.False(t, r.Pass())
}

func TestRunStrictVariableMismatchNotifiesObserver(t *testing.T) {
	t.Parallel()
	opener := scenario(func(b *dataset.Memory) {
		b.Vars = b.Vars[1:] // drop x
	})
	var (
		stages []Stage
		seen   compare.VariableCheck
	)
	obs := ObserverFunc(func(s Stage, r *Report) {
		stages = append(stages, s)
		if s == StageVariablesChecked {
			seen = r.Variables
		}
	})

	r, err := New(opener, options(2), WithObserver(obs)).Run(context.Background(), "a.nc", "b.nc")
	var se apperrors.StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageVariablesChecked, r.Stage)
	assert.Equal(t, []Stage{StageStart, StageDimensionsChecked, StageAttributesChecked, StageVariablesChecked}, stages)
	assert.Equal(t, se.Mismatches, seen.Mismatches, "the observer sees the mismatches strict mode aborts on")
	assert.Zero(t, r.Units)
}

func TestRunInputErrors(t *testing.T) {
	t.Parallel()
	_, err := New(scenario(nil), options(1)).Run(context.Background(), "a.nc", "missing.nc")
	var ie apperrors.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "missing.nc", ie.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := New(scenario(nil), options(4)).Run(ctx, "a.nc", "b.nc")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperrors.ExitErrorCanceled, apperrors.ExitCode(err))
	assert.False(t, r.Pass())
}

func TestRunNoGrowthAxis(t *testing.T) {
	t.Parallel()
	opener := dataset.NewMemoryOpener(buildFlat("a.nc"), buildFlat("b.nc"))

	r, err := New(opener, options(4)).Run(context.Background(), "a.nc", "b.nc")
	require.NoError(t, err)
	assert.False(t, r.GrowthAxis.Found())
	assert.Empty(t, r.GrowthVars)
	assert.Equal(t, compare.Counts{Passed: 2}, r.Verdict.Counts)
	assert.True(t, r.Pass())
}

func buildFlat(name string) *dataset.Memory {
	return &dataset.Memory{
		Name: name,
		Dims: []dataset.Dimension{{Name: "x", Len: 3}, {Name: "y", Len: 2}},
		Vars: []dataset.MemoryVariable{
			{Variable: dataset.Variable{Name: "x", Dims: []string{"x"}, Shape: []int{3}}, Data: series(3)},
			{Variable: dataset.Variable{Name: "y", Dims: []string{"y"}, Shape: []int{2}}, Data: series(2)},
		},
	}
}

type countingRecorder struct {
	units atomic.Int64
	runs  atomic.Int64
}

func (c *countingRecorder) ObserveUnit(compare.PartialResult) { c.units.Add(1) }
func (c *countingRecorder) ObserveRun(*Report)                { c.runs.Add(1) }

func TestRunReportsProgressAndMeasurements(t *testing.T) {
	t.Parallel()
	rec := &countingRecorder{}
	var (
		updates int
		total   int
	)
	reporter := ProgressReporterFunc(func(wg *sync.WaitGroup, ch <-chan ProgressUpdate, n int, _ io.Writer) {
		defer wg.Done()
		total = n
		for range ch {
			updates++
		}
	})

	r, err := New(scenario(nil), options(4), WithRecorder(rec), WithProgress(reporter, io.Discard)).
		Run(context.Background(), "a.nc", "b.nc")
	require.NoError(t, err)
	assert.Equal(t, r.Units, total)
	assert.Equal(t, r.Units, updates)
	assert.Equal(t, int64(r.Units), rec.units.Load())
	assert.Equal(t, int64(1), rec.runs.Load())
}

func TestStageString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "start", StageStart.String())
	assert.Equal(t, "verdict", StageVerdict.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
