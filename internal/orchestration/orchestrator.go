package orchestration

import (
	"context"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dchandan/cmpnc/internal/compare"
	"github.com/dchandan/cmpnc/internal/dataset"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/logging"
	"github.com/dchandan/cmpnc/internal/partition"
	"github.com/dchandan/cmpnc/internal/tolerance"
)

const tracerName = "github.com/dchandan/cmpnc/internal/orchestration"

// Stage is a step of the run state machine.
type Stage int

const (
	StageStart Stage = iota
	StageDimensionsChecked
	StageAttributesChecked
	StageVariablesChecked
	StageVariablesPartitioned
	StageFixedDispatched
	StageGrowthDispatched
	StageAggregated
	StageVerdict
)

var stageNames = [...]string{
	"start",
	"dimensions-checked",
	"attributes-checked",
	"variables-checked",
	"variables-partitioned",
	"fixed-dispatched",
	"growth-dispatched",
	"aggregated",
	"verdict",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Options configures a run.
type Options struct {
	// Parallelism bounds live workers; values below 1 mean runtime.NumCPU().
	Parallelism      int
	ContinueOnError  bool
	IgnoreAttributes bool
	Tolerance        tolerance.Tolerance
	// WorkerTimeout bounds one work unit; zero means no limit.
	WorkerTimeout time.Duration
}

// Report is everything a run found out.
type Report struct {
	RunID string
	File1 string
	File2 string

	GrowthAxis        compare.GrowthAxis
	Dimensions        compare.StructureCheck
	Attributes        compare.StructureCheck
	AttributesSkipped bool
	Variables         compare.VariableCheck

	FixedVars  []string
	GrowthVars []string
	FixedPlan  partition.Plan
	GrowthPlan partition.Plan
	Units      int

	Fixed   compare.Verdict
	Growth  compare.Verdict
	Verdict compare.Verdict

	// Findings lists every structural mismatch recorded in continue-on-error
	// mode.
	Findings []apperrors.StructuralMismatch

	Stage     Stage
	StartedAt time.Time
	Duration  time.Duration
}

// Pass reports the final verdict: no variable failed and, in
// continue-on-error mode, no structural check failed.
func (r *Report) Pass() bool {
	return r.Stage == StageVerdict && r.Verdict.Pass && len(r.Findings) == 0
}

// Orchestrator runs comparisons. It is safe to call Run concurrently.
type Orchestrator struct {
	opener   dataset.Opener
	opts     Options
	logger   logging.Logger
	observer Observer
	progress ProgressReporter
	out      io.Writer
	recorder Recorder
	tracer   trace.Tracer
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithObserver sets the stage observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithProgress sets the progress reporter and the writer it draws on.
func WithProgress(p ProgressReporter, out io.Writer) Option {
	return func(o *Orchestrator) { o.progress, o.out = p, out }
}

// WithRecorder sets the measurement recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithTracer sets the tracer used for run and unit spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// New creates an Orchestrator.
func New(opener dataset.Opener, opts Options, options ...Option) *Orchestrator {
	o := &Orchestrator{
		opener:   opener,
		opts:     opts,
		logger:   logging.Nop(),
		observer: ObserverFunc(func(Stage, *Report) {}),
		progress: NullProgressReporter{},
		out:      io.Discard,
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
	}
	if o.opts.Parallelism < 1 {
		o.opts.Parallelism = runtime.NumCPU()
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Parallelism returns the effective parallelism.
func (o *Orchestrator) Parallelism() int { return o.opts.Parallelism }

type metadata struct {
	dims  []dataset.Dimension
	attrs []dataset.Attribute
	vars  []dataset.Variable
}

func (o *Orchestrator) inspect(path string) (metadata, error) {
	ds, err := o.opener.Open(path)
	if err != nil {
		return metadata{}, apperrors.InputError{Path: path, Cause: err}
	}
	defer ds.Close()
	return metadata{dims: ds.Dimensions(), attrs: ds.Attributes(), vars: ds.Variables()}, nil
}

// Run compares file1 with file2. The report is returned even on error and
// holds whatever stages completed. Errors are an InputError for unreadable
// inputs, a StructuralError in strict mode, or the context error when the
// run was interrupted. A run that completes returns a nil error whatever the
// verdict.
func (o *Orchestrator) Run(ctx context.Context, file1, file2 string) (report Report, err error) {
	r := &Report{RunID: uuid.NewString(), File1: file1, File2: file2, StartedAt: time.Now()}
	log := o.logger.WithFields(logging.String("run", r.RunID))

	ctx, span := o.tracer.Start(ctx, "compare.run", trace.WithAttributes(
		attribute.String("cmpnc.run", r.RunID),
		attribute.String("cmpnc.file1", file1),
		attribute.String("cmpnc.file2", file2),
		attribute.Int("cmpnc.parallelism", o.opts.Parallelism),
	))
	defer func() {
		r.Duration = time.Since(r.StartedAt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		report = *r
	}()

	o.advance(StageStart, r, span)

	m1, err := o.inspect(file1)
	if err != nil {
		return *r, err
	}
	m2, err := o.inspect(file2)
	if err != nil {
		return *r, err
	}

	r.GrowthAxis = compare.GrowthDimension(m1.dims)
	growth2 := compare.GrowthDimension(m2.dims)
	if r.GrowthAxis.Found() {
		log.Debug("growth dimension resolved",
			logging.String("dimension", r.GrowthAxis.Name),
			logging.Int("length", r.GrowthAxis.Len),
			logging.Bool("unlimited", r.GrowthAxis.Unlimited))
	}

	// Observers see each check before strict mode gives up on it.
	r.Dimensions = compare.CheckDimensions(m1.dims, m2.dims)
	o.advance(StageDimensionsChecked, r, span)
	if err := o.structural(r, r.Dimensions.Mismatches, log); err != nil {
		return *r, err
	}

	if o.opts.IgnoreAttributes {
		r.AttributesSkipped = true
	} else {
		r.Attributes = compare.CheckAttributes(m1.attrs, m2.attrs)
	}
	o.advance(StageAttributesChecked, r, span)
	if err := o.structural(r, r.Attributes.Mismatches, log); err != nil {
		return *r, err
	}

	r.Variables = compare.CheckVariables(m1.vars, m2.vars, r.GrowthAxis, growth2)
	o.advance(StageVariablesChecked, r, span)
	if err := o.structural(r, r.Variables.Mismatches, log); err != nil {
		return *r, err
	}

	fixed, grow := compare.Classify(r.Variables.Common, r.GrowthAxis.Name)
	r.FixedVars, r.GrowthVars = compare.Names(fixed), compare.Names(grow)
	r.FixedPlan = partition.PlanFixed(len(fixed), o.opts.Parallelism)
	r.GrowthPlan = partition.PlanGrowth(len(grow), r.GrowthAxis.Len, o.opts.Parallelism)
	fixedUnits := compare.BuildUnits(compare.Fixed, fixed, r.FixedPlan, r.GrowthAxis.Name)
	growthUnits := compare.BuildUnits(compare.Growth, grow, r.GrowthPlan, r.GrowthAxis.Name)
	r.Units = len(fixedUnits) + len(growthUnits)
	log.Debug("variables partitioned",
		logging.Int("fixed", len(fixed)),
		logging.Int("growth", len(grow)),
		logging.String("growth_strategy", r.GrowthPlan.Strategy.String()),
		logging.Int("units", r.Units))
	o.advance(StageVariablesPartitioned, r, span)

	w := compare.Worker{
		Opener:    o.opener,
		File1:     file1,
		File2:     file2,
		Tolerance: o.opts.Tolerance,
		Timeout:   o.opts.WorkerTimeout,
		Logger:    log,
		Tracer:    o.tracer,
	}

	progressChan := make(chan ProgressUpdate, r.Units)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go o.progress.DisplayProgress(&displayWg, progressChan, r.Units, o.out)
	stopProgress := func() {
		close(progressChan)
		displayWg.Wait()
	}

	r.Fixed = compare.Aggregate(r.FixedVars, o.dispatch(ctx, w, fixedUnits, progressChan))
	if err := ctx.Err(); err != nil {
		stopProgress()
		return *r, err
	}
	o.advance(StageFixedDispatched, r, span)

	r.Growth = compare.Aggregate(r.GrowthVars, o.dispatch(ctx, w, growthUnits, progressChan))
	stopProgress()
	if err := ctx.Err(); err != nil {
		return *r, err
	}
	o.advance(StageGrowthDispatched, r, span)

	r.Verdict = compare.Merge(compare.Names(r.Variables.Common), r.Fixed, r.Growth)
	o.advance(StageAggregated, r, span)

	r.Stage = StageVerdict
	r.Duration = time.Since(r.StartedAt)
	span.SetAttributes(
		attribute.Bool("cmpnc.pass", r.Pass()),
		attribute.Int("cmpnc.failed", r.Verdict.Counts.Failed),
	)
	o.recorder.ObserveRun(r)
	o.advance(StageVerdict, r, span)
	log.Debug("run finished", logging.Bool("pass", r.Pass()), logging.Float64("seconds", r.Duration.Seconds()))
	return *r, nil
}

func (o *Orchestrator) advance(stage Stage, r *Report, span trace.Span) {
	r.Stage = stage
	span.AddEvent(stage.String())
	o.observer.StageCompleted(stage, r)
}

// structural records mismatches; in strict mode it turns them into an error.
func (o *Orchestrator) structural(r *Report, found []apperrors.StructuralMismatch, log logging.Logger) error {
	if len(found) == 0 {
		return nil
	}
	if !o.opts.ContinueOnError {
		return apperrors.StructuralError{Mismatches: found}
	}
	for _, m := range found {
		log.Warn("structural mismatch", logging.String("kind", m.Kind), logging.String("detail", m.Message))
	}
	r.Findings = append(r.Findings, found...)
	return nil
}

// dispatch runs one wave. At most Parallelism units are live; the collector
// blocks until every unit delivered its result, then joins the group.
func (o *Orchestrator) dispatch(ctx context.Context, w compare.Worker, units []compare.WorkUnit, progressChan chan<- ProgressUpdate) []compare.PartialResult {
	if len(units) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(o.opts.Parallelism, len(units)))
	done := make(chan compare.PartialResult, len(units))

	go func() {
		for _, u := range units {
			g.Go(func() error {
				done <- w.Run(gctx, u)
				return nil
			})
		}
	}()

	results := make([]compare.PartialResult, 0, len(units))
	for range len(units) {
		res := <-done
		results = append(results, res)
		o.recorder.ObserveUnit(res)
		progressChan <- ProgressUpdate{UnitID: res.UnitID, Group: res.Group, Failed: len(res.Failed)}
	}
	_ = g.Wait()
	return results
}
