package compare

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dchandan/cmpnc/internal/dataset"
	apperrors "github.com/dchandan/cmpnc/internal/errors"
	"github.com/dchandan/cmpnc/internal/logging"
	"github.com/dchandan/cmpnc/internal/tolerance"
)

const tracerName = "github.com/dchandan/cmpnc/internal/compare"

// Worker executes work units. A Worker holds only immutable configuration,
// so one value may serve every goroutine of a wave; each Run opens its own
// dataset handles.
type Worker struct {
	Opener    dataset.Opener
	File1     string
	File2     string
	Tolerance tolerance.Tolerance
	// Timeout bounds one unit; zero means no limit.
	Timeout time.Duration
	Logger  logging.Logger
	Tracer  trace.Tracer
}

func (w Worker) logger() logging.Logger {
	if w.Logger == nil {
		return logging.Nop()
	}
	return w.Logger
}

func (w Worker) tracer() trace.Tracer {
	if w.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return w.Tracer
}

// Run executes u and returns its partial result. Per-variable failures are
// recorded in the result, never returned.
func (w Worker) Run(ctx context.Context, u WorkUnit) PartialResult {
	started := time.Now()
	res := newPartialResult(u)
	log := w.logger().WithFields(
		logging.String("unit", u.ID),
		logging.String("group", u.Group.String()),
	)

	ctx, span := w.tracer().Start(ctx, "compare.unit", trace.WithAttributes(
		attribute.String("cmpnc.unit", u.ID),
		attribute.String("cmpnc.group", u.Group.String()),
		attribute.Int("cmpnc.variables", len(u.Variables)),
		attribute.Int("cmpnc.start", u.Start),
		attribute.Int("cmpnc.end", u.End),
	))
	defer span.End()

	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	w.run(ctx, u, res, log)

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	span.SetAttributes(attribute.Int("cmpnc.failed", len(res.Failed)))
	res.Duration = time.Since(started)
	log.Debug("unit finished",
		logging.Int("evaluated", len(res.Evaluated)),
		logging.Int("failed", len(res.Failed)),
		logging.Int("skipped", len(res.Skipped)),
		logging.Float64("seconds", res.Duration.Seconds()),
	)
	return *res
}

func (w Worker) run(ctx context.Context, u WorkUnit, res *PartialResult, log logging.Logger) {
	ds1, err := w.Opener.Open(w.File1)
	if err != nil {
		w.failAll(u.Variables, res, apperrors.InputError{Path: w.File1, Cause: err}, log)
		return
	}
	defer ds1.Close()

	ds2, err := w.Opener.Open(w.File2)
	if err != nil {
		w.failAll(u.Variables, res, apperrors.InputError{Path: w.File2, Cause: err}, log)
		return
	}
	defer ds2.Close()

	for i, v := range u.Variables {
		if err := ctx.Err(); err != nil {
			w.failAll(u.Variables[i:], res, w.contextError(u, err), log)
			return
		}
		if v.DType == dataset.Text {
			log.Debug("skipping text variable", logging.String("variable", v.Name))
			res.skip(v.Name)
			continue
		}

		var (
			index int
			cerr  error
		)
		if u.Group == Growth {
			index, cerr = w.compareGrowth(ctx, ds1, ds2, v, u)
		} else {
			index, cerr = -1, w.compareWhole(ds1, ds2, v)
		}

		switch {
		case cerr == nil:
			res.pass(v.Name)
		case errors.Is(cerr, context.Canceled) || errors.Is(cerr, context.DeadlineExceeded):
			w.failAll(u.Variables[i:], res, w.contextError(u, cerr), log)
			return
		default:
			log.Debug("variable differs",
				logging.String("variable", v.Name),
				logging.Int("index", index),
				logging.Err(cerr),
			)
			res.fail(v.Name, index, cerr)
		}
	}
}

func (w Worker) compareWhole(ds1, ds2 dataset.Dataset, v dataset.Variable) error {
	a, err := ds1.Read(v.Name)
	if err != nil {
		return apperrors.WrapError(err, "reading %s from %s", v.Name, ds1.Path())
	}
	b, err := ds2.Read(v.Name)
	if err != nil {
		return apperrors.WrapError(err, "reading %s from %s", v.Name, ds2.Path())
	}
	return w.Tolerance.Compare(a, b)
}

// compareGrowth compares v one slab per growth index over the unit's range.
// It returns at the first differing index: one failing index fails the
// variable, so later indices of the range are not read.
func (w Worker) compareGrowth(ctx context.Context, ds1, ds2 dataset.Dataset, v dataset.Variable, u WorkUnit) (int, error) {
	axis := v.Axis(u.GrowthDim)
	if axis < 0 {
		return -1, w.compareWhole(ds1, ds2, v)
	}
	for i := u.Start; i <= u.End; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		a, err := ds1.ReadIndex(v.Name, axis, i)
		if err != nil {
			return i, apperrors.WrapError(err, "reading %s[%d] from %s", v.Name, i, ds1.Path())
		}
		b, err := ds2.ReadIndex(v.Name, axis, i)
		if err != nil {
			return i, apperrors.WrapError(err, "reading %s[%d] from %s", v.Name, i, ds2.Path())
		}
		if err := w.Tolerance.Compare(a, b); err != nil {
			return i, apperrors.WrapError(err, "%s=%d", u.GrowthDim, i)
		}
	}
	return -1, nil
}

func (w Worker) contextError(u WorkUnit, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && w.Timeout > 0 {
		return apperrors.TimeoutError{Operation: u.ID, Limit: w.Timeout}
	}
	return err
}

func (w Worker) failAll(vars []dataset.Variable, res *PartialResult, err error, log logging.Logger) {
	log.Warn("unit aborted", logging.Err(err), logging.Int("variables", len(vars)))
	res.Err = err
	for _, v := range vars {
		res.fail(v.Name, -1, err)
	}
}
