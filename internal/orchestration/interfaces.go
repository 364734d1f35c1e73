package orchestration

import (
	"io"
	"sync"

	"github.com/dchandan/cmpnc/internal/compare"
)

// ProgressUpdate is sent once per finished work unit.
type ProgressUpdate struct {
	UnitID string
	Group  compare.Group
	// Failed is the number of variables the unit failed.
	Failed int
}

// ProgressReporter defines the interface for displaying comparison progress.
// It decouples the orchestration layer from spinners and bars.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed, then
	// calls wg.Done. numUnits is the number of units of the whole run.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numUnits int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numUnits int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numUnits int, out io.Writer) {
	f(wg, progressChan, numUnits, out)
}

// NullProgressReporter drains the progress channel without displaying
// anything.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// Observer is notified after each stage completes. The report is only valid
// for the duration of the call.
type Observer interface {
	StageCompleted(stage Stage, r *Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(stage Stage, r *Report)

// StageCompleted calls f.
func (f ObserverFunc) StageCompleted(stage Stage, r *Report) { f(stage, r) }

// Recorder receives measurements of a run, typically for metrics.
type Recorder interface {
	ObserveUnit(res compare.PartialResult)
	ObserveRun(r *Report)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUnit(compare.PartialResult) {}
func (nopRecorder) ObserveRun(*Report)                {}
