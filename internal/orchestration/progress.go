package orchestration

import (
	"time"

	"github.com/dchandan/cmpnc/internal/format"
)

// ProgressAggregator turns per-unit updates into an overall fraction and an
// ETA. Both the spinner and the plain reporter use it.
type ProgressAggregator struct {
	state  *format.UnitProgress
	failed int
}

// NewProgressAggregator creates an aggregator for numUnits units. Returns nil
// if numUnits <= 0.
func NewProgressAggregator(numUnits int) *ProgressAggregator {
	if numUnits <= 0 {
		return nil
	}
	return &ProgressAggregator{state: format.NewUnitProgress(numUnits)}
}

// AggregatedProgress holds the result of processing a single update.
type AggregatedProgress struct {
	UnitID   string
	Done     int
	Total    int
	Failed   int
	Fraction float64
	ETA      time.Duration
}

// Update records one finished unit.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	a.failed += update.Failed
	frac, eta := a.state.Complete(1)
	return AggregatedProgress{
		UnitID:   update.UnitID,
		Done:     a.state.Done(),
		Total:    a.state.Total(),
		Failed:   a.failed,
		Fraction: frac,
		ETA:      eta,
	}
}

// Fraction returns the current completed fraction without updating.
func (a *ProgressAggregator) Fraction() float64 {
	return a.state.Fraction()
}

// ETA returns the current estimate without updating.
func (a *ProgressAggregator) ETA() time.Duration {
	return a.state.ETA()
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}
