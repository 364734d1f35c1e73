package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/dchandan/cmpnc/internal/format"
	"github.com/dchandan/cmpnc/internal/orchestration"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the spinner.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 30
)

// Spinner abstracts the terminal spinner so DisplayProgress can be tested.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// CLIProgressReporter shows a spinner with a progress bar while work units
// complete.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress implements orchestration.ProgressReporter.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numUnits int, out io.Writer) {
	DisplayProgress(wg, progressChan, numUnits, out)
}

// DisplayProgress consumes unit updates until the channel closes, refreshing
// the spinner suffix on every update and on a ticker so the ETA keeps moving.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numUnits int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(numUnits)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	s.UpdateSuffix(FormatProgress(0, numUnits, 0, 0))
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last orchestration.AggregatedProgress
	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				return
			}
			last = agg.Update(update)
			s.UpdateSuffix(FormatProgress(last.Done, last.Total, last.Failed, last.ETA))
		case <-ticker.C:
			s.UpdateSuffix(FormatProgress(last.Done, numUnits, last.Failed, agg.ETA()))
		}
	}
}

// FormatProgress renders the spinner suffix.
func FormatProgress(done, total, failed int, eta time.Duration) string {
	frac := 0.0
	if total > 0 {
		frac = float64(done) / float64(total)
	}
	suffix := fmt.Sprintf(" %s/%s units %s", format.FormatCount(done), format.FormatCount(total),
		format.FormatProgressBarWithETA(frac, eta, ProgressBarWidth))
	if failed > 0 {
		suffix += fmt.Sprintf(" (%d failing)", failed)
	}
	return suffix
}
