package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// MaxETA caps estimates so that a stalled start does not print absurd values.
const MaxETA = 24 * time.Hour

// UnitProgress tracks completion of a known number of work units and
// estimates the remaining time from the average completion rate. It is safe
// for concurrent use.
type UnitProgress struct {
	mu        sync.Mutex
	total     int
	done      int
	startTime time.Time
	now       func() time.Time
}

// NewUnitProgress starts tracking total units.
func NewUnitProgress(total int) *UnitProgress {
	return &UnitProgress{total: total, startTime: time.Now(), now: time.Now}
}

// Complete records n finished units and returns the completed fraction and
// the estimated time remaining.
func (p *UnitProgress) Complete(n int) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(p.done+n, p.total)
	return p.fractionLocked(), p.etaLocked()
}

// Fraction returns the completed fraction in [0, 1].
func (p *UnitProgress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fractionLocked()
}

// ETA returns the current estimate without recording progress.
func (p *UnitProgress) ETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etaLocked()
}

// Done returns the number of finished units.
func (p *UnitProgress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Total returns the number of tracked units.
func (p *UnitProgress) Total() int { return p.total }

func (p *UnitProgress) fractionLocked() float64 {
	if p.total <= 0 {
		return 0
	}
	return float64(p.done) / float64(p.total)
}

func (p *UnitProgress) etaLocked() time.Duration {
	if p.done == 0 || p.done >= p.total {
		return 0
	}
	elapsed := p.now().Sub(p.startTime)
	perUnit := elapsed / time.Duration(p.done)
	eta := perUnit * time.Duration(p.total-p.done)
	if eta > MaxETA || eta < 0 {
		return MaxETA
	}
	return eta
}

// FormatETA renders an estimate compactly ("45s", "2m30s", "1h15m").
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m := int(eta.Minutes())
		s := int(eta.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		h := int(eta.Hours())
		m := int(eta.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
}

// ProgressBar renders a bar of length cells for a fraction in [0, 1].
func ProgressBar(fraction float64, length int) string {
	fraction = max(0, min(1, fraction))
	filled := int(fraction * float64(length))
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// FormatProgressBarWithETA renders "[bar]  42.0% ETA: 1m5s".
func FormatProgressBarWithETA(fraction float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(fraction, width), max(0, min(1, fraction))*100, FormatETA(eta))
}
