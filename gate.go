package mal

import (
	"sync/atomic"

	"github.com/moneytech/mini-async-log/entry"
)

// Gate decides whether an entry of a given severity is built at all. The
// check is a single atomic load so a disabled call costs almost nothing.
type Gate struct {
	threshold atomic.Int32
}

// NewGate returns a gate that lets through threshold and above.
func NewGate(threshold entry.Severity) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

// IsEnabled reports whether sev passes the current threshold.
func (g *Gate) IsEnabled(sev entry.Severity) bool {
	return int32(sev) >= g.threshold.Load() && sev.Loggable()
}

// SetThreshold changes the lowest enabled severity; entry.Off disables
// everything. It returns false and keeps the old value for Invalid or
// out-of-range input.
func (g *Gate) SetThreshold(sev entry.Severity) bool {
	if sev > entry.Off {
		return false
	}
	g.threshold.Store(int32(sev))
	return true
}

// Threshold returns the current threshold.
func (g *Gate) Threshold() entry.Severity {
	return entry.Severity(g.threshold.Load())
}
