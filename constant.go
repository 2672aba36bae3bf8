package mal

import (
	"time"

	"github.com/moneytech/mini-async-log/entry"
)

// Severity is the entry severity, re-exported for callers of this package.
type Severity = entry.Severity

// ParseSeverity converts a level name such as "error" or "off" to a Severity.
func ParseSeverity(name string) (Severity, error) {
	return entry.ParseSeverity(name)
}

// Severity aliases so callers rarely need to import entry for levels.
const (
	SeverityDebug    = entry.Debug
	SeverityTrace    = entry.Trace
	SeverityNotice   = entry.Notice
	SeverityWarning  = entry.Warning
	SeverityError    = entry.Error
	SeverityCritical = entry.Critical
	SeverityOff      = entry.Off
)

// Heartbeat record labels
const (
	LabelProc = "PROC"
	LabelDisk = "DISK"
	LabelSys  = "SYS"
)

const (
	// Size multiplier for KB, MB
	sizeMultiplier = 1000
	// Entries the worker handles before it checks its timers again
	maxBatch = 256
)

// Timers
const (
	// Minimum wait time used throughout the package
	minWaitTime = 10 * time.Millisecond
)
