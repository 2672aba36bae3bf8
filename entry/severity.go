package entry

import (
	"fmt"
	"strings"
)

// Severity orders log entries; Off and Invalid are sentinels, not entry levels.
type Severity uint8

const (
	Debug Severity = iota
	Trace
	Notice
	Warning
	Error
	Critical
	Off
	Invalid
)

var severityNames = [...]string{
	Debug:    "DEBUG",
	Trace:    "TRACE",
	Notice:   "NOTICE",
	Warning:  "WARNING",
	Error:    "ERROR",
	Critical: "CRITICAL",
	Off:      "OFF",
	Invalid:  "INVALID",
}

// String returns the upper-case severity name.
func (s Severity) String() string {
	if s > Invalid {
		return fmt.Sprintf("SEVERITY(%d)", uint8(s))
	}
	return severityNames[s]
}

// Loggable reports whether s can be carried by an entry.
func (s Severity) Loggable() bool {
	return s <= Critical
}

// ParseSeverity converts a case-insensitive level name to a Severity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return Debug, nil
	case "trace":
		return Trace, nil
	case "notice", "info":
		return Notice, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	case "critical", "crit":
		return Critical, nil
	case "off":
		return Off, nil
	default:
		return Invalid, fmt.Errorf("entry: invalid severity '%s' (use debug, trace, notice, warning, error, critical, off)", name)
	}
}
