package mal

import (
	"sync/atomic"

	"github.com/moneytech/mini-async-log/entry"
)

// Provider returns the logger package-level calls go to. It may return nil,
// in which case those calls return false.
type Provider func() *Logger

var provider atomic.Pointer[Provider]

// SetProvider installs the function package-level logging calls use to find
// their logger. Passing nil removes it.
func SetProvider(fn Provider) {
	if fn == nil {
		provider.Store(nil)
		return
	}
	provider.Store(&fn)
}

// current returns the provided logger, or nil
func current() *Logger {
	fn := provider.Load()
	if fn == nil {
		return nil
	}
	return (*fn)()
}

// Debug logs at debug severity on the provided logger
func Debug(t *entry.Template, args ...entry.Arg) bool {
	return logTo(entry.Debug, false, t, args)
}

// Trace logs at trace severity on the provided logger
func Trace(t *entry.Template, args ...entry.Arg) bool {
	return logTo(entry.Trace, false, t, args)
}

// Notice logs at notice severity on the provided logger
func Notice(t *entry.Template, args ...entry.Arg) bool {
	return logTo(entry.Notice, false, t, args)
}

// Warning logs at warning severity on the provided logger
func Warning(t *entry.Template, args ...entry.Arg) bool {
	return logTo(entry.Warning, false, t, args)
}

// Error logs at error severity on the provided logger
func Error(t *entry.Template, args ...entry.Arg) bool {
	return logTo(entry.Error, false, t, args)
}

// Critical logs at critical severity on the provided logger
func Critical(t *entry.Template, args ...entry.Arg) bool {
	return logTo(entry.Critical, false, t, args)
}

// Log logs at sev on the provided logger
func Log(sev Severity, t *entry.Template, args ...entry.Arg) bool {
	return logTo(sev, false, t, args)
}

// LogSync logs at sev on the provided logger, waiting for channel space
func LogSync(sev Severity, t *entry.Template, args ...entry.Arg) bool {
	return logTo(sev, true, t, args)
}

func logTo(sev Severity, sync bool, t *entry.Template, args []entry.Arg) bool {
	l := current()
	if l == nil {
		return false
	}
	return l.submit(sev, sync, t, args)
}
