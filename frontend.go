package mal

import (
	"time"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/queue"
)

// The logging calls below return true when the entry was accepted or when
// its severity is disabled. They return false when no buffer could be
// obtained, the channel was full (non-blocking calls), a synchronous call was
// interrupted, the logger is not running, or args holds more than
// entry.MaxArgs values. They never block except the
// *Sync variants, which wait for channel space.

// Debug logs at debug severity
func (l *Logger) Debug(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Debug, false, t, args)
}

// Trace logs at trace severity
func (l *Logger) Trace(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Trace, false, t, args)
}

// Notice logs at notice severity
func (l *Logger) Notice(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Notice, false, t, args)
}

// Warning logs at warning severity
func (l *Logger) Warning(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Warning, false, t, args)
}

// Error logs at error severity
func (l *Logger) Error(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Error, false, t, args)
}

// Critical logs at critical severity
func (l *Logger) Critical(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Critical, false, t, args)
}

// DebugSync logs at debug severity, waiting for channel space
func (l *Logger) DebugSync(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Debug, true, t, args)
}

// TraceSync logs at trace severity, waiting for channel space
func (l *Logger) TraceSync(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Trace, true, t, args)
}

// NoticeSync logs at notice severity, waiting for channel space
func (l *Logger) NoticeSync(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Notice, true, t, args)
}

// WarningSync logs at warning severity, waiting for channel space
func (l *Logger) WarningSync(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Warning, true, t, args)
}

// ErrorSync logs at error severity, waiting for channel space
func (l *Logger) ErrorSync(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Error, true, t, args)
}

// CriticalSync logs at critical severity, waiting for channel space
func (l *Logger) CriticalSync(t *entry.Template, args ...entry.Arg) bool {
	return l.submit(entry.Critical, true, t, args)
}

// Log logs at sev. Severities outside debug..critical are never enabled.
func (l *Logger) Log(sev Severity, t *entry.Template, args ...entry.Arg) bool {
	return l.submit(sev, false, t, args)
}

// LogSync logs at sev, waiting for channel space
func (l *Logger) LogSync(sev Severity, t *entry.Template, args ...entry.Arg) bool {
	return l.submit(sev, true, t, args)
}

// submit is the producer path: gate, size, acquire, encode, hand off.
func (l *Logger) submit(sev Severity, sync bool, t *entry.Template, args []entry.Arg) bool {
	if !l.gate.IsEnabled(sev) {
		return true
	}

	p := l.pipe.Load()
	if p == nil {
		l.state.NotRunning.Add(1)
		return false
	}
	if len(args) > entry.MaxArgs {
		l.state.TooManyArgs.Add(1)
		return false
	}

	h := entry.Header{Severity: sev, Template: t.ID(), Time: time.Now().UnixNano()}
	buf, ok := p.supplier.Acquire(entry.Size(h, args, p.fixed))
	if !ok {
		l.state.AllocFailures.Add(1)
		return false
	}
	entry.Encode(buf.Data, h, args, p.fixed)

	var status queue.Status
	if sync {
		status = p.channel.Submit(buf)
	} else {
		status = p.channel.TrySubmit(buf)
	}

	switch status {
	case queue.Submitted:
		return true
	case queue.Full:
		l.state.ChannelFull.Add(1)
	case queue.Interrupted:
		l.state.Interrupted.Add(1)
	case queue.Closed:
		l.state.NotRunning.Add(1)
	}
	p.supplier.Release(buf)
	return false
}
