package mal

import (
	"fmt"
	"runtime"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/pool"
)

// dumpConfig renders decoded values for mismatch reports
var dumpConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

// processLogs is the worker: it consumes entries in submission order until the
// channel is closed and drained
func (l *Logger) processLogs(p *pipeline) {
	l.state.ProcessorExited.Store(false)
	defer func() {
		p.exitErr = l.closeSinks(p)
		l.state.ProcessorExited.Store(true)
		close(p.done)
	}()

	timers := l.setupProcessingTimers(p.cfg)
	defer l.closeProcessingTimers(timers)

	// Send initial heartbeats immediately instead of waiting for first tick
	if p.cfg.HeartbeatLevel > 0 {
		l.handleHeartbeat(p)
	}

	var vals []entry.Value
	for {
		n := 0
		for n < maxBatch {
			buf, ok := p.channel.Consume()
			if !ok {
				break
			}
			vals = l.processEntry(p, buf, vals)
			n++
		}

		if n == maxBatch {
			// Busy: serve timers and flush requests without sleeping
			select {
			case <-timers.flushTicker.C:
				l.handleFlushTick(p)
			case confirmChan := <-p.flushReq:
				vals = l.handleFlushRequest(p, confirmChan, vals)
			case <-timers.heartbeatChan:
				l.handleHeartbeat(p)
			default:
			}
			continue
		}

		if p.channel.IsClosed() {
			if p.channel.Drained() {
				return
			}
			// A producer claimed a cell and has not published it yet
			runtime.Gosched()
			continue
		}

		if !p.channel.Park() {
			runtime.Gosched()
			continue
		}
		select {
		case <-p.channel.Ready():
		case <-timers.flushTicker.C:
			l.handleFlushTick(p)
		case confirmChan := <-p.flushReq:
			vals = l.handleFlushRequest(p, confirmChan, vals)
		case <-timers.heartbeatChan:
			l.handleHeartbeat(p)
		}
		p.channel.Unpark()
	}
}

// processEntry renders one entry, hands it to the sinks and returns its
// buffer to the supplier. vals is scratch space reused across entries.
func (l *Logger) processEntry(p *pipeline, buf pool.Buffer, vals []entry.Value) []entry.Value {
	defer p.supplier.Release(buf)

	if p.abort.Load() {
		l.state.DiscardedLogs.Add(1)
		return vals
	}

	h, r, err := entry.Decode(buf.Data)
	if err != nil {
		l.state.BadRecords.Add(1)
		l.internalLog("error - undecodable entry of %d bytes: %v", len(buf.Data), err)
		l.dispatch(p, entry.Error, p.formatter.FormatBroken(entry.Error, time.Now(), err.Error()))
		return vals
	}
	ts := time.Unix(0, h.Time)

	tmpl, ok := entry.Lookup(h.Template)
	if !ok {
		l.state.BadRecords.Add(1)
		reason := fmt.Sprintf("unknown template %d", h.Template)
		l.internalLog("error - %s", reason)
		l.dispatch(p, h.Severity, p.formatter.FormatBroken(h.Severity, ts, reason))
		return vals
	}

	vals = vals[:0]
	for v, ok := r.Next(); ok; v, ok = r.Next() {
		vals = append(vals, v)
	}

	if err := r.Err(); err != nil {
		l.state.BadRecords.Add(1)
		l.internalLog("error - entry for template %q is corrupt: %v\n%s", tmpl.String(), err, dumpConfig.Sdump(plainValues(vals)))
		l.dispatch(p, h.Severity, p.formatter.FormatBroken(h.Severity, ts, err.Error()))
		return vals
	}

	if len(vals) != tmpl.Placeholders() {
		l.state.BadRecords.Add(1)
		l.internalLog("warning - template %q expects %d arguments, got %d\n%s",
			tmpl.String(), tmpl.Placeholders(), len(vals), dumpConfig.Sdump(plainValues(vals)))
	}

	l.dispatch(p, h.Severity, p.formatter.Format(h.Severity, ts, tmpl, vals))
	l.state.TotalLogsProcessed.Add(1)
	return vals
}

// dispatch writes line to every sink. A failing or panicking sink does not
// affect the others or stop the worker.
func (l *Logger) dispatch(p *pipeline, sev Severity, line []byte) {
	for _, s := range p.sinks {
		l.writeSink(s, sev, line)
	}
}

func (l *Logger) writeSink(s Sink, sev Severity, line []byte) {
	defer func() {
		if r := recover(); r != nil {
			l.state.SinkFailures.Add(1)
			l.internalLog("error - sink %T panicked: %v", s, r)
		}
	}()

	if err := s.WriteLine(sev, line); err != nil {
		l.state.SinkFailures.Add(1)
		l.internalLog("error - sink %T failed to write: %v", s, err)
	}
}

// handleFlushTick handles the periodic flush timer tick
func (l *Logger) handleFlushTick(p *pipeline) {
	if p.cfg.EnablePeriodicSync {
		l.performSync(p)
	}
}

// handleFlushRequest writes every entry accepted before the request, syncs
// the sinks and signals the caller
func (l *Logger) handleFlushRequest(p *pipeline, confirmChan chan struct{}, vals []entry.Value) []entry.Value {
	for {
		buf, ok := p.channel.Consume()
		if !ok {
			break
		}
		vals = l.processEntry(p, buf, vals)
	}
	l.performSync(p)
	close(confirmChan)
	return vals
}

// performSync syncs every sink that supports it
func (l *Logger) performSync(p *pipeline) error {
	var errs error
	for _, s := range p.sinks {
		if sy, ok := s.(syncer); ok {
			if err := sy.Sync(); err != nil {
				l.internalLog("warning - sink %T failed to sync: %v", s, err)
				errs = combineErrors(errs, fmtErrorf("failed to sync %T: %w", s, err))
			}
		}
	}
	return errs
}

// closeSinks syncs all sinks and closes the ones the logger created
func (l *Logger) closeSinks(p *pipeline) error {
	errs := l.performSync(p)
	for _, c := range p.owned {
		if err := c.Close(); err != nil {
			errs = combineErrors(errs, fmtErrorf("failed to close %T: %w", c, err))
		}
	}
	return errs
}

// plainValues converts decoded arguments to Go values for diagnostics
func plainValues(vals []entry.Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		switch v.Kind() {
		case entry.KindInt8, entry.KindInt16, entry.KindInt32, entry.KindInt64:
			out[i] = v.Int()
		case entry.KindUint8, entry.KindUint16, entry.KindUint32, entry.KindUint64:
			out[i] = v.Uint()
		case entry.KindFloat32, entry.KindFloat64:
			out[i] = v.Float()
		case entry.KindBool:
			out[i] = v.Bool()
		case entry.KindPtr:
			out[i] = v.Pointer()
		case entry.KindBytes:
			out[i] = append([]byte(nil), v.Bytes()...)
		default:
			out[i] = string(v.Bytes())
		}
	}
	return out
}
