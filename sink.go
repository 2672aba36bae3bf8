package mal

import (
	"bytes"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/rotation"
)

// Sink receives rendered lines from the worker goroutine, one call at a time.
// line ends with a newline and is only valid during the call.
type Sink interface {
	WriteLine(sev Severity, line []byte) error
}

// syncer is implemented by sinks that buffer and can be flushed.
type syncer interface {
	Sync() error
}

// FileSink writes lines into a rotating set of files.
type FileSink struct {
	mgr *rotation.Manager
}

// NewFileSink creates a file sink whose rotation set is seeded from existing.
func NewFileSink(cfg rotation.Config, existing []string) (*FileSink, error) {
	mgr, err := rotation.New(cfg, existing)
	if err != nil {
		return nil, err
	}
	return &FileSink{mgr: mgr}, nil
}

// WriteLine appends line to the active file, rotating first when needed.
func (f *FileSink) WriteLine(_ Severity, line []byte) error {
	_, err := f.mgr.Write(line)
	return err
}

// Sync flushes the active file to disk.
func (f *FileSink) Sync() error {
	return f.mgr.Sync()
}

// Close syncs and closes the active file.
func (f *FileSink) Close() error {
	return f.mgr.Close()
}

// Stats returns the rotation counters.
func (f *FileSink) Stats() rotation.Stats {
	return f.mgr.Stats()
}

// Ignored lists seed entries that did not follow the file naming scheme.
func (f *FileSink) Ignored() []string {
	return f.mgr.Ignored()
}

// ConsoleSink writes lines to standard output or standard error.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink returns a sink for "stdout" or "stderr".
func NewConsoleSink(target string) *ConsoleSink {
	if target == "stderr" {
		return &ConsoleSink{w: os.Stderr}
	}
	return &ConsoleSink{w: os.Stdout}
}

func (c *ConsoleSink) WriteLine(_ Severity, line []byte) error {
	_, err := c.w.Write(line)
	return err
}

// ZapSink forwards rendered lines into a zap logger, so entries end up in
// whatever cores the application already configured.
type ZapSink struct {
	z *zap.Logger
}

// NewZapSink wraps z. The logger is synced by the worker but never closed.
func NewZapSink(z *zap.Logger) *ZapSink {
	return &ZapSink{z: z}
}

// WriteLine logs the line without its trailing newline at the matching zap
// level; the original severity is kept in a field.
func (s *ZapSink) WriteLine(sev Severity, line []byte) error {
	msg := string(bytes.TrimRight(line, "\n"))
	if ce := s.z.Check(zapLevel(sev), msg); ce != nil {
		ce.Write(zap.Stringer("severity", sev))
	}
	return nil
}

// Sync flushes the zap logger.
func (s *ZapSink) Sync() error {
	return s.z.Sync()
}

func zapLevel(sev Severity) zapcore.Level {
	switch sev {
	case entry.Debug, entry.Trace:
		return zapcore.DebugLevel
	case entry.Notice:
		return zapcore.InfoLevel
	case entry.Warning:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
