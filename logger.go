package mal

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moneytech/mini-async-log/formatter"
	"github.com/moneytech/mini-async-log/pool"
	"github.com/moneytech/mini-async-log/queue"
	"github.com/moneytech/mini-async-log/rotation"
	"github.com/moneytech/mini-async-log/sanitizer"
)

// Logger is the core struct that encapsulates all logger functionality
type Logger struct {
	currentConfig atomic.Value // stores *Config
	state         State
	initMu        sync.Mutex
	gate          Gate
	pipe          atomic.Pointer[pipeline]

	// Applied at the next Start, guarded by initMu
	existingFiles []string
	extraSinks    []Sink

	internalOut io.Writer
}

// pipeline is everything one Start creates and one worker goroutine owns.
type pipeline struct {
	cfg       *Config
	supplier  *pool.Supplier
	channel   *queue.Channel
	fixed     bool
	formatter *formatter.Formatter
	sinks     []Sink
	owned     []io.Closer
	files     *FileSink

	abort    atomic.Bool
	flushReq chan chan struct{}
	done     chan struct{}
	exitErr  error
}

// NewLogger creates a new Logger instance with default settings
func NewLogger() *Logger {
	l := &Logger{internalOut: os.Stderr}

	cfg := DefaultConfig()
	l.currentConfig.Store(cfg)
	l.gate.SetThreshold(cfg.severity())

	l.state.IsInitialized.Store(false)
	l.state.ShutdownCalled.Store(false)
	l.state.ProcessorExited.Store(true)
	l.state.LoggerStartTime.Store(time.Now())

	return l
}

// ApplyConfig applies a validated configuration to the logger.
// A running logger keeps its worker when only the level or the internal
// error switch changed; any other change restarts the pipeline.
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	return l.applyConfig(cfg.Clone())
}

// GetConfig returns a copy of current configuration
func (l *Logger) GetConfig() *Config {
	return l.getConfig().Clone()
}

// SetExistingFiles supplies the listing of log files already present in the
// log directory. It seeds the rotation set at the next Start; without it the
// directory is scanned.
func (l *Logger) SetExistingFiles(paths []string) {
	l.initMu.Lock()
	defer l.initMu.Unlock()
	l.existingFiles = make([]string, len(paths))
	copy(l.existingFiles, paths)
}

// AddSink registers an additional output, used from the next Start on. The
// logger syncs it but never closes it.
func (l *Logger) AddSink(s Sink) {
	if s == nil {
		return
	}
	l.initMu.Lock()
	defer l.initMu.Unlock()
	l.extraSinks = append(l.extraSinks, s)
}

// Start begins log processing. Safe to call multiple times
// Returns error if logger is not initialized
func (l *Logger) Start() error {
	if !l.state.IsInitialized.Load() {
		return fmtErrorf("logger not initialized, call ApplyConfig first")
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if l.pipe.Load() != nil {
		return nil
	}
	return l.startLocked()
}

// Shutdown gracefully closes the logger: new calls fail, every entry already
// accepted is written, then sinks are synced and closed.
// If no timeout is provided, shutdown_timeout_ms is used.
func (l *Logger) Shutdown(timeout ...time.Duration) error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	return l.stopLocked(l.effectiveTimeout(timeout))
}

// Release ends the logger. With wait it drains like Shutdown; without it
// blocked synchronous callers are interrupted and pending entries are
// discarded unwritten.
func (l *Logger) Release(wait bool) error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	if !wait {
		if p := l.pipe.Load(); p != nil {
			p.abort.Store(true)
			p.channel.Interrupt()
		}
	}
	return l.stopLocked(l.effectiveTimeout(nil))
}

// Interrupt makes every blocked and future synchronous call return false.
// It is irreversible for the running pipeline; non-blocking calls continue
// to work.
func (l *Logger) Interrupt() {
	if p := l.pipe.Load(); p != nil {
		p.channel.Interrupt()
	}
}

// Flush makes the worker write everything accepted so far, sync the sinks,
// and waits for completion or timeout
func (l *Logger) Flush(timeout time.Duration) error {
	l.state.flushMutex.Lock()
	defer l.state.flushMutex.Unlock()

	p := l.pipe.Load()
	if p == nil {
		return fmtErrorf("logger not started")
	}

	confirmChan := make(chan struct{})
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case p.flushReq <- confirmChan:
	case <-p.done:
		return fmtErrorf("logger stopped before flush")
	case <-deadline.C:
		return fmtErrorf("failed to send flush request to processor within %v", timeout)
	}

	select {
	case <-confirmChan:
		return nil
	case <-p.done:
		return nil
	case <-deadline.C:
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

// SetThreshold changes the lowest severity that is logged
func (l *Logger) SetThreshold(sev Severity) bool {
	return l.gate.SetThreshold(sev)
}

// SetThresholdString changes the threshold from a level name, for control
// paths such as signal handlers or configuration reloads
func (l *Logger) SetThresholdString(level string) error {
	sev, err := ParseSeverity(level)
	if err != nil {
		return fmtErrorf("invalid level '%s': %w", level, err)
	}
	l.gate.SetThreshold(sev)
	return nil
}

// IsEnabled reports whether sev would currently be logged
func (l *Logger) IsEnabled(sev Severity) bool {
	return l.gate.IsEnabled(sev)
}

// Threshold returns the lowest severity currently logged
func (l *Logger) Threshold() Severity {
	return l.gate.Threshold()
}

// Run creates, starts and releases a logger around fn. The logger is
// released on every exit path, a panic in fn included, which is re-raised
// after the release.
func Run(cfg *Config, drain bool, fn func(*Logger) error) (err error) {
	l := NewLogger()
	if err := l.ApplyConfig(cfg); err != nil {
		return err
	}
	if err := l.Start(); err != nil {
		return err
	}

	defer func() {
		r := recover()
		relErr := l.Release(drain)
		if r != nil {
			panic(r)
		}
		err = combineErrors(err, relErr)
	}()

	return fn(l)
}

// getConfig returns the current configuration (thread-safe)
func (l *Logger) getConfig() *Config {
	return l.currentConfig.Load().(*Config)
}

func (l *Logger) effectiveTimeout(timeout []time.Duration) time.Duration {
	if len(timeout) > 0 && timeout[0] > 0 {
		return timeout[0]
	}
	return time.Duration(l.getConfig().ShutdownTimeoutMs) * time.Millisecond
}

// applyConfig is the internal implementation for applying configuration, assuming initMu is held
func (l *Logger) applyConfig(cfg *Config) error {
	oldCfg := l.getConfig()
	l.currentConfig.Store(cfg)
	l.gate.SetThreshold(cfg.severity())

	running := l.pipe.Load() != nil
	needsRestart := running && configRequiresRestart(oldCfg, cfg)

	if needsRestart {
		if err := l.stopLocked(time.Duration(oldCfg.ShutdownTimeoutMs) * time.Millisecond); err != nil {
			l.internalLog("warning - processor restart after config change: %v", err)
		}
	}

	l.state.IsInitialized.Store(true)

	if needsRestart {
		return l.startLocked()
	}
	return nil
}

// startLocked builds a pipeline from the current config and starts its worker
func (l *Logger) startLocked() error {
	cfg := l.getConfig()

	supplier, err := pool.New(cfg.poolConfig())
	if err != nil {
		return fmtErrorf("failed to create entry pool: %w", err)
	}

	policy, _ := sanitizer.ParsePolicy(cfg.Sanitization)
	p := &pipeline{
		cfg:      cfg,
		supplier: supplier,
		channel:  queue.New(int(cfg.QueueCapacity)),
		fixed:    cfg.FixedWidthIntegers,
		formatter: formatter.New(sanitizer.New().Policy(policy)).
			Type(cfg.Format).
			TimestampFormat(cfg.TimestampFormat).
			ShowTimestamp(cfg.ShowTimestamp).
			ShowLevel(cfg.ShowLevel),
		flushReq: make(chan chan struct{}, 1),
		done:     make(chan struct{}),
	}

	if cfg.EnableFile {
		// A supplied listing seeds the first start only; restarts see the files
		// this logger wrote and rescan
		existing := l.existingFiles
		if existing == nil {
			existing, err = rotation.Scan(cfg.Directory, cfg.Name, cfg.Extension)
			if err != nil {
				return fmtErrorf("failed to list log directory '%s': %w", cfg.Directory, err)
			}
		}
		fs, err := NewFileSink(cfg.rotationConfig(func(err error) {
			l.internalLog("warning - rotation: %v", err)
		}), existing)
		if err != nil {
			return fmtErrorf("failed to create file sink: %w", err)
		}
		l.existingFiles = nil
		for _, ignored := range fs.Ignored() {
			l.internalLog("warning - ignoring unrecognized log file '%s'", ignored)
		}
		p.files = fs
		p.sinks = append(p.sinks, fs)
		p.owned = append(p.owned, fs)
	}

	if cfg.EnableConsole {
		p.sinks = append(p.sinks, NewConsoleSink(cfg.ConsoleTarget))
	}

	p.sinks = append(p.sinks, l.extraSinks...)

	l.state.ShutdownCalled.Store(false)
	l.state.ProcessorExited.Store(false)
	l.pipe.Store(p)
	go l.processLogs(p)

	return nil
}

// stopLocked closes the running pipeline and waits for its worker
func (l *Logger) stopLocked(timeout time.Duration) error {
	p := l.pipe.Swap(nil)
	if p == nil {
		return nil
	}
	l.state.ShutdownCalled.Store(true)

	p.channel.Close()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-p.done:
		return p.exitErr
	case <-deadline.C:
		return fmtErrorf("processor did not exit within timeout (%v)", timeout)
	}
}
