package mal

import (
	"sync"
	"sync/atomic"
	"time"
)

// State encapsulates the runtime state and counters of the logger
type State struct {
	IsInitialized   atomic.Bool
	ShutdownCalled  atomic.Bool
	ProcessorExited atomic.Bool // Tracks if the worker goroutine is running or has exited

	flushMutex sync.Mutex // Protect concurrent Flush calls

	// Producer side rejections
	AllocFailures atomic.Uint64 // No buffer from the pool or overflow
	ChannelFull   atomic.Uint64 // Non-blocking submission found no free cell
	Interrupted   atomic.Uint64 // Synchronous submission cancelled by Interrupt
	NotRunning    atomic.Uint64 // Call made while no worker was running
	TooManyArgs   atomic.Uint64 // Call with more arguments than a record can carry

	// Worker side counters
	TotalLogsProcessed atomic.Uint64 // Entries rendered and handed to sinks
	DiscardedLogs      atomic.Uint64 // Entries dropped by an aborting release
	BadRecords         atomic.Uint64 // Undecodable entries or template mismatches
	SinkFailures       atomic.Uint64 // Sink errors and recovered sink panics

	// Heartbeat statistics
	HeartbeatSequence atomic.Uint64 // Counter for heartbeat sequence numbers
	LoggerStartTime   atomic.Value  // Stores time.Time for uptime calculation
}

// Stats is a snapshot of the logger counters.
type Stats struct {
	Processed     uint64
	AllocFailures uint64
	ChannelFull   uint64
	Interrupted   uint64
	NotRunning    uint64
	TooManyArgs   uint64
	Discarded     uint64
	BadRecords    uint64
	SinkFailures  uint64
	QueueLen      int
	Uptime        time.Duration
}

// Rejected returns the number of calls that returned false.
func (s Stats) Rejected() uint64 {
	return s.AllocFailures + s.ChannelFull + s.Interrupted + s.NotRunning + s.TooManyArgs
}

// Stats returns the current counters.
func (l *Logger) Stats() Stats {
	s := Stats{
		Processed:     l.state.TotalLogsProcessed.Load(),
		AllocFailures: l.state.AllocFailures.Load(),
		ChannelFull:   l.state.ChannelFull.Load(),
		Interrupted:   l.state.Interrupted.Load(),
		NotRunning:    l.state.NotRunning.Load(),
		TooManyArgs:   l.state.TooManyArgs.Load(),
		Discarded:     l.state.DiscardedLogs.Load(),
		BadRecords:    l.state.BadRecords.Load(),
		SinkFailures:  l.state.SinkFailures.Load(),
	}
	if p := l.pipe.Load(); p != nil {
		s.QueueLen = p.channel.Len()
	}
	if start, ok := l.state.LoggerStartTime.Load().(time.Time); ok && !start.IsZero() {
		s.Uptime = time.Since(start)
	}
	return s
}
