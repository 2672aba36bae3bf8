package mal

import "time"

// TimerSet holds all timers used in processLogs
type TimerSet struct {
	flushTicker     *time.Ticker
	heartbeatTicker *time.Ticker
	heartbeatChan   <-chan time.Time
}

// setupProcessingTimers creates and configures all necessary timers for the processor
func (l *Logger) setupProcessingTimers(c *Config) *TimerSet {
	timers := &TimerSet{}

	flushInterval := time.Duration(c.FlushIntervalMs) * time.Millisecond
	if flushInterval < minWaitTime {
		flushInterval = minWaitTime
	}
	timers.flushTicker = time.NewTicker(flushInterval)

	timers.heartbeatChan = l.setupHeartbeatTimer(c, timers)

	return timers
}

// closeProcessingTimers stops all active timers
func (l *Logger) closeProcessingTimers(timers *TimerSet) {
	timers.flushTicker.Stop()
	if timers.heartbeatTicker != nil {
		timers.heartbeatTicker.Stop()
	}
}

// setupHeartbeatTimer configures the heartbeat timer if enabled
func (l *Logger) setupHeartbeatTimer(c *Config, timers *TimerSet) <-chan time.Time {
	if c.HeartbeatLevel > 0 {
		intervalS := c.HeartbeatIntervalS
		if intervalS <= 0 {
			intervalS = DefaultConfig().HeartbeatIntervalS
		}
		timers.heartbeatTicker = time.NewTicker(time.Duration(intervalS) * time.Second)
		return timers.heartbeatTicker.C
	}
	return nil
}
