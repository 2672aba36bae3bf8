package mal

import (
	"fmt"
	"runtime"
	"time"

	"github.com/moneytech/mini-async-log/rotation"
)

// handleHeartbeat processes a heartbeat timer tick
func (l *Logger) handleHeartbeat(p *pipeline) {
	heartbeatLevel := p.cfg.HeartbeatLevel

	if heartbeatLevel >= 1 {
		l.logProcHeartbeat(p)
	}

	if heartbeatLevel >= 2 {
		l.logDiskHeartbeat(p)
	}

	if heartbeatLevel >= 3 {
		l.logSysHeartbeat(p)
	}
}

// logProcHeartbeat logs pipeline statistics
func (l *Logger) logProcHeartbeat(p *pipeline) {
	s := l.Stats()
	sequence := l.state.HeartbeatSequence.Add(1)
	ps := p.supplier.Stats()

	procArgs := []any{
		"type", "proc",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", s.Uptime.Hours()),
		"processed_logs", s.Processed,
		"alloc_failures", s.AllocFailures,
		"channel_full", s.ChannelFull,
		"interrupted", s.Interrupted,
		"not_running", s.NotRunning,
		"too_many_args", s.TooManyArgs,
		"bad_records", s.BadRecords,
		"sink_failures", s.SinkFailures,
		"queue_len", p.channel.Len(),
		"pool_slots_in_use", ps.SlotsInUse,
		"overflow_bytes", ps.OverflowBytes,
	}

	l.writeHeartbeatRecord(p, LabelProc, procArgs)
}

// logDiskHeartbeat logs rotation and file system statistics
func (l *Logger) logDiskHeartbeat(p *pipeline) {
	if p.files == nil {
		return
	}
	sequence := l.state.HeartbeatSequence.Load()
	rs := p.files.Stats()

	diskArgs := []any{
		"type", "disk",
		"sequence", sequence,
		"rotated_files", rs.Rotations,
		"deleted_files", rs.Deletions,
		"log_file_count", rs.Files,
		"current_file_size_mb", fmt.Sprintf("%.2f", float64(rs.ActiveSize)/(sizeMultiplier*sizeMultiplier)),
	}

	// Add disk free space if we can get it
	freeSpace, err := rotation.DiskFree(p.cfg.Directory)
	if err == nil {
		freeSpaceMB := float64(freeSpace) / (sizeMultiplier * sizeMultiplier)
		diskArgs = append(diskArgs, "disk_free_mb", fmt.Sprintf("%.2f", freeSpaceMB))
	} else {
		l.internalLog("warning - heartbeat failed to get free disk space: %v", err)
	}

	l.writeHeartbeatRecord(p, LabelDisk, diskArgs)
}

// logSysHeartbeat logs system/runtime statistics heartbeat
func (l *Logger) logSysHeartbeat(p *pipeline) {
	sequence := l.state.HeartbeatSequence.Load()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sysArgs := []any{
		"type", "sys",
		"sequence", sequence,
		"alloc_mb", fmt.Sprintf("%.2f", float64(memStats.Alloc)/(sizeMultiplier*sizeMultiplier)),
		"sys_mb", fmt.Sprintf("%.2f", float64(memStats.Sys)/(sizeMultiplier*sizeMultiplier)),
		"num_gc", memStats.NumGC,
		"num_goroutine", runtime.NumGoroutine(),
	}

	l.writeHeartbeatRecord(p, LabelSys, sysArgs)
}

// writeHeartbeatRecord renders a heartbeat and writes it straight to the
// sinks. Heartbeats bypass the severity gate and reach sinks at notice.
func (l *Logger) writeHeartbeatRecord(p *pipeline, label string, args []any) {
	if p.abort.Load() {
		return
	}
	l.dispatch(p, SeverityNotice, p.formatter.FormatEvent(time.Now(), label, args...))
}
