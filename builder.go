package mal

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg           *Config
	existingFiles []string
	sinks         []Sink
	err           error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Logger instance with the specified configuration.
// The logger is configured but not started.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger := NewLogger()

	if err := logger.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}
	if b.existingFiles != nil {
		logger.SetExistingFiles(b.existingFiles)
	}
	for _, s := range b.sinks {
		logger.AddSink(s)
	}

	return logger, nil
}

// Level sets the lowest logged severity.
func (b *Builder) Level(sev Severity) *Builder {
	if sev > SeverityOff {
		if b.err == nil {
			b.err = fmtErrorf("invalid level %v", sev)
		}
		return b
	}
	b.cfg.Level = lowerName(sev)
	return b
}

// LevelString sets the log level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	sev, err := ParseSeverity(level)
	if err != nil {
		b.err = fmtErrorf("invalid level '%s': %w", level, err)
		return b
	}
	b.cfg.Level = lowerName(sev)
	return b
}

// Name sets the base name of the log files.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// Format sets the output format.
func (b *Builder) Format(format string) *Builder {
	b.cfg.Format = format
	return b
}

// Extension sets the log file extension.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// QueueCapacity sets the number of entries the channel holds.
func (b *Builder) QueueCapacity(n int64) *Builder {
	b.cfg.QueueCapacity = n
	return b
}

// PoolSlots sets the pre-allocated buffer count and size.
func (b *Builder) PoolSlots(count, size int64) *Builder {
	b.cfg.PoolSlotCount = count
	b.cfg.PoolSlotSize = size
	return b
}

// Overflow sets the policy when the pool cannot serve: "heap" or "forbid".
func (b *Builder) Overflow(policy string) *Builder {
	b.cfg.Overflow = policy
	return b
}

// FixedWidth selects natural-width integer encoding.
func (b *Builder) FixedWidth(fixed bool) *Builder {
	b.cfg.FixedWidthIntegers = fixed
	return b
}

// MaxSizeKB sets the maximum log file size in KB.
func (b *Builder) MaxSizeKB(size int64) *Builder {
	b.cfg.MaxSizeKB = size
	return b
}

// MaxSizeMB sets the maximum log file size in MB. Convenience.
func (b *Builder) MaxSizeMB(size int64) *Builder {
	b.cfg.MaxSizeKB = size * sizeMultiplier
	return b
}

// MaxFiles sets how many log files are kept, the active one included.
func (b *Builder) MaxFiles(n int64) *Builder {
	b.cfg.MaxFiles = n
	return b
}

// EnableConsole enables mirroring logs to stdout/stderr.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// EnableFile enables or disables file output.
func (b *Builder) EnableFile(enable bool) *Builder {
	b.cfg.EnableFile = enable
	return b
}

// HeartbeatLevel sets the heartbeat monitoring level.
func (b *Builder) HeartbeatLevel(level int64) *Builder {
	b.cfg.HeartbeatLevel = level
	return b
}

// HeartbeatIntervalS sets the heartbeat interval in seconds.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// ExistingFiles supplies the listing that seeds the rotation set.
func (b *Builder) ExistingFiles(paths ...string) *Builder {
	b.existingFiles = append(make([]string, 0, len(paths)), paths...)
	return b
}

// Sink adds an output besides the file and console sinks.
func (b *Builder) Sink(s Sink) *Builder {
	b.sinks = append(b.sinks, s)
	return b
}

// Example usage:
// logger, err := mal.NewBuilder().
//
//	Directory("/var/log/app").
//	LevelString("warning").
//	Format("json").
//	QueueCapacity(4096).
//	EnableConsole(true).
//	Build()
//
// if err == nil && logger.Start() == nil {
//
//	 defer logger.Shutdown()
//	 logger.Notice(started, entry.Lit("api"))
//
// }
