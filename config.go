package mal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"

	"github.com/moneytech/mini-async-log/entry"
	"github.com/moneytech/mini-async-log/pool"
	"github.com/moneytech/mini-async-log/rotation"
	"github.com/moneytech/mini-async-log/sanitizer"
)

// configPrefix is the TOML section the logger reads its keys from
const configPrefix = "mal."

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Level     string `toml:"level"` // Lowest severity written: debug, trace, notice, warning, error, critical, off
	Name      string `toml:"name"`  // Base name for log files
	Directory string `toml:"directory"`
	Format    string `toml:"format"` // "txt", "raw", or "json"
	Extension string `toml:"extension"`

	// Formatting
	ShowTimestamp   bool   `toml:"show_timestamp"`
	ShowLevel       bool   `toml:"show_level"`
	TimestampFormat string `toml:"timestamp_format"`
	Sanitization    string `toml:"sanitization"` // Sanitizer policy for argument text

	// Outputs
	EnableFile    bool   `toml:"enable_file"`
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"

	// Memory and hand-off
	PoolSlotCount      int64  `toml:"pool_slot_count"`      // Pre-allocated entry buffers
	PoolSlotSize       int64  `toml:"pool_slot_size"`       // Bytes per buffer
	Overflow           string `toml:"overflow"`             // "heap" or "forbid" when the pool cannot serve
	MaxOverflowKB      int64  `toml:"max_overflow_kb"`      // Cap on outstanding heap buffers, 0 = none
	QueueCapacity      int64  `toml:"queue_capacity"`       // Transfer channel cells
	FixedWidthIntegers bool   `toml:"fixed_width_integers"` // Encode integers at their natural width

	// Rotation
	MaxSizeKB int64 `toml:"max_size_kb"` // Max size per log file, 0 = never rotate
	MaxFiles  int64 `toml:"max_files"`   // Files kept including the active one, 0 = all

	// Timers
	FlushIntervalMs    int64 `toml:"flush_interval_ms"`    // Interval for syncing sinks
	EnablePeriodicSync bool  `toml:"enable_periodic_sync"` // Periodic sync with disk
	ShutdownTimeoutMs  int64 `toml:"shutdown_timeout_ms"`  // Default wait for a graceful drain

	// Heartbeat configuration
	HeartbeatLevel     int64 `toml:"heartbeat_level"`      // 0=disabled, 1=proc only, 2=proc+disk, 3=proc+disk+sys
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // Interval seconds for heartbeat

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Write internal errors to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Level:     "notice",
	Name:      "mal",
	Directory: "./logs",
	Format:    "txt",
	Extension: "log",

	// Formatting
	ShowTimestamp:   true,
	ShowLevel:       true,
	TimestampFormat: time.RFC3339Nano,
	Sanitization:    string(sanitizer.PolicyTxt),

	// Outputs
	EnableFile:    true,
	EnableConsole: false,
	ConsoleTarget: "stdout",

	// Memory and hand-off
	PoolSlotCount:      1024,
	PoolSlotSize:       256,
	Overflow:           "heap",
	MaxOverflowKB:      4096,
	QueueCapacity:      1024,
	FixedWidthIntegers: false,

	// Rotation
	MaxSizeKB: 10000,
	MaxFiles:  10,

	// Timers
	FlushIntervalMs:    100,
	EnablePeriodicSync: true,
	ShutdownTimeoutMs:  2000,

	// Heartbeat settings
	HeartbeatLevel:     0,
	HeartbeatIntervalS: 60,

	// Internal error handling
	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads the [mal] section of a TOML file over the defaults
// and returns a validated Config. A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
// keyed by their toml names
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies values found by the loader into cfg
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	var errs error
	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			errs = combineErrors(errs, fmt.Errorf("unknown config key: %s", key))
			continue
		}
		if err := setFieldValue(fieldValue, value); err != nil {
			errs = combineErrors(errs, fmt.Errorf("failed to set %s: %w", key, err))
		}
	}
	return errs
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	// String validations
	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("log name cannot be empty")
	}

	if _, err := entry.ParseSeverity(c.Level); err != nil {
		return fmtErrorf("invalid level: %w", err)
	}

	if c.Format != "txt" && c.Format != "json" && c.Format != "raw" {
		return fmtErrorf("invalid format: '%s' (use txt, json, or raw)", c.Format)
	}

	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if _, err := sanitizer.ParsePolicy(c.Sanitization); err != nil {
		return fmtErrorf("invalid sanitization: %w", err)
	}

	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if _, err := pool.ParseOverflowPolicy(c.Overflow); err != nil {
		return fmtErrorf("invalid overflow: %w", err)
	}

	// Numeric validations
	if c.PoolSlotCount < 0 || c.PoolSlotSize < 0 || c.MaxOverflowKB < 0 {
		return fmtErrorf("pool sizes cannot be negative")
	}

	if c.PoolSlotCount > 0 && c.PoolSlotSize == 0 {
		return fmtErrorf("pool_slot_size must be positive when pool_slot_count is set")
	}

	if c.QueueCapacity <= 0 || c.QueueCapacity > 1<<30 {
		return fmtErrorf("queue_capacity must be between 1 and %d: %d", 1<<30, c.QueueCapacity)
	}

	if c.MaxSizeKB < 0 || c.MaxFiles < 0 {
		return fmtErrorf("rotation limits cannot be negative")
	}

	if c.FlushIntervalMs <= 0 || c.ShutdownTimeoutMs <= 0 {
		return fmtErrorf("interval settings must be positive")
	}

	if c.HeartbeatLevel < 0 || c.HeartbeatLevel > 3 {
		return fmtErrorf("heartbeat_level must be between 0 and 3: %d", c.HeartbeatLevel)
	}

	// Cross-field validations
	if c.PoolSlotCount == 0 && c.Overflow == "forbid" {
		return fmtErrorf("pool_slot_count is 0 and overflow is forbid: no entry could be logged")
	}

	if c.HeartbeatLevel > 0 && c.HeartbeatIntervalS <= 0 {
		return fmtErrorf("heartbeat_interval_s must be positive when heartbeat is enabled: %d",
			c.HeartbeatIntervalS)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// severity returns the parsed Level; Validate guarantees it parses.
func (c *Config) severity() entry.Severity {
	sev, err := entry.ParseSeverity(c.Level)
	if err != nil {
		return entry.Notice
	}
	return sev
}

func (c *Config) poolConfig() pool.Config {
	overflow, _ := pool.ParseOverflowPolicy(c.Overflow)
	return pool.Config{
		SlotCount:        int(c.PoolSlotCount),
		SlotSize:         int(c.PoolSlotSize),
		Overflow:         overflow,
		MaxOverflowBytes: c.MaxOverflowKB * sizeMultiplier,
	}
}

func (c *Config) rotationConfig(onError func(error)) rotation.Config {
	return rotation.Config{
		Directory: c.Directory,
		Name:      c.Name,
		Extension: c.Extension,
		MaxSize:   c.MaxSizeKB * sizeMultiplier,
		MaxFiles:  int(c.MaxFiles),
		OnError:   onError,
	}
}

// configRequiresRestart reports whether moving from old to new needs a new
// pipeline; the level and internal error switch apply in place.
func configRequiresRestart(oldCfg, newCfg *Config) bool {
	a, b := *oldCfg, *newCfg
	a.Level, b.Level = "", ""
	a.InternalErrorsToStderr, b.InternalErrorsToStderr = false, false
	return a != b
}
