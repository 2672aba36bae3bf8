package mal

import (
	"reflect"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the logger's current configuration.
// Each override should be in the format "key=value", keys being the toml names.
// The configuration is cloned before modification; nothing is applied when
// any override fails.
//
// Example:
//
//	logger := mal.NewLogger()
//	err := logger.ApplyOverride(
//	    "directory=/var/log/app",
//	    "level=error",
//	    "format=json",
//	)
func (l *Logger) ApplyOverride(overrides ...string) error {
	cfg := l.getConfig().Clone()

	var errs error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = combineErrors(errs, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errs = combineErrors(errs, err)
		}
	}

	if errs != nil {
		return errs
	}

	return l.ApplyConfig(cfg)
}

// applyConfigField applies a single key-value override to a Config,
// converting value to the type of the field tagged key
func applyConfigField(cfg *Config, key, value string) error {
	if key == "level" {
		// Named levels only; the alias forms are normalized
		sev, err := ParseSeverity(value)
		if err != nil {
			return fmtErrorf("invalid level value '%s': %w", value, err)
		}
		cfg.Level = lowerName(sev)
		return nil
	}

	field, ok := fieldByTag(cfg, key)
	if !ok {
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int64:
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		field.SetInt(intVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		field.SetBool(boolVal)
	default:
		return fmtErrorf("unsupported type for configuration key '%s'", key)
	}
	return nil
}

func fieldByTag(cfg *Config, key string) (reflect.Value, bool) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Tag.Get("toml") == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// lowerName is the config spelling of a severity
func lowerName(sev Severity) string {
	return strings.ToLower(sev.String())
}
