package mal

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "mal: ") {
		format = "mal: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	return multierr.Append(err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	key, value, ok := strings.Cut(strings.TrimSpace(arg), "=")
	if !ok {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, strings.TrimSpace(value), nil
}

// internalLog reports the logger's own operational problems. Output goes to
// the internal writer only when internal_errors_to_stderr is set.
func (l *Logger) internalLog(format string, args ...any) {
	if !l.getConfig().InternalErrorsToStderr {
		return
	}
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(l.internalOut, "mal: "+format, args...)
}
