package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

var fasthttpTemplate = entry.MustTemplate("[fasthttp] {}")

// FastHTTPAdapter wraps a mal.Logger to implement the fasthttp Logger interface
type FastHTTPAdapter struct {
	logger        *mal.Logger
	defaultLevel  mal.Severity
	levelDetector func(string) mal.Severity // Detects severity from the format string
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *mal.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  mal.SeverityNotice,
		levelDetector: DetectLogLevel, // Default level detection
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the severity used when the detector finds none
func WithDefaultLevel(level mal.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect severity from the
// Printf format string; returning entry.Invalid means no opinion
func WithLevelDetector(detector func(string) mal.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface. The severity is detected
// from the format string, which carries fasthttp's wording, so a disabled
// message is never formatted.
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected := a.levelDetector(format); detected != entry.Invalid {
			level = detected
		}
	}

	if !a.logger.IsEnabled(level) {
		return
	}
	a.logger.Log(level, fasthttpTemplate, entry.Str(fmt.Sprintf(format, args...)))
}

// DetectLogLevel guesses a severity from message content. It returns
// entry.Invalid when no indicator is found.
func DetectLogLevel(msg string) mal.Severity {
	msgLower := strings.ToLower(msg)

	// Check for error indicators
	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return mal.SeverityError
	}

	// Check for warning indicators
	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return mal.SeverityWarning
	}

	// Check for debug indicators
	if strings.Contains(msgLower, "debug") {
		return mal.SeverityDebug
	}
	if strings.Contains(msgLower, "trace") {
		return mal.SeverityTrace
	}

	return entry.Invalid
}
