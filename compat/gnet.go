package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	mal "github.com/moneytech/mini-async-log"
	"github.com/moneytech/mini-async-log/entry"
)

var _ logging.Logger = (*GnetAdapter)(nil)

var (
	gnetTemplate      = entry.MustTemplate("[gnet] {}")
	gnetFatalTemplate = entry.MustTemplate("[gnet] fatal: {}")
)

// GnetAdapter wraps a mal.Logger to implement the gnet logging.Logger interface.
// Messages are formatted only when their severity is enabled.
type GnetAdapter struct {
	logger       *mal.Logger
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *mal.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// Debugf logs at debug severity
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.logf(mal.SeverityDebug, format, args)
}

// Infof logs at notice severity
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logf(mal.SeverityNotice, format, args)
}

// Warnf logs at warning severity
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logf(mal.SeverityWarning, format, args)
}

// Errorf logs at error severity
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logf(mal.SeverityError, format, args)
}

// Fatalf logs at critical severity, waits for the entry to be written and
// triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.LogSync(mal.SeverityCritical, gnetFatalTemplate, entry.Str(msg))

	// Ensure log is flushed before exit
	_ = a.logger.Flush(100 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

func (a *GnetAdapter) logf(sev mal.Severity, format string, args []any) {
	if !a.logger.IsEnabled(sev) {
		return
	}
	a.logger.Log(sev, gnetTemplate, entry.Str(fmt.Sprintf(format, args...)))
}
