package compat

import (
	"fmt"

	mal "github.com/moneytech/mini-async-log"
)

// Builder wires gnet and fasthttp adapters to one shared logger, either a
// caller-owned *mal.Logger or one it starts itself from a *mal.Config.
type Builder struct {
	logger *mal.Logger
	logCfg *mal.Config
	err    error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger shares l between all adapters. It takes precedence over WithConfig.
func (b *Builder) WithLogger(l *mal.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("mal/compat: nil logger")
		return b
	}
	b.logger = l
	return b
}

// WithConfig sets the configuration of the logger created on the first build.
// A nil config means mal.DefaultConfig.
func (b *Builder) WithConfig(cfg *mal.Config) *Builder {
	b.logCfg = cfg
	return b
}

// resolve returns the shared logger, starting an owned one on first use
func (b *Builder) resolve() (*mal.Logger, error) {
	switch {
	case b.err != nil:
		return nil, b.err
	case b.logger != nil:
		return b.logger, nil
	}

	cfg := b.logCfg
	if cfg == nil {
		cfg = mal.DefaultConfig()
	}

	owned := mal.NewLogger()
	if err := owned.ApplyConfig(cfg); err != nil {
		return nil, fmt.Errorf("mal/compat: %w", err)
	}
	if err := owned.Start(); err != nil {
		return nil, fmt.Errorf("mal/compat: %w", err)
	}

	b.logger = owned
	return owned, nil
}

// BuildGnet returns an adapter for gnet.WithLogger.
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.resolve()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP returns an adapter for fasthttp.Server.Logger.
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.resolve()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the shared logger. An owned logger must be shut down by
// the caller once the servers using the adapters have stopped.
func (b *Builder) GetLogger() (*mal.Logger, error) {
	return b.resolve()
}
