package ssr

import (
	"time"

	"go.uber.org/zap"
)

// Option configures an Environment.
type Option func(*envOptions)

type envOptions struct {
	logger  *zap.Logger
	metrics *Metrics
	scripts []namedSource
	clock   func() time.Time
}

type namedSource struct {
	name   string
	source string
}

// WithLogger sets the logger for the environment and for JS console output.
// The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *envOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records render and pool metrics into m. A Metrics value
// serves one Environment.
func WithMetrics(m *Metrics) Option {
	return func(o *envOptions) { o.metrics = m }
}

// WithScript adds an in-memory script evaluated after all file scripts.
func WithScript(name, source string) Option {
	return func(o *envOptions) {
		o.scripts = append(o.scripts, namedSource{name: name, source: source})
	}
}

// WithClock installs the time source SSR.now() reads. Without it scripts
// see the engine's own Date.now().
func WithClock(now func() time.Time) Option {
	return func(o *envOptions) { o.clock = now }
}
