package uritemplate

import (
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	logger        *zap.Logger
	cacheTTL      time.Duration
	cacheCleanup  time.Duration
	cacheDisabled bool
	metrics       MetricsRecorder
	expanders     []namedExpander
	factories     []namedFactory
}

type namedExpander struct {
	name     string
	expander Expander
}

type namedFactory struct {
	name    string
	factory ExpanderFactory
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		cacheTTL:     DefaultCacheTTL,
		cacheCleanup: DefaultCacheCleanup,
		metrics:      NoopMetrics{},
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithCacheTTL sets how long parsed templates stay cached.
// Non-positive values keep entries until the engine is discarded.
// Default: 10 minutes
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *engineConfig) {
		c.cacheTTL = ttl
	}
}

// WithCacheDisabled turns off the parsed-template cache.
func WithCacheDisabled() Option {
	return func(c *engineConfig) {
		c.cacheDisabled = true
	}
}

// WithMetrics sets the metrics recorder.
// Default: NoopMetrics{}
func WithMetrics(recorder MetricsRecorder) Option {
	return func(c *engineConfig) {
		if recorder != nil {
			c.metrics = recorder
		}
	}
}

// WithExpander registers a named expander at engine construction.
func WithExpander(name string, expander Expander) Option {
	return func(c *engineConfig) {
		c.expanders = append(c.expanders, namedExpander{name: name, expander: expander})
	}
}

// WithExpanderFactory registers a lazily created named expander at engine
// construction.
func WithExpanderFactory(name string, factory ExpanderFactory) Option {
	return func(c *engineConfig) {
		c.factories = append(c.factories, namedFactory{name: name, factory: factory})
	}
}
