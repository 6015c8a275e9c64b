package dbmap

import "log/slog"

type config struct {
	engine        Engine
	logger        *slog.Logger
	skipMalformed bool
}

func newConfig(opts []Option) *config {
	cfg := &config{engine: EngineSQLite, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option is a function that allows configuring a Map.
type Option func(*config)

// WithEngine sets the storage engine. The default is EngineSQLite.
func WithEngine(engine Engine) Option {
	return func(c *config) {
		c.engine = engine
	}
}

// WithLogger sets the logger used by the map and its storage engine.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSkipMalformed makes multi-record lookups skip and log keys that can't
// be decoded, instead of failing the whole lookup.
func WithSkipMalformed() Option {
	return func(c *config) {
		c.skipMalformed = true
	}
}
