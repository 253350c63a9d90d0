package engine

import "github.com/rs/zerolog"

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger attaches a structured logger. The engine logs degraded
// read paths at warn level; the default logger discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}
