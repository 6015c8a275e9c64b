package sqlite

import (
	"errors"
	"log/slog"
	"time"
)

// Option is a function that allows configuring the store.
type Option func(*Store) error

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithBusyTimeout sets how long a connection waits for a lock held by another
// writer before failing.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(s *Store) error {
		if timeout < 0 {
			return errors.New("busy timeout must not be negative")
		}
		s.busyTimeout = timeout
		return nil
	}
}
