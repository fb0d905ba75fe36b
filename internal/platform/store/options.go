package store

import "quickgithub/internal/platform/logger"

// Option mutates the Store before backends open
type Option func(*Store) error

// WithLogger sets the logger handed to backend clients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}
