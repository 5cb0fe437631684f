package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMetricsUpdateInterval sets the interval of background gauge updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
