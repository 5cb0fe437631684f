// Package worker drains the punch queue into the sync engine.
package worker

import (
	"github.com/lapvn/timecard/pkg/logger"
)

// Option applies a configuration option to the SyncWorker.
type Option func(*SyncWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *SyncWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *SyncWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
