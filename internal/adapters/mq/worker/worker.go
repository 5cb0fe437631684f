// Package worker drains the punch queue into the sync engine.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/pkg/logger"
	"github.com/lapvn/timecard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = model.RawEvent

// Syncer folds one punch into its employee-day record: normalize, load the
// existing record, union and rescore, upsert. Implemented by the app service.
type Syncer interface {
	SyncEvent(ctx context.Context, ev Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes punches until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// SyncWorker implements Worker for queued punch events.
type SyncWorker struct {
	queue  Queue
	syncer Syncer
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewSyncWorker creates a worker with configuration options.
func NewSyncWorker(queue Queue, syncer Syncer, opts ...Option) *SyncWorker {
	w := &SyncWorker{
		queue:    queue,
		syncer:   syncer,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *SyncWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, ev); err != nil {
				w.logger.Error(ctx, "error processing punch", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *SyncWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent folds one punch into storage.
func (w *SyncWorker) processEvent(ctx context.Context, ev Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.syncer.SyncEvent(ctx, ev); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "sync_error")
		w.logger.Error(ctx, "sync failed for punch",
			logger.String("employeeID", ev.EmployeeID),
			logger.String("timestamp", ev.Timestamp.Format(time.RFC3339)),
			logger.Error(err),
		)
		return fmt.Errorf("sync punch for %s: %w", ev.EmployeeID, err)
	}
	return nil
}

// Pool manages a fixed set of workers over one queue.
type Pool struct {
	workers []*SyncWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 selects a CPU-based default.
func NewPool(workerCount int, queue Queue, syncer Syncer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:  make([]*SyncWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewSyncWorker(queue, syncer, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerActiveCount(0)
}

// Shutdown closes the queue and waits for workers to drain, bounded by
// poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
