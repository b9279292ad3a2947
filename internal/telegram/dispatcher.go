package telegram

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"urbfisc/internal/logging"
)

// Job is one notification to deliver.
type Job struct {
	Name string
	Send func(ctx context.Context) error
}

// Dispatcher delivers notifications on a small pool of workers so HTTP
// handlers never wait on the Bot API.
//
// Architecture:
//   - Workers pull jobs from a shared buffered channel
//   - Each job gets its own timeout
//   - Errors are logged but don't stop the worker
//   - A full queue drops the job instead of blocking the caller
//
// Close stops intake and waits for queued jobs to finish.
type Dispatcher struct {
	jobs    chan Job
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts workerCount workers. Each job may run for at most
// timeout.
func NewDispatcher(workerCount int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	d := &Dispatcher{
		jobs:    make(chan Job, 100),
		timeout: timeout,
		logger:  logging.OrNop(logger),
	}
	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.work(i + 1)
	}
	d.logger.Debug("✓ Notification workers started", zap.Int("workers", workerCount))
	return d
}

func (d *Dispatcher) work(id int) {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := job.Send(ctx); err != nil {
			d.logger.Warn("⚠️  Telegram notification failed",
				zap.Int("worker", id),
				zap.String("job", job.Name),
				zap.Error(err))
		}
		cancel()
	}
}

// Submit queues job. It reports false when the dispatcher is closed or the
// queue is full.
func (d *Dispatcher) Submit(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		d.logger.Warn("⚠️  Notification queue full, dropping", zap.String("job", job.Name))
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}
