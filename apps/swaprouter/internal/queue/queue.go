package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueNotReady is returned when work is enqueued before the queue
	// has been started or after it has been stopped.
	ErrQueueNotReady = errors.New("queue not ready")

	// ErrQueueFull is returned when the job buffer cannot admit more work.
	ErrQueueFull = errors.New("queue full")
)

// Processor is the unit of work the queue drives, one call per job.
type Processor interface {
	Process(ctx context.Context, orderID string) error
}

// Stats is a point-in-time snapshot of queue activity.
type Stats struct {
	Active    int `json:"active"`
	Waiting   int `json:"waiting"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Config sizes the queue's worker pool and retry policy.
type Config struct {
	Workers     int
	Capacity    int
	BaseDelay   time.Duration
	MaxAttempts int
}

type job struct {
	orderID string
	attempt int
}

// JobQueue is a bounded-concurrency work queue over order identifiers. An
// identifier enqueued while already admitted is de-duplicated, so at most
// one processing pass runs per order at any time. Processing failures are
// retried with exponential backoff up to MaxAttempts, then dropped.
type JobQueue struct {
	cfg       Config
	processor Processor
	logger    *zap.Logger

	jobs chan job

	mu       sync.Mutex
	inflight map[string]struct{}
	stats    Stats
	started  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a job queue
func New(cfg Config, processor Processor, logger *zap.Logger) *JobQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1024
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}

	return &JobQueue{
		cfg:       cfg,
		processor: processor,
		logger:    logger,
		jobs:      make(chan job, cfg.Capacity),
		inflight:  make(map[string]struct{}),
	}
}

// Start launches the worker pool. Must be called before Enqueue.
func (q *JobQueue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}

	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true

	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.workerLoop()
	}

	q.logger.Info("Started job queue",
		zap.Int("workers", q.cfg.Workers),
		zap.Int("max_attempts", q.cfg.MaxAttempts),
		zap.Duration("base_delay", q.cfg.BaseDelay))
}

// Stop cancels the workers and waits for in-flight jobs to finish their
// current processing pass. Pending retries are abandoned.
func (q *JobQueue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.started = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("Stopped job queue")
}

// Enqueue admits one processing pass for the order. Enqueuing an identifier
// that is already admitted is a no-op.
func (q *JobQueue) Enqueue(orderID string) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("%w: cannot enqueue order %s", ErrQueueNotReady, orderID)
	}
	if _, ok := q.inflight[orderID]; ok {
		q.mu.Unlock()
		q.logger.Debug("Order already enqueued, skipping", zap.String("order_id", orderID))
		return nil
	}
	q.inflight[orderID] = struct{}{}
	q.stats.Waiting++
	q.mu.Unlock()

	select {
	case q.jobs <- job{orderID: orderID}:
		return nil
	default:
		q.mu.Lock()
		delete(q.inflight, orderID)
		q.stats.Waiting--
		q.mu.Unlock()
		return fmt.Errorf("%w: cannot enqueue order %s", ErrQueueFull, orderID)
	}
}

// Stats returns a snapshot of queue activity. Safe to call concurrently
// with ongoing processing.
func (q *JobQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *JobQueue) workerLoop() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case j := <-q.jobs:
			q.run(j)
		}
	}
}

func (q *JobQueue) run(j job) {
	q.mu.Lock()
	q.stats.Waiting--
	q.stats.Active++
	q.mu.Unlock()

	err := q.processor.Process(q.ctx, j.orderID)

	q.mu.Lock()
	q.stats.Active--
	if err == nil {
		q.stats.Completed++
		delete(q.inflight, j.orderID)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	attempt := j.attempt + 1
	if attempt >= q.cfg.MaxAttempts {
		q.mu.Lock()
		q.stats.Failed++
		delete(q.inflight, j.orderID)
		q.mu.Unlock()

		q.logger.Error("Dropping job after exhausting retries",
			zap.String("order_id", j.orderID),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return
	}

	backoff := CalculateBackoff(q.cfg.BaseDelay, j.attempt)
	q.logger.Warn("Rescheduling failed job",
		zap.String("order_id", j.orderID),
		zap.Int("attempt", attempt),
		zap.Duration("backoff", backoff),
		zap.Error(err))

	q.mu.Lock()
	q.stats.Waiting++
	q.mu.Unlock()

	retry := job{orderID: j.orderID, attempt: attempt}
	time.AfterFunc(backoff, func() {
		select {
		case q.jobs <- retry:
		case <-q.ctx.Done():
			q.mu.Lock()
			q.stats.Waiting--
			delete(q.inflight, retry.orderID)
			q.mu.Unlock()
		}
	})
}
