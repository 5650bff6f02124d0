// Package jobs runs background work on a bounded in-process worker pool.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrNotRunning is returned by Enqueue before Start or after Stop.
var ErrNotRunning = errors.New("jobs: queue not running")

// Job is one unit of work. Attempt counts failed runs so far.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// ExhaustedHandler is told about a job that failed on every attempt.
type ExhaustedHandler func(context.Context, Job, error)

// QueueConfig configures the pool. RetryDelay grows linearly with the attempt
// number; JobTimeout bounds a single run when set.
type QueueConfig struct {
	Workers     int
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
	JobTimeout  time.Duration
	Logger      *zap.Logger
	OnExhausted ExhaustedHandler
}

// Stats is a point in time view of the queue.
type Stats struct {
	Pending   int
	Running   int64
	Succeeded int64
	Failed    int64
	Exhausted int64
}

// Queue dispatches jobs to a fixed number of goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.SugaredLogger

	jobs chan Job

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup

	active    atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	exhausted atomic.Int64
}

// NewQueue builds a queue; call Start before enqueuing.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.Sugar().With("queue", name),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	q.wg.Add(q.cfg.Workers)
	for i := 0; i < q.cfg.Workers; i++ {
		go q.loop()
	}
	q.log.Infow("queue started", "workers", q.cfg.Workers)
}

// Stop cancels the workers and waits for running jobs to return.
// Buffered jobs that never started are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.log.Infow("queue stopped", "dropped", len(q.jobs))
}

// Pending reports how many jobs wait in the buffer.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Stats returns counters since Start.
func (q *Queue) Stats() Stats {
	return Stats{
		Pending:   len(q.jobs),
		Running:   q.active.Load(),
		Succeeded: q.succeeded.Load(),
		Failed:    q.failed.Load(),
		Exhausted: q.exhausted.Load(),
	}
}

// Enqueue hands a job to the pool, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	ctx, running := q.ctx, q.running
	q.mu.RUnlock()
	if !running {
		return fmt.Errorf("%w: %s", ErrNotRunning, q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %v", ErrNotRunning, q.name, ctx.Err())
	}
}

func (q *Queue) loop() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.process(job)
		}
	}
}

func (q *Queue) process(job Job) {
	q.active.Add(1)
	defer q.active.Add(-1)

	err := q.run(job)
	if err == nil {
		q.succeeded.Add(1)
		return
	}
	q.failed.Add(1)

	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.exhausted.Add(1)
		q.log.Errorw("job exhausted retries", "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "error", err)
		if q.cfg.OnExhausted != nil {
			q.cfg.OnExhausted(q.ctx, job, err)
		}
		return
	}

	delay := q.cfg.RetryDelay * time.Duration(job.Attempt)
	q.log.Warnw("job failed, retrying", "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "delay", delay, "error", err)
	go q.retryAfter(job, delay)
}

// run calls the handler, turning a panic into an error so the worker survives.
func (q *Queue) run(job Job) (err error) {
	ctx := q.ctx
	if q.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.JobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(ctx, job)
}

func (q *Queue) retryAfter(job Job, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-q.ctx.Done():
	case <-timer.C:
		if err := q.Enqueue(job); err != nil {
			q.log.Errorw("failed to requeue job", "job_id", job.ID, "error", err)
		}
	}
}
