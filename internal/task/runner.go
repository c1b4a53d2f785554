// Package task runs background work for the application, chiefly asking a
// language model to interpret a reading. Durable state lives on the reading
// row itself, so the runner keeps no queue table: on startup the stored
// pending interpretations are turned back into tasks and re-enqueued.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrQueueFull is returned by Submit when the in-memory queue has no room.
var ErrQueueFull = errors.New("task queue is full, try again later")

// Task is a unit of background work.
type Task interface {
	// ID identifies the task, typically the id of the entity it works on.
	ID() uuid.UUID

	// Type names the kind of work for logging.
	Type() string

	// Execute performs the work. The context is cancelled when the runner
	// stops.
	Execute(ctx context.Context) error
}

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue.
	QueueSize int

	// StuckTaskAge defines how long a task may execute before the monitor
	// flags it as stuck.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks.
	// If zero, defaults to 5 minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// Runner manages background task processing with a fixed worker pool.
type Runner struct {
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]inflightTask
}

type inflightTask struct {
	taskType string
	started  time.Time
}

// NewRunner creates a new Runner. If log is nil, a default logger will be
// used.
func NewRunner(config RunnerConfig, log *slog.Logger) *Runner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     log.With(slog.String("component", "task_runner")),
		inflight:   make(map[uuid.UUID]inflightTask),
	}
}

// Submit adds a new task to the queue. The caller is expected to have
// persisted the task's durable state already; Submit only enqueues.
func (r *Runner) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.taskChan <- task:
		return nil
	default:
		return fmt.Errorf("%w: %s %s", ErrQueueFull, task.Type(), task.ID())
	}
}

// Start initializes the worker pool and begins processing tasks.
func (r *Runner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.stuckTaskMonitor()
}

// Stop gracefully shuts down the task runner. In-flight tasks see their
// context cancelled; Stop returns once every worker exits.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

// worker processes tasks from the queue.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return

		case task, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker",
					slog.Int("worker_id", id))
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task.
func (r *Runner) processTask(task Task, workerID int) {
	log := r.logger.With(
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Int("worker_id", workerID),
	)

	r.mu.Lock()
	r.inflight[task.ID()] = inflightTask{taskType: task.Type(), started: time.Now()}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.inflight, task.ID())
		r.mu.Unlock()
	}()

	log.Info("processing task")
	start := time.Now()

	if err := task.Execute(r.ctx); err != nil {
		log.Error("task execution failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return
	}

	log.Info("task completed successfully",
		slog.Duration("elapsed", time.Since(start)))
}

// stuckTaskMonitor periodically logs tasks that have been executing for
// longer than the configured age. Tasks own their timeouts; the monitor only
// surfaces the laggards.
func (r *Runner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for id, t := range r.inflight {
				if age := now.Sub(t.started); age > r.config.StuckTaskAge {
					r.logger.Warn("task running longer than expected",
						slog.String("task_id", id.String()),
						slog.String("task_type", t.taskType),
						slog.Duration("age", age))
				}
			}
			r.mu.Unlock()
		}
	}
}
