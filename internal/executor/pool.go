package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Task represents a unit of work to be executed by the worker pool
type Task struct {
	// Name identifies the task in results and logs, usually the command line
	Name string

	// Run performs the work and returns its exit code
	Run func(ctx context.Context) (int, error)
}

// Result represents the outcome of executing a task
type Result struct {
	// Name identifies which task this result is from
	Name string

	// ExitCode is the task's exit code, -1 if it never produced one
	ExitCode int

	// Error contains any bookkeeping error (nil if the task produced an exit code)
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration
}

// Pool manages a pool of workers that execute tasks concurrently
type Pool struct {
	// workers is the number of concurrent workers
	workers int

	// tasks is the queue of tasks to execute
	tasks []Task

	// mu protects the tasks slice
	mu sync.Mutex

	logger *slog.Logger

	// running indicates if the pool is currently executing
	running atomic.Bool
}

// NewPool creates a new worker pool with the specified number of workers
// workers must be > 0, otherwise it defaults to 1
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		workers: workers,
		tasks:   make([]Task, 0),
		logger:  logger,
	}
}

// Submit adds a task to the pool's queue
// Returns an error if the pool is already running
func (p *Pool) Submit(task Task) error {
	if p.running.Load() {
		return fmt.Errorf("pool is running, cannot submit new tasks")
	}

	if task.Run == nil {
		return fmt.Errorf("task %q must have a run function", task.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tasks = append(p.tasks, task)
	p.logger.Debug("task submitted", "task", task.Name, "total_tasks", len(p.tasks))

	return nil
}

// Execute runs all submitted tasks using the worker pool pattern
// Returns one result per task, in submission order
func (p *Pool) Execute(ctx context.Context) []Result {
	return p.ExecuteWithProgress(ctx, nil)
}

// ExecuteWithProgress runs all tasks with progress reporting
// The progressFn callback is called after each task completes with (completed, total) counts
func (p *Pool) ExecuteWithProgress(ctx context.Context, progressFn func(completed, total int)) []Result {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Error("pool is already running")
		return []Result{}
	}
	defer p.running.Store(false)

	p.mu.Lock()
	taskCount := len(p.tasks)
	if taskCount == 0 {
		p.mu.Unlock()
		p.logger.Debug("no tasks to execute")
		return []Result{}
	}

	tasksCopy := make([]Task, len(p.tasks))
	copy(tasksCopy, p.tasks)
	p.mu.Unlock()

	p.logger.Debug("starting task execution",
		"workers", p.workers,
		"tasks", taskCount)

	startTime := time.Now()

	// Buffer size = task count to avoid blocking
	taskChan := make(chan taskWithIndex, taskCount)
	resultChan := make(chan resultWithIndex, taskCount)

	var completed atomic.Int32

	var wg sync.WaitGroup
	workerCount := p.workers
	if workerCount > taskCount {
		workerCount = taskCount
	}

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, i, taskChan, resultChan, &wg, &completed, taskCount, progressFn)
	}

	for i, task := range tasksCopy {
		taskChan <- taskWithIndex{task: task, index: i}
	}
	close(taskChan)

	wg.Wait()
	close(resultChan)

	// Results land in their submission slot regardless of completion order
	results := make([]Result, taskCount)
	filled := make([]bool, taskCount)

	for res := range resultChan {
		if res.index >= 0 && res.index < taskCount {
			results[res.index] = res.result
			filled[res.index] = true
		}
	}

	// Tasks a cancelled context kept from running still get a result
	for i := range results {
		if !filled[i] {
			results[i] = Result{
				Name:     tasksCopy[i].Name,
				ExitCode: exitUnknown,
				Error:    fmt.Errorf("task not executed: %w", ctx.Err()),
			}
		}
	}

	p.logger.Debug("task execution completed",
		"total", taskCount,
		"successful", CountSuccessful(results),
		"duration", time.Since(startTime))

	return results
}

// worker is the worker goroutine that processes tasks from the task channel
func (p *Pool) worker(
	ctx context.Context,
	workerID int,
	taskChan <-chan taskWithIndex,
	resultChan chan<- resultWithIndex,
	wg *sync.WaitGroup,
	completed *atomic.Int32,
	total int,
	progressFn func(completed, total int),
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("worker stopping due to context cancellation", "worker_id", workerID)
			return

		case taskItem, ok := <-taskChan:
			if !ok {
				return
			}

			result := p.executeTask(ctx, taskItem.task)

			// resultChan is buffered for every task, so this never blocks
			resultChan <- resultWithIndex{result: result, index: taskItem.index}

			completedCount := completed.Add(1)
			p.logger.Debug("task completed",
				"worker_id", workerID,
				"task", taskItem.task.Name,
				"exit_code", result.ExitCode,
				"progress", fmt.Sprintf("%d/%d", completedCount, total))

			if progressFn != nil {
				progressFn(int(completedCount), total)
			}
		}
	}
}

// executeTask executes a single task and returns the result
func (p *Pool) executeTask(ctx context.Context, task Task) Result {
	startTime := time.Now()

	if err := ctx.Err(); err != nil {
		return Result{
			Name:     task.Name,
			ExitCode: exitUnknown,
			Error:    fmt.Errorf("task cancelled before execution: %w", err),
		}
	}

	code, err := task.Run(ctx)
	duration := time.Since(startTime)

	if err != nil {
		p.logger.Warn("task failed",
			"task", task.Name,
			"error", err,
			"duration", duration)
		code = exitUnknown
	}

	return Result{
		Name:     task.Name,
		ExitCode: code,
		Error:    err,
		Duration: duration,
	}
}

// IsRunning returns true if the pool is currently executing tasks
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// TaskCount returns the number of tasks currently queued
func (p *Pool) TaskCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// WorkerCount returns the number of workers in the pool
func (p *Pool) WorkerCount() int {
	return p.workers
}

// taskWithIndex pairs a task with its original index for result ordering
type taskWithIndex struct {
	task  Task
	index int
}

// resultWithIndex pairs a result with its original task index
type resultWithIndex struct {
	result Result
	index  int
}
