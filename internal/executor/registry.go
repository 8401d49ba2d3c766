package executor

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/aryankumar/jobexec/internal/metrics"
	"github.com/aryankumar/jobexec/internal/util"
)

// RunningJob is a submitted cluster job that can be cancelled
type RunningJob interface {
	JobID() string
	CancelJob(ctx context.Context) error
}

// Registry tracks in-flight cluster jobs so shutdown can cancel them.
// Cluster executors insert themselves on submission and remove themselves
// when Join completes normally.
type Registry struct {
	mu      sync.Mutex
	jobs    map[string]RunningJob
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewRegistry creates an empty Registry
func NewRegistry(logger *slog.Logger, collector *metrics.Collector) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		jobs:    make(map[string]RunningJob),
		logger:  logger.With("component", "job-registry"),
		metrics: collector,
	}
}

// Register adds a job keyed by its job ID
func (r *Registry) Register(job RunningJob) {
	r.mu.Lock()
	r.jobs[job.JobID()] = job
	n := len(r.jobs)
	r.mu.Unlock()

	r.metrics.SetRunningJobs(n)
	r.logger.Debug("job registered", "job_id", job.JobID(), "running", n)
}

// Deregister removes a job; unknown IDs are ignored
func (r *Registry) Deregister(jobID string) {
	r.mu.Lock()
	delete(r.jobs, jobID)
	n := len(r.jobs)
	r.mu.Unlock()

	r.metrics.SetRunningJobs(n)
	r.logger.Debug("job deregistered", "job_id", jobID, "running", n)
}

// Get returns the job registered under jobID
func (r *Registry) Get(jobID string) (RunningJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	return job, ok
}

// Len returns the number of registered jobs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// JobIDs returns the registered job IDs in sorted order
func (r *Registry) JobIDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// StopRunningJobs cancels every registered job exactly once and empties the
// registry. Cancellation errors are collected, not fatal.
func (r *Registry) StopRunningJobs(ctx context.Context) error {
	r.mu.Lock()
	jobs := r.jobs
	r.jobs = make(map[string]RunningJob)
	r.mu.Unlock()

	r.metrics.SetRunningJobs(0)
	if len(jobs) == 0 {
		return nil
	}

	r.logger.Info("cancelling running jobs", "count", len(jobs))

	errs := &util.MultiError{}
	for id, job := range jobs {
		if err := job.CancelJob(ctx); err != nil {
			r.logger.Error("failed to cancel job", "job_id", id, "error", err)
			errs.Add(err)
			continue
		}
		r.metrics.JobCancelled()
	}
	return errs.ErrorOrNil()
}
