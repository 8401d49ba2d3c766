package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aryankumar/jobexec/internal/metrics"
	"github.com/aryankumar/jobexec/internal/util"
)

// State is the lifecycle position of a cluster job
type State int

const (
	StateNew State = iota
	StateScriptWritten
	StateSubmitted
	StatePolling
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateScriptWritten:
		return "SCRIPT_WRITTEN"
	case StateSubmitted:
		return "SUBMITTED"
	case StatePolling:
		return "POLLING"
	case StateFinished:
		return "FINISHED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CommandRunner runs a scheduler helper program and returns its stdout
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs helper programs as local subprocesses
type ExecRunner struct{}

// Output runs name with args. On failure the error carries the program's stderr.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// RetryPolicy bounds how often a scheduler helper command is attempted
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
}

// PollPolicy controls how Join waits for a job. A zero Timeout waits forever.
type PollPolicy struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Defaults used when no policy is configured
var (
	DefaultRetryPolicy = RetryPolicy{Attempts: 3, Interval: 5 * time.Second}
	DefaultPollPolicy  = PollPolicy{Interval: 30 * time.Second}
)

// JobSpec describes what a cluster job runs and what it asks the scheduler for
type JobSpec struct {
	Name       string
	WorkingDir string
	Cmds       []string
	PrelimCmds []string
	Mem        int // gigabytes
	CPUs       int
	Walltime   string
	Partition  string
}

// scheduler is the backend-specific half of a ClusterExecutor
type scheduler interface {
	name() string
	headerLines(spec JobSpec) []string
	arrayIndexVar() string
	submitArgs(scriptPath string) []string
	parseJobID(out string) (string, error)
	cancelArgs(jobID string) []string
	jobFinished(ctx context.Context) (bool, error)
	jobExitCode(ctx context.Context) (int, error)
	records(ctx context.Context) ([]string, error)
}

// ClusterOption configures a ClusterExecutor
type ClusterOption func(*ClusterExecutor)

// WithRegistry tracks the job in r between submission and completion
func WithRegistry(r *Registry) ClusterOption {
	return func(c *ClusterExecutor) {
		c.registry = r
	}
}

// WithCommandRunner replaces the helper program runner
func WithCommandRunner(r CommandRunner) ClusterOption {
	return func(c *ClusterExecutor) {
		c.runner = r
	}
}

// WithRetryPolicy sets the retry budget for scheduler commands
func WithRetryPolicy(p RetryPolicy) ClusterOption {
	return func(c *ClusterExecutor) {
		c.retry = p
	}
}

// WithPollPolicy sets the polling interval and timeout for Join
func WithPollPolicy(p PollPolicy) ClusterOption {
	return func(c *ClusterExecutor) {
		c.poll = p
	}
}

// WithClusterLogger sets the structured logger
func WithClusterLogger(logger *slog.Logger) ClusterOption {
	return func(c *ClusterExecutor) {
		c.logger = logger
	}
}

// WithClusterMetrics records submissions, exits and retries
func WithClusterMetrics(m *metrics.Collector) ClusterOption {
	return func(c *ClusterExecutor) {
		c.metrics = m
	}
}

// WithFinishedStatuses replaces the terminal scheduler states
func WithFinishedStatuses(states ...string) ClusterOption {
	return func(c *ClusterExecutor) {
		c.FinishedStatuses = make(map[string]bool, len(states))
		for _, s := range states {
			c.FinishedStatuses[s] = true
		}
	}
}

// WithJobID attaches to a job submitted earlier, possibly by another process.
// The executor starts in SUBMITTED, so Join, Status and CancelJob work directly.
func WithJobID(jobID string) ClusterOption {
	return func(c *ClusterExecutor) {
		c.jobID = jobID
		c.state = StateSubmitted
	}
}

// ClusterExecutor submits a job script to a batch scheduler and polls it to completion.
// NEW -> SCRIPT_WRITTEN -> SUBMITTED -> POLLING -> FINISHED
type ClusterExecutor struct {
	Spec JobSpec

	// FinishedStatuses are the scheduler states meaning the job has ended
	FinishedStatuses map[string]bool

	sched    scheduler
	registry *Registry
	runner   CommandRunner
	retry    RetryPolicy
	poll     PollPolicy
	logger   *slog.Logger
	metrics  *metrics.Collector

	// mu guards the fields below; CancelJob may run on a shutdown goroutine
	mu         sync.Mutex
	jobID      string
	state      State
	scriptPath string
}

func newClusterExecutor(spec JobSpec, sched scheduler, opts []ClusterOption) *ClusterExecutor {
	c := &ClusterExecutor{
		Spec:   spec,
		sched:  sched,
		runner: ExecRunner{},
		retry:  DefaultRetryPolicy,
		poll:   DefaultPollPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.Spec.WorkingDir == "" {
		c.Spec.WorkingDir = "."
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("scheduler", sched.name(), "job_name", spec.Name)
	if c.jobID != "" {
		c.logger = c.logger.With("job_id", c.jobID)
	}
	if c.retry.Attempts <= 0 {
		c.retry.Attempts = 1
	}
	if c.poll.Interval <= 0 {
		c.poll.Interval = DefaultPollPolicy.Interval
	}
	return c
}

// JobID returns the scheduler-assigned ID, empty before submission
func (c *ClusterExecutor) JobID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobID
}

// State returns the current lifecycle state
func (c *ClusterExecutor) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ScriptPath returns the generated script path, empty before WriteScript
func (c *ClusterExecutor) ScriptPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scriptPath
}

// String names the job
func (c *ClusterExecutor) String() string {
	if id := c.JobID(); id != "" {
		return fmt.Sprintf("%s (%s)", c.Spec.Name, id)
	}
	return c.Spec.Name
}

func (c *ClusterExecutor) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.logger.Debug("job state changed", "state", s.String())
}

// WriteScript renders the job script into the working directory
func (c *ClusterExecutor) WriteScript() (string, error) {
	if len(c.Spec.Cmds) == 0 {
		return "", errEmptyCommand
	}
	if err := validateJobName(c.Spec.Name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(c.Spec.WorkingDir, 0755); err != nil {
		return "", fmt.Errorf("create working directory: %w", err)
	}

	path := filepath.Join(c.Spec.WorkingDir, c.Spec.Name+".sh")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return "", fmt.Errorf("create job script: %w", err)
	}

	err = writeScript(f, scriptData{
		Header:   c.sched.headerLines(c.Spec),
		Prelim:   c.Spec.PrelimCmds,
		Cmds:     c.Spec.Cmds,
		IndexVar: c.sched.arrayIndexVar(),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write job script: %w", err)
	}

	c.mu.Lock()
	c.scriptPath = path
	c.mu.Unlock()
	c.setState(StateScriptWritten)
	c.logger.Debug("job script written", "path", path)
	return path, nil
}

// getStdout runs a helper command and returns its trimmed stdout, or false on failure
func (c *ClusterExecutor) getStdout(ctx context.Context, argv []string) (string, bool) {
	out, err := c.runner.Output(ctx, argv[0], argv[1:]...)
	if err != nil {
		c.logger.Debug("scheduler command failed", "cmd", strings.Join(argv, " "), "error", err)
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

// runAndRetry calls getStdout until it succeeds or the retry budget is spent
func (c *ClusterExecutor) runAndRetry(ctx context.Context, argv ...string) (string, error) {
	for attempt := 1; attempt <= c.retry.Attempts; attempt++ {
		if out, ok := c.getStdout(ctx, argv); ok {
			return out, nil
		}
		if attempt == c.retry.Attempts {
			break
		}

		c.metrics.SchedulerRetry(argv[0])
		c.logger.Warn("retrying scheduler command",
			"cmd", argv[0],
			"attempt", attempt,
			"max_attempts", c.retry.Attempts)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.retry.Interval):
		}
	}

	return "", fmt.Errorf("%s: %d attempts: %w", strings.Join(argv, " "), c.retry.Attempts, util.ErrRetriesExhausted)
}

// Start writes the script, submits it and registers the job
func (c *ClusterExecutor) Start(ctx context.Context) error {
	if s := c.State(); s != StateNew {
		return fmt.Errorf("job %q: cannot start from state %s", c.Spec.Name, s)
	}

	path, err := c.WriteScript()
	if err != nil {
		c.metrics.JobSubmitted(c.sched.name(), false)
		return fmt.Errorf("job %q: %v: %w", c.Spec.Name, err, util.ErrJobSubmissionFailed)
	}

	out, err := c.runAndRetry(ctx, c.sched.submitArgs(path)...)
	if err != nil {
		c.metrics.JobSubmitted(c.sched.name(), false)
		return fmt.Errorf("job %q: %v: %w", c.Spec.Name, err, util.ErrJobSubmissionFailed)
	}

	jobID, err := c.sched.parseJobID(out)
	if err != nil {
		c.metrics.JobSubmitted(c.sched.name(), false)
		return fmt.Errorf("job %q: %v: %w", c.Spec.Name, err, util.ErrJobSubmissionFailed)
	}

	c.mu.Lock()
	c.jobID = jobID
	c.mu.Unlock()
	c.setState(StateSubmitted)
	c.logger = c.logger.With("job_id", jobID)

	if c.registry != nil {
		c.registry.Register(c)
	}
	c.metrics.JobSubmitted(c.sched.name(), true)
	c.logger.Info("job submitted", "script", path)
	return nil
}

// Join polls until the job finishes and returns its exit code. The job stays
// registered if Join gives up early, so shutdown can still cancel it.
func (c *ClusterExecutor) Join(ctx context.Context) (int, error) {
	jobID := c.JobID()
	if jobID == "" {
		return exitUnknown, util.WrapJobError(c.Spec.Name, "", util.ErrNotStarted)
	}
	c.setState(StatePolling)

	var deadline <-chan time.Time
	if c.poll.Timeout > 0 {
		timer := time.NewTimer(c.poll.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		finished, err := c.sched.jobFinished(ctx)
		if err != nil {
			return exitUnknown, util.WrapJobError(c.Spec.Name, jobID, err)
		}
		if finished {
			break
		}

		select {
		case <-ctx.Done():
			return exitUnknown, util.WrapJobError(c.Spec.Name, jobID, fmt.Errorf("%w: %v", util.ErrCancelled, ctx.Err()))
		case <-deadline:
			return exitUnknown, util.WrapJobError(c.Spec.Name, jobID, fmt.Errorf("%w after %s", util.ErrTimeout, c.poll.Timeout))
		case <-time.After(c.poll.Interval):
		}
	}

	code, err := c.sched.jobExitCode(ctx)
	if err != nil {
		return exitUnknown, util.WrapJobError(c.Spec.Name, jobID, err)
	}

	c.setState(StateFinished)
	if c.registry != nil {
		c.registry.Deregister(jobID)
	}
	c.metrics.JobExited(c.sched.name(), code)
	c.logger.Info("job finished", "exit_code", code)
	return code, nil
}

// CancelJob asks the scheduler to cancel the job. Unsubmitted jobs are a no-op.
func (c *ClusterExecutor) CancelJob(ctx context.Context) error {
	jobID := c.JobID()
	if jobID == "" {
		return nil
	}

	c.logger.Info("cancelling job")
	if _, err := c.runAndRetry(ctx, c.sched.cancelArgs(jobID)...); err != nil {
		return util.WrapJobError(c.Spec.Name, jobID, err)
	}
	return nil
}

// JobStatus is a point-in-time view of a submitted job
type JobStatus struct {
	JobID     string   `json:"job_id" yaml:"job_id"`
	Scheduler string   `json:"scheduler" yaml:"scheduler"`
	Finished  bool     `json:"finished" yaml:"finished"`
	ExitCode  *int     `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Records   []string `json:"records" yaml:"records"`
}

// Status queries the scheduler once. ExitCode is set only for finished jobs.
func (c *ClusterExecutor) Status(ctx context.Context) (JobStatus, error) {
	jobID := c.JobID()
	if jobID == "" {
		return JobStatus{}, util.WrapJobError(c.Spec.Name, "", util.ErrNotStarted)
	}

	status := JobStatus{JobID: jobID, Scheduler: c.sched.name()}
	finished, err := c.sched.jobFinished(ctx)
	if err != nil {
		return status, util.WrapJobError(c.Spec.Name, jobID, err)
	}
	status.Finished = finished

	if status.Records, err = c.sched.records(ctx); err != nil {
		return status, util.WrapJobError(c.Spec.Name, jobID, err)
	}

	if finished {
		code, err := c.sched.jobExitCode(ctx)
		if err != nil {
			return status, util.WrapJobError(c.Spec.Name, jobID, err)
		}
		status.ExitCode = &code
	}
	return status, nil
}

var (
	errNoJobID        = errors.New("no job id in scheduler output")
	errInvalidJobName = errors.New("invalid job name")
)

// validateJobName rejects names that would place the script or scheduler
// logs outside the working directory
func validateJobName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("%w: %q", errInvalidJobName, name)
	}
	return nil
}
