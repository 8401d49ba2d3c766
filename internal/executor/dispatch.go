package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aryankumar/jobexec/internal/config"
	"github.com/aryankumar/jobexec/internal/metrics"
	"github.com/aryankumar/jobexec/internal/util"
)

// ExecuteOptions are the per-call settings of Dispatcher.Execute. Zero values
// fall back to the executor configuration.
type ExecuteOptions struct {
	JobExecution string
	PrelimCmds   []string
	Mem          int
	CPUs         int
	Walltime     string
	JobName      string
	WorkingDir   string
	Partition    string

	// LocalOptions are passed through to local executors
	LocalOptions []Option
}

// ExecuteOption configures one Execute call
type ExecuteOption func(*ExecuteOptions)

// WithJobExecution overrides the configured execution environment
func WithJobExecution(env string) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.JobExecution = env
	}
}

// WithPrelimCmds runs cmds in the job script before the job's own commands
func WithPrelimCmds(cmds ...string) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.PrelimCmds = append(o.PrelimCmds, cmds...)
	}
}

// WithMem requests memory in gigabytes
func WithMem(gb int) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Mem = gb
	}
}

// WithCPUs requests CPUs per task
func WithCPUs(n int) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.CPUs = n
	}
}

// WithWalltime sets the job time limit
func WithWalltime(walltime string) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Walltime = walltime
	}
}

// WithJobName names the cluster job
func WithJobName(name string) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.JobName = name
	}
}

// WithWorkingDir sets where job scripts and logs are written
func WithWorkingDir(dir string) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.WorkingDir = dir
	}
}

// WithPartition sets the scheduler partition
func WithPartition(partition string) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.Partition = partition
	}
}

// WithLocalOptions passes options to local executors
func WithLocalOptions(opts ...Option) ExecuteOption {
	return func(o *ExecuteOptions) {
		o.LocalOptions = append(o.LocalOptions, opts...)
	}
}

// Dispatcher starts commands locally or on a cluster scheduler depending on configuration
type Dispatcher struct {
	cfg      config.ExecutorConfig
	registry *Registry
	logger   *slog.Logger
	metrics  *metrics.Collector
	runner   CommandRunner

	localExecute   func(ctx context.Context, cmds []string, opts ...Option) (JobRunner, error)
	clusterExecute func(ctx context.Context, env string, cmds []string, o ExecuteOptions) (JobRunner, error)
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithSchedulerRunner runs scheduler programs (sbatch, sacct, ...) through r
func WithSchedulerRunner(r CommandRunner) DispatcherOption {
	return func(d *Dispatcher) {
		if r != nil {
			d.runner = r
		}
	}
}

// NewDispatcher creates a Dispatcher. Cluster jobs are tracked in registry.
func NewDispatcher(cfg config.ExecutorConfig, registry *Registry, logger *slog.Logger, collector *metrics.Collector, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewRegistry(logger, collector)
	}

	d := &Dispatcher{
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		metrics:  collector,
		runner:   ExecRunner{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.localExecute = d.LocalExecute
	d.clusterExecute = d.ClusterExecute
	return d
}

// Registry returns the registry cluster jobs are tracked in
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Execute starts cmds in the requested environment, or the configured one,
// and returns the started runner for the caller to Join
func (d *Dispatcher) Execute(ctx context.Context, cmds []string, opts ...ExecuteOption) (JobRunner, error) {
	var o ExecuteOptions
	for _, opt := range opts {
		opt(&o)
	}

	env := o.JobExecution
	if env == "" {
		env = d.cfg.JobExecution
	}
	if env == "" {
		env = config.DefaultJobExecution
	}

	d.logger.Debug("dispatching commands", "env", env, "commands", len(cmds))
	if env == config.EnvLocal {
		return d.localExecute(ctx, cmds, o.LocalOptions...)
	}
	return d.clusterExecute(ctx, env, cmds, o)
}

// LocalExecute starts one command on an Executor, or several on an ArrayExecutor
func (d *Dispatcher) LocalExecute(ctx context.Context, cmds []string, opts ...Option) (JobRunner, error) {
	if len(cmds) == 0 {
		return nil, util.NewCommandError(errEmptyCommand)
	}

	base := []Option{
		WithLogger(d.logger),
		WithMetrics(d.metrics),
		WithParallel(d.cfg.Parallel),
	}
	opts = append(base, opts...)

	var runner JobRunner
	if len(cmds) == 1 {
		runner = NewExecutor(cmds[0], opts...)
	} else {
		runner = NewArrayExecutor(cmds, opts...)
	}

	if err := runner.Start(ctx); err != nil {
		return nil, err
	}
	return runner, nil
}

// ClusterExecute submits cmds as one job, a job array when there are several
func (d *Dispatcher) ClusterExecute(ctx context.Context, env string, cmds []string, o ExecuteOptions) (JobRunner, error) {
	job, err := d.newClusterJob(env, d.jobSpec(cmds, o), WithRegistry(d.registry))
	if err != nil {
		return nil, err
	}

	if err := job.Start(ctx); err != nil {
		return nil, err
	}
	return job, nil
}

// Attach returns an executor for a job submitted earlier, for status queries
// and cancellation. Attached jobs are not tracked in the registry.
func (d *Dispatcher) Attach(env, jobID string) (*ClusterExecutor, error) {
	if env == "" || env == config.EnvLocal {
		env = config.EnvSlurm
	}
	return d.newClusterJob(env, JobSpec{Name: jobID, WorkingDir: d.cfg.WorkingDir}, WithJobID(jobID))
}

func (d *Dispatcher) newClusterJob(env string, spec JobSpec, extra ...ClusterOption) (*ClusterExecutor, error) {
	opts := []ClusterOption{
		WithCommandRunner(d.runner),
		WithRetryPolicy(RetryPolicy{Attempts: d.cfg.RetryAttempts, Interval: d.cfg.RetryInterval}),
		WithPollPolicy(PollPolicy{Interval: d.cfg.PollInterval, Timeout: d.cfg.PollTimeout}),
		WithClusterLogger(d.logger),
		WithClusterMetrics(d.metrics),
	}
	opts = append(opts, extra...)

	switch env {
	case config.EnvSlurm:
		return NewSlurmExecutor(spec, opts...).ClusterExecutor, nil
	default:
		return nil, fmt.Errorf("%w: %s", util.ErrUnknownEnvironment, env)
	}
}

func (d *Dispatcher) jobSpec(cmds []string, o ExecuteOptions) JobSpec {
	spec := JobSpec{
		Name:       o.JobName,
		WorkingDir: d.cfg.WorkingDir,
		Cmds:       cmds,
		PrelimCmds: o.PrelimCmds,
		Mem:        d.cfg.Mem,
		CPUs:       d.cfg.CPUs,
		Walltime:   d.cfg.Walltime,
		Partition:  d.cfg.Partition,
	}
	if o.WorkingDir != "" {
		spec.WorkingDir = o.WorkingDir
	}
	if o.Mem > 0 {
		spec.Mem = o.Mem
	}
	if o.CPUs > 0 {
		spec.CPUs = o.CPUs
	}
	if o.Walltime != "" {
		spec.Walltime = o.Walltime
	}
	if o.Partition != "" {
		spec.Partition = o.Partition
	}
	return spec
}
