package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aryankumar/jobexec/internal/executor"
	"github.com/aryankumar/jobexec/internal/metrics"
	"github.com/aryankumar/jobexec/internal/output"
	"github.com/aryankumar/jobexec/internal/util"
	"github.com/spf13/cobra"
)

// stopTimeout bounds cancelling cluster jobs after an interrupt
const stopTimeout = 30 * time.Second

type runOptions struct {
	env        string
	prelimCmds []string
	mem        int
	cpus       int
	walltime   string
	jobName    string
	workingDir string
	partition  string
	wide       bool
}

// newRunCmd creates the run command
func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [flags] -- COMMAND [COMMAND...]",
		Short: "Run commands locally or as a cluster job",
		Long: `Run one or more shell commands and wait for them to finish.

Each argument is one command, interpreted by /bin/sh. With --env local the
commands run on this machine, several of them concurrently. With --env slurm
they are submitted as one batch job, or as a job array for several commands,
and polled until the scheduler reports them finished.

jobexec exits with the job's exit code. An array exits 0 only if every
command did, 127 otherwise.`,
		Example: `  # Run a pipeline locally
  jobexec run -- 'sort data.txt | uniq -c > counts.txt'

  # Submit three commands as a Slurm job array
  jobexec run --env slurm --mem 8 --cpus 4 -- 'gzip a' 'gzip b' 'gzip c'

  # Load a module before the command on each node
  jobexec run --env slurm --prelim-cmd 'module load samtools' -- 'samtools index x.bam'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.env, "env", "", "execution environment: local or slurm (default from executor.job_execution)")
	cmd.Flags().StringArrayVar(&opts.prelimCmds, "prelim-cmd", nil, "command to run before the job commands in the job script (repeatable)")
	cmd.Flags().IntVar(&opts.mem, "mem", 0, "memory per job in GB")
	cmd.Flags().IntVar(&opts.cpus, "cpus", 0, "CPUs per task")
	cmd.Flags().StringVar(&opts.walltime, "walltime", "", "job time limit, e.g. 24:00:00")
	cmd.Flags().StringVar(&opts.jobName, "job-name", "", "cluster job name (default is generated)")
	cmd.Flags().StringVar(&opts.workingDir, "working-dir", "", "directory for job scripts and scheduler logs")
	cmd.Flags().StringVar(&opts.partition, "partition", "", "scheduler partition")
	cmd.Flags().BoolVar(&opts.wide, "wide", false, "show errors and untruncated commands in table output")

	return cmd
}

func runRun(cmd *cobra.Command, root *rootOptions, opts *runOptions, cmds []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	format, err := root.outputFormat()
	if err != nil {
		return err
	}

	if addr := root.metricsAddr(); addr != "" {
		server := metrics.NewServer(addr, root.runtime.Gatherer, logger)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	// Command output shares stdout with table output only; structured
	// output must stay parseable.
	var sink io.Writer = cmd.OutOrStdout()
	if format != output.FormatTable {
		sink = cmd.ErrOrStderr()
	}

	execOpts := []executor.ExecuteOption{
		executor.WithJobExecution(opts.env),
		executor.WithPrelimCmds(opts.prelimCmds...),
		executor.WithMem(opts.mem),
		executor.WithCPUs(opts.cpus),
		executor.WithWalltime(opts.walltime),
		executor.WithJobName(opts.jobName),
		executor.WithWorkingDir(opts.workingDir),
		executor.WithPartition(opts.partition),
		executor.WithLocalOptions(executor.WithOutput(&lockedWriter{w: sink})),
	}

	dispatcher := root.dispatcher()
	start := time.Now()

	job, err := dispatcher.Execute(ctx, cmds, execOpts...)
	if err != nil {
		return err
	}
	logger.Debug("job started", "job", job.String())

	code, joinErr := job.Join(ctx)
	if joinErr != nil && (util.IsCancelled(joinErr) || errors.Is(ctx.Err(), context.Canceled)) {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := dispatcher.Registry().StopRunningJobs(stopCtx); err != nil {
			logger.Error("failed to cancel running jobs", "error", err)
		}
	}

	results := jobResults(job, code, joinErr, time.Since(start))
	formatter := output.NewFormatter(format,
		output.WithNoColor(root.noColor()),
		output.WithWide(opts.wide))
	if err := formatter.FormatResults(cmd.OutOrStdout(), results); err != nil {
		return util.WrapErrorf(err, "failed to format results")
	}

	if joinErr != nil {
		return joinErr
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// jobResults lists per-command results for arrays, or one result for the whole job
func jobResults(job executor.JobRunner, code int, err error, d time.Duration) []executor.Result {
	if array, ok := job.(*executor.ArrayExecutor); ok {
		if results := array.Results(); results != nil {
			return results
		}
	}
	return []executor.Result{{
		Name:     job.String(),
		ExitCode: code,
		Error:    err,
		Duration: d,
	}}
}

// lockedWriter serializes writes from concurrent array commands
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
