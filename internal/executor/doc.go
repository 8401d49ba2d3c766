// Package executor runs shell commands locally or as batch jobs on a cluster
// scheduler behind one interface.
//
// Every executor implements JobRunner: Start launches the work without
// waiting for it and Join blocks until it is done, returning the exit code.
//
// # Local Execution
//
// Executor buffers a command's output and logs it when the command exits.
// StreamExecutor logs each line as it is produced:
//
//	e := executor.NewStreamExecutor("make test", executor.WithLogger(logger))
//	if err := e.Start(ctx); err != nil {
//	    return err
//	}
//	code, err := e.Join(ctx)
//
// A program that does not exist is not an error; Join reports exit code 127.
// A process killed by a signal reports 128+signal.
//
// # Arrays
//
// ArrayExecutor runs several commands at once on a worker Pool, one
// StreamExecutor each, and joins them back in input order:
//
//	a := executor.NewArrayExecutor([]string{"gzip a", "gzip b"})
//	a.Start(ctx)
//	code, err := a.Join(ctx) // 0 if all exited 0, else 127
//	codes := a.ExitStatuses()
//
// # Cluster Jobs
//
// ClusterExecutor writes a job script, submits it, polls the scheduler until
// the job ends and reads back its exit code:
//
//	NEW -> SCRIPT_WRITTEN -> SUBMITTED -> POLLING -> FINISHED
//
// SlurmExecutor is the Slurm backend (sbatch, squeue, sacct, scancel). Several
// commands become one job array. A cancelled job reports exit code 9.
//
// Submitted jobs are kept in a Registry until Join completes, so a shutdown
// hook can cancel whatever is still running:
//
//	registry := executor.NewRegistry(logger, collector)
//	ctx := util.SetupSignalHandler(func() {
//	    registry.StopRunningJobs(context.Background())
//	})
//
// # Dispatch
//
// Dispatcher picks local or cluster execution from the executor configuration
// or a WithJobExecution override:
//
//	d := executor.NewDispatcher(cfg.Executor, registry, logger, collector)
//	job, err := d.Execute(ctx, []string{"ls"}, executor.WithMem(4))
//
// Attach wraps a job submitted earlier, by ID, for Status and CancelJob.
//
// # Errors
//
// A non-zero exit code is not an error. Errors returned from Start and Join
// report the executor's own failures (spawning, reading output, talking to
// the scheduler). Local failures are *util.CommandError naming the commands;
// cluster failures are *util.JobError.
package executor
