package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryankumar/jobexec/internal/executor"
	"github.com/aryankumar/jobexec/internal/output"
	"github.com/aryankumar/jobexec/internal/util"
	"github.com/spf13/cobra"
)

// newStatusCmd creates the status command
func newStatusCmd(root *rootOptions) *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "status JOBID [JOBID...]",
		Short: "Show the scheduler state of cluster jobs",
		Long: `Query the cluster scheduler once for each job and print whether it has
finished, its accounting records and, for finished jobs, its exit code.

Jobs do not need to have been submitted by this process.`,
		Example: `  jobexec status 4242
  jobexec status 4242 4243 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, root, env, args)
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "scheduler the jobs were submitted to (default slurm)")

	return cmd
}

func runStatus(cmd *cobra.Command, root *rootOptions, env string, jobIDs []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	format, err := root.outputFormat()
	if err != nil {
		return err
	}

	dispatcher := root.dispatcher()
	var (
		statuses []executor.JobStatus
		errs     util.MultiError
	)
	for _, id := range jobIDs {
		job, err := dispatcher.Attach(env, id)
		if err != nil {
			return err
		}

		status, err := job.Status(ctx)
		if err != nil {
			logger.Debug("status query failed", "job_id", id, "error", err)
			errs.Add(err)
			continue
		}
		statuses = append(statuses, status)
	}

	formatter := output.NewFormatter(format, output.WithNoColor(root.noColor()))
	var data interface{} = statuses
	if format == output.FormatTable {
		data = statusRows(statuses)
	}
	if len(statuses) > 0 {
		if err := formatter.Format(cmd.OutOrStdout(), data); err != nil {
			return util.WrapErrorf(err, "failed to format status")
		}
	}

	return errs.ErrorOrNil()
}

func statusRows(statuses []executor.JobStatus) []map[string]interface{} {
	rows := make([]map[string]interface{}, len(statuses))
	for i, s := range statuses {
		exitCode := "-"
		if s.ExitCode != nil {
			exitCode = fmt.Sprint(*s.ExitCode)
		}
		rows[i] = map[string]interface{}{
			"job_id":    s.JobID,
			"scheduler": s.Scheduler,
			"finished":  s.Finished,
			"exit_code": exitCode,
			"records":   strings.Join(s.Records, ", "),
		}
	}
	return rows
}
