package cli

import (
	"fmt"

	"github.com/aryankumar/jobexec/internal/util"
	"github.com/spf13/cobra"
)

// newCancelCmd creates the cancel command
func newCancelCmd(root *rootOptions) *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "cancel JOBID [JOBID...]",
		Short: "Cancel cluster jobs",
		Long: `Ask the cluster scheduler to cancel each job. Every job is attempted even
if an earlier one fails.`,
		Example: `  jobexec cancel 4242 4243`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(cmd, root, env, args)
		},
	}

	cmd.Flags().StringVar(&env, "env", "", "scheduler the jobs were submitted to (default slurm)")

	return cmd
}

func runCancel(cmd *cobra.Command, root *rootOptions, env string, jobIDs []string) error {
	ctx := cmd.Context()
	dispatcher := root.dispatcher()

	var errs util.MultiError
	for _, id := range jobIDs {
		job, err := dispatcher.Attach(env, id)
		if err != nil {
			return err
		}

		if err := job.CancelJob(ctx); err != nil {
			errs.Add(err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job %s cancelled\n", id)
	}

	return errs.ErrorOrNil()
}
