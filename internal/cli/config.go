package cli

import (
	"fmt"

	"github.com/aryankumar/jobexec/internal/config"
	"github.com/aryankumar/jobexec/internal/output"
	"github.com/spf13/cobra"
)

// newConfigCmd creates the config command group
func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or change jobexec configuration",
	}

	cmd.AddCommand(newConfigViewCmd(root))
	cmd.AddCommand(newConfigSetEnvCmd(root))

	return cmd
}

func newConfigViewCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file and JOBEXEC_*
environment variables have been applied. Table output falls back to YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := root.outputFormat()
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				format = output.FormatYAML
			}
			return output.NewFormatter(format).Format(cmd.OutOrStdout(), root.config)
		},
	}
}

func newConfigSetEnvCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "set-env ENV",
		Short:     "Set the default execution environment",
		Long:      `Set executor.job_execution in the config file. ENV is local or slurm.`,
		Example:   `  jobexec config set-env slurm`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{config.EnvLocal, config.EnvSlurm},
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager(root.cfgFile)
			if _, err := manager.Load(); err != nil {
				return err
			}

			manager.SetJobExecution(args[0])
			if err := config.Validate(manager.GetConfig()); err != nil {
				return err
			}
			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "job_execution set to %s in %s\n", manager.JobExecution(), manager.Path())
			return nil
		},
	}
}
