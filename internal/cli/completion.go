package cli

import (
	"fmt"

	"github.com/aryankumar/jobexec/internal/config"
	"github.com/aryankumar/jobexec/internal/output"
	"github.com/spf13/cobra"
)

// newCompletionCmd creates the completion command for generating shell completions
func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for jobexec.

Besides subcommands and flags, the script completes values for --env
(local, slurm) and --output (table, json, yaml). Job commands after --
are left to the shell's own completion.

Bash:
  $ source <(jobexec completion bash)
  $ jobexec completion bash > /etc/bash_completion.d/jobexec

Zsh:
  $ jobexec completion zsh > "${fpath[1]}/_jobexec"

Fish:
  $ jobexec completion fish > ~/.config/fish/completions/jobexec.fish

PowerShell:
  PS> jobexec completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Generating a script needs no config file
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(cmd, args[0])
		},
	}

	return cmd
}

// runCompletion writes the completion script for shell to the command's output
func runCompletion(cmd *cobra.Command, shell string) error {
	w := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return cmd.Root().GenBashCompletionV2(w, true)
	case "zsh":
		return cmd.Root().GenZshCompletion(w)
	case "fish":
		return cmd.Root().GenFishCompletion(w, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(w)
	default:
		return fmt.Errorf("unsupported shell type %q", shell)
	}
}

// registerFlagCompletions adds value completion for the flags with a fixed
// set of values. It runs after all subcommands are added.
func registerFlagCompletions(root *cobra.Command) {
	root.RegisterFlagCompletionFunc("output", cobra.FixedCompletions([]string{
		string(output.FormatTable) + "\taligned columns with a summary line",
		string(output.FormatJSON) + "\tmachine-readable JSON",
		string(output.FormatYAML) + "\tmachine-readable YAML",
	}, cobra.ShellCompDirectiveNoFileComp))

	local := config.EnvLocal + "\trun on this machine"
	slurm := config.EnvSlurm + "\tsubmit a batch job to Slurm"

	for _, cmd := range root.Commands() {
		if cmd.Flags().Lookup("env") == nil {
			continue
		}
		// status and cancel attach to scheduler jobs, which never run locally
		values := []string{slurm}
		if cmd.Name() == "run" {
			values = []string{local, slurm}
		}
		cmd.RegisterFlagCompletionFunc("env", cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
}
