package cli

import (
	"fmt"

	"github.com/aryankumar/jobexec/internal/output"
	"github.com/aryankumar/jobexec/pkg/version"
	"github.com/spf13/cobra"
)

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display detailed version information for jobexec",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command) error {
	info := version.Get()
	outputFormat, _ := cmd.Flags().GetString("output")
	w := cmd.OutOrStdout()

	switch format := output.Format(outputFormat); format {
	case output.FormatJSON, output.FormatYAML:
		return output.NewFormatter(format).Format(w, info)
	case output.FormatTable:
		return output.NewFormatter(format).Format(w, map[string]interface{}{
			"Version":    info.Version,
			"Commit":     info.Commit,
			"Build Time": info.BuildTime,
			"Go Version": info.GoVersion,
			"Platform":   info.Platform,
		})
	default:
		// Default to human-readable format
		fmt.Fprintln(w, info.String())
		return nil
	}
}
