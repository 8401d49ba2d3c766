package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aryankumar/jobexec/internal/config"
	"github.com/aryankumar/jobexec/internal/executor"
	"github.com/aryankumar/jobexec/internal/metrics"
	"github.com/aryankumar/jobexec/internal/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Runtime carries process-wide state shared by all commands
type Runtime struct {
	// Registry tracks cluster jobs submitted by run, so shutdown can cancel them
	Registry *executor.Registry

	// Collector records executor metrics, nil disables them
	Collector *metrics.Collector

	// Gatherer is served on the metrics endpoint
	Gatherer prometheus.Gatherer

	// SchedulerRunner runs scheduler programs, nil runs them with os/exec
	SchedulerRunner executor.CommandRunner
}

// ExitError carries a job's exit code out of the command tree.
// It is not an error in the usual sense and is never printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// rootOptions is the state built up by the root command before a subcommand runs
type rootOptions struct {
	runtime Runtime
	cfgFile string
	config  *config.JobexecConfig
}

// Execute runs the root command with the provided context
func Execute(ctx context.Context, rt Runtime) error {
	return newRootCmd(rt).ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd(rt Runtime) *cobra.Command {
	opts := &rootOptions{runtime: rt}

	rootCmd := &cobra.Command{
		Use:   "jobexec",
		Short: "jobexec - run commands locally or as cluster batch jobs",
		Long: `jobexec runs shell commands on this machine or submits them as batch jobs
to a Slurm cluster, waits for them and reports their exit codes.

Several commands run as a concurrent array locally, or as one job array on the
cluster. Interrupting jobexec cancels every cluster job it submitted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig(cmd)
		},
	}

	// Define persistent flags
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.jobexec/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	// Bind flags to viper
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("metrics-addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newCancelCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	registerFlagCompletions(rootCmd)

	return rootCmd
}

// initConfig loads the config file and sets up logging
func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	cfg, err := config.NewManager(o.cfgFile).Load()
	if err != nil {
		return err
	}
	o.config = cfg

	setupLogging(cmd, cfg)

	if o.runtime.Registry == nil {
		o.runtime.Registry = executor.NewRegistry(slog.Default(), o.runtime.Collector)
	}
	return nil
}

// dispatcher builds a Dispatcher over the loaded configuration
func (o *rootOptions) dispatcher() *executor.Dispatcher {
	return executor.NewDispatcher(o.config.Executor, o.runtime.Registry, slog.Default(), o.runtime.Collector,
		executor.WithSchedulerRunner(o.runtime.SchedulerRunner))
}

// outputFormat resolves -o, falling back to defaults.output_format
func (o *rootOptions) outputFormat() (output.Format, error) {
	format := viper.GetString("output")
	if format == "" {
		format = o.config.Defaults.OutputFormat
	}

	switch f := output.Format(format); f {
	case output.FormatTable, output.FormatJSON, output.FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (supported: table, json, yaml)", format)
	}
}

// noColor reports whether either --no-color or defaults.no_color is set
func (o *rootOptions) noColor() bool {
	return viper.GetBool("no-color") || (o.config != nil && o.config.Defaults.NoColor)
}

// metricsAddr resolves --metrics-addr, falling back to metrics.addr
func (o *rootOptions) metricsAddr() string {
	if addr := viper.GetString("metrics-addr"); addr != "" {
		return addr
	}
	return o.config.Metrics.Addr
}

// setupLogging configures structured logging with slog
func setupLogging(cmd *cobra.Command, cfg *config.JobexecConfig) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	if cfg != nil && cfg.Defaults.NoColor {
		noColor = true
	}

	// Set log level based on verbose flag
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if noColor {
		// Use JSON handler for no-color mode
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))

	if verbose {
		slog.Debug("verbose logging enabled")
		if cfg != nil {
			slog.Debug("loaded configuration", "job_execution", cfg.Executor.JobExecution)
		}
	}
}
