package config

import "time"

// Execution environments understood by the dispatcher
const (
	EnvLocal = "local"
	EnvSlurm = "slurm"
)

// JobexecConfig represents the jobexec configuration file structure
type JobexecConfig struct {
	// Executor holds job execution settings
	Executor ExecutorConfig `mapstructure:"executor" yaml:"executor,omitempty" json:"executor,omitempty"`

	// Defaults contains default settings for CLI output
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// Metrics configures the prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// ExecutorConfig selects where commands run and how the cluster scheduler is driven
type ExecutorConfig struct {
	// JobExecution is the default environment: "local" or a scheduler name
	JobExecution string `mapstructure:"job_execution" yaml:"job_execution,omitempty" json:"job_execution,omitempty"`

	// Parallel caps concurrent local array commands (0 = one worker per command)
	Parallel int `mapstructure:"parallel" yaml:"parallel,omitempty" json:"parallel,omitempty"`

	// WorkingDir is where job scripts and scheduler logs are written
	WorkingDir string `mapstructure:"working_dir" yaml:"working_dir,omitempty" json:"working_dir,omitempty"`

	// Partition is the scheduler queue to submit to
	Partition string `mapstructure:"partition" yaml:"partition,omitempty" json:"partition,omitempty"`

	// Walltime is the job time limit in scheduler syntax, e.g. "24:00:00"
	Walltime string `mapstructure:"walltime" yaml:"walltime,omitempty" json:"walltime,omitempty"`

	// CPUs per task
	CPUs int `mapstructure:"cpus" yaml:"cpus,omitempty" json:"cpus,omitempty"`

	// Mem in gigabytes
	Mem int `mapstructure:"mem" yaml:"mem,omitempty" json:"mem,omitempty"`

	// RetryAttempts bounds each scheduler query
	RetryAttempts int `mapstructure:"retry_attempts" yaml:"retry_attempts,omitempty" json:"retry_attempts,omitempty"`

	// RetryInterval is the pause between failed scheduler queries
	RetryInterval time.Duration `mapstructure:"retry_interval" yaml:"retry_interval,omitempty" json:"retry_interval,omitempty"`

	// PollInterval is the pause between job completion checks
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval,omitempty" json:"poll_interval,omitempty"`

	// PollTimeout bounds Join (0 = wait forever)
	PollTimeout time.Duration `mapstructure:"poll_timeout" yaml:"poll_timeout,omitempty" json:"poll_timeout,omitempty"`
}

// DefaultsConfig contains default configuration values
type DefaultsConfig struct {
	// OutputFormat is the default output format (table, json, yaml)
	OutputFormat string `mapstructure:"output_format" yaml:"output_format,omitempty" json:"output_format,omitempty"`

	// NoColor disables colored output
	NoColor bool `mapstructure:"no_color" yaml:"no_color,omitempty" json:"no_color,omitempty"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address, empty disables the endpoint
	Addr string `mapstructure:"addr" yaml:"addr,omitempty" json:"addr,omitempty"`
}
