package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aryankumar/jobexec/internal/util"
	"github.com/spf13/viper"
)

const (
	defaultConfigFile = ".jobexec.yaml"
	defaultConfigDir  = ".jobexec"
)

// Default values applied when the config file leaves a setting out
const (
	DefaultJobExecution  = EnvLocal
	DefaultCPUs          = 1
	DefaultMem           = 2
	DefaultRetryAttempts = 3
	DefaultRetryInterval = 5 * time.Second
	DefaultPollInterval  = 30 * time.Second
	DefaultOutputFormat  = "table"
)

// Manager handles jobexec configuration
type Manager struct {
	configPath string
	config     *JobexecConfig
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	return &Manager{
		configPath: configPath,
		viper:      viper.New(),
		config:     &JobexecConfig{},
	}
}

// Load loads the jobexec configuration from file and JOBEXEC_* environment variables
func (m *Manager) Load() (*JobexecConfig, error) {
	if m.configPath == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		m.configPath = path
	}
	m.viper.SetConfigFile(m.configPath)

	// JOBEXEC_EXECUTOR_JOB_EXECUTION overrides executor.job_execution
	m.viper.SetEnvPrefix("JOBEXEC")
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
	m.setDefaults()

	m.config = &JobexecConfig{}

	if err := m.viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and environment still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	if err := Validate(m.config); err != nil {
		return nil, err
	}

	return m.config, nil
}

// Save saves the current configuration to file
func (m *Manager) Save() error {
	if m.configPath == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		m.configPath = path
	}

	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns ~/.jobexec/config.yaml, or ~/.jobexec.yaml when
// only that one exists
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	preferred := filepath.Join(home, defaultConfigDir, "config.yaml")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, nil
	}
	legacy := filepath.Join(home, defaultConfigFile)
	if _, err := os.Stat(legacy); err == nil {
		return legacy, nil
	}
	return preferred, nil
}

// Path returns the config file the manager reads and writes
func (m *Manager) Path() string {
	return m.configPath
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *JobexecConfig {
	return m.config
}

// JobExecution returns the configured default execution environment
func (m *Manager) JobExecution() string {
	if m.config == nil || m.config.Executor.JobExecution == "" {
		return DefaultJobExecution
	}
	return m.config.Executor.JobExecution
}

// SetJobExecution changes the default execution environment
func (m *Manager) SetJobExecution(env string) {
	m.config.Executor.JobExecution = env
	m.viper.Set("executor.job_execution", env)
}

// setDefaults registers defaults with viper so environment variables bind to every key
func (m *Manager) setDefaults() {
	m.viper.SetDefault("executor.job_execution", DefaultJobExecution)
	m.viper.SetDefault("executor.parallel", 0)
	m.viper.SetDefault("executor.working_dir", filepath.Join(os.TempDir(), "jobexec"))
	m.viper.SetDefault("executor.partition", "")
	m.viper.SetDefault("executor.walltime", "")
	m.viper.SetDefault("executor.cpus", DefaultCPUs)
	m.viper.SetDefault("executor.mem", DefaultMem)
	m.viper.SetDefault("executor.retry_attempts", DefaultRetryAttempts)
	m.viper.SetDefault("executor.retry_interval", DefaultRetryInterval)
	m.viper.SetDefault("executor.poll_interval", DefaultPollInterval)
	m.viper.SetDefault("executor.poll_timeout", time.Duration(0))
	m.viper.SetDefault("defaults.output_format", DefaultOutputFormat)
	m.viper.SetDefault("defaults.no_color", false)
	m.viper.SetDefault("metrics.addr", "")
}

// applyDefaults replaces zero values that make no sense at runtime
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	e := &m.config.Executor
	if e.JobExecution == "" {
		e.JobExecution = DefaultJobExecution
	}
	if e.CPUs <= 0 {
		e.CPUs = DefaultCPUs
	}
	if e.RetryAttempts <= 0 {
		e.RetryAttempts = DefaultRetryAttempts
	}
	if e.PollInterval <= 0 {
		e.PollInterval = DefaultPollInterval
	}
	if m.config.Defaults.OutputFormat == "" {
		m.config.Defaults.OutputFormat = DefaultOutputFormat
	}
}

// Validate checks settings that cannot be defaulted
func Validate(cfg *JobexecConfig) error {
	switch cfg.Executor.JobExecution {
	case EnvLocal, EnvSlurm:
	default:
		return fmt.Errorf("%w: executor.job_execution %q (supported: %s, %s)",
			util.ErrInvalidConfig, cfg.Executor.JobExecution, EnvLocal, EnvSlurm)
	}

	if cfg.Executor.Parallel < 0 {
		return fmt.Errorf("%w: executor.parallel must be >= 0, got %d", util.ErrInvalidConfig, cfg.Executor.Parallel)
	}
	if cfg.Executor.RetryInterval < 0 || cfg.Executor.PollTimeout < 0 {
		return fmt.Errorf("%w: negative durations are not allowed", util.ErrInvalidConfig)
	}

	switch cfg.Defaults.OutputFormat {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("%w: defaults.output_format %q (supported: table, json, yaml)",
			util.ErrInvalidConfig, cfg.Defaults.OutputFormat)
	}

	return nil
}
