// Package metrics exposes Prometheus metrics for local commands and cluster jobs.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records executor activity. A nil *Collector is valid and records nothing,
// so executors can carry one unconditionally.
type Collector struct {
	commandsStarted  *prometheus.CounterVec
	commandExits     *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	jobsSubmitted    *prometheus.CounterVec
	jobExits         *prometheus.CounterVec
	jobsRunning      prometheus.Gauge
	schedulerRetries *prometheus.CounterVec
	jobsCancelled    prometheus.Counter
}

// NewCollector creates a collector registered with the default registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	c := &Collector{
		commandsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobexec_commands_started_total",
				Help: "Local commands started, by executor kind",
			},
			[]string{"kind"},
		),
		commandExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobexec_command_exits_total",
				Help: "Local command exits, by executor kind and exit code",
			},
			[]string{"kind", "exit_code"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobexec_command_duration_seconds",
				Help:    "Wall time of local commands",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"kind"},
		),
		jobsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobexec_jobs_submitted_total",
				Help: "Cluster job submissions, by scheduler and outcome",
			},
			[]string{"scheduler", "outcome"},
		),
		jobExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobexec_job_exits_total",
				Help: "Finished cluster jobs, by scheduler and exit code",
			},
			[]string{"scheduler", "exit_code"},
		),
		jobsRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobexec_jobs_running",
				Help: "Cluster jobs currently held in the running-job registry",
			},
		),
		schedulerRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobexec_scheduler_query_retries_total",
				Help: "Scheduler helper commands that returned no output and were retried",
			},
			[]string{"command"},
		),
		jobsCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "jobexec_jobs_cancelled_total",
				Help: "Cluster jobs cancelled by the shutdown path",
			},
		),
	}

	registry.MustRegister(
		c.commandsStarted,
		c.commandExits,
		c.commandDuration,
		c.jobsSubmitted,
		c.jobExits,
		c.jobsRunning,
		c.schedulerRetries,
		c.jobsCancelled,
	)

	return c
}

// CommandStarted counts a local process spawn.
func (c *Collector) CommandStarted(kind string) {
	if c == nil {
		return
	}
	c.commandsStarted.WithLabelValues(kind).Inc()
}

// CommandExited records a local process exit.
func (c *Collector) CommandExited(kind string, exitCode int, d time.Duration) {
	if c == nil {
		return
	}
	c.commandExits.WithLabelValues(kind, strconv.Itoa(exitCode)).Inc()
	c.commandDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// JobSubmitted records a submission attempt outcome ("ok" or "failed").
func (c *Collector) JobSubmitted(scheduler string, ok bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	c.jobsSubmitted.WithLabelValues(scheduler, outcome).Inc()
}

// JobExited records a finished cluster job.
func (c *Collector) JobExited(scheduler string, exitCode int) {
	if c == nil {
		return
	}
	c.jobExits.WithLabelValues(scheduler, strconv.Itoa(exitCode)).Inc()
}

// SetRunningJobs tracks the registry size.
func (c *Collector) SetRunningJobs(n int) {
	if c == nil {
		return
	}
	c.jobsRunning.Set(float64(n))
}

// SchedulerRetry counts a retried scheduler helper command, labelled by program name.
func (c *Collector) SchedulerRetry(command string) {
	if c == nil {
		return
	}
	c.schedulerRetries.WithLabelValues(command).Inc()
}

// JobCancelled counts a job cancelled during shutdown.
func (c *Collector) JobCancelled() {
	if c == nil {
		return
	}
	c.jobsCancelled.Inc()
}
