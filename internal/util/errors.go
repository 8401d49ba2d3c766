package util

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for jobexec
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrJobSubmissionFailed indicates the scheduler rejected or never accepted a job
	ErrJobSubmissionFailed = errors.New("Job submission failed")

	// ErrRetriesExhausted indicates a scheduler query never produced output
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")

	// ErrNotStarted indicates Join was called before Start
	ErrNotStarted = errors.New("executor not started")

	// ErrUnknownEnvironment indicates an execution environment with no backend
	ErrUnknownEnvironment = errors.New("unknown execution environment")
)

// CommandError reports a failure of the executor's own bookkeeping around one
// or more commands. The child's exit status is never reported this way.
type CommandError struct {
	Commands []string
	Err      error
}

// NewCommandError wraps err with the commands it concerns
func NewCommandError(err error, cmds ...string) *CommandError {
	return &CommandError{Commands: cmds, Err: err}
}

// Error implements the error interface
func (e *CommandError) Error() string {
	if len(e.Commands) > 1 {
		return "Commands failed: " + strings.Join(e.Commands, ", ")
	}
	return "Command failed: " + strings.Join(e.Commands, "")
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *CommandError) Unwrap() error {
	return e.Err
}

// JobError wraps an error with cluster job context
type JobError struct {
	JobName string
	JobID   string
	Err     error
}

// Error implements the error interface
func (e *JobError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("job %q: %v", e.JobName, e.Err)
	}
	return fmt.Sprintf("job %q (%s): %v", e.JobName, e.JobID, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *JobError) Unwrap() error {
	return e.Err
}

// WrapJobError wraps an error with job context
func WrapJobError(jobName, jobID string, err error) error {
	if err == nil {
		return nil
	}
	return &JobError{
		JobName: jobName,
		JobID:   jobID,
		Err:     err,
	}
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 { // Limit to first 10 errors in the message
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsSubmissionFailure checks if an error came from job submission
func IsSubmissionFailure(err error) bool {
	return errors.Is(err, ErrJobSubmissionFailed)
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsTimeout(err):
		return "Operation timed out. Increase executor.poll_timeout or pass a longer --timeout."
	case IsCancelled(err):
		return "Operation was cancelled."
	case IsSubmissionFailure(err):
		return "The scheduler did not accept the job. Check the generated script and scheduler logs: " + err.Error()
	case errors.Is(err, ErrRetriesExhausted):
		return "The scheduler did not answer after several attempts. Check that its command line tools are on PATH."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	case errors.Is(err, ErrUnknownEnvironment):
		return "Unknown execution environment. Use --env local or --env slurm."
	default:
		return err.Error()
	}
}

// WrapErrorf wraps an error with a formatted message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
