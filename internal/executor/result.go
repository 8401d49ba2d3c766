package executor

import (
	"fmt"
	"strings"
	"time"
)

// Succeeded reports whether the task exited 0 without a bookkeeping error
func (r Result) Succeeded() bool {
	return r.Error == nil && r.ExitCode == 0
}

// CountSuccessful returns the number of results that exited 0
func CountSuccessful(results []Result) int {
	count := 0
	for _, r := range results {
		if r.Succeeded() {
			count++
		}
	}
	return count
}

// CountFailed returns the number of results with a non-zero exit or an error
func CountFailed(results []Result) int {
	return len(results) - CountSuccessful(results)
}

// FilterFailed returns only the failed results
func FilterFailed(results []Result) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if !r.Succeeded() {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ExitCodes returns the exit codes in result order
func ExitCodes(results []Result) []int {
	codes := make([]int, len(results))
	for i, r := range results {
		codes[i] = r.ExitCode
	}
	return codes
}

// GetErrors extracts all bookkeeping errors from results
func GetErrors(results []Result) []error {
	errs := make([]error, 0)
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, r.Error)
		}
	}
	return errs
}

// AverageDuration calculates the average duration of all results
func AverageDuration(results []Result) time.Duration {
	if len(results) == 0 {
		return 0
	}

	var total time.Duration
	for _, r := range results {
		total += r.Duration
	}

	return total / time.Duration(len(results))
}

// MaxDuration returns the maximum duration among all results
func MaxDuration(results []Result) time.Duration {
	var max time.Duration
	for _, r := range results {
		if r.Duration > max {
			max = r.Duration
		}
	}
	return max
}

// Summary provides a summary of execution results
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	AvgDuration time.Duration
	MaxDuration time.Duration
}

// Summarize creates a summary of the results
func Summarize(results []Result) Summary {
	successful := CountSuccessful(results)
	return Summary{
		Total:       len(results),
		Successful:  successful,
		Failed:      len(results) - successful,
		AvgDuration: AverageDuration(results),
		MaxDuration: MaxDuration(results),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d, ", s.Successful))
	sb.WriteString(fmt.Sprintf("Failed: %d", s.Failed))

	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
	}

	return sb.String()
}

// AllSuccessful returns true if every result exited 0
func AllSuccessful(results []Result) bool {
	return CountSuccessful(results) == len(results)
}

// AggregateExitCode folds results into one status: 0 if all succeeded, else 127
func AggregateExitCode(results []Result) int {
	if AllSuccessful(results) {
		return 0
	}
	return ExitCommandNotFound
}
