package output

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aryankumar/jobexec/internal/executor"
)

// taggedScheme prefixes each value with the name of the color it got, so
// tests can see which color was picked without a terminal
func taggedScheme() *ColorScheme {
	tag := func(name string) paintFunc {
		return func(format string, a ...interface{}) string {
			return name + ":" + fmt.Sprintf(format, a...)
		}
	}
	return &ColorScheme{
		Command:   tag("command"),
		Success:   tag("success"),
		Error:     tag("error"),
		Warning:   tag("warning"),
		Cancelled: tag("cancelled"),
		Header:    tag("header"),
		Duration:  tag("duration"),
	}
}

func TestNewColorScheme(t *testing.T) {
	tests := []struct {
		name    string
		noColor bool
	}{
		{name: "colors disabled with noColor flag", noColor: true},
		{name: "colors disabled for non-TTY", noColor: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := NewColorScheme(&bytes.Buffer{}, tt.noColor)
			if !cs.Disabled {
				t.Error("Disabled = false, want true")
			}

			// Disabled colors format without escape codes
			paints := map[string]paintFunc{
				"Command":   cs.Command,
				"Success":   cs.Success,
				"Error":     cs.Error,
				"Warning":   cs.Warning,
				"Cancelled": cs.Cancelled,
				"Header":    cs.Header,
				"Duration":  cs.Duration,
			}
			for name, paint := range paints {
				if got := paint("job-%d", 1); got != "job-1" {
					t.Errorf("%s(%q) = %q, want %q", name, "job-%d", got, "job-1")
				}
			}
		})
	}
}

func TestColorScheme_ExitCodeColor(t *testing.T) {
	cs := taggedScheme()

	tests := []struct {
		code int
		want string
	}{
		{code: 0, want: "success:x"},
		{code: 1, want: "error:x"},
		{code: 2, want: "error:x"},
		{code: 9, want: "cancelled:x"},
		{code: 127, want: "warning:x"},
		{code: 137, want: "error:x"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("exit %d", tt.code), func(t *testing.T) {
			if got := cs.ExitCodeColor(tt.code)("x"); got != tt.want {
				t.Errorf("ExitCodeColor(%d) painted %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestColorScheme_ResultColor(t *testing.T) {
	cs := taggedScheme()

	tests := []struct {
		name   string
		result executor.Result
		want   string
	}{
		{name: "success", result: executor.Result{ExitCode: 0}, want: "success:x"},
		{name: "cancelled job", result: executor.Result{ExitCode: 9}, want: "cancelled:x"},
		{name: "missing program", result: executor.Result{ExitCode: 127}, want: "warning:x"},
		{name: "bookkeeping error", result: executor.Result{ExitCode: -1, Error: errors.New("sink closed")}, want: "error:x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cs.ResultColor(tt.result)("x"); got != tt.want {
				t.Errorf("ResultColor() painted %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTableFormatter_ResultRowColors(t *testing.T) {
	f := NewTableFormatter(nil)
	row := f.formatResultRow(executor.Result{
		Name:     "slurm_job",
		ExitCode: 9,
		Duration: time.Second,
	}, taggedScheme())

	want := []string{"command:slurm_job", "cancelled:9", "cancelled:failed", "duration:1s"}
	if len(row) != len(want) {
		t.Fatalf("row = %q, want %q", row, want)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestIsTTY(t *testing.T) {
	// Whether stdout is a terminal depends on how tests run; it only must not panic
	_ = isTTY(os.Stdout)

	if isTTY(&bytes.Buffer{}) {
		t.Error("isTTY(bytes.Buffer) = true, want false")
	}
}
