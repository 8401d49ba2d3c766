package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aryankumar/jobexec/internal/executor"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name           string
		format         Format
		opts           []Option
		expectedType   string
		checkNoColor   bool
		expectedNoColor bool
	}{
		{
			name:         "table formatter default",
			format:       FormatTable,
			opts:         nil,
			expectedType: "*output.TableFormatter",
		},
		{
			name:         "json formatter",
			format:       FormatJSON,
			opts:         nil,
			expectedType: "*output.JSONFormatter",
		},
		{
			name:         "yaml formatter",
			format:       FormatYAML,
			opts:         nil,
			expectedType: "*output.YAMLFormatter",
		},
		{
			name:         "empty format defaults to table",
			format:       "",
			opts:         nil,
			expectedType: "*output.TableFormatter",
		},
		{
			name:         "unknown format defaults to table",
			format:       "unknown",
			opts:         nil,
			expectedType: "*output.TableFormatter",
		},
		{
			name:         "table with no color option",
			format:       FormatTable,
			opts:         []Option{WithNoColor(true)},
			expectedType: "*output.TableFormatter",
		},
		{
			name:         "table with no headers option",
			format:       FormatTable,
			opts:         []Option{WithNoHeaders(true)},
			expectedType: "*output.TableFormatter",
		},
		{
			name:         "table with wide option",
			format:       FormatTable,
			opts:         []Option{WithWide(true)},
			expectedType: "*output.TableFormatter",
		},
		{
			name:         "table with multiple options",
			format:       FormatTable,
			opts:         []Option{WithNoColor(true), WithNoHeaders(true), WithWide(true)},
			expectedType: "*output.TableFormatter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewFormatter(tt.format, tt.opts...)

			if formatter == nil {
				t.Fatal("NewFormatter returned nil")
			}

			// Check type using type assertion
			switch tt.expectedType {
			case "*output.TableFormatter":
				if _, ok := formatter.(*TableFormatter); !ok {
					t.Errorf("expected TableFormatter, got %T", formatter)
				}
			case "*output.JSONFormatter":
				if _, ok := formatter.(*JSONFormatter); !ok {
					t.Errorf("expected JSONFormatter, got %T", formatter)
				}
			case "*output.YAMLFormatter":
				if _, ok := formatter.(*YAMLFormatter); !ok {
					t.Errorf("expected YAMLFormatter, got %T", formatter)
				}
			}
		})
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name             string
		opts             []Option
		expectedNoColor  bool
		expectedNoHeaders bool
		expectedWide     bool
	}{
		{
			name:             "default options",
			opts:             nil,
			expectedNoColor:  false,
			expectedNoHeaders: false,
			expectedWide:     false,
		},
		{
			name:             "with no color",
			opts:             []Option{WithNoColor(true)},
			expectedNoColor:  true,
			expectedNoHeaders: false,
			expectedWide:     false,
		},
		{
			name:             "with no headers",
			opts:             []Option{WithNoHeaders(true)},
			expectedNoColor:  false,
			expectedNoHeaders: true,
			expectedWide:     false,
		},
		{
			name:             "with wide",
			opts:             []Option{WithWide(true)},
			expectedNoColor:  false,
			expectedNoHeaders: false,
			expectedWide:     true,
		},
		{
			name:             "all options",
			opts:             []Option{WithNoColor(true), WithNoHeaders(true), WithWide(true)},
			expectedNoColor:  true,
			expectedNoHeaders: true,
			expectedWide:     true,
		},
		{
			name:             "override options",
			opts:             []Option{WithNoColor(true), WithNoColor(false)},
			expectedNoColor:  false,
			expectedNoHeaders: false,
			expectedWide:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := &Options{}
			for _, opt := range tt.opts {
				opt(options)
			}

			if options.NoColor != tt.expectedNoColor {
				t.Errorf("NoColor = %v, want %v", options.NoColor, tt.expectedNoColor)
			}
			if options.NoHeaders != tt.expectedNoHeaders {
				t.Errorf("NoHeaders = %v, want %v", options.NoHeaders, tt.expectedNoHeaders)
			}
			if options.Wide != tt.expectedWide {
				t.Errorf("Wide = %v, want %v", options.Wide, tt.expectedWide)
			}
		})
	}
}

func TestFormatter_FormatAndFormatResults(t *testing.T) {
	singleData := map[string]interface{}{
		"job_id": "1234",
		"state":  "RUNNING",
	}

	results := []executor.Result{
		{
			Name:     "echo hello",
			ExitCode: 0,
			Duration: 100 * time.Millisecond,
		},
		{
			Name:     "exit 3",
			ExitCode: 3,
			Duration: 200 * time.Millisecond,
		},
	}

	formats := []Format{FormatTable, FormatJSON, FormatYAML}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			formatter := NewFormatter(format, WithNoColor(true))

			t.Run("Format", func(t *testing.T) {
				var buf bytes.Buffer
				if err := formatter.Format(&buf, singleData); err != nil {
					t.Errorf("Format() error = %v", err)
				}
				if buf.Len() == 0 {
					t.Error("Format() produced no output")
				}
			})

			t.Run("FormatResults", func(t *testing.T) {
				var buf bytes.Buffer
				if err := formatter.FormatResults(&buf, results); err != nil {
					t.Errorf("FormatResults() error = %v", err)
				}
				if !strings.Contains(buf.String(), "echo hello") {
					t.Errorf("FormatResults() output missing command: %s", buf.String())
				}
			})

			t.Run("FormatResults empty", func(t *testing.T) {
				var buf bytes.Buffer
				if err := formatter.FormatResults(&buf, []executor.Result{}); err != nil {
					t.Errorf("FormatResults() error = %v", err)
				}
			})
		})
	}
}

func TestResultStatus(t *testing.T) {
	tests := []struct {
		name     string
		result   executor.Result
		expected string
	}{
		{
			name:     "zero exit",
			result:   executor.Result{Name: "true", ExitCode: 0},
			expected: StatusSuccess,
		},
		{
			name:     "non-zero exit",
			result:   executor.Result{Name: "false", ExitCode: 1},
			expected: StatusFailed,
		},
		{
			name:     "bookkeeping error",
			result:   executor.Result{Name: "ls", ExitCode: -1, Error: errors.New("reader failed")},
			expected: StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultStatus(tt.result); got != tt.expected {
				t.Errorf("resultStatus() = %q, want %q", got, tt.expected)
			}
		})
	}
}
