package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aryankumar/jobexec/internal/executor"
)

func TestNewTableFormatter(t *testing.T) {
	tests := []struct {
		name string
		opts *Options
	}{
		{
			name: "nil options",
			opts: nil,
		},
		{
			name: "with options",
			opts: &Options{NoColor: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewTableFormatter(tt.opts)
			if formatter == nil {
				t.Fatal("NewTableFormatter returned nil")
			}
			if formatter.options == nil {
				t.Error("formatter.options is nil")
			}
		})
	}
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name      string
		data      interface{}
		opts      *Options
		wantError bool
		contains  []string
	}{
		{
			name: "map data",
			data: map[string]interface{}{
				"name":  "test",
				"value": 123,
			},
			opts:      &Options{NoColor: true},
			wantError: false,
			contains:  []string{"name", "value", "test", "123"},
		},
		{
			name: "slice of maps",
			data: []map[string]interface{}{
				{"name": "item1", "count": 10},
				{"name": "item2", "count": 20},
			},
			opts:      &Options{NoColor: true},
			wantError: false,
			contains:  []string{"NAME", "COUNT", "item1", "item2", "10", "20"},
		},
		{
			name:      "empty slice",
			data:      []map[string]interface{}{},
			opts:      &Options{NoColor: true},
			wantError: false,
			contains:  []string{},
		},
		{
			name:      "string data",
			data:      "simple string",
			opts:      &Options{NoColor: true},
			wantError: false,
			contains:  []string{"simple string"},
		},
		{
			name:      "nil data",
			data:      nil,
			opts:      &Options{NoColor: true},
			wantError: false,
			contains:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewTableFormatter(tt.opts)
			var buf bytes.Buffer

			err := formatter.Format(&buf, tt.data)

			if (err != nil) != tt.wantError {
				t.Errorf("Format() error = %v, wantError %v", err, tt.wantError)
				return
			}

			output := buf.String()
			for _, substr := range tt.contains {
				if !strings.Contains(output, substr) {
					t.Errorf("Format() output missing %q\nGot: %s", substr, output)
				}
			}
		})
	}
}

func TestTableFormatter_FormatResults(t *testing.T) {
	tests := []struct {
		name        string
		results     []executor.Result
		opts        *Options
		contains    []string
		notContains []string
	}{
		{
			name:     "empty results",
			results:  []executor.Result{},
			opts:     &Options{NoColor: true},
			contains: []string{"No results"},
		},
		{
			name: "mixed results",
			results: []executor.Result{
				{Name: "echo hello", ExitCode: 0, Duration: 100 * time.Millisecond},
				{Name: "exit 3", ExitCode: 3, Duration: 200 * time.Millisecond},
				{Name: "missing", ExitCode: 127, Duration: 10 * time.Millisecond},
			},
			opts: &Options{NoColor: true},
			contains: []string{
				"COMMAND", "EXIT CODE", "STATUS", "DURATION",
				"echo hello", "exit 3", "127",
				"success", "failed",
				"Summary: 1 successful, 2 failed",
			},
			notContains: []string{"ERROR"},
		},
		{
			name: "no headers",
			results: []executor.Result{
				{Name: "true", ExitCode: 0, Duration: time.Millisecond},
			},
			opts:        &Options{NoColor: true, NoHeaders: true},
			contains:    []string{"true", "success"},
			notContains: []string{"COMMAND", "STATUS"},
		},
		{
			name: "wide shows errors",
			results: []executor.Result{
				{Name: "ls", ExitCode: -1, Error: errors.New("reader failed"), Duration: time.Millisecond},
			},
			opts:     &Options{NoColor: true, Wide: true},
			contains: []string{"ERROR", "reader failed", "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := NewTableFormatter(tt.opts)
			var buf bytes.Buffer

			if err := formatter.FormatResults(&buf, tt.results); err != nil {
				t.Fatalf("FormatResults() error = %v", err)
			}

			output := buf.String()
			for _, substr := range tt.contains {
				if !strings.Contains(output, substr) {
					t.Errorf("FormatResults() output missing %q\nGot: %s", substr, output)
				}
			}
			for _, substr := range tt.notContains {
				if strings.Contains(output, substr) {
					t.Errorf("FormatResults() output should not contain %q\nGot: %s", substr, output)
				}
			}
		})
	}
}

func TestTableFormatter_CreateTable(t *testing.T) {
	formatter := NewTableFormatter(&Options{})
	var buf bytes.Buffer

	table := formatter.createTable(&buf)

	if table == nil {
		t.Fatal("createTable returned nil")
	}

	table.SetHeader([]string{"COL1", "COL2"})
	table.Append([]string{"val1", "val2"})
	table.Render()

	output := buf.String()

	// Should not contain borders
	if strings.Contains(output, "+") || strings.Contains(output, "|") {
		t.Error("Table contains borders (should be borderless)")
	}
}

func TestTableFormatter_FormatResultRow(t *testing.T) {
	formatter := NewTableFormatter(&Options{NoColor: true})
	colors := NewColorScheme(&bytes.Buffer{}, true)
	longCommand := strings.Repeat("x", 100)

	tests := []struct {
		name           string
		result         executor.Result
		wide           bool
		checkPositions map[int]string // position -> expected value
	}{
		{
			name:   "success result",
			result: executor.Result{Name: "echo hi", ExitCode: 0, Duration: 100 * time.Millisecond},
			checkPositions: map[int]string{
				0: "echo hi",
				1: "0",
				2: "success",
				3: "100ms",
			},
		},
		{
			name:   "non-zero exit",
			result: executor.Result{Name: "exit 2", ExitCode: 2, Duration: 50 * time.Millisecond},
			checkPositions: map[int]string{
				1: "2",
				2: "failed",
			},
		},
		{
			name:   "bookkeeping error has no exit code",
			result: executor.Result{Name: "ls", ExitCode: -1, Error: errors.New("boom")},
			checkPositions: map[int]string{
				1: "-",
				2: "error",
			},
		},
		{
			name:   "wide mode with error",
			result: executor.Result{Name: "ls", ExitCode: -1, Error: errors.New("connection error")},
			wide:   true,
			checkPositions: map[int]string{
				2: "error",
				4: "connection error",
			},
		},
		{
			name:   "long command truncated",
			result: executor.Result{Name: longCommand},
			checkPositions: map[int]string{
				0: longCommand[:57] + "...",
			},
		},
		{
			name:   "long command kept in wide mode",
			result: executor.Result{Name: longCommand},
			wide:   true,
			checkPositions: map[int]string{
				0: longCommand,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter.options.Wide = tt.wide
			row := formatter.formatResultRow(tt.result, colors)

			for pos, expected := range tt.checkPositions {
				if pos >= len(row) {
					t.Errorf("Row too short: expected at least %d elements, got %d", pos+1, len(row))
					continue
				}
				if row[pos] != expected {
					t.Errorf("Row[%d] = %q, want %q", pos, row[pos], expected)
				}
			}
		})
	}
}
