// Package output provides formatters for displaying jobexec command results.
//
// The package supports multiple output formats (table, JSON, YAML) behind one
// Formatter interface, for both arbitrary data and per-command results.
//
// # Basic Usage
//
//	formatter := output.NewFormatter(output.FormatTable)
//
//	// Format a single data item, e.g. a job status
//	formatter.Format(os.Stdout, map[string]interface{}{"job_id": "1234"})
//
//	// Format per-command results from an ArrayExecutor
//	formatter.FormatResults(os.Stdout, array.Results())
//
// # Options
//
//	formatter := output.NewFormatter(
//	    output.FormatTable,
//	    output.WithNoColor(true),
//	    output.WithWide(true),
//	)
//
// # Statuses
//
// Each result is shown as success (exit code 0), failed (non-zero exit code)
// or error (the executor itself failed and there is no exit code).
//
// # Color Support
//
// Colors are enabled for TTY outputs only and can be disabled with
// WithNoColor(true). Commands are cyan and durations blue. Exit code and
// status are green for 0, magenta for a cancelled cluster job (9), yellow for
// a missing program (127) and red for any other failure.
package output
