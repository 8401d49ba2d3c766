package output_test

import (
	"errors"
	"os"
	"time"

	"github.com/aryankumar/jobexec/internal/executor"
	"github.com/aryankumar/jobexec/internal/output"
)

// Example_tableFormatter demonstrates using the table formatter
func Example_tableFormatter() {
	formatter := output.NewFormatter(output.FormatTable, output.WithNoColor(true))

	results := []executor.Result{
		{Name: "gzip sample_1.fastq", ExitCode: 0, Duration: 150 * time.Millisecond},
		{Name: "gzip sample_2.fastq", ExitCode: 1, Duration: 100 * time.Millisecond},
	}

	formatter.FormatResults(os.Stdout, results)
}

// Example_jsonFormatter demonstrates using the JSON formatter
func Example_jsonFormatter() {
	formatter := output.NewFormatter(output.FormatJSON)

	results := []executor.Result{
		{Name: "echo done", ExitCode: 0, Duration: 200 * time.Millisecond},
		{Name: "ls /data", ExitCode: -1, Error: errors.New("read output: broken pipe")},
	}

	formatter.FormatResults(os.Stdout, results)
	// Output:
	// [
	//   {
	//     "command": "echo done",
	//     "exit_code": 0,
	//     "status": "success",
	//     "duration": "200ms"
	//   },
	//   {
	//     "command": "ls /data",
	//     "exit_code": -1,
	//     "status": "error",
	//     "duration": "0s",
	//     "error": "read output: broken pipe"
	//   }
	// ]
}

// Example_yamlFormatter demonstrates using the YAML formatter
func Example_yamlFormatter() {
	formatter := output.NewFormatter(output.FormatYAML)

	formatter.Format(os.Stdout, map[string]interface{}{
		"job_id": "1234",
		"state":  "RUNNING",
	})
	// Output:
	// job_id: "1234"
	// state: RUNNING
}

// Example_wideMode demonstrates the extra error column
func Example_wideMode() {
	formatter := output.NewFormatter(
		output.FormatTable,
		output.WithNoColor(true),
		output.WithWide(true),
	)

	results := []executor.Result{
		{Name: "make all", ExitCode: 0, Duration: 2 * time.Second},
		{Name: "make test", ExitCode: -1, Error: errors.New("start: permission denied")},
	}

	formatter.FormatResults(os.Stdout, results)
}

// Example_noHeaders demonstrates output suitable for scripts
func Example_noHeaders() {
	formatter := output.NewFormatter(
		output.FormatTable,
		output.WithNoColor(true),
		output.WithNoHeaders(true),
	)

	formatter.FormatResults(os.Stdout, []executor.Result{
		{Name: "true", ExitCode: 0},
	})
}
