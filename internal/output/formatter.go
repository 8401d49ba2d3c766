package output

import (
	"io"

	"github.com/aryankumar/jobexec/internal/executor"
)

// Format represents the output format type
type Format string

const (
	// FormatTable outputs data in a borderless, tab-aligned table
	FormatTable Format = "table"
	// FormatJSON outputs data in JSON format
	FormatJSON Format = "json"
	// FormatYAML outputs data in YAML format
	FormatYAML Format = "yaml"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format outputs a single data item to the writer
	Format(w io.Writer, data interface{}) error

	// FormatResults outputs per-command results to the writer
	FormatResults(w io.Writer, results []executor.Result) error
}

// Option is a functional option for configuring formatters
type Option func(*Options)

// Options holds configuration for formatters
type Options struct {
	// NoColor disables color output
	NoColor bool

	// NoHeaders disables table headers
	NoHeaders bool

	// Wide enables wide output with additional columns
	Wide bool
}

// WithNoColor disables color output
func WithNoColor(noColor bool) Option {
	return func(o *Options) {
		o.NoColor = noColor
	}
}

// WithNoHeaders disables table headers
func WithNoHeaders(noHeaders bool) Option {
	return func(o *Options) {
		o.NoHeaders = noHeaders
	}
}

// WithWide enables wide output
func WithWide(wide bool) Option {
	return func(o *Options) {
		o.Wide = wide
	}
}

// NewFormatter creates a new formatter based on the specified format
func NewFormatter(format Format, opts ...Option) Formatter {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	switch format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}

// Result statuses shown to users
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// resultRecord is the serialized form of an executor.Result
type resultRecord struct {
	Command  string `json:"command" yaml:"command"`
	ExitCode int    `json:"exit_code" yaml:"exit_code"`
	Status   string `json:"status" yaml:"status"`
	Duration string `json:"duration" yaml:"duration"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// resultStatus classifies a result: error for a bookkeeping failure, failed for a non-zero exit
func resultStatus(r executor.Result) string {
	switch {
	case r.Error != nil:
		return StatusError
	case r.ExitCode != 0:
		return StatusFailed
	default:
		return StatusSuccess
	}
}

func toRecords(results []executor.Result) []resultRecord {
	records := make([]resultRecord, len(results))
	for i, r := range results {
		records[i] = resultRecord{
			Command:  r.Name,
			ExitCode: r.ExitCode,
			Status:   resultStatus(r),
			Duration: r.Duration.String(),
		}
		if r.Error != nil {
			records[i].Error = r.Error.Error()
		}
	}
	return records
}
