package output

import (
	"io"
	"os"

	"github.com/aryankumar/jobexec/internal/executor"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// paintFunc formats and colors one value
type paintFunc func(format string, a ...interface{}) string

// ColorScheme holds the colors used by table output
type ColorScheme struct {
	// Command colors command lines and job names
	Command paintFunc

	// Success colors exit code 0
	Success paintFunc

	// Error colors non-zero exit codes and bookkeeping errors
	Error paintFunc

	// Warning colors a missing program (exit code 127)
	Warning paintFunc

	// Cancelled colors a job the scheduler cancelled (exit code 9)
	Cancelled paintFunc

	Header   paintFunc
	Duration paintFunc

	// Disabled is set when the writer is not a terminal or noColor was requested
	Disabled bool
}

// NewColorScheme creates a color scheme for w.
// Colors are disabled for non-TTY outputs or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	enabled := !noColor && isTTY(w)
	paint := func(attrs ...color.Attribute) paintFunc {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.Sprintf
	}

	return &ColorScheme{
		Command:   paint(color.FgCyan, color.Bold),
		Success:   paint(color.FgGreen),
		Error:     paint(color.FgRed, color.Bold),
		Warning:   paint(color.FgYellow),
		Cancelled: paint(color.FgMagenta),
		Header:    paint(color.FgWhite, color.Bold),
		Duration:  paint(color.FgBlue),
		Disabled:  !enabled,
	}
}

// isTTY checks if the writer is a TTY
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// ExitCodeColor picks the color for a job's exit code
func (cs *ColorScheme) ExitCodeColor(code int) paintFunc {
	switch code {
	case 0:
		return cs.Success
	case executor.ExitCancelled:
		return cs.Cancelled
	case executor.ExitCommandNotFound:
		return cs.Warning
	default:
		return cs.Error
	}
}

// ResultColor colors a result by its exit code. A bookkeeping error, where no
// exit code is known, always gets the error color.
func (cs *ColorScheme) ResultColor(r executor.Result) paintFunc {
	if r.Error != nil {
		return cs.Error
	}
	return cs.ExitCodeColor(r.ExitCode)
}
