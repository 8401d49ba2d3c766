package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/aryankumar/jobexec/internal/metrics"
)

// Exit codes with a fixed meaning across executors
const (
	// ExitCommandNotFound is reported for a missing program and for a failed array
	ExitCommandNotFound = 127

	// ExitCancelled is reported for a cluster job the scheduler cancelled
	ExitCancelled = 9

	// exitUnknown is returned alongside a non-nil error
	exitUnknown = -1
)

// killWaitDelay bounds how long Wait keeps copying output after cancellation
const killWaitDelay = 2 * time.Second

// JobRunner is anything that runs work and reports an exit code.
// Start must not block on the work itself; Join blocks until it is done.
// When Join returns a non-nil error the exit code is -1.
type JobRunner interface {
	Start(ctx context.Context) error
	Join(ctx context.Context) (int, error)
	String() string
}

// Command is either a shell string, interpreted by /bin/sh so pipes and
// redirection work, or an argv list executed directly.
type Command struct {
	Shell string
	Argv  []string
}

// ShellCommand returns a shell-interpreted command
func ShellCommand(cmd string) Command {
	return Command{Shell: cmd}
}

// ArgvCommand returns a command executed without a shell
func ArgvCommand(argv ...string) Command {
	return Command{Argv: argv}
}

// String renders the command for logs and error messages
func (c Command) String() string {
	if c.Argv != nil {
		return strings.Join(c.Argv, " ")
	}
	return c.Shell
}

// build creates the child in its own process group. Cancelling ctx kills the
// whole group, so processes a shell forked die with it and release the
// output pipe.
func (c Command) build(ctx context.Context) *exec.Cmd {
	var cmd *exec.Cmd
	switch {
	case c.Argv == nil:
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", c.Shell)
	case len(c.Argv) == 0:
		// Start reports the empty argv as a command error
		return exec.CommandContext(ctx, "")
	default:
		cmd = exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	cmd.WaitDelay = killWaitDelay
	return cmd
}

// Option configures local executors
type Option func(*options)

type options struct {
	logger   *slog.Logger
	metrics  *metrics.Collector
	output   io.Writer
	dir      string
	env      []string
	parallel int
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records command starts and exits on the collector
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// WithOutput copies the command's output to w in addition to the log.
// Array commands share w, so it must be safe for concurrent writes.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithDir sets the working directory of the child process
func WithDir(dir string) Option {
	return func(o *options) {
		o.dir = dir
	}
}

// WithEnv sets the child environment (KEY=VALUE); nil inherits the parent's
func WithEnv(env []string) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithParallel caps the number of array commands running at once (0 = no cap)
func WithParallel(n int) Option {
	return func(o *options) {
		o.parallel = n
	}
}

// exitStatus converts the result of Wait into an exit code. A process killed
// by a signal reports 128+signal, as a shell would.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}

	return exitUnknown, fmt.Errorf("wait: %w", err)
}

// isNotFound reports whether a Start error means the program does not exist
func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, syscall.ENOENT)
}
