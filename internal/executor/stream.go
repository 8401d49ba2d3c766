package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/aryankumar/jobexec/internal/util"
)

// maxLineSize bounds a single line of child output
const maxLineSize = 1024 * 1024

// StreamExecutor runs one command and logs its output line by line while it runs.
// Stdout and stderr share one pipe so lines keep their relative order.
type StreamExecutor struct {
	localProcess

	pipe     *io.PipeWriter
	readDone chan error
}

// NewStreamExecutor creates a StreamExecutor for a shell command
func NewStreamExecutor(cmd string, opts ...Option) *StreamExecutor {
	return newStreamExecutor(ShellCommand(cmd), opts)
}

// NewArgvStreamExecutor creates a StreamExecutor that runs argv without a shell
func NewArgvStreamExecutor(argv []string, opts ...Option) *StreamExecutor {
	return newStreamExecutor(ArgvCommand(argv...), opts)
}

func newStreamExecutor(cmd Command, opts []Option) *StreamExecutor {
	return &StreamExecutor{
		localProcess: localProcess{
			command: cmd,
			kind:    "stream",
			opts:    newOptions(opts),
		},
	}
}

// Start spawns the command and a reader goroutine for its output
func (e *StreamExecutor) Start(ctx context.Context) error {
	if !e.started.IsZero() {
		return util.NewCommandError(errAlreadyStarted, e.String())
	}

	pr, pw := io.Pipe()
	proc := e.process(ctx)
	proc.Stdout = pw
	proc.Stderr = pw

	if err := e.spawn(); err != nil {
		pw.Close()
		pr.Close()
		return err
	}

	e.pipe = pw
	e.readDone = make(chan error, 1)
	if e.notFound {
		pw.Close()
		pr.Close()
		e.readDone <- nil
		return nil
	}

	go func() {
		e.readDone <- e.readLines(pr)
	}()
	return nil
}

// Join waits for the command and its reader, and returns the exit code
func (e *StreamExecutor) Join(ctx context.Context) (int, error) {
	if e.joined {
		return e.exitCode, nil
	}
	if e.readDone == nil {
		return exitUnknown, util.NewCommandError(util.ErrNotStarted, e.String())
	}

	code, waitErr := e.wait()

	// Wait has flushed everything the child wrote, so closing ends the reader
	e.pipe.Close()
	readErr := <-e.readDone

	if waitErr != nil {
		return code, waitErr
	}
	if readErr != nil {
		return exitUnknown, util.NewCommandError(readErr, e.String())
	}
	return code, nil
}

// readLines logs each output line as it arrives. After a failure it keeps
// draining the pipe so the child never blocks on a full pipe.
func (e *StreamExecutor) readLines(r *io.PipeReader) error {
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var sinkErr error
	for scanner.Scan() {
		line := scanner.Text()
		e.opts.logger.Debug("output", "cmd", e.String(), "line", line)

		if e.opts.output != nil && sinkErr == nil {
			if _, err := fmt.Fprintln(e.opts.output, line); err != nil {
				sinkErr = fmt.Errorf("write output: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		io.Copy(io.Discard, r)
		return fmt.Errorf("read output: %w", err)
	}
	return sinkErr
}
