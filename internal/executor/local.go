package executor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/aryankumar/jobexec/internal/util"
)

var (
	errEmptyCommand   = errors.New("empty command")
	errAlreadyStarted = errors.New("already started")
)

// localProcess is the process lifecycle shared by Executor and StreamExecutor
type localProcess struct {
	command Command
	kind    string
	opts    options

	proc     *exec.Cmd
	started  time.Time
	notFound bool
	joined   bool
	exitCode int
}

// process lazily creates the child process handle; later calls return the same handle.
func (p *localProcess) process(ctx context.Context) *exec.Cmd {
	if p.proc == nil {
		p.proc = p.command.build(ctx)
		p.proc.Dir = p.opts.dir
		p.proc.Env = p.opts.env
	}
	return p.proc
}

// Process returns the child process handle, nil until it is first created.
func (p *localProcess) Process() *exec.Cmd {
	return p.proc
}

// String returns the command line
func (p *localProcess) String() string {
	return p.command.String()
}

// spawn starts the child. A program that does not exist is not an error: it
// is recorded and later reported as exit code 127.
func (p *localProcess) spawn() error {
	if p.proc == nil {
		return util.NewCommandError(util.ErrNotStarted, p.String())
	}
	if p.command.Argv != nil && len(p.command.Argv) == 0 {
		return util.NewCommandError(errEmptyCommand, p.String())
	}
	if p.opts.dir != "" {
		if _, err := os.Stat(p.opts.dir); err != nil {
			return util.NewCommandError(fmt.Errorf("working directory: %w", err), p.String())
		}
	}

	p.started = time.Now()
	p.opts.logger.Debug("starting command", "kind", p.kind, "cmd", p.String())

	if err := p.proc.Start(); err != nil {
		if isNotFound(err) {
			p.opts.logger.Warn("command not found", "cmd", p.String(), "error", err)
			p.notFound = true
			return nil
		}
		return util.NewCommandError(fmt.Errorf("start: %w", err), p.String())
	}

	p.opts.metrics.CommandStarted(p.kind)
	return nil
}

// wait blocks until the child exits and records the exit code
func (p *localProcess) wait() (int, error) {
	if p.notFound {
		return p.finish(ExitCommandNotFound), nil
	}

	code, err := exitStatus(p.proc.Wait())
	if err != nil {
		return exitUnknown, util.NewCommandError(err, p.String())
	}
	return p.finish(code), nil
}

func (p *localProcess) finish(code int) int {
	duration := time.Since(p.started)
	p.joined = true
	p.exitCode = code
	p.opts.metrics.CommandExited(p.kind, code, duration)
	p.opts.logger.Info("command finished",
		"kind", p.kind,
		"cmd", p.String(),
		"exit_code", code,
		"duration", duration)
	return code
}

// Executor runs one command and buffers its output until it exits.
type Executor struct {
	localProcess

	stdout bytes.Buffer
	stderr bytes.Buffer
}

// NewExecutor creates an Executor for a shell command
func NewExecutor(cmd string, opts ...Option) *Executor {
	return newExecutor(ShellCommand(cmd), opts)
}

// NewArgvExecutor creates an Executor that runs argv without a shell
func NewArgvExecutor(argv []string, opts ...Option) *Executor {
	return newExecutor(ArgvCommand(argv...), opts)
}

func newExecutor(cmd Command, opts []Option) *Executor {
	return &Executor{
		localProcess: localProcess{
			command: cmd,
			kind:    "local",
			opts:    newOptions(opts),
		},
	}
}

// Start spawns the command without waiting for it
func (e *Executor) Start(ctx context.Context) error {
	if !e.started.IsZero() {
		return util.NewCommandError(errAlreadyStarted, e.String())
	}

	proc := e.process(ctx)
	proc.Stdout = &e.stdout
	proc.Stderr = &e.stderr
	return e.spawn()
}

// Join waits for the command to exit, logs its output and returns the exit code
func (e *Executor) Join(ctx context.Context) (int, error) {
	if e.joined {
		return e.exitCode, nil
	}
	if e.started.IsZero() {
		return exitUnknown, util.NewCommandError(util.ErrNotStarted, e.String())
	}

	code, err := e.wait()
	if err != nil {
		return code, err
	}

	if err := e.report(); err != nil {
		return exitUnknown, util.NewCommandError(err, e.String())
	}
	return code, nil
}

// Stdout returns the captured standard output
func (e *Executor) Stdout() string {
	return e.stdout.String()
}

// Stderr returns the captured standard error
func (e *Executor) Stderr() string {
	return e.stderr.String()
}

// report logs the buffered output and copies it to the output sink
func (e *Executor) report() error {
	for _, buf := range []*bytes.Buffer{&e.stdout, &e.stderr} {
		scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			e.opts.logger.Debug("output", "cmd", e.String(), "line", scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read output: %w", err)
		}
	}

	if e.opts.output == nil {
		return nil
	}
	if _, err := e.opts.output.Write(e.stdout.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if _, err := e.opts.output.Write(e.stderr.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
