package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aryankumar/jobexec/internal/util"
)

// ArrayExecutor runs several commands concurrently, one StreamExecutor per
// command, and joins them back in input order.
type ArrayExecutor struct {
	runners []JobRunner
	opts    options

	done    chan struct{}
	results []Result
}

// NewArrayExecutor creates an ArrayExecutor with one StreamExecutor per command
func NewArrayExecutor(cmds []string, opts ...Option) *ArrayExecutor {
	runners := make([]JobRunner, len(cmds))
	for i, cmd := range cmds {
		runners[i] = NewStreamExecutor(cmd, opts...)
	}
	return NewArrayExecutorOf(runners, opts...)
}

// NewArrayExecutorOf composes already constructed runners
func NewArrayExecutorOf(runners []JobRunner, opts ...Option) *ArrayExecutor {
	return &ArrayExecutor{
		runners: runners,
		opts:    newOptions(opts),
	}
}

// Runners returns the sub-executors in input order
func (a *ArrayExecutor) Runners() []JobRunner {
	return a.runners
}

// String lists the commands
func (a *ArrayExecutor) String() string {
	return strings.Join(a.commands(), ", ")
}

func (a *ArrayExecutor) commands() []string {
	cmds := make([]string, len(a.runners))
	for i, r := range a.runners {
		cmds[i] = r.String()
	}
	return cmds
}

// Start launches every sub-executor, each on its own worker unless WithParallel caps it
func (a *ArrayExecutor) Start(ctx context.Context) error {
	if a.done != nil {
		return util.NewCommandError(errAlreadyStarted, a.commands()...)
	}

	workers := len(a.runners)
	if a.opts.parallel > 0 && a.opts.parallel < workers {
		workers = a.opts.parallel
	}

	pool := NewPool(workers, a.opts.logger)
	for i, r := range a.runners {
		runner := r
		name := runner.String()
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}

		err := pool.Submit(Task{
			Name: name,
			Run: func(ctx context.Context) (int, error) {
				if err := runner.Start(ctx); err != nil {
					return exitUnknown, err
				}
				return runner.Join(ctx)
			},
		})
		if err != nil {
			return util.NewCommandError(err, a.commands()...)
		}
	}

	a.opts.logger.Info("starting array", "commands", len(a.runners), "workers", workers)

	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		a.results = pool.Execute(ctx)
	}()
	return nil
}

// Join waits for every sub-executor. It returns 0 if all exited 0, otherwise 127.
func (a *ArrayExecutor) Join(ctx context.Context) (int, error) {
	if a.done == nil {
		return exitUnknown, util.NewCommandError(util.ErrNotStarted, a.commands()...)
	}
	<-a.done

	if errs := GetErrors(a.results); len(errs) > 0 {
		return exitUnknown, util.NewCommandError(errors.Join(errs...), a.commands()...)
	}

	code := AggregateExitCode(a.results)
	a.opts.logger.Info("array finished",
		"summary", Summarize(a.results).String(),
		"exit_code", code)
	return code, nil
}

// ExitStatuses returns each command's exit code in input order, nil before Join
func (a *ArrayExecutor) ExitStatuses() []int {
	if !a.finished() {
		return nil
	}
	return ExitCodes(a.results)
}

// Results returns per-command results in input order, nil before Join
func (a *ArrayExecutor) Results() []Result {
	if !a.finished() {
		return nil
	}
	return a.results
}

func (a *ArrayExecutor) finished() bool {
	if a.done == nil {
		return false
	}
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}
