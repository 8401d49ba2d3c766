package executor_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aryankumar/jobexec/internal/config"
	"github.com/aryankumar/jobexec/internal/executor"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Example runs one command and reports its exit code
func Example() {
	ctx := context.Background()
	e := executor.NewExecutor("echo hello", executor.WithLogger(quietLogger()), executor.WithOutput(os.Stdout))

	if err := e.Start(ctx); err != nil {
		fmt.Println("start failed:", err)
		return
	}

	code, err := e.Join(ctx)
	if err != nil {
		fmt.Println("join failed:", err)
		return
	}
	fmt.Println("exit code:", code)
	// Output:
	// hello
	// exit code: 0
}

// ExampleArrayExecutor runs commands concurrently and reports them in input order
func ExampleArrayExecutor() {
	ctx := context.Background()
	a := executor.NewArrayExecutor([]string{"exit 0", "exit 3", "a_command_that_does_not_exist_jobexec"},
		executor.WithLogger(quietLogger()))

	if err := a.Start(ctx); err != nil {
		fmt.Println("start failed:", err)
		return
	}

	code, err := a.Join(ctx)
	if err != nil {
		fmt.Println("join failed:", err)
		return
	}
	fmt.Println("array exit code:", code)
	fmt.Println("statuses:", a.ExitStatuses())
	// Output:
	// array exit code: 127
	// statuses: [0 3 127]
}

// ExampleDispatcher_Execute picks the environment from configuration
func ExampleDispatcher_Execute() {
	ctx := context.Background()
	d := executor.NewDispatcher(config.ExecutorConfig{JobExecution: config.EnvSlurm}, nil, quietLogger(), nil)

	job, err := d.Execute(ctx, []string{"exit 1"}, executor.WithJobExecution(config.EnvLocal))
	if err != nil {
		fmt.Println("execute failed:", err)
		return
	}

	code, _ := job.Join(ctx)
	fmt.Println(job, "exited", code)
	// Output:
	// exit 1 exited 1
}

// ExamplePool_ExecuteWithProgress reports progress as tasks finish
func ExamplePool_ExecuteWithProgress() {
	pool := executor.NewPool(1, quietLogger())
	for i := 0; i < 3; i++ {
		code := i
		pool.Submit(executor.Task{
			Name: fmt.Sprintf("task-%d", i),
			Run: func(ctx context.Context) (int, error) {
				return code, nil
			},
		})
	}

	results := pool.ExecuteWithProgress(context.Background(), func(completed, total int) {
		fmt.Printf("progress: %d/%d\n", completed, total)
	})

	fmt.Println(executor.CountSuccessful(results), "of", len(results), "succeeded")
	// Output:
	// progress: 1/3
	// progress: 2/3
	// progress: 3/3
	// 1 of 3 succeeded
}
