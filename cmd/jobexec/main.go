package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/aryankumar/jobexec/internal/cli"
	"github.com/aryankumar/jobexec/internal/executor"
	"github.com/aryankumar/jobexec/internal/metrics"
	"github.com/aryankumar/jobexec/internal/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollectorWithRegistry(promRegistry)
	registry := executor.NewRegistry(nil, collector)

	// Cancel submitted cluster jobs before the root context goes away
	ctx := util.SetupSignalHandler(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := registry.StopRunningJobs(stopCtx); err != nil {
			slog.Error("failed to cancel running jobs", "error", err)
		}
	})

	err := cli.Execute(ctx, cli.Runtime{
		Registry:  registry,
		Collector: collector,
		Gatherer:  promRegistry,
	})
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	slog.Error("command failed", "error", util.FriendlyError(err))
	os.Exit(1)
}
