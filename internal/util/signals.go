package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler creates a context that is cancelled on receiving SIGINT or SIGTERM.
// The shutdown hooks run, in order, before the context is cancelled, so anything
// blocked on the context observes a completed shutdown.
// A second signal will force immediate exit.
func SetupSignalHandler(hooks ...func()) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig.String(), "hooks", len(hooks))

		go func() {
			sig := <-sigCh
			slog.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
			os.Exit(1)
		}()

		for _, hook := range hooks {
			hook()
		}
		cancel()
	}()

	return ctx
}
