// Package signal cancels in-flight LLM calls when the user interrupts the CLI.
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
)

// WithInterrupt returns a context that is cancelled on SIGINT or SIGTERM.
// Only the first signal is caught: a second Ctrl-C gets the default
// behaviour and ends the process.
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	return watch(parent, sigCh, func() { signal.Stop(sigCh) })
}

// watch cancels the returned context on the first value from sigCh, then
// calls stop. stop also runs when the context ends some other way.
func watch(parent context.Context, sigCh <-chan os.Signal, stop func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		defer stop()
		select {
		case sig := <-sigCh:
			clog.Debug("received signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// NotifyContext is WithInterrupt on a background context.
func NotifyContext() (context.Context, context.CancelFunc) {
	return WithInterrupt(context.Background())
}
