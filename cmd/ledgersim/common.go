package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kaspanet/ledgersim/infrastructure/logger"
	"github.com/kaspanet/ledgersim/version"
)

func printErrorAndExit(err error) {
	logger.BackendLog.Close()
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

// interruptContext returns a context that is cancelled on SIGINT or
// SIGTERM.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	interruptChannel := make(chan os.Signal, 1)
	signal.Notify(interruptChannel, os.Interrupt, syscall.SIGTERM)
	spawn("interruptContext", func() {
		select {
		case sig := <-interruptChannel:
			log.Infof("Received signal (%s). Shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interruptChannel)
	})
	return ctx, cancel
}

func showVersion() error {
	fmt.Println(version.Version())
	return nil
}
