// Package panics turns panics in spawned goroutines into a logged, orderly
// process exit.
package panics

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

const exitHandlerTimeout = 5 * time.Second

// osExit is replaced in tests.
var osExit = os.Exit

// HandlePanic recovers a panic, logs it together with the stack trace of
// the goroutine that spawned the panicking one, and exits. It must be
// deferred directly.
func HandlePanic(log *logger.Logger, spawnStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}

	exit(log, fmt.Sprintf("Fatal error: %+v", err), debug.Stack(), spawnStackTrace)
}

// GoroutineWrapperFunc returns a function that runs f on a new named
// goroutine whose panics are handled by HandlePanic.
func GoroutineWrapperFunc(log *logger.Logger) func(name string, f func()) {
	return func(name string, f func()) {
		spawnStackTrace := debug.Stack()
		go func() {
			log.Tracef("Started goroutine `%s`", name)
			defer log.Tracef("Ended goroutine `%s`", name)
			defer HandlePanic(log, spawnStackTrace)
			f()
		}()
	}
}

func exit(log *logger.Logger, reason string, stackTrace []byte, spawnStackTrace []byte) {
	exitHandlerDone := make(chan struct{})
	go func() {
		log.Criticalf("Exiting: %s", reason)
		if spawnStackTrace != nil {
			log.Criticalf("Spawned from: %s", spawnStackTrace)
		}
		log.Criticalf("Stack trace: %s", stackTrace)
		log.Backend().Close()
		close(exitHandlerDone)
	}()

	select {
	case <-time.After(exitHandlerTimeout):
		fmt.Fprintln(os.Stderr, "Couldn't exit gracefully.")
	case <-exitHandlerDone:
	}
	fmt.Fprintln(os.Stderr, reason)
	osExit(1)
}
