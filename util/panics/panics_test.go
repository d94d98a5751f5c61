package panics

import (
	"os"
	"testing"
	"time"

	"github.com/kaspanet/ledgersim/infrastructure/logger"
)

func TestGoroutineWrapperFuncHandlesPanics(t *testing.T) {
	exitCodes := make(chan int, 1)
	osExit = func(code int) {
		exitCodes <- code
		// Keep the goroutine from running past the exit
		select {}
	}
	defer func() { osExit = os.Exit }()

	log := logger.NewBackend().Logger("TEST")
	spawn := GoroutineWrapperFunc(log)
	spawn("panicking", func() {
		panic("boom")
	})

	select {
	case code := <-exitCodes:
		if code != 1 {
			t.Fatalf("expected exit code 1, got %d", code)
		}
	case <-time.After(exitHandlerTimeout + time.Second):
		t.Fatalf("the panic was not handled")
	}
}

func TestGoroutineWrapperFuncRunsFunction(t *testing.T) {
	done := make(chan struct{})
	spawn := GoroutineWrapperFunc(logger.NewBackend().Logger("TEST"))
	spawn("closing", func() {
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("the spawned function did not run")
	}
}
