// Command syncctl runs catalog syncs from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// Exit codes of syncctl run
const (
	exitCompleted           = 0
	exitCompletedWithErrors = 1
	exitAborted             = 2
)

// exitError carries a process exit code out of a command
type exitError struct {
	code   int
	status string
}

func (e *exitError) Error() string {
	return fmt.Sprintf("sync finished with status %s", e.status)
}

func exitCode(err error) int {
	if err == nil {
		return exitCompleted
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// nothing was applied
	return exitAborted
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	var ee *exitError
	if err != nil && !errors.As(err, &ee) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}
