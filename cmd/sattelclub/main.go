// Command sattelclub signs the configured riders up for the next group ride.
//
// Usage:
//
//	sattelclub run [--poll] [flags]
//	sattelclub init
//	sattelclub next
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const (
	ExitSuccess    = 0
	ExitIncomplete = 1
	ExitError      = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exit *exitError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return ExitError
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error {
	return &exitError{code: code, err: err}
}
