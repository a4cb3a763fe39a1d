package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"mediakeep/internal/writerun"
)

const (
	exitFailure     = 1
	exitLocked      = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}

func execute(args []string, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	err := cmd.Execute()
	code := exitCode(err)
	if err != nil && code != exitInterrupted {
		fmt.Fprintf(stderr, "mediakeep: %v\n", err)
	}
	return code
}

// exitCode lets scripts tell a busy catalog apart from a failed run.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, writerun.ErrRunInProgress):
		return exitLocked
	default:
		return exitFailure
	}
}
