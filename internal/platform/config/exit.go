package config

import (
	"fmt"
	"io"
	"os"
)

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Exitf prints a formatted message to stderr and exits with status 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(stderr, format+"\n", args...)
	exit(1)
}

// ExitOnError exits through Exitf as "<tool>: <err>" when err is non-nil.
func ExitOnError(tool string, err error) {
	if err == nil {
		return
	}
	Exitf("%s: %v", tool, err)
}
