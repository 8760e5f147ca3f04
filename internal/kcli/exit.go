// Package kcli holds the small pieces cmd/klish and cmd/klishd share:
// a uniform error-exit helper, adapted from the teacher's pkg/lib.Exit
// to carry klish's distinct daemon/client exit code taxonomy (spec.md
// §6: 0 clean, 1 bad args, 2 scheme load failed, 3 socket error).
package kcli

import (
	"fmt"
	"os"
)

// ExitCode names the exit codes klishd's CLI surface promises (spec.md
// §6). klish (the client) only ever uses Clean/BadArgs.
type ExitCode int

const (
	Clean       ExitCode = 0
	BadArgs     ExitCode = 1
	SchemeLoad  ExitCode = 2
	SocketError ExitCode = 3
)

// Exit prints err to stderr and exits with code.
func Exit(code ExitCode, err error) {
	fmt.Fprintln(os.Stderr, "klish:", err)
	os.Exit(int(code))
}
