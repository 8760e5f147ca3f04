// Package kexec implements the executor (component G): building a Plan
// from a pipeline of matched commands and running each Context's action
// list by calling the bound plugin symbols in-process, with segments
// joined by OS pipes (see DESIGN.md).
package kexec

import (
	"os"
	"time"

	"klish/internal/kpath"
	"klish/internal/kscheme"
)

// ContextKind distinguishes a plain action invocation from a
// service-action invocation (an action that stays resident across the
// context, e.g. a long-lived filter); both share the same wiring and
// retcode rules.
type ContextKind int

const (
	KindAction ContextKind = iota
	KindServiceAction
)

// Context is one pipeline segment: the matched command entry, its own
// pargv, the action list copied from the entry, and the stdio it runs
// with (spec.md §4.G).
type Context struct {
	Command *kscheme.Entry
	Pargv   *kpath.Pargv
	Actions []kscheme.Action
	Line    string

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	Retcode int

	// Session, if set, is exposed to symbols as UserData("session") so
	// the nav symbol can drive path navigation without kexec importing
	// ksession (which already imports kexec) — see klish/internal/kplugin.
	Session any

	// Cancel, if set, is closed when the caller requests cancellation of
	// the pipeline this context belongs to; it becomes ksym.Context.Done
	// for every action run in this context. CancelGrace is the
	// SIGTERM→SIGKILL window a symbol should honor once Cancel fires.
	Cancel      <-chan struct{}
	CancelGrace time.Duration
}

// Plan is an ordered, non-empty list of contexts produced by pipe-
// splitting one line (spec.md §4.G). Executor.Run wires segment N's
// stdout to segment N+1's stdin with OS pipes while executing in order.
type Plan struct {
	Contexts []*Context
}

// Retcode is the pipeline retcode: the retcode of the last segment.
func (p *Plan) Retcode() int {
	if len(p.Contexts) == 0 {
		return 0
	}
	return p.Contexts[len(p.Contexts)-1].Retcode
}
