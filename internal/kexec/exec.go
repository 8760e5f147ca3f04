package kexec

import (
	"os"

	"klish/internal/kscheme"
)

// Executor runs Plans built by a session from a parsed pipeline.
// DryRun, if true, restricts execution to permanent symbols (spec.md
// §4.G dry-run rule); the Scheme's Locks registry serializes named
// actions across sessions.
type Executor struct {
	Scheme *kscheme.Scheme
	DryRun bool
}

// NewExecutor builds an Executor bound to scheme's lock registry.
func NewExecutor(scheme *kscheme.Scheme, dryRun bool) *Executor {
	return &Executor{Scheme: scheme, DryRun: dryRun}
}

// Run executes every context in order, wiring segment N's stdout to
// segment N+1's stdin via OS pipes (spec.md §4.G "Stream wiring"). The
// first segment's stdin and the last segment's stdout/stderr are
// whatever the caller set on plan.Contexts[0]/[len-1] before calling Run
// — normally the session's client stdio.
func (ex *Executor) Run(plan *Plan) error {
	for i, c := range plan.Contexts {
		if i > 0 {
			// stdin for this segment is the read end of the pipe created
			// in the previous iteration; its write end was closed there.
		}
		var nextStdout *os.File
		var pipeWriter *os.File
		if i < len(plan.Contexts)-1 {
			r, w, err := os.Pipe()
			if err != nil {
				return err
			}
			plan.Contexts[i+1].Stdin = r
			nextStdout = w
			pipeWriter = w
		}

		out := c.Stdout
		if nextStdout != nil {
			out = nextStdout
		}

		if err := ex.runContext(c, out); err != nil {
			return err
		}
		if pipeWriter != nil {
			pipeWriter.Close()
		}
	}
	return nil
}

// runContext runs one segment's action list per the algorithm in
// spec.md §4.G: exec_on gating, lock acquisition, stdio wiring per
// disposition, sync-vs-goroutine dispatch, update_retcode/interrupt.
func (ex *Executor) runContext(c *Context, stdout *os.File) error {
	accumulated := 0

	for _, a := range c.Actions {
		if !shouldRun(a.ExecOn, accumulated) {
			continue
		}
		if ex.DryRun && a.Symbol != nil && !a.Symbol.Permanent {
			continue
		}

		release := ex.Scheme.Locks.Acquire(a.Lock)
		status := ex.runAction(a, c, stdout)
		release()

		if a.UpdateRetcode {
			accumulated = status
		}
		if a.Interrupt && status != 0 {
			break
		}
	}

	c.Retcode = accumulated
	return nil
}

func shouldRun(on kscheme.ExecOn, retcode int) bool {
	switch on {
	case kscheme.ExecOnFail:
		return retcode != 0
	case kscheme.ExecOnSuccess:
		return retcode == 0
	case kscheme.ExecOnNever:
		return false
	default: // always, or unset
		return true
	}
}

// runAction wires a single action's stdio and invokes its bound symbol,
// inline if the symbol is sync or as a cooperative goroutine otherwise
// (Go has no fork; a goroutine gives the same "isolated but
// cooperatively scheduled" property spec.md §4.G.d asks for).
func (ex *Executor) runAction(a kscheme.Action, c *Context, stdout *os.File) int {
	if a.Symbol == nil {
		return 1
	}

	stdin, stderr := c.Stdin, c.Stderr
	if a.Symbol.Silent {
		if n, err := devNull(); err == nil {
			stdin, stdout, stderr = n, n, n
			defer n.Close()
		}
	} else {
		if f, err := streamFile(a.StdinDisp, c.Stdin, nil); err == nil {
			stdin = f
		}
		if f, err := streamFile(a.StdoutDisp, stdout, nil); err == nil {
			stdout = f
		}
		if f, err := streamFile(a.StderrDisp, c.Stderr, nil); err == nil {
			stderr = f
		}
	}

	retcode := 0
	actx := &actionContext{
		script:      a.Script,
		argv:        argvFromPargv(c),
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
		retcode:     &retcode,
		plugin:      a.Symbol.Plugin,
		session:     c.Session,
		cancel:      c.Cancel,
		cancelGrace: c.CancelGrace,
	}

	if a.Symbol.Sync {
		return a.Symbol.Fn(actx)
	}

	done := make(chan int, 1)
	go func() { done <- a.Symbol.Fn(actx) }()
	return <-done
}

func argvFromPargv(c *Context) []string {
	if c.Pargv == nil {
		return nil
	}
	pargs := c.Pargv.Pargs()
	argv := make([]string, 0, len(pargs))
	for _, p := range pargs {
		argv = append(argv, p.Token)
	}
	return argv
}
