package kexec

import (
	"os"
	"time"

	"klish/internal/kscheme"
	"klish/internal/ksym"
)

// actionContext adapts one action invocation's stdio and argv to the
// ksym.Context interface symbols are invoked through. Descriptors, not
// Go readers/writers, cross this boundary because a symbol may itself
// shell out via os/exec and wants fds it can hand to exec.Cmd.
type actionContext struct {
	script      string
	argv        []string
	stdin       *os.File
	stdout      *os.File
	stderr      *os.File
	retcode     *int
	plugin      *ksym.Plugin
	session     any
	cancel      <-chan struct{}
	cancelGrace time.Duration
}

func (c *actionContext) Script() string { return c.script }
func (c *actionContext) Argv() []string { return c.argv }
func (c *actionContext) Stdin() int     { return int(c.stdin.Fd()) }
func (c *actionContext) Stdout() int    { return int(c.stdout.Fd()) }
func (c *actionContext) Stderr() int    { return int(c.stderr.Fd()) }
func (c *actionContext) SetRetcode(r int) {
	*c.retcode = r
}
func (c *actionContext) Done() <-chan struct{}      { return c.cancel }
func (c *actionContext) CancelGrace() time.Duration { return c.cancelGrace }

// sessionUserDataKey is the magic plugin name a symbol passes to
// UserData to retrieve the owning Session (duck-typed, to avoid kexec
// importing ksession, which already imports kexec).
const sessionUserDataKey = "session"

func (c *actionContext) UserData(plugin string) any {
	if plugin == sessionUserDataKey {
		return c.session
	}
	if c.plugin == nil {
		return nil
	}
	if plugin == "" || c.plugin.Name == plugin {
		v, _ := c.plugin.UDataGet("")
		return v
	}
	return nil
}

// devNull opens /dev/null for a silent action's stdio (spec.md §4.G.c).
func devNull() (*os.File, error) {
	return os.OpenFile(os.DevNull, os.O_RDWR, 0)
}

// streamFile resolves a StreamDisposition against the segment's own
// stdio, returning the *os.File a symbol should see.
func streamFile(disp kscheme.StreamDisposition, segment *os.File, tty *os.File) (*os.File, error) {
	switch disp {
	case kscheme.StreamFalse, kscheme.StreamNone:
		return devNull()
	case kscheme.StreamTTY:
		if tty != nil {
			return tty, nil
		}
		return segment, nil
	default: // StreamTrue, or unset: inherit the segment's stream
		return segment, nil
	}
}
