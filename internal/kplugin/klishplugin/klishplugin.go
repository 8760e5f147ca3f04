// Package klishplugin is the built-in sample plugin every scheme can
// reference: nav (path navigation), print/log (diagnostics), and shell
// (run an external command), mirroring the fixture plugin named in
// spec.md §1. It registers itself with ksym.RegisterPlugin the same way
// a database/sql driver registers itself from its own init().
package klishplugin

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"klish/internal/kexec"
	"klish/internal/ksym"
)

// Name is the plugin name scheme authors reference as "klish.nav",
// "klish.print", etc.
const Name = "klish"

// cancelledStatus is the shell convention for "terminated by signal N":
// 128+N, with N=15 (SIGTERM) since that is what kexec.Cancel sends first.
const cancelledStatus = 128 + 15

// defaultCancelGrace is used when a context carries no grace of its own
// (e.g. it predates the cancellation wiring, or CancelGrace() is zero).
const defaultCancelGrace = 3 * time.Second

func init() {
	ksym.RegisterPlugin(Name, build)
}

// navigator is the duck-typed subset of ksession.Session the nav symbol
// needs; kexec.Context.UserData("session") returns the concrete
// *ksession.Session, which satisfies this.
type navigator interface {
	HandleNav(script string) error
}

func build(b *ksym.Builder, conf string) (major, minor byte, err error) {
	log := logrus.WithField("plugin", Name)

	b.AddSymbol("nav", func(ctx ksym.Context) int {
		sess, _ := ctx.UserData("session").(navigator)
		if sess == nil {
			return 1
		}
		if err := sess.HandleNav(ctx.Script()); err != nil {
			log.WithError(err).Debug("nav failed")
			return 1
		}
		return 0
	}, ksym.Sync(true), ksym.Permanent(true))

	b.AddSymbol("print", func(ctx ksym.Context) int {
		out := os.NewFile(uintptr(ctx.Stdout()), "stdout")
		fmt.Fprint(out, ctx.Script())
		return 0
	}, ksym.Sync(true))

	b.AddSymbol("log", func(ctx ksym.Context) int {
		log.Info(ctx.Script())
		return 0
	}, ksym.Sync(true), ksym.Silent(true), ksym.Permanent(true))

	b.AddSymbol("shell", func(ctx ksym.Context) int {
		argv := ctx.Argv()
		script := ctx.Script()
		if script == "" && len(argv) > 0 {
			script = argv[0]
			argv = argv[1:]
		}
		if script == "" {
			return 1
		}
		cmd := exec.Command("/bin/sh", "-c", script, "--")
		cmd.Args = append(cmd.Args, argv...)
		cmd.Stdin = os.NewFile(uintptr(ctx.Stdin()), "stdin")
		cmd.Stdout = os.NewFile(uintptr(ctx.Stdout()), "stdout")
		cmd.Stderr = os.NewFile(uintptr(ctx.Stderr()), "stderr")

		if err := cmd.Start(); err != nil {
			return 1
		}

		waitDone := make(chan error, 1)
		go func() { waitDone <- cmd.Wait() }()

		select {
		case err := <-waitDone:
			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					return exitErr.ExitCode()
				}
				return 1
			}
			return 0
		case <-ctx.Done():
			grace := ctx.CancelGrace()
			if grace <= 0 {
				grace = defaultCancelGrace
			}
			if err := kexec.Cancel(int32(cmd.Process.Pid), grace); err != nil {
				log.WithError(err).Debug("cancel failed")
			}
			<-waitDone
			return cancelledStatus
		}
	})

	b.SetFini(func() int {
		log.Debug("klish plugin fini")
		return 0
	})

	return ksym.HostMajor, ksym.HostMinor, nil
}
