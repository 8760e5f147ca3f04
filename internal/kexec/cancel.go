package kexec

import (
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Cancel signals pid with SIGTERM, then escalates to SIGKILL if it is
// still alive after grace (spec.md §4.H cancellation, §5 "cooperative at
// the OS-process boundary"). Only meaningful for actions that actually
// forked an OS process (a symbol that itself called os/exec). In-process
// symbols are not cancellable mid-call, and Executor.Run does not check
// for cancellation between segments: once started, a pipeline runs all
// of its segments.
func Cancel(pid int32, grace time.Duration) error {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Terminate(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		for {
			if running, _ := proc.IsRunning(); !running {
				close(done)
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
	}()

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		return proc.Kill()
	}
}
