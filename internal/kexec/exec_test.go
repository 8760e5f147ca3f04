package kexec

import (
	"bufio"
	"io"
	"os"
	"testing"

	"klish/internal/kpath"
	"klish/internal/kscheme"
	"klish/internal/ksym"
)

func init() {
	ksym.RegisterPlugin("kexec_test_plugin", func(b *ksym.Builder, conf string) (byte, byte, error) {
		b.AddSymbol("write", func(ctx ksym.Context) int {
			f := os.NewFile(uintptr(ctx.Stdout()), "w")
			io.WriteString(f, ctx.Script()+"\n")
			return 0
		}, ksym.Sync(true))
		b.AddSymbol("fail", func(ctx ksym.Context) int { return 7 }, ksym.Sync(true))
		b.AddSymbol("permanent", func(ctx ksym.Context) int {
			f := os.NewFile(uintptr(ctx.Stdout()), "w")
			io.WriteString(f, "permanent-ran\n")
			return 0
		}, ksym.Sync(true), ksym.Permanent(true))
		b.AddSymbol("transient", func(ctx ksym.Context) int {
			f := os.NewFile(uintptr(ctx.Stdout()), "w")
			io.WriteString(f, "transient-ran\n")
			return 0
		}, ksym.Sync(true))
		return ksym.HostMajor, ksym.HostMinor, nil
	})
}

func buildTestScheme(t *testing.T, actions []kscheme.ActionImage) (*kscheme.Scheme, *kscheme.Entry) {
	t.Helper()
	img := kscheme.Image{
		Plugins: []kscheme.PluginImage{{Name: "kexec_test_plugin"}},
		Views: []kscheme.EntryImage{
			{Name: "main", Entries: []kscheme.EntryImage{{Name: "cmd", Actions: actions}}},
		},
	}
	s, err := kscheme.Prepare(img)
	if err != nil {
		t.Fatalf("unexpected prepare error: %v", err)
	}
	view, _ := s.View("main")
	return s, s.Entry(view.Children[0])
}

func runSingleContext(t *testing.T, s *kscheme.Scheme, cmd *kscheme.Entry, dryRun bool) string {
	t.Helper()
	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("failed to open devnull: %v", err)
	}
	defer devnull.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to open pipe: %v", err)
	}

	plan := &Plan{Contexts: []*Context{{
		Command: cmd,
		Pargv:   kpath.NewPargv(kpath.PurposeExec),
		Actions: cmd.Actions,
		Stdin:   devnull,
		Stdout:  w,
		Stderr:  devnull,
	}}}

	ex := NewExecutor(s, dryRun)
	readDone := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(bufio.NewReader(r))
		readDone <- string(data)
	}()

	if err := ex.Run(plan); err != nil {
		t.Fatalf("unexpected Run error: %v", err)
	}
	w.Close()
	out := <-readDone
	r.Close()
	return out
}

func TestExecutor_RunsActionsInOrder(t *testing.T) {
	s, cmd := buildTestScheme(t, []kscheme.ActionImage{
		{Symbol: "write", Script: "first"},
		{Symbol: "write", Script: "second"},
	})
	out := runSingleContext(t, s, cmd, false)
	if out != "first\nsecond\n" {
		t.Fatalf("expected actions to run in declaration order, got %q", out)
	}
}

func TestExecutor_ExecOnGatesOnAccumulatedRetcode(t *testing.T) {
	s, cmd := buildTestScheme(t, []kscheme.ActionImage{
		{Symbol: "fail", ExecOn: kscheme.ExecOnAlways, UpdateRetcode: true},
		{Symbol: "write", Script: "on-fail", ExecOn: kscheme.ExecOnFail},
		{Symbol: "write", Script: "on-success", ExecOn: kscheme.ExecOnSuccess},
	})
	out := runSingleContext(t, s, cmd, false)
	if out != "on-fail\n" {
		t.Fatalf("expected only the exec_on=fail action to run, got %q", out)
	}
}

func TestExecutor_InterruptStopsOnNonzero(t *testing.T) {
	s, cmd := buildTestScheme(t, []kscheme.ActionImage{
		{Symbol: "fail", Interrupt: true, UpdateRetcode: true},
		{Symbol: "write", Script: "unreachable"},
	})
	out := runSingleContext(t, s, cmd, false)
	if out != "" {
		t.Fatalf("expected interrupt to stop the action list, got %q", out)
	}
}

func TestExecutor_DryRunOnlyRunsPermanentSymbols(t *testing.T) {
	s, cmd := buildTestScheme(t, []kscheme.ActionImage{
		{Symbol: "transient"},
		{Symbol: "permanent"},
	})
	out := runSingleContext(t, s, cmd, true)
	if out != "permanent-ran\n" {
		t.Fatalf("expected only the permanent symbol to run in dry-run, got %q", out)
	}
}

func TestPlan_RetcodeIsLastContext(t *testing.T) {
	plan := &Plan{Contexts: []*Context{{Retcode: 1}, {Retcode: 0}, {Retcode: 9}}}
	if got := plan.Retcode(); got != 9 {
		t.Fatalf("expected plan retcode to be the last context's, got %d", got)
	}
	if (&Plan{}).Retcode() != 0 {
		t.Fatal("expected an empty plan's retcode to be 0")
	}
}
