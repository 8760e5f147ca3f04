// Package ksession implements the session (component F): a client's
// navigation state, terminal metadata, and the entry points the daemon
// calls to turn a line of input into completions, help text, or an
// executor plan (spec.md §4.F).
package ksession

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"klish/internal/kexec"
	"klish/internal/kparser"
	"klish/internal/kpath"
	"klish/internal/kscheme"
)

// PeerIdentity is the connecting client's OS identity, read once at
// connection time via gopsutil (spec.md §4.F "peer identity (pid, uid,
// user)").
type PeerIdentity struct {
	PID  int32
	UID  int32
	User string
}

// Geometry is terminal geometry plus isatty flags per stream (spec.md
// §4.F).
type Geometry struct {
	Rows, Cols           int
	StdinTTY, StdoutTTY, StderrTTY bool
}

// Session holds one client's navigation state against a shared,
// read-only Scheme (spec.md §4.F, §5 "the scheme is shared read-only").
type Session struct {
	scheme *kscheme.Scheme
	path   *kpath.Path
	done   bool

	geometry Geometry
	peer     PeerIdentity

	executor *kexec.Executor
	dryRun   bool
}

// New starts a session rooted at startView (defaulting to the view
// named "main" when startView is empty, spec.md §4.F).
func New(scheme *kscheme.Scheme, startView string, dryRun bool) (*Session, error) {
	if startView == "" {
		startView = "main"
	}
	root, ok := scheme.View(startView)
	if !ok {
		return nil, fmt.Errorf("ksession: no such view %q", startView)
	}
	return &Session{
		scheme:   scheme,
		path:     kpath.NewPath(root),
		executor: kexec.NewExecutor(scheme, dryRun),
		dryRun:   dryRun,
	}, nil
}

// SetGeometry records terminal geometry and isatty flags.
func (s *Session) SetGeometry(g Geometry) { s.geometry = g }

// Geometry returns the session's recorded terminal geometry.
func (s *Session) Geometry() Geometry { return s.geometry }

// SetPeerIdentity records the connecting client's pid/uid/user.
func (s *Session) SetPeerIdentity(p PeerIdentity) { s.peer = p }

// PeerIdentity returns the session's recorded peer identity.
func (s *Session) PeerIdentity() PeerIdentity { return s.peer }

// IdentifyPeer resolves pid's uid and username via gopsutil and returns
// the PeerIdentity to pass to SetPeerIdentity; split out so a caller
// without a real OS peer (tests, in-process clients) can skip it.
func IdentifyPeer(pid int32) (PeerIdentity, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return PeerIdentity{}, err
	}
	uids, err := proc.Uids()
	if err != nil {
		return PeerIdentity{PID: pid}, nil
	}
	username, _ := proc.Username()
	uid := int32(0)
	if len(uids) > 0 {
		uid = uids[0]
	}
	return PeerIdentity{PID: pid, UID: uid, User: username}, nil
}

// SetDone records a requested exit (nav action "exit", or falling off
// the root on "pop").
func (s *Session) SetDone(done bool) { s.done = done }

// Done reports whether the session has been asked to end.
func (s *Session) Done() bool { return s.done }

// Hotkeys returns the hotkey bindings declared on the current view, for
// a client to query and bind in its own line editor.
func (s *Session) Hotkeys() []kscheme.HotkeyImage {
	return s.path.Current().Hotkeys
}

// ParseForCompletion implements parse_for_completion(line).
func (s *Session) ParseForCompletion(line string) *kpath.Pargv {
	return s.parse(line, kpath.PurposeComplete)
}

// ParseForHelp implements parse_for_help(line).
func (s *Session) ParseForHelp(line string) *kpath.Pargv {
	return s.parse(line, kpath.PurposeHelp)
}

func (s *Session) parse(line string, purpose kpath.Purpose) *kpath.Pargv {
	tokens, continuation := kparser.Tokenize(line)
	pv := kparser.Parse(s.path.Current(), s.scheme, tokens, purpose, &ptypeRunner{s})
	if continuation {
		pv.SetContinuation(true)
	}
	return pv
}

// ParseForExec implements parse_for_exec(line): splits the line into
// pipe segments, parses each against the current view, and builds an
// executor Plan with one context per segment (spec.md §4.F, §4.G).
func (s *Session) ParseForExec(line string) (*kexec.Plan, error) {
	segments := kparser.SplitPipes(line)
	plan := &kexec.Plan{}

	for _, seg := range segments {
		tokens, continuation := kparser.Tokenize(seg)
		if continuation {
			return nil, fmt.Errorf("ksession: unterminated quote or escape in %q", seg)
		}
		pv := kparser.Parse(s.path.Current(), s.scheme, tokens, kpath.PurposeExec, &ptypeRunner{s})
		cmd, _ := pv.MatchedCommand()
		if cmd == nil {
			return nil, fmt.Errorf("ksession: %w: %q", ErrNoMatch, strings.TrimSpace(seg))
		}
		plan.Contexts = append(plan.Contexts, &kexec.Context{
			Command: cmd,
			Pargv:   pv,
			Actions: cmd.Actions,
			Line:    seg,
			Session: s,
		})
	}

	if len(plan.Contexts) == 0 {
		return nil, fmt.Errorf("ksession: %w: empty input", ErrNoMatch)
	}
	return plan, nil
}

// Execute runs a Plan built by ParseForExec against this session's
// executor, wiring its first/last segment stdio to stdin/stdout/stderr
// first (normally the client's own channels). cancel, if non-nil, is
// handed to every context as its ksym.Context.Done signal so an
// OS-process symbol (e.g. shell) can terminate its child on request.
func (s *Session) Execute(plan *kexec.Plan, stdin, stdout, stderr *os.File, cancel <-chan struct{}, cancelGrace time.Duration) error {
	if len(plan.Contexts) == 0 {
		return nil
	}
	plan.Contexts[0].Stdin = stdin
	plan.Contexts[len(plan.Contexts)-1].Stdout = stdout
	for _, c := range plan.Contexts {
		c.Stderr = stderr
		c.Cancel = cancel
		c.CancelGrace = cancelGrace
	}
	return s.executor.Run(plan)
}

// ExecLocally runs entry's own actions synchronously against parentPargv
// (used by ptype/cond/prompt invocations, which must complete inline
// before parsing can continue — spec.md §4.F).
func (s *Session) ExecLocally(entry *kscheme.Entry, parentPargv *kpath.Pargv) int {
	plan := &kexec.Plan{Contexts: []*kexec.Context{{
		Command: entry,
		Pargv:   parentPargv,
		Actions: entry.Actions,
	}}}
	if err := s.executor.Run(plan); err != nil {
		return 1
	}
	return plan.Retcode()
}

// HandleNav applies one navigation script line to the session's path,
// per the grammar in spec.md §4.F: push/pop/top/replace/exit.
func (s *Session) HandleNav(script string) error {
	fields := strings.Fields(script)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "push":
		if len(fields) < 2 {
			return fmt.Errorf("ksession: nav push needs a view path")
		}
		view, err := s.scheme.FindEntryByPath(fields[1])
		if err != nil {
			return err
		}
		s.path.Push(view, fields[1])

	case "pop":
		n := 1
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		for i := 0; i < n; i++ {
			if !s.path.Pop() {
				s.done = true
				return nil
			}
		}

	case "top":
		for s.path.Pop() {
		}

	case "replace":
		if len(fields) < 2 {
			return fmt.Errorf("ksession: nav replace needs a view path")
		}
		view, err := s.scheme.FindEntryByPath(fields[1])
		if err != nil {
			return err
		}
		if s.path.Pop() {
			s.path.Push(view, fields[1])
		} else {
			// At the root: swap the root level itself, keeping depth 1.
			s.path = kpath.NewPath(view)
		}

	case "exit":
		s.done = true

	default:
		return fmt.Errorf("ksession: unknown nav command %q", fields[0])
	}

	return nil
}

// ptypeRunner adapts Session.ExecLocally to kparser.TokenRunner.
type ptypeRunner struct{ s *Session }

func (r *ptypeRunner) RunPtype(ptype *kscheme.Entry, token string) (int, []string, error) {
	pv := kpath.NewPargv(kpath.PurposeExec)
	pv.Append(ptype, token)
	status := r.s.ExecLocally(ptype, pv)
	return status, nil, nil
}
