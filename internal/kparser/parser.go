// Package kparser implements the recursive token matcher (component E):
// parse(scheme, view, tokens, purpose) is a pure function from a view
// entry and a token stream to a Pargv (spec.md §4.E, invariant I5).
//
// Matching follows the same three-phase shape as the teacher's dsl.Engine
// (validate/expand/validate): here it is match-one-entry / recurse-into-
// children / accumulate-pargv, driven by each entry's Mode.
package kparser

import (
	"strings"

	"klish/internal/kpath"
	"klish/internal/kscheme"
)

// TokenRunner executes a ptype's (or completion/help sub-entry's) actions
// against a candidate token and reports its exit status and stdout. The
// parser itself never runs a process; it is supplied this by the caller
// (the session, which owns the executor) to keep parsing pure over the
// scheme (I5) and free of kexec's process-management concerns.
type TokenRunner interface {
	RunPtype(ptype *kscheme.Entry, token string) (status int, stdout []string, err error)
}

// Parse matches tokens against view's children, per spec.md §4.E. It
// never mutates scheme, view, or tokens.
func Parse(view *kscheme.Entry, scheme *kscheme.Scheme, tokens []string, purpose kpath.Purpose, runner TokenRunner) *kpath.Pargv {
	p := &parser{scheme: scheme, runner: runner, purpose: purpose}
	pv := kpath.NewPargv(purpose)

	consumed, _ := p.matchChildren(view, tokens, pv)

	if consumed < len(tokens) {
		// Unmatched trailing input on an exec request is a hard failure;
		// the caller (ksession) turns this into a taxonomy error using
		// the recorded pargv state. For complete/help it just means the
		// cursor sits past the deepest point the parser could reach.
		pv.SetContinuation(true)
	}

	return pv
}

type parser struct {
	scheme  *kscheme.Scheme
	runner  TokenRunner
	purpose kpath.Purpose
}

// matchChildren consumes as many leading tokens as possible against
// view's children according to view's Mode, appending a Parg to pv for
// every token consumed. It returns the number of tokens consumed and
// whether a completion candidate set was recorded somewhere along the
// way (so an enclosing call knows not to overwrite it with a shallower,
// less specific one).
func (p *parser) matchChildren(view *kscheme.Entry, tokens []string, pv *kpath.Pargv) (int, bool) {
	switch view.Mode {
	case kscheme.ModeEmpty:
		return 0, false
	case kscheme.ModeSwitch:
		return p.matchSwitch(view, tokens, pv)
	default:
		return p.matchSequence(view, tokens, pv)
	}
}

// matchSequence tries each child left-to-right; each child consumes
// [min,max] repetitions of itself before the parser moves to the next
// child. A required child (min>0) that matches zero tokens fails the
// whole sequence for purpose=exec.
func (p *parser) matchSequence(view *kscheme.Entry, tokens []string, pv *kpath.Pargv) (int, bool) {
	pos := 0
	recorded := false
	for _, h := range view.Children {
		child := p.scheme.Entry(h)
		reps := 0
		for reps < child.Max && pos < len(tokens) {
			if !p.matchOne(child, tokens[pos]) {
				break
			}
			pv.Append(child, tokens[pos])
			p.maybeSetCommand(child, pv)
			pos++
			reps++
			if child.Container {
				sub, rec := p.matchChildren(child, tokens[pos:], pv)
				pos += sub
				recorded = recorded || rec
			}
		}
		if reps < child.Min && p.purpose == kpath.PurposeExec {
			return pos, recorded
		}
	}
	if !recorded {
		recorded = p.recordCandidates(view.Children, tokens, pos, pv)
	}
	return pos, recorded
}

// matchSwitch tries candidates in declaration order; the first
// fully-matching child wins for purpose=exec. Ties (same consumed-token
// count) favor longer match, then earlier declaration — declaration
// order already gives us "earlier declaration" for free since we keep
// the first maximal match seen.
func (p *parser) matchSwitch(view *kscheme.Entry, tokens []string, pv *kpath.Pargv) (int, bool) {
	if len(tokens) == 0 {
		return 0, p.recordCandidates(view.Children, tokens, 0, pv)
	}

	bestConsumed := -1
	var bestChild *kscheme.Entry
	var bestPv *kpath.Pargv
	bestRecorded := false

	for _, h := range view.Children {
		child := p.scheme.Entry(h)
		if !p.matchOne(child, tokens[0]) {
			continue
		}
		trial := kpath.NewPargv(p.purpose)
		trial.Append(child, tokens[0])
		p.maybeSetCommand(child, trial)
		consumed := 1
		recorded := false
		if child.Container {
			sub, rec := p.matchChildren(child, tokens[1:], trial)
			consumed += sub
			recorded = rec
		}
		if consumed > bestConsumed {
			bestConsumed = consumed
			bestChild = child
			bestPv = trial
			bestRecorded = recorded
		}
	}

	if bestChild == nil {
		return 0, p.recordCandidates(view.Children, tokens, 0, pv)
	}
	start := len(pv.Pargs())
	for _, parg := range bestPv.Pargs() {
		pv.Append(parg.Entry, parg.Token)
	}
	if cmd, params := bestPv.MatchedCommand(); cmd != nil {
		pv.SetMatchedCommand(cmd, start+len(bestPv.Pargs())-len(params))
	}
	if bestRecorded {
		entries, prefix := bestPv.CompletionEntrySet()
		pv.SetCompletions(entries, prefix)
		return bestConsumed, true
	}
	if bestConsumed < len(tokens) {
		return bestConsumed, p.recordCandidates(view.Children, tokens, bestConsumed, pv)
	}
	return bestConsumed, false
}

// matchOne applies the three match rules from spec.md §4.E in order:
// literal value restriction, then name equality for non-ptype entries,
// then ptype validation.
func (p *parser) matchOne(e *kscheme.Entry, token string) bool {
	if len(e.Value) > 0 {
		for _, v := range e.Value {
			if v == token {
				return true
			}
		}
		return false
	}
	if e.Ptype == kscheme.NoHandle {
		return e.Name == token
	}
	if p.runner == nil {
		return false
	}
	ptype := p.scheme.Entry(e.Ptype)
	status, _, err := p.runner.RunPtype(ptype, token)
	return err == nil && status == 0
}

func (p *parser) maybeSetCommand(e *kscheme.Entry, pv *kpath.Pargv) {
	if len(e.Actions) > 0 {
		pv.SetMatchedCommand(e, len(pv.Pargs()))
	}
}

// recordCandidates sets pv's completion candidate set to whichever of
// children can still match prefix (the token at tokens[pos], or "" if
// pos is past the end of tokens), and reports whether it recorded
// anything. It is a no-op for purpose=exec, which never needs
// candidates.
func (p *parser) recordCandidates(children []kscheme.Handle, tokens []string, pos int, pv *kpath.Pargv) bool {
	if p.purpose == kpath.PurposeExec {
		return false
	}
	prefix := ""
	if pos < len(tokens) {
		prefix = tokens[pos]
	}
	var out []*kscheme.Entry
	for _, h := range children {
		e := p.scheme.Entry(h)
		if entryMatchesPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	pv.SetCompletions(out, prefix)
	return true
}

// entryMatchesPrefix reports whether e could still match a token that
// starts with prefix: literal values and plain names are filtered by
// string prefix, ptype-validated entries are always offered since
// validity can't be decided without running the ptype.
func entryMatchesPrefix(e *kscheme.Entry, prefix string) bool {
	if len(e.Value) > 0 {
		for _, v := range e.Value {
			if strings.HasPrefix(v, prefix) {
				return true
			}
		}
		return false
	}
	if e.Ptype == kscheme.NoHandle {
		return strings.HasPrefix(e.Name, prefix)
	}
	return true
}
