package kpath

import "klish/internal/kscheme"

// Purpose mirrors kscheme.Purpose for the request kind that produced a
// Pargv: the same token stream parses differently depending on whether
// the caller wants completion candidates, help text, or execution.
type Purpose int

const (
	PurposeComplete Purpose = iota
	PurposeHelp
	PurposeExec
)

// Parg pairs one matched entry with the literal token that matched it.
type Parg struct {
	Entry *kscheme.Entry
	Token string
}

// Pargv is the parser's output: an ordered vector of Pargs plus the
// bookkeeping the session and executor need (spec.md §4.D).
type Pargv struct {
	purpose Purpose

	pargs []Parg

	matchedCommand *kscheme.Entry // the command entry, once one is matched
	commandEnd     int            // index into pargs where the command's own parameters start

	completionEntries []*kscheme.Entry
	completionPrefix  string

	continuation bool // true if input was left over: unmatched trailing tokens, or an open quote/escape
}

// NewPargv starts an empty Pargv for the given request purpose.
func NewPargv(purpose Purpose) *Pargv {
	return &Pargv{purpose: purpose, commandEnd: -1}
}

// Append records one matched parg, in input order.
func (v *Pargv) Append(entry *kscheme.Entry, token string) {
	v.pargs = append(v.pargs, Parg{Entry: entry, Token: token})
}

// SetMatchedCommand records e as the command entry and the index
// (0-based into Pargs) where the command's own parameters begin.
func (v *Pargv) SetMatchedCommand(e *kscheme.Entry, paramsFrom int) {
	v.matchedCommand = e
	v.commandEnd = paramsFrom
}

// SetCompletions records the completion candidate set and the partial
// token (possibly empty) that produced it.
func (v *Pargv) SetCompletions(entries []*kscheme.Entry, prefix string) {
	v.completionEntries = entries
	v.completionPrefix = prefix
}

// SetContinuation marks that the parser stopped before the end of the
// input.
func (v *Pargv) SetContinuation(c bool) {
	v.continuation = c
}

// Pargs returns the matched pargs in insertion order. Callers must not
// mutate the returned slice.
func (v *Pargv) Pargs() []Parg {
	return v.pargs
}

// Last returns the most recently appended parg, or the zero Parg if
// empty.
func (v *Pargv) Last() (Parg, bool) {
	if len(v.pargs) == 0 {
		return Parg{}, false
	}
	return v.pargs[len(v.pargs)-1], true
}

// MatchedEntry returns the entry of the last parg, or nil.
func (v *Pargv) MatchedEntry() *kscheme.Entry {
	last, ok := v.Last()
	if !ok {
		return nil
	}
	return last.Entry
}

// MatchedCommand returns the command entry this pargv resolved to, and
// the pargs that are the command's own parameters (excluding the
// navigation prefix that led to it).
func (v *Pargv) MatchedCommand() (*kscheme.Entry, []Parg) {
	if v.matchedCommand == nil {
		return nil, nil
	}
	return v.matchedCommand, v.pargs[v.commandEnd:]
}

// CompletionEntrySet returns the candidate entries for completion
// purpose, and the partial token prefix they were filtered against.
func (v *Pargv) CompletionEntrySet() ([]*kscheme.Entry, string) {
	return v.completionEntries, v.completionPrefix
}

// ContinuationPrefix reports whether the parser stopped before the end
// of the input: trailing tokens matched no entry, or the input ended
// inside an open quote or trailing escape.
func (v *Pargv) ContinuationPrefix() bool {
	return v.continuation
}

// GetPurpose returns the request purpose that produced this pargv.
func (v *Pargv) GetPurpose() Purpose {
	return v.purpose
}
