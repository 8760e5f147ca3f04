// Package kscheme implements the klish loaded-image model and the runtime
// scheme derived from it: views, ptypes, plugins and the entry graph they
// share, plus the two-stage load/prepare lifecycle.
package kscheme

import "errors"

// Sentinel errors wrapped by the richer *LoadError below. Callers that only
// care about the kind can use errors.Is against these.
var (
	ErrMissingAttribute    = errors.New("missing attribute")
	ErrIllegalValue        = errors.New("illegal value")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrUnresolvedRef       = errors.New("unresolved ref")
	ErrAmbiguousSymbol     = errors.New("ambiguous symbol")
	ErrIncompatiblePlugin  = errors.New("incompatible plugin version")
	ErrCycle               = errors.New("cycle in ref chain")
	ErrUnknownPtype        = errors.New("ptype reference does not resolve to a ptype entry")
)

// LoadError is one accumulated failure from Prepare. The loader never
// short-circuits on the first error: every failure found is collected into
// an *ErrorStack and reported together (spec.md §7 propagation policy).
type LoadError struct {
	Kind error  // one of the Err* sentinels above
	Path string // scheme path of the offending entry/plugin/action, best effort
	Msg  string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return e.Path + ": " + e.Msg
	}
	return e.Msg
}

func (e *LoadError) Unwrap() error { return e.Kind }

// ErrorStack accumulates LoadErrors across a single Prepare call.
type ErrorStack struct {
	Errors []*LoadError
}

func (s *ErrorStack) add(kind error, path, msg string) {
	s.Errors = append(s.Errors, &LoadError{Kind: kind, Path: path, Msg: msg})
}

func (s *ErrorStack) Empty() bool { return len(s.Errors) == 0 }

func (s *ErrorStack) Error() string {
	if len(s.Errors) == 0 {
		return "no errors"
	}
	msg := s.Errors[0].Error()
	if len(s.Errors) > 1 {
		msg += " (+more)"
	}
	return msg
}

// AsErrorStack pulls an *ErrorStack out of a prepare error, for callers that
// want to enumerate every failure rather than just the summary string.
func AsErrorStack(err error) (*ErrorStack, bool) {
	es, ok := err.(*ErrorStack)
	return es, ok
}
