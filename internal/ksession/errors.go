package ksession

import "errors"

// ErrNoMatch is returned by ParseForExec when purpose=exec input does not
// match any command in the current view (spec.md §4.E edge cases, §7
// taxonomy "failed to match").
var ErrNoMatch = errors.New("no matching command")
