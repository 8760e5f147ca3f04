// Package kpath implements the navigation path (a LIFO stack of view
// levels) and the parsed-argument vector produced by the parser
// (component D).
package kpath

import "klish/internal/kscheme"

// Level is one entry on the Path stack: the view entered and the token
// that was current when it was pushed (used for prompt rendering).
type Level struct {
	View  *kscheme.Entry
	Token string
}

// Path is a LIFO stack of Levels; the top is the current view. Minimum
// depth is 1 at all observable moments between operations (I4) — callers
// must never Pop the last level.
type Path struct {
	levels []Level
}

// NewPath starts a path at root, the entry view a session begins in.
func NewPath(root *kscheme.Entry) *Path {
	return &Path{levels: []Level{{View: root}}}
}

// Push enters a new view, recording the token that caused the transition.
func (p *Path) Push(view *kscheme.Entry, token string) {
	p.levels = append(p.levels, Level{View: view, Token: token})
}

// Pop leaves the current view and returns to the previous one. Returns
// false without modifying the path if already at the minimum depth.
func (p *Path) Pop() bool {
	if len(p.levels) <= 1 {
		return false
	}
	p.levels = p.levels[:len(p.levels)-1]
	return true
}

// Current returns the top-of-stack view.
func (p *Path) Current() *kscheme.Entry {
	return p.levels[len(p.levels)-1].View
}

// Depth reports the number of levels on the stack.
func (p *Path) Depth() int {
	return len(p.levels)
}

// Levels returns the stack bottom-to-top. Callers must not mutate the
// returned slice.
func (p *Path) Levels() []Level {
	return p.levels
}

// Clone returns an independent copy; mutating the clone never affects p.
func (p *Path) Clone() *Path {
	out := make([]Level, len(p.levels))
	copy(out, p.levels)
	return &Path{levels: out}
}

// Replace discards every level above root and, unless view is the root
// view itself, pushes view as the new top.
func (p *Path) Replace(view *kscheme.Entry) {
	p.levels = p.levels[:1]
	if view != p.levels[0].View {
		p.levels = append(p.levels, Level{View: view})
	}
}

// Equal compares two paths level-wise from the root up, stopping at the shorter
// stack's length — so a path and a deeper extension of it compare equal
// at the point their common prefix agrees, matching the comparison rule
// used to detect "no-op navigation" between parse calls.
func (p *Path) Equal(o *Path) bool {
	n := len(p.levels)
	if len(o.levels) < n {
		n = len(o.levels)
	}
	for i := 0; i < n; i++ {
		if p.levels[i].View != o.levels[i].View {
			return false
		}
	}
	return true
}
