package kscheme

import (
	"fmt"
	"strings"

	"klish/internal/ksym"
)

// Scheme is the runtime scheme (component B): a resolved, deduplicated,
// cross-referenced entry graph plus the symbol registry bound to it. It
// outlives every session built on it and is read-only after Prepare
// returns (spec.md §3 lifecycle, §5 shared resources).
type Scheme struct {
	arena []*Entry // indexed by Handle

	views  map[string]Handle // top-level view name -> handle
	ptypes map[string]Handle // top-level ptype name -> handle
	order  []string          // view names, declaration order

	Plugins *ksym.Registry
	Locks   *ksym.LockRegistry

	pendingRefs   []pendingRef
	pendingPtypes []pendingPtype
}

func newScheme() *Scheme {
	return &Scheme{
		views:   map[string]Handle{},
		ptypes:  map[string]Handle{},
		Plugins: ksym.NewRegistry(),
		Locks:   ksym.NewLockRegistry(),
	}
}

func (s *Scheme) alloc(e *Entry) Handle {
	e.Handle = Handle(len(s.arena))
	s.arena = append(s.arena, e)
	return e.Handle
}

// Entry dereferences a Handle. Panics on an out-of-range handle: a Handle
// obtained from this Scheme is always valid for the Scheme's lifetime.
func (s *Scheme) Entry(h Handle) *Entry {
	return s.arena[h]
}

// Views returns top-level view entries in declaration order.
func (s *Scheme) Views() []*Entry {
	out := make([]*Entry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.arena[s.views[name]])
	}
	return out
}

// View looks a top-level view up by name.
func (s *Scheme) View(name string) (*Entry, bool) {
	h, ok := s.views[name]
	if !ok {
		return nil, false
	}
	return s.arena[h], true
}

// Ptype looks a top-level ptype up by name.
func (s *Scheme) Ptype(name string) (*Entry, bool) {
	h, ok := s.ptypes[name]
	if !ok {
		return nil, false
	}
	return s.arena[h], true
}

// FindEntryByPath resolves a scheme path such as "/view/sub/cmd". A
// leading "/" anchors at the scheme root (ptypes, then views); segments
// are entry names; the lookup walks children in
// declared order (spec.md §4.B).
func (s *Scheme) FindEntryByPath(path string) (*Entry, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("find_entry_by_path: path %q must be absolute", path)
	}
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return nil, fmt.Errorf("find_entry_by_path: empty path")
	}

	var cur *Entry
	if h, ok := s.ptypes[segs[0]]; ok {
		cur = s.arena[h]
	} else if h, ok := s.views[segs[0]]; ok {
		cur = s.arena[h]
	} else {
		return nil, fmt.Errorf("find_entry_by_path: no root entry %q", segs[0])
	}

	for _, seg := range segs[1:] {
		next, ok := s.childByName(cur, seg)
		if !ok {
			return nil, fmt.Errorf("find_entry_by_path: %q has no child %q", cur.Path, seg)
		}
		cur = next
	}
	return cur, nil
}

func (s *Scheme) childByName(e *Entry, name string) (*Entry, bool) {
	for _, h := range e.Children {
		child := s.arena[h]
		if child.Name == name {
			return child, true
		}
	}
	return nil, false
}
