package kscheme

import (
	"fmt"

	"klish/internal/ksym"
)

// Prepare builds the runtime Scheme from a loaded Image (spec.md §3
// lifecycle): it merges duplicate entries, resolves refs, loads plugins
// and binds symbols, binds ptype references, and validates invariants
// I1–I3. Every failure found is accumulated into the returned *ErrorStack
// and reported together — Prepare never stops at the first error
// (spec.md §7 propagation policy).
//
// On success the returned error is nil. On any failure the returned
// Scheme is nil and the error is always an *ErrorStack.
func Prepare(img Image) (*Scheme, error) {
	errs := &ErrorStack{}

	mergedPtypes := mergeSiblings(img.Ptypes)
	mergedViews := mergeSiblings(img.Views)

	s := newScheme()

	for _, e := range mergedPtypes {
		h := s.buildTree(e, "")
		s.ptypes[e.Name] = h
	}
	for _, e := range mergedViews {
		h := s.buildTree(e, "")
		s.views[e.Name] = h
		s.order = append(s.order, e.Name)
	}

	resolveRefs(s, errs)
	bindPtypes(s, errs)
	loadPlugins(s, img.Plugins, errs)
	bindSymbols(s, errs)

	if !errs.Empty() {
		return nil, errs
	}
	return s, nil
}

// buildTree allocates arena entries for e and its (already sibling-merged)
// children, recursively. It does not yet substitute ref targets — that
// needs every entry to exist first, since refs can point forward or to
// entries defined in a different top-level view.
func (s *Scheme) buildTree(e EntryImage, parentPath string) Handle {
	path := e.Name
	if parentPath != "" {
		path = parentPath + "/" + e.Name
	}

	entry := &Entry{
		Path:      path,
		Name:      e.Name,
		Help:      e.Help,
		Purpose:   e.Purpose,
		Mode:      e.Mode,
		Container: e.Container,
		Min:       e.Min,
		Max:       e.Max,
		Value:     e.Value,
		Restore:   e.Restore,
		Order:     e.Order,
		Access:    e.Access,
		Filter:    e.Filter,
		Ptype:     NoHandle,
		Hotkeys:   e.Hotkeys,
	}
	h := s.alloc(entry)

	for _, a := range normalizeActions(e.Actions) {
		entry.Actions = append(entry.Actions, Action{
			SymbolRef:     a.Symbol,
			Lock:          a.Lock,
			Interrupt:     a.Interrupt,
			ExecOn:        a.ExecOn,
			UpdateRetcode: a.UpdateRetcode,
			StdinDisp:     a.StdinDisp,
			StdoutDisp:    a.StdoutDisp,
			StderrDisp:    a.StderrDisp,
			Script:        a.Script,
		})
	}

	for _, child := range e.Entries {
		childHandle := s.buildTree(child, path)
		entry.Children = append(entry.Children, childHandle)
	}

	// refTargets and ptypeRefs are stashed on the side (not on Entry
	// itself) because Entry only exposes the resolved form; see
	// resolveRefs/bindPtypes below.
	if e.Ref != "" {
		s.pendingRefs = append(s.pendingRefs, pendingRef{handle: h, target: e.Ref})
	}
	if e.Ptype != "" {
		s.pendingPtypes = append(s.pendingPtypes, pendingPtype{handle: h, target: e.Ptype})
	}

	return h
}

type pendingRef struct {
	handle Handle
	target string
}

type pendingPtype struct {
	handle Handle
	target string
}

// resolveRefs implements I1: every ref resolves after load, and cycles in
// ref chains are forbidden. It iterates to a fixed point so that a ref
// chain (A refs B, B refs C) resolves in any declaration order, and
// reports a cycle if no progress is made in a full pass.
func resolveRefs(s *Scheme, errs *ErrorStack) {
	pending := s.pendingRefs
	s.pendingRefs = nil

	for len(pending) > 0 {
		var remaining []pendingRef
		progressed := false

		for _, pr := range pending {
			target, err := s.FindEntryByPath(pr.target)
			if err != nil {
				errs.add(ErrUnresolvedRef, s.arena[pr.handle].Path,
					fmt.Sprintf("ref %q: %v", pr.target, err))
				progressed = true // don't loop forever on a permanently-broken ref
				continue
			}
			if isStillPending(pending, target.Handle) {
				remaining = append(remaining, pr)
				continue
			}
			s.arena[pr.handle].Children = append(s.arena[pr.handle].Children, target.Children...)
			progressed = true
		}

		if !progressed {
			for _, pr := range remaining {
				errs.add(ErrCycle, s.arena[pr.handle].Path, fmt.Sprintf("cycle resolving ref %q", pr.target))
			}
			return
		}
		pending = remaining
	}
}

// isStillPending reports whether handle h itself carries an unresolved
// ref, in which case its children are not final yet and the
// caller must wait for a later pass.
func isStillPending(all []pendingRef, h Handle) bool {
	for _, pr := range all {
		if pr.handle == h {
			return true
		}
	}
	return false
}

// bindPtypes implements I2: every ptype reference names an entry with
// purpose=ptype.
func bindPtypes(s *Scheme, errs *ErrorStack) {
	for _, pp := range s.pendingPtypes {
		target, err := s.FindEntryByPath(pp.target)
		if err != nil {
			errs.add(ErrUnresolvedRef, s.arena[pp.handle].Path, fmt.Sprintf("ptype %q: %v", pp.target, err))
			continue
		}
		if target.Purpose != PurposePtype {
			errs.add(ErrUnknownPtype, s.arena[pp.handle].Path,
				fmt.Sprintf("ptype %q does not have purpose=ptype", pp.target))
			continue
		}
		s.arena[pp.handle].Ptype = target.Handle
	}
	s.pendingPtypes = nil
}

// loadPlugins instantiates every plugin named in the image via the ksym
// registration adapter and records incompatible-version/duplicate-name
// failures (spec.md §4.C).
func loadPlugins(s *Scheme, plugins []PluginImage, errs *ErrorStack) {
	for _, p := range plugins {
		p = p.withDefaults()
		built, err := ksym.Build(p.Name, p.ID, p.Global, p.Conf)
		if err != nil {
			errs.add(ErrIncompatiblePlugin, p.Name, err.Error())
			continue
		}
		if err := s.Plugins.Add(built); err != nil {
			errs.add(ErrDuplicateName, p.Name, err.Error())
		}
	}
}

// bindSymbols implements I3: every action's symbol resolves at
// prepare-time to exactly one plugin symbol.
func bindSymbols(s *Scheme, errs *ErrorStack) {
	for _, e := range s.arena {
		for i := range e.Actions {
			a := &e.Actions[i]
			sym, err := s.Plugins.Resolve(a.SymbolRef)
			if err != nil {
				errs.add(ErrAmbiguousSymbol, e.Path, err.Error())
				continue
			}
			a.Symbol = sym
		}
	}
}
