package kscheme

import "klish/internal/ksym"

// ---------------------------------------------------------------------------
// Runtime scheme (component B)
// ---------------------------------------------------------------------------
//
// The runtime scheme is an arena of Entry records addressed by integer
// Handle, not a tree of pointers: refs (spec.md §3, I1) let two scheme
// paths share the same children, which is naturally a DAG over handles
// rather than an ownership tree (see DESIGN.md / spec.md §9 design notes).

// Handle addresses an Entry in a Scheme's arena. Handles start at 0;
// NoHandle (-1) never refers to a real entry.
type Handle int

const NoHandle Handle = -1

// Entry is the resolved runtime form of EntryImage: attributes copied over
// unchanged, but Entries/Ptype/ref chains replaced by resolved Handles.
type Entry struct {
	Handle Handle
	Path   string // slash-separated path starting at its top-level entry, for diagnostics

	Name      string
	Help      string
	Purpose   Purpose
	Mode      Mode
	Container bool
	Min, Max  int
	Value     []string
	Restore   int
	Order     int
	Access    string
	Filter    bool

	Ptype    Handle // NoHandle if this entry carries no ptype reference
	Children []Handle
	Actions  []Action
	Hotkeys  []HotkeyImage
}

// Action is the resolved runtime form of ActionImage: Symbol is bound to a
// concrete *ksym.Symbol at prepare time (spec.md I3).
type Action struct {
	SymbolRef     string // as declared, e.g. "nav" or "log.print"
	Lock          string
	Interrupt     bool
	ExecOn        ExecOn
	UpdateRetcode bool
	StdinDisp     StreamDisposition
	StdoutDisp    StreamDisposition
	StderrDisp    StreamDisposition
	Script        string

	Symbol *ksym.Symbol // bound by Prepare; nil until then
}
