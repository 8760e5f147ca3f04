package kscheme

// ---------------------------------------------------------------------------
// Loaded-image model (component A)
// ---------------------------------------------------------------------------
//
// These are plain record trees filled in by a reader (internal/kscheme/kyaml
// is the one shipped here) with no semantic checks performed. Prepare (in
// prepare.go) is the only place that validates an image and turns it into a
// runtime Scheme. Mirrors the teacher's dsl.RawNode / dsl.TypeDef split
// between "as parsed" and "as resolved".

// Purpose enumerates what an entry is for, per spec.md §3.
type Purpose string

const (
	PurposeCommon     Purpose = "common"
	PurposePtype      Purpose = "ptype"
	PurposePrompt     Purpose = "prompt"
	PurposeCond       Purpose = "cond"
	PurposeCompletion Purpose = "completion"
	PurposeHelp       Purpose = "help"
	PurposeLog        Purpose = "log"
)

// Mode controls how an entry's children are matched against tokens.
type Mode string

const (
	ModeSequence Mode = "sequence"
	ModeSwitch   Mode = "switch"
	ModeEmpty    Mode = "empty"
)

// ExecOn is the condition under which an action runs, evaluated against the
// pipeline's accumulated retcode.
type ExecOn string

const (
	ExecOnFail    ExecOn = "fail"
	ExecOnSuccess ExecOn = "success"
	ExecOnAlways  ExecOn = "always"
	ExecOnNever   ExecOn = "never"
)

// StreamDisposition controls how an action's stdin/stdout/stderr is wired.
type StreamDisposition string

const (
	StreamNone  StreamDisposition = "none"
	StreamFalse StreamDisposition = "false"
	StreamTrue  StreamDisposition = "true"
	StreamTTY   StreamDisposition = "tty"
)

// Tri is a tri-valued flag (unset/false/true) used for action and symbol
// attributes that may be overridden at multiple levels (symbol default,
// action override).
type Tri int

const (
	TriUnset Tri = iota
	TriFalse
	TriTrue
)

// Resolve returns v if this Tri is set, else def.
func (t Tri) Resolve(def bool) bool {
	switch t {
	case TriTrue:
		return true
	case TriFalse:
		return false
	default:
		return def
	}
}

// ActionImage is an ordered action directive as read from the image.
type ActionImage struct {
	Symbol        string // symbol reference, "plugin.sym" or bare "sym"
	Lock          string
	Interrupt     bool
	ExecOn        ExecOn
	UpdateRetcode bool
	StdinDisp     StreamDisposition
	StdoutDisp    StreamDisposition
	StderrDisp    StreamDisposition
	Script        string
}

// normalized returns a copy with defaults applied (ExecOn default "always").
func (a ActionImage) normalized() ActionImage {
	if a.ExecOn == "" {
		a.ExecOn = ExecOnAlways
	}
	return a
}

// HotkeyImage binds a keystroke to a command entry path within a view.
// Carried from the original klish sources (khotkey.h); the daemon does not
// interpret keystrokes, it only carries the bindings for a client to query.
type HotkeyImage struct {
	Key        string
	CommandRef string // scheme path of the bound command entry
}

// EntryImage is the universal scheme node as read from the image, per
// spec.md §3.
type EntryImage struct {
	Name     string
	Help     string
	Purpose  Purpose
	Mode     Mode
	Container bool
	Min      int // default 1
	Max      int // default 1
	Ref      string
	Ptype    string
	Value    []string // literal accepted tokens, empty means "no restriction"
	Restore  int      // pop this many path levels after execution; 0 = none
	Order    int      // declaration order, significant for switch mode
	Access   string   // free-form ACL tag (supplemental, see SPEC_FULL.md §3)
	Filter   bool     // marks a command usable as a pipe filter

	Actions  []ActionImage
	Entries  []EntryImage
	Hotkeys  []HotkeyImage
}

func (e *EntryImage) withDefaults() EntryImage {
	out := *e
	if out.Min == 0 && out.Max == 0 {
		out.Min, out.Max = 1, 1
	}
	if out.Mode == "" {
		out.Mode = ModeSequence
	}
	if out.Purpose == "" {
		out.Purpose = PurposeCommon
	}
	return out
}

// SymbolImage is a functional symbol registered by a plugin during init.
// The callable itself is not part of the image — it is bound later, at
// Prepare time, by looking the name up in the symbol registry (internal/ksym).
type SymbolImage struct {
	Name      string
	Permanent Tri
	Sync      Tri
	Silent    bool
}

// PluginImage describes a plugin entry in the image.
type PluginImage struct {
	Name   string
	ID     string // defaults to Name
	File   string // defaults to a canonical filename-from-id template
	Global bool
	Conf   string
	Symbols []SymbolImage
}

func (p *PluginImage) withDefaults() PluginImage {
	out := *p
	if out.ID == "" {
		out.ID = out.Name
	}
	if out.File == "" {
		out.File = "klish-plugin-" + out.ID + ".so"
	}
	return out
}

// Image is the whole loaded scheme as read from disk: the passive record
// tree the reader produces, with no semantic checks performed yet.
type Image struct {
	Plugins []PluginImage
	Ptypes  []EntryImage
	Views   []EntryImage
}
