// Package ksym implements the symbol registry and plugin adapter
// (component C): named callables grouped by plugin, with version and
// config metadata, bound eagerly at prepare time.
//
// Plugin *loading* is out of scope for klish itself (spec.md §1): any
// mechanism capable of resolving a named symbol to an in-process callable
// suffices. This package ships the one concrete adapter klish needs — an
// in-process registration API shaped like database/sql.Register, so a
// plugin is just a Go package that calls RegisterPlugin from its own
// init(). That sidesteps cgo's plugin.Open (which requires every plugin
// and the host to share one toolchain build — unsuitable for a portable
// daemon) while still satisfying the ABI described in spec.md §6: a
// plugin exposes a version pair, init/fini, and registers its functional
// symbols during init.
package ksym

import (
	"fmt"
	"sync"
	"time"
)

// HostMajor/HostMinor is the symbol ABI version the daemon implements.
// A plugin is compatible when its major matches exactly and its minor is
// <= the host's (spec.md §4.C).
const (
	HostMajor = 1
	HostMinor = 0
)

// Context is the accessor-only view a symbol receives when invoked. It
// never exposes raw scheme internals (spec.md §9 design notes); kexec
// populates a concrete context satisfying this interface per invocation.
type Context interface {
	Script() string
	Argv() []string
	Stdin() int  // fd, see kexec
	Stdout() int
	Stderr() int
	SetRetcode(int)
	UserData(plugin string) any

	// Done mirrors context.Context: it is closed when the enclosing
	// pipeline has been cancelled. A symbol that forked an OS process is
	// expected to select on it and terminate the process itself (kexec
	// has no way to reach into a symbol's own os/exec.Cmd); a symbol with
	// nothing to cancel can ignore it. May be nil when the invocation
	// carries no cancellation (e.g. ptype validation).
	Done() <-chan struct{}

	// CancelGrace is how long a symbol should wait after asking its child
	// to terminate before escalating, once Done fires.
	CancelGrace() time.Duration
}

// Fn is a symbol's callable: it runs a script against a context and
// returns an exit status (0 = success).
type Fn func(ctx Context) int

// Symbol is a named callable contributed by a plugin, with its resolved
// boolean override flags (spec.md §3).
type Symbol struct {
	Name      string
	Plugin    *Plugin
	Fn        Fn
	Permanent bool // dry-run override: true means "runs even in dry-run"
	Sync      bool // true means "invoke inline, never fork"
	Silent    bool // true means "no stdio wired, detached to /dev/null"
}

// QualifiedName returns "plugin.symbol".
func (s *Symbol) QualifiedName() string { return s.Plugin.Name + "." + s.Name }

// Plugin is a loaded, running plugin instance: its symbols plus version
// and free-form config metadata (spec.md §3, §4.C).
type Plugin struct {
	Name    string
	ID      string
	Global  bool
	Conf    string
	Major   byte
	Minor   byte
	Symbols map[string]*Symbol

	mu      sync.Mutex
	udata   map[string]any
	fini    func() int
}

// Compatible reports whether the plugin's ABI version is usable by this host.
func (p *Plugin) Compatible() bool {
	return p.Major == HostMajor && p.Minor <= HostMinor
}

// UDataGet/UDataSet store arbitrary per-plugin data registered at init
// (mirrors kudata.h in the original klish sources; spec.md §3 Plugin).
func (p *Plugin) UDataGet(key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.udata[key]
	return v, ok
}

func (p *Plugin) UDataSet(key string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.udata == nil {
		p.udata = make(map[string]any)
	}
	p.udata[key] = v
}

// Fini invokes the plugin's fini symbol, if any was registered.
func (p *Plugin) Fini() int {
	if p.fini == nil {
		return 0
	}
	return p.fini()
}

// Builder is what a plugin factory populates during Init. It is the only
// way to add functional symbols, so every symbol a plugin exposes is
// necessarily registered "during init" per spec.md §4.C.
type Builder struct {
	plugin *Plugin
}

// AddSymbol registers a functional symbol under the plugin being built.
func (b *Builder) AddSymbol(name string, fn Fn, opts ...SymbolOption) {
	sym := &Symbol{Name: name, Plugin: b.plugin, Fn: fn}
	for _, o := range opts {
		o(sym)
	}
	b.plugin.Symbols[name] = sym
}

// SetFini registers the plugin's fini callback.
func (b *Builder) SetFini(fn func() int) { b.plugin.fini = fn }

type SymbolOption func(*Symbol)

func Permanent(v bool) SymbolOption { return func(s *Symbol) { s.Permanent = v } }
func Sync(v bool) SymbolOption      { return func(s *Symbol) { s.Sync = v } }
func Silent(v bool) SymbolOption    { return func(s *Symbol) { s.Silent = v } }

// PluginFactory builds a Plugin: it is called once per plugin instance at
// prepare time and must populate major/minor and call b.AddSymbol for each
// functional symbol, mirroring a C plugin's <prefix>_<id>_init.
type PluginFactory func(b *Builder, conf string) (major, minor byte, err error)

var (
	factoriesMu sync.Mutex
	factories   = map[string]PluginFactory{}
)

// RegisterPlugin makes a plugin factory available under name for scheme
// plugin entries to reference. Intended to be called from a plugin
// package's init(), the same pattern as database/sql.Register.
func RegisterPlugin(name string, f PluginFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[name]; exists {
		panic("ksym: RegisterPlugin called twice for " + name)
	}
	factories[name] = f
}

// Build instantiates the named plugin: resolves its factory, calls it with
// the image's conf text, and checks ABI compatibility.
func Build(name, id string, global bool, conf string) (*Plugin, error) {
	factoriesMu.Lock()
	f, ok := factories[name]
	factoriesMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("plugin %q: no registered factory", name)
	}

	p := &Plugin{Name: name, ID: id, Global: global, Conf: conf, Symbols: map[string]*Symbol{}}
	b := &Builder{plugin: p}
	major, minor, err := f(b, conf)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: init: %w", name, err)
	}
	p.Major, p.Minor = major, minor
	if !p.Compatible() {
		return nil, fmt.Errorf("plugin %q: incompatible version %d.%d (host %d.%d)",
			name, major, minor, HostMajor, HostMinor)
	}
	return p, nil
}
