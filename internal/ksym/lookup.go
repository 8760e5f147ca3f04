package ksym

import "fmt"

// Registry holds every plugin loaded for one scheme, keyed by name, in
// registration order (fini runs that order in reverse, spec.md §4.B).
type Registry struct {
	byName map[string]*Plugin
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Plugin{}}
}

func (r *Registry) Add(p *Plugin) error {
	if _, exists := r.byName[p.Name]; exists {
		return fmt.Errorf("duplicate plugin name: %s", p.Name)
	}
	r.byName[p.Name] = p
	r.order = append(r.order, p.Name)
	return nil
}

func (r *Registry) Get(name string) (*Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Plugins returns plugins in registration order.
func (r *Registry) Plugins() []*Plugin {
	out := make([]*Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// FiniAll invokes every plugin's fini symbol in reverse registration order
// (spec.md §4.B).
func (r *Registry) FiniAll() {
	for i := len(r.order) - 1; i >= 0; i-- {
		r.byName[r.order[i]].Fini()
	}
}

// Resolve looks a symbol reference up by name within the registry
// (spec.md §4.C):
//
//   - "plugin.sym" is a scoped lookup: it must resolve in that plugin only.
//   - a bare "sym" searches every plugin; exactly one match binds; more
//     than one match is ambiguous UNLESS exactly one of the matches
//     belongs to a `global` plugin, in which case the global one wins.
func (r *Registry) Resolve(ref string) (*Symbol, error) {
	if pluginName, symName, ok := splitQualified(ref); ok {
		p, ok := r.byName[pluginName]
		if !ok {
			return nil, fmt.Errorf("symbol %q: no such plugin %q", ref, pluginName)
		}
		sym, ok := p.Symbols[symName]
		if !ok {
			return nil, fmt.Errorf("symbol %q: plugin %q has no symbol %q", ref, pluginName, symName)
		}
		return sym, nil
	}

	var matches []*Symbol
	for _, name := range r.order {
		p := r.byName[name]
		if sym, ok := p.Symbols[ref]; ok {
			matches = append(matches, sym)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("symbol %q: not found in any plugin", ref)
	case 1:
		return matches[0], nil
	default:
		var globalMatches []*Symbol
		for _, m := range matches {
			if m.Plugin.Global {
				globalMatches = append(globalMatches, m)
			}
		}
		if len(globalMatches) == 1 {
			return globalMatches[0], nil
		}
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Plugin.Name
		}
		return nil, fmt.Errorf("symbol %q: ambiguous across plugins %v", ref, names)
	}
}

// splitQualified splits "plugin.sym" into its two parts. A bare name (no
// dot) returns ok=false.
func splitQualified(ref string) (plugin, sym string, ok bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == '.' {
			return ref[:i], ref[i+1:], true
		}
	}
	return "", "", false
}
