package ksym

import (
	"strings"
	"testing"
)

func newTestPlugin(t *testing.T, name string, global bool, symbols ...string) *Plugin {
	t.Helper()
	p := &Plugin{Name: name, Global: global, Major: HostMajor, Minor: HostMinor, Symbols: map[string]*Symbol{}}
	for _, s := range symbols {
		p.Symbols[s] = &Symbol{Name: s, Plugin: p}
	}
	return p
}

func TestRegistry_ResolveQualified(t *testing.T) {
	r := NewRegistry()
	p := newTestPlugin(t, "net", false, "ping")
	if err := r.Add(p); err != nil {
		t.Fatalf("unexpected Add error: %v", err)
	}

	sym, err := r.Resolve("net.ping")
	if err != nil {
		t.Fatalf("unexpected Resolve error: %v", err)
	}
	if sym.QualifiedName() != "net.ping" {
		t.Fatalf("expected net.ping, got %s", sym.QualifiedName())
	}
}

func TestRegistry_ResolveBareUnique(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestPlugin(t, "net", false, "ping"))

	sym, err := r.Resolve("ping")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sym.Plugin.Name != "net" {
		t.Fatalf("expected plugin net, got %s", sym.Plugin.Name)
	}
}

func TestRegistry_ResolveAmbiguousWithoutGlobalTiebreak(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestPlugin(t, "a", false, "shared"))
	r.Add(newTestPlugin(t, "b", false, "shared"))

	_, err := r.Resolve("shared")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected ambiguous error, got %v", err)
	}
}

func TestRegistry_ResolveGlobalBreaksTie(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestPlugin(t, "a", false, "shared"))
	r.Add(newTestPlugin(t, "b", true, "shared"))

	sym, err := r.Resolve("shared")
	if err != nil {
		t.Fatalf("expected global plugin to break the tie, got error: %v", err)
	}
	if sym.Plugin.Name != "b" {
		t.Fatalf("expected the global plugin's symbol to win, got %s", sym.Plugin.Name)
	}
}

func TestRegistry_AddDuplicateNameFails(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestPlugin(t, "net", false))
	if err := r.Add(newTestPlugin(t, "net", false)); err == nil {
		t.Fatal("expected duplicate plugin name to fail")
	}
}

func TestRegistry_FiniAllRunsReverseOrder(t *testing.T) {
	r := NewRegistry()
	var order []string
	mk := func(name string) *Plugin {
		p := newTestPlugin(t, name, false)
		p.fini = func() int { order = append(order, name); return 0 }
		return p
	}
	r.Add(mk("first"))
	r.Add(mk("second"))
	r.Add(mk("third"))

	r.FiniAll()

	want := []string{"third", "second", "first"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestBuild_RejectsIncompatibleMajorVersion(t *testing.T) {
	RegisterPlugin("ksym_test_incompatible", func(b *Builder, conf string) (byte, byte, error) {
		return HostMajor + 1, 0, nil
	})
	_, err := Build("ksym_test_incompatible", "ksym_test_incompatible", false, "")
	if err == nil || !strings.Contains(err.Error(), "incompatible") {
		t.Fatalf("expected incompatible version error, got %v", err)
	}
}

func TestBuild_UnknownPluginFails(t *testing.T) {
	_, err := Build("no_such_registered_plugin", "x", false, "")
	if err == nil || !strings.Contains(err.Error(), "no registered factory") {
		t.Fatalf("expected 'no registered factory' error, got %v", err)
	}
}
