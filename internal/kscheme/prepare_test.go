package kscheme

import (
	"strings"
	"testing"

	"klish/internal/ksym"
)

func init() {
	ksym.RegisterPlugin("kscheme_test_plugin", func(b *ksym.Builder, conf string) (byte, byte, error) {
		b.AddSymbol("noop", func(ksym.Context) int { return 0 })
		return ksym.HostMajor, ksym.HostMinor, nil
	})
}

func TestPrepare_BuildsViewsAndBindsSymbols(t *testing.T) {
	img := Image{
		Plugins: []PluginImage{{Name: "kscheme_test_plugin"}},
		Ptypes: []EntryImage{
			{Name: "STRING", Purpose: PurposePtype},
		},
		Views: []EntryImage{
			{
				Name: "main",
				Entries: []EntryImage{
					{Name: "show", Ptype: "/STRING", Actions: []ActionImage{{Symbol: "noop"}}},
				},
			},
		},
	}

	s, err := Prepare(img)
	if err != nil {
		t.Fatalf("unexpected prepare error: %v", err)
	}

	view, ok := s.View("main")
	if !ok {
		t.Fatal("expected view \"main\" to exist")
	}
	if len(view.Children) != 1 {
		t.Fatalf("expected 1 child under main, got %d", len(view.Children))
	}

	show := s.Entry(view.Children[0])
	if show.Name != "show" {
		t.Fatalf("expected child named show, got %q", show.Name)
	}
	if show.Ptype == NoHandle {
		t.Fatal("expected ptype reference to resolve")
	}
	if s.Entry(show.Ptype).Purpose != PurposePtype {
		t.Fatal("expected bound ptype entry to carry purpose=ptype")
	}
	if show.Actions[0].Symbol == nil || show.Actions[0].Symbol.Name != "noop" {
		t.Fatalf("expected action symbol to bind to noop, got %+v", show.Actions[0].Symbol)
	}
}

func TestPrepare_RefMergesChildren(t *testing.T) {
	img := Image{
		Views: []EntryImage{
			{
				Name: "shared",
				Entries: []EntryImage{
					{Name: "ping"},
				},
			},
			{
				Name:    "main",
				Entries: []EntryImage{{Name: "net", Ref: "/shared"}},
			},
		},
	}

	s, err := Prepare(img)
	if err != nil {
		t.Fatalf("unexpected prepare error: %v", err)
	}
	main, _ := s.View("main")
	net := s.Entry(main.Children[0])
	if len(net.Children) != 1 || s.Entry(net.Children[0]).Name != "ping" {
		t.Fatalf("expected ref to pull in shared's children, got %+v", net.Children)
	}
}

func TestPrepare_ReportsUnresolvedPtype(t *testing.T) {
	img := Image{
		Views: []EntryImage{
			{Name: "main", Entries: []EntryImage{{Name: "show", Ptype: "/NOSUCH"}}},
		},
	}
	_, err := Prepare(img)
	if err == nil {
		t.Fatal("expected prepare to fail on unresolved ptype")
	}
	stack, ok := AsErrorStack(err)
	if !ok || len(stack.Errors) == 0 {
		t.Fatal("expected an ErrorStack with at least one entry")
	}
	if !strings.Contains(stack.Error(), "NOSUCH") {
		t.Fatalf("expected error to mention the unresolved target, got %q", stack.Error())
	}
}

func TestPrepare_ReportsAmbiguousSymbol(t *testing.T) {
	ksym.RegisterPlugin("kscheme_test_plugin_dup_a", func(b *ksym.Builder, conf string) (byte, byte, error) {
		b.AddSymbol("shared", func(ksym.Context) int { return 0 })
		return ksym.HostMajor, ksym.HostMinor, nil
	})
	ksym.RegisterPlugin("kscheme_test_plugin_dup_b", func(b *ksym.Builder, conf string) (byte, byte, error) {
		b.AddSymbol("shared", func(ksym.Context) int { return 0 })
		return ksym.HostMajor, ksym.HostMinor, nil
	})

	img := Image{
		Plugins: []PluginImage{{Name: "kscheme_test_plugin_dup_a"}, {Name: "kscheme_test_plugin_dup_b"}},
		Views: []EntryImage{
			{Name: "main", Entries: []EntryImage{{Name: "cmd", Actions: []ActionImage{{Symbol: "shared"}}}}},
		},
	}
	_, err := Prepare(img)
	if err == nil {
		t.Fatal("expected prepare to fail on ambiguous symbol")
	}
	if !strings.Contains(err.Error(), "shared") {
		t.Fatalf("expected error to mention the ambiguous symbol, got %q", err.Error())
	}
}
