package kscheme

import (
	"strings"
	"testing"
)

func TestMergeSiblings_AppendsActionsAndEntries(t *testing.T) {
	entries := []EntryImage{
		{Name: "show", Help: "first", Actions: []ActionImage{{Symbol: "log"}}},
		{Name: "show", Help: "second", Actions: []ActionImage{{Symbol: "print"}}},
	}

	merged := mergeSiblings(entries)
	if len(merged) != 1 {
		t.Fatalf("expected one merged entry, got %d", len(merged))
	}
	e := merged[0]
	if e.Help != "second" {
		t.Fatalf("expected later merge to override Help, got %q", e.Help)
	}
	if len(e.Actions) != 2 {
		t.Fatalf("expected actions to append, got %d", len(e.Actions))
	}
	if e.Actions[0].Symbol != "log" || e.Actions[1].Symbol != "print" {
		t.Fatalf("expected actions in declaration order, got %+v", e.Actions)
	}
}

func TestMergeSiblings_PreservesFirstAppearanceOrder(t *testing.T) {
	entries := []EntryImage{
		{Name: "b"},
		{Name: "a"},
		{Name: "b", Help: "merged"},
	}
	merged := mergeSiblings(entries)
	if len(merged) != 2 {
		t.Fatalf("expected two distinct names, got %d", len(merged))
	}
	if merged[0].Name != "b" || merged[1].Name != "a" {
		t.Fatalf("expected order of first appearance b,a; got %s,%s", merged[0].Name, merged[1].Name)
	}
}

func TestMergeSiblings_RecursesIntoChildren(t *testing.T) {
	entries := []EntryImage{
		{Name: "root", Entries: []EntryImage{{Name: "x"}}},
		{Name: "root", Entries: []EntryImage{{Name: "x", Help: "dup"}}},
	}
	merged := mergeSiblings(entries)
	if len(merged) != 1 {
		t.Fatalf("expected one root, got %d", len(merged))
	}
	if len(merged[0].Entries) != 1 {
		t.Fatalf("expected child 'x' to merge into one, got %d", len(merged[0].Entries))
	}
}

func TestMergeSiblings_AppliesDefaults(t *testing.T) {
	merged := mergeSiblings([]EntryImage{{Name: "solo"}})
	e := merged[0]
	if e.Min != 1 || e.Max != 1 {
		t.Fatalf("expected default min/max 1/1, got %d/%d", e.Min, e.Max)
	}
	if e.Mode != ModeSequence {
		t.Fatalf("expected default mode sequence, got %q", e.Mode)
	}
	if e.Purpose != PurposeCommon {
		t.Fatalf("expected default purpose common, got %q", e.Purpose)
	}
}

func TestErrorStack_AccumulatesAndSummarizes(t *testing.T) {
	var es ErrorStack
	es.add(ErrUnresolvedRef, "/main/foo", "ref \"bar\" not found")
	es.add(ErrCycle, "/main/baz", "cycle")

	if es.Empty() {
		t.Fatal("expected non-empty error stack")
	}
	if !strings.Contains(es.Error(), "/main/foo") || !strings.Contains(es.Error(), "+more") {
		t.Fatalf("expected summary to reference first error and note more, got %q", es.Error())
	}

	stack, ok := AsErrorStack(&es)
	if !ok || len(stack.Errors) != 2 {
		t.Fatalf("expected AsErrorStack to recover both errors")
	}
}
