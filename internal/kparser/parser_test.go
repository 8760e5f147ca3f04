package kparser

import (
	"testing"

	"klish/internal/kpath"
	"klish/internal/kscheme"
	"klish/internal/ksym"
)

func init() {
	ksym.RegisterPlugin("kparser_test_plugin", func(b *ksym.Builder, conf string) (byte, byte, error) {
		b.AddSymbol("noop", func(ksym.Context) int { return 0 })
		return ksym.HostMajor, ksym.HostMinor, nil
	})
}

// stubRunner accepts any non-empty token as valid for any ptype.
type stubRunner struct{}

func (stubRunner) RunPtype(ptype *kscheme.Entry, token string) (int, []string, error) {
	if token == "" {
		return 1, nil, nil
	}
	return 0, nil, nil
}

func mustPrepare(t *testing.T, img kscheme.Image) *kscheme.Scheme {
	t.Helper()
	s, err := kscheme.Prepare(img)
	if err != nil {
		t.Fatalf("unexpected prepare error: %v", err)
	}
	return s
}

func TestParse_SequenceContainerMatchesNestedLiteral(t *testing.T) {
	img := kscheme.Image{
		Plugins: []kscheme.PluginImage{{Name: "kparser_test_plugin"}},
		Views: []kscheme.EntryImage{
			{
				Name: "main",
				Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{
						Name:      "show",
						Container: true,
						Actions:   []kscheme.ActionImage{{Symbol: "noop"}},
						Entries: []kscheme.EntryImage{
							{Name: "version", Value: []string{"version"}},
						},
					},
				},
			},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{"show", "version"}, kpath.PurposeExec, stubRunner{})
	cmd, params := pv.MatchedCommand()
	if cmd == nil || cmd.Name != "show" {
		t.Fatalf("expected matched command 'show', got %v", cmd)
	}
	if len(params) != 1 || params[0].Token != "version" {
		t.Fatalf("expected one trailing param 'version', got %+v", params)
	}
}

func TestParse_PtypeValidationViaRunner(t *testing.T) {
	img := kscheme.Image{
		Plugins: []kscheme.PluginImage{{Name: "kparser_test_plugin"}},
		Ptypes:  []kscheme.EntryImage{{Name: "STRING", Purpose: kscheme.PurposePtype}},
		Views: []kscheme.EntryImage{
			{
				Name: "main",
				Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{Name: "echo", Ptype: "/STRING", Actions: []kscheme.ActionImage{{Symbol: "noop"}}},
				},
			},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{"hello"}, kpath.PurposeExec, stubRunner{})
	cmd, _ := pv.MatchedCommand()
	if cmd == nil || cmd.Name != "echo" {
		t.Fatalf("expected ptype-validated token to match 'echo', got %v", cmd)
	}
}

func TestParse_SwitchPrefersLongerMatch(t *testing.T) {
	img := kscheme.Image{
		Plugins: []kscheme.PluginImage{{Name: "kparser_test_plugin"}},
		Ptypes:  []kscheme.EntryImage{{Name: "STRING", Purpose: kscheme.PurposePtype}},
		Views: []kscheme.EntryImage{
			{
				Name: "main",
				Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{Name: "leaf", Ptype: "/STRING", Actions: []kscheme.ActionImage{{Symbol: "noop"}}},
					{
						Name:      "branch",
						Ptype:     "/STRING",
						Container: true,
						Actions:   []kscheme.ActionImage{{Symbol: "noop"}},
						Entries:   []kscheme.EntryImage{{Name: "extra", Value: []string{"extra"}}},
					},
				},
			},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{"foo", "extra"}, kpath.PurposeExec, stubRunner{})
	cmd, _ := pv.MatchedCommand()
	if cmd == nil || cmd.Name != "branch" {
		t.Fatalf("expected the longer-matching 'branch' to win, got %v", cmd)
	}
	if len(pv.Pargs()) != 2 {
		t.Fatalf("expected both tokens consumed, got %d pargs", len(pv.Pargs()))
	}
}

func TestParse_SwitchTieBreaksOnDeclarationOrder(t *testing.T) {
	img := kscheme.Image{
		Plugins: []kscheme.PluginImage{{Name: "kparser_test_plugin"}},
		Ptypes:  []kscheme.EntryImage{{Name: "STRING", Purpose: kscheme.PurposePtype}},
		Views: []kscheme.EntryImage{
			{
				Name: "main",
				Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{Name: "alpha", Ptype: "/STRING", Actions: []kscheme.ActionImage{{Symbol: "noop"}}},
					{Name: "beta", Ptype: "/STRING", Actions: []kscheme.ActionImage{{Symbol: "noop"}}},
				},
			},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{"token"}, kpath.PurposeExec, stubRunner{})
	cmd, _ := pv.MatchedCommand()
	if cmd == nil || cmd.Name != "alpha" {
		t.Fatalf("expected the earlier-declared 'alpha' to win an equal-length tie, got %v", cmd)
	}
}

func TestParse_CompletionOnEmptyRemainderListsCandidates(t *testing.T) {
	img := kscheme.Image{
		Views: []kscheme.EntryImage{
			{
				Name: "main",
				Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{Name: "show"},
					{Name: "exit"},
				},
			},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{}, kpath.PurposeComplete, stubRunner{})
	entries, prefix := pv.CompletionEntrySet()
	if prefix != "" {
		t.Fatalf("expected empty completion prefix, got %q", prefix)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both view children as completion candidates, got %d", len(entries))
	}
}

func TestParse_CompletionOnPartialTokenFiltersCandidates(t *testing.T) {
	img := kscheme.Image{
		Views: []kscheme.EntryImage{
			{
				Name: "main",
				Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{Name: "show"},
					{Name: "exit"},
				},
			},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{"sh"}, kpath.PurposeComplete, stubRunner{})
	entries, prefix := pv.CompletionEntrySet()
	if prefix != "sh" {
		t.Fatalf("expected completion prefix %q, got %q", "sh", prefix)
	}
	if len(entries) != 1 || entries[0].Name != "show" {
		t.Fatalf("expected only 'show' as a candidate for prefix 'sh', got %+v", entries)
	}
}

func TestParse_CompletionMidSequenceFiltersNestedCandidates(t *testing.T) {
	img := kscheme.Image{
		Plugins: []kscheme.PluginImage{{Name: "kparser_test_plugin"}},
		Views: []kscheme.EntryImage{
			{
				Name: "main",
				Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{
						Name:      "show",
						Container: true,
						Actions:   []kscheme.ActionImage{{Symbol: "noop"}},
						Entries: []kscheme.EntryImage{
							{Name: "version", Value: []string{"version"}},
							{Name: "vlan", Value: []string{"vlan"}},
						},
					},
				},
			},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{"show", "ver"}, kpath.PurposeComplete, stubRunner{})
	entries, prefix := pv.CompletionEntrySet()
	if prefix != "ver" {
		t.Fatalf("expected completion prefix %q, got %q", "ver", prefix)
	}
	if len(entries) != 1 || entries[0].Name != "version" {
		t.Fatalf("expected only 'version' as a candidate for prefix 'ver', got %+v", entries)
	}
}

func TestParse_ExecHardFailsOnUnmatchedInput(t *testing.T) {
	img := kscheme.Image{
		Views: []kscheme.EntryImage{
			{Name: "main", Mode: kscheme.ModeSwitch, Entries: []kscheme.EntryImage{{Name: "show"}}},
		},
	}
	s := mustPrepare(t, img)
	view, _ := s.View("main")

	pv := Parse(view, s, []string{"nosuchcommand"}, kpath.PurposeExec, stubRunner{})
	if cmd, _ := pv.MatchedCommand(); cmd != nil {
		t.Fatalf("expected no command to match, got %v", cmd)
	}
	if !pv.ContinuationPrefix() {
		t.Fatal("expected exec purpose to flag unmatched trailing input")
	}
}
