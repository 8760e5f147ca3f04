package kdeploy

import (
	"reflect"
	"strings"
	"testing"

	"klish/internal/kscheme"
)

func sampleImage() kscheme.Image {
	return kscheme.Image{
		Ptypes: []kscheme.EntryImage{
			{Name: "STRING", Purpose: kscheme.PurposePtype},
		},
		Plugins: []kscheme.PluginImage{
			{
				Name: "klish", Global: true,
				Symbols: []kscheme.SymbolImage{
					{Name: "nav", Permanent: kscheme.TriTrue, Sync: kscheme.TriTrue},
					{Name: "shell", Silent: true},
				},
			},
		},
		Views: []kscheme.EntryImage{
			{
				Name: "main", Mode: kscheme.ModeSwitch,
				Entries: []kscheme.EntryImage{
					{
						Name: "show", Container: true, Min: 0, Max: 3,
						Actions: []kscheme.ActionImage{
							{Symbol: "klish.print", ExecOn: kscheme.ExecOnSuccess, UpdateRetcode: true, Script: "say \"hi\"\n\tindented"},
						},
						Entries: []kscheme.EntryImage{
							{Name: "version", Value: []string{"version"}},
						},
						Hotkeys: []kscheme.HotkeyImage{{Key: "F1", CommandRef: "show version"}},
					},
				},
			},
		},
	}
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	img := sampleImage()
	text := Encode(img)

	got, err := Decode(text)
	if err != nil {
		t.Fatalf("unexpected Decode error: %v\n--- encoded ---\n%s", err, text)
	}
	if !reflect.DeepEqual(got, img) {
		t.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v\n--- encoded ---\n%s", img, got, text)
	}
}

func TestEncode_SectionsAppearInOrder(t *testing.T) {
	text := Encode(sampleImage())
	ptypeIdx := strings.Index(text, "PTYPE_LIST")
	pluginIdx := strings.Index(text, "PLUGIN_LIST")
	viewIdx := strings.Index(text, "VIEW_LIST")
	if !(ptypeIdx < pluginIdx && pluginIdx < viewIdx) {
		t.Fatalf("expected PTYPE_LIST, PLUGIN_LIST, VIEW_LIST in that order, got offsets %d %d %d", ptypeIdx, pluginIdx, viewIdx)
	}
}

func TestEncode_EscapesSpecialCharacters(t *testing.T) {
	img := kscheme.Image{Views: []kscheme.EntryImage{{Name: "x", Help: "a\"b\\c\nd\te"}}}
	text := Encode(img)
	if !strings.Contains(text, `.help = "a\"b\\c\nd\te",`) {
		t.Fatalf("expected escaped help attribute, got:\n%s", text)
	}
}

func TestDecode_UnterminatedStringFails(t *testing.T) {
	if _, err := Decode(`VIEW_LIST { ENTRY { .name = "oops }`); err == nil {
		t.Fatal("expected an error decoding an unterminated string literal")
	}
}

func TestDecode_UnknownTopLevelSectionFails(t *testing.T) {
	if _, err := Decode(`BOGUS_LIST { }`); err == nil {
		t.Fatal("expected an error for an unknown top-level section")
	}
}

func TestDecode_EmptyDocumentProducesEmptyImage(t *testing.T) {
	img, err := Decode(Encode(kscheme.Image{}))
	if err != nil {
		t.Fatalf("unexpected Decode error: %v", err)
	}
	if len(img.Ptypes) != 0 || len(img.Plugins) != 0 || len(img.Views) != 0 {
		t.Fatalf("expected an empty image, got %+v", img)
	}
}
