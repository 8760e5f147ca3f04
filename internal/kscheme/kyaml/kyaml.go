// Package kyaml is the structured scheme reader (spec.md §1 names this
// as an external collaborator the core never hardcodes): it decodes a
// YAML document into a kscheme.Image, following the mapping-then-
// convert shape the teacher's dslyaml package uses for its own nested
// node format (see DESIGN.md).
package kyaml

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"klish/internal/kscheme"
)

// document is the on-disk shape: plugins, ptypes, and views as parallel
// top-level lists, mirroring Image itself (spec.md §3).
type document struct {
	Plugins []yamlPlugin `yaml:"plugins,omitempty"`
	Ptypes  []yamlEntry  `yaml:"ptypes,omitempty"`
	Views   []yamlEntry  `yaml:"views,omitempty"`
}

type yamlPlugin struct {
	Name    string       `yaml:"name"`
	ID      string       `yaml:"id,omitempty"`
	File    string       `yaml:"file,omitempty"`
	Global  bool         `yaml:"global,omitempty"`
	Conf    string       `yaml:"conf,omitempty"`
	Symbols []yamlSymbol `yaml:"symbols,omitempty"`
}

type yamlSymbol struct {
	Name      string `yaml:"name"`
	Permanent *bool  `yaml:"permanent,omitempty"`
	Sync      *bool  `yaml:"sync,omitempty"`
	Silent    bool   `yaml:"silent,omitempty"`
}

type yamlAction struct {
	Symbol        string `yaml:"symbol"`
	Lock          string `yaml:"lock,omitempty"`
	Interrupt     bool   `yaml:"interrupt,omitempty"`
	ExecOn        string `yaml:"exec_on,omitempty"`
	UpdateRetcode bool   `yaml:"update_retcode,omitempty"`
	Stdin         string `yaml:"stdin,omitempty"`
	Stdout        string `yaml:"stdout,omitempty"`
	Stderr        string `yaml:"stderr,omitempty"`
	Script        string `yaml:"script,omitempty"`
}

type yamlHotkey struct {
	Key     string `yaml:"key"`
	Command string `yaml:"command"`
}

// yamlEntry is the universal scheme node as YAML sees it (spec.md §3
// Entry). Min/Max use pointers so "unset" (defaults to 1/1 in
// EntryImage.withDefaults) is distinguishable from an explicit 0.
type yamlEntry struct {
	Name      string       `yaml:"name"`
	Help      string       `yaml:"help,omitempty"`
	Purpose   string       `yaml:"purpose,omitempty"`
	Mode      string       `yaml:"mode,omitempty"`
	Container bool         `yaml:"container,omitempty"`
	Min       *int         `yaml:"min,omitempty"`
	Max       *int         `yaml:"max,omitempty"`
	Ref       string       `yaml:"ref,omitempty"`
	Ptype     string       `yaml:"ptype,omitempty"`
	Value     []string     `yaml:"value,omitempty"`
	Restore   int          `yaml:"restore,omitempty"`
	Order     int          `yaml:"order,omitempty"`
	Access    string       `yaml:"access,omitempty"`
	Filter    bool         `yaml:"filter,omitempty"`
	Actions   []yamlAction `yaml:"actions,omitempty"`
	Entries   []yamlEntry  `yaml:"entries,omitempty"`
	Hotkeys   []yamlHotkey `yaml:"hotkeys,omitempty"`
}

// Decode parses a YAML scheme document into a kscheme.Image. No
// semantic validation happens here — Prepare is the only place an
// Image's correctness is checked (spec.md §3 lifecycle).
func Decode(in []byte) (kscheme.Image, error) {
	var doc document
	if err := yaml.Unmarshal(in, &doc); err != nil {
		return kscheme.Image{}, fmt.Errorf("kyaml: %w", err)
	}

	img := kscheme.Image{}
	for _, p := range doc.Plugins {
		img.Plugins = append(img.Plugins, convertPlugin(p))
	}
	for _, e := range doc.Ptypes {
		img.Ptypes = append(img.Ptypes, convertEntry(e))
	}
	for _, e := range doc.Views {
		img.Views = append(img.Views, convertEntry(e))
	}
	return img, nil
}

func convertPlugin(p yamlPlugin) kscheme.PluginImage {
	out := kscheme.PluginImage{Name: p.Name, ID: p.ID, File: p.File, Global: p.Global, Conf: p.Conf}
	for _, s := range p.Symbols {
		out.Symbols = append(out.Symbols, kscheme.SymbolImage{
			Name:      s.Name,
			Permanent: triFromPtr(s.Permanent),
			Sync:      triFromPtr(s.Sync),
			Silent:    s.Silent,
		})
	}
	return out
}

func triFromPtr(b *bool) kscheme.Tri {
	if b == nil {
		return kscheme.TriUnset
	}
	if *b {
		return kscheme.TriTrue
	}
	return kscheme.TriFalse
}

func convertEntry(e yamlEntry) kscheme.EntryImage {
	out := kscheme.EntryImage{
		Name:      e.Name,
		Help:      e.Help,
		Purpose:   kscheme.Purpose(e.Purpose),
		Mode:      kscheme.Mode(e.Mode),
		Container: e.Container,
		Ref:       e.Ref,
		Ptype:     e.Ptype,
		Value:     e.Value,
		Restore:   e.Restore,
		Order:     e.Order,
		Access:    e.Access,
		Filter:    e.Filter,
	}
	if e.Min != nil {
		out.Min = *e.Min
	}
	if e.Max != nil {
		out.Max = *e.Max
	}
	for _, a := range e.Actions {
		out.Actions = append(out.Actions, kscheme.ActionImage{
			Symbol:        a.Symbol,
			Lock:          a.Lock,
			Interrupt:     a.Interrupt,
			ExecOn:        kscheme.ExecOn(a.ExecOn),
			UpdateRetcode: a.UpdateRetcode,
			StdinDisp:     kscheme.StreamDisposition(a.Stdin),
			StdoutDisp:    kscheme.StreamDisposition(a.Stdout),
			StderrDisp:    kscheme.StreamDisposition(a.Stderr),
			Script:        a.Script,
		})
	}
	for _, c := range e.Entries {
		out.Entries = append(out.Entries, convertEntry(c))
	}
	for _, h := range e.Hotkeys {
		out.Hotkeys = append(out.Hotkeys, kscheme.HotkeyImage{Key: h.Key, CommandRef: h.Command})
	}

	return out
}
