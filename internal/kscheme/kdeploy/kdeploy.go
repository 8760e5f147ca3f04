// Package kdeploy implements the scheme text ("deploy") format (spec.md
// §6): a canonical, round-trippable textual serialization of a loaded
// Image. Sections appear in order PTYPE_LIST, PLUGIN_LIST, VIEW_LIST;
// each entry renders as `TAG { .attr = "c-escaped", nested-lists, }`
// with two-space indentation per depth.
package kdeploy

import (
	"fmt"
	"strconv"
	"strings"

	"klish/internal/kscheme"
)

// Encode renders img in the canonical deploy format.
func Encode(img kscheme.Image) string {
	var b strings.Builder

	b.WriteString("PTYPE_LIST {\n")
	for _, e := range img.Ptypes {
		writeEntry(&b, e, 1)
	}
	b.WriteString("}\n")

	b.WriteString("PLUGIN_LIST {\n")
	for _, p := range img.Plugins {
		writePlugin(&b, p, 1)
	}
	b.WriteString("}\n")

	b.WriteString("VIEW_LIST {\n")
	for _, e := range img.Views {
		writeEntry(&b, e, 1)
	}
	b.WriteString("}\n")

	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

func writePlugin(b *strings.Builder, p kscheme.PluginImage, depth int) {
	indent(b, depth)
	fmt.Fprintf(b, "PLUGIN {\n")
	attr(b, depth+1, "name", p.Name)
	attr(b, depth+1, "id", p.ID)
	attr(b, depth+1, "file", p.File)
	boolAttr(b, depth+1, "global", p.Global)
	attr(b, depth+1, "conf", p.Conf)
	for _, s := range p.Symbols {
		indent(b, depth+1)
		b.WriteString("SYMBOL {\n")
		attr(b, depth+2, "name", s.Name)
		triAttr(b, depth+2, "permanent", s.Permanent)
		triAttr(b, depth+2, "sync", s.Sync)
		boolAttr(b, depth+2, "silent", s.Silent)
		indent(b, depth+1)
		b.WriteString("}\n")
	}
	indent(b, depth)
	b.WriteString("}\n")
}

func writeEntry(b *strings.Builder, e kscheme.EntryImage, depth int) {
	indent(b, depth)
	fmt.Fprintf(b, "ENTRY {\n")
	attr(b, depth+1, "name", e.Name)
	attr(b, depth+1, "help", e.Help)
	attr(b, depth+1, "purpose", string(e.Purpose))
	attr(b, depth+1, "mode", string(e.Mode))
	boolAttr(b, depth+1, "container", e.Container)
	intAttr(b, depth+1, "min", e.Min)
	intAttr(b, depth+1, "max", e.Max)
	attr(b, depth+1, "ref", e.Ref)
	attr(b, depth+1, "ptype", e.Ptype)
	for _, v := range e.Value {
		attr(b, depth+1, "value", v)
	}
	intAttr(b, depth+1, "restore", e.Restore)
	intAttr(b, depth+1, "order", e.Order)
	attr(b, depth+1, "access", e.Access)
	boolAttr(b, depth+1, "filter", e.Filter)

	for _, a := range e.Actions {
		indent(b, depth+1)
		b.WriteString("ACTION {\n")
		attr(b, depth+2, "symbol", a.Symbol)
		attr(b, depth+2, "lock", a.Lock)
		boolAttr(b, depth+2, "interrupt", a.Interrupt)
		attr(b, depth+2, "exec_on", string(a.ExecOn))
		boolAttr(b, depth+2, "update_retcode", a.UpdateRetcode)
		attr(b, depth+2, "stdin", string(a.StdinDisp))
		attr(b, depth+2, "stdout", string(a.StdoutDisp))
		attr(b, depth+2, "stderr", string(a.StderrDisp))
		attr(b, depth+2, "script", a.Script)
		indent(b, depth+1)
		b.WriteString("}\n")
	}

	for _, h := range e.Hotkeys {
		indent(b, depth+1)
		b.WriteString("HOTKEY {\n")
		attr(b, depth+2, "key", h.Key)
		attr(b, depth+2, "command", h.CommandRef)
		indent(b, depth+1)
		b.WriteString("}\n")
	}

	for _, c := range e.Entries {
		writeEntry(b, c, depth+1)
	}

	indent(b, depth)
	b.WriteString("}\n")
}

func attr(b *strings.Builder, depth int, name, value string) {
	if value == "" {
		return
	}
	indent(b, depth)
	fmt.Fprintf(b, ".%s = \"%s\",\n", name, cEscape(value))
}

func boolAttr(b *strings.Builder, depth int, name string, value bool) {
	if !value {
		return
	}
	indent(b, depth)
	fmt.Fprintf(b, ".%s = \"true\",\n", name)
}

func intAttr(b *strings.Builder, depth int, name string, value int) {
	if value == 0 {
		return
	}
	indent(b, depth)
	fmt.Fprintf(b, ".%s = \"%d\",\n", name, value)
}

func triAttr(b *strings.Builder, depth int, name string, t kscheme.Tri) {
	if t == kscheme.TriUnset {
		return
	}
	indent(b, depth)
	fmt.Fprintf(b, ".%s = \"%s\",\n", name, strconv.FormatBool(t == kscheme.TriTrue))
}

// cEscape escapes backslash, double quote, and control characters per
// spec.md §6.
func cEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
