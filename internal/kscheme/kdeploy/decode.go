package kdeploy

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"klish/internal/kscheme"
)

// token kinds for the hand-written lexer below: the deploy grammar is
// small enough (tags, braces, .attr = "value", commas) that a table-
// driven lexer/generated parser would be overkill, matching the
// teacher's own preference for small hand-written recursive-descent
// code over parser generators (dsl/raw.go).
type tokenKind int

const (
	tokTag tokenKind = iota
	tokLBrace
	tokRBrace
	tokAttrName
	tokString
	tokEq
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	s   []rune
	pos int
}

func newLexer(s string) *lexer { return &lexer{s: []rune(s)} }

func (l *lexer) skipSpace() {
	for l.pos < len(l.s) && unicode.IsSpace(l.s[l.pos]) {
		l.pos++
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.s) {
		return token{kind: tokEOF}, nil
	}
	r := l.s[l.pos]
	switch r {
	case '{':
		l.pos++
		return token{kind: tokLBrace}, nil
	case '}':
		l.pos++
		return token{kind: tokRBrace}, nil
	case '=':
		l.pos++
		return token{kind: tokEq}, nil
	case ',':
		l.pos++
		return token{kind: tokComma}, nil
	case '"':
		return l.lexString()
	case '.':
		l.pos++
		start := l.pos
		for l.pos < len(l.s) && (unicode.IsLetter(l.s[l.pos]) || l.s[l.pos] == '_') {
			l.pos++
		}
		return token{kind: tokAttrName, text: string(l.s[start:l.pos])}, nil
	default:
		if unicode.IsUpper(r) {
			start := l.pos
			for l.pos < len(l.s) && (unicode.IsUpper(l.s[l.pos]) || l.s[l.pos] == '_') {
				l.pos++
			}
			return token{kind: tokTag, text: string(l.s[start:l.pos])}, nil
		}
		return token{}, fmt.Errorf("kdeploy: unexpected character %q at offset %d", r, l.pos)
	}
}

func (l *lexer) lexString() (token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.s) {
		r := l.s[l.pos]
		if r == '"' {
			l.pos++
			return token{kind: tokString, text: b.String()}, nil
		}
		if r == '\\' && l.pos+1 < len(l.s) {
			l.pos++
			switch l.s[l.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case 'x':
				if l.pos+2 < len(l.s) {
					v, err := strconv.ParseInt(string(l.s[l.pos+1:l.pos+3]), 16, 32)
					if err == nil {
						b.WriteRune(rune(v))
						l.pos += 2
					}
				}
			default:
				b.WriteRune(l.s[l.pos])
			}
			l.pos++
			continue
		}
		b.WriteRune(r)
		l.pos++
	}
	return token{}, fmt.Errorf("kdeploy: unterminated string literal")
}

// parser walks a flat token stream produced by lexer, building an Image.
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.advance()
	if t.kind != k {
		return t, fmt.Errorf("kdeploy: expected token kind %d, got %q (kind %d)", k, t.text, t.kind)
	}
	return t, nil
}

// Decode parses the canonical deploy text back into a kscheme.Image
// (the round-trip direction of Encode).
func Decode(text string) (kscheme.Image, error) {
	lx := newLexer(text)
	var toks []token
	for {
		t, err := lx.next()
		if err != nil {
			return kscheme.Image{}, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			break
		}
	}

	p := &parser{toks: toks}
	img := kscheme.Image{}

	for p.peek().kind != tokEOF {
		tag, err := p.expect(tokTag)
		if err != nil {
			return kscheme.Image{}, err
		}
		if _, err := p.expect(tokLBrace); err != nil {
			return kscheme.Image{}, err
		}

		switch tag.text {
		case "PTYPE_LIST":
			for p.peek().kind == tokTag {
				e, err := p.parseEntry()
				if err != nil {
					return kscheme.Image{}, err
				}
				img.Ptypes = append(img.Ptypes, e)
			}
		case "PLUGIN_LIST":
			for p.peek().kind == tokTag {
				pl, err := p.parsePlugin()
				if err != nil {
					return kscheme.Image{}, err
				}
				img.Plugins = append(img.Plugins, pl)
			}
		case "VIEW_LIST":
			for p.peek().kind == tokTag {
				e, err := p.parseEntry()
				if err != nil {
					return kscheme.Image{}, err
				}
				img.Views = append(img.Views, e)
			}
		default:
			return kscheme.Image{}, fmt.Errorf("kdeploy: unknown top-level section %q", tag.text)
		}

		if _, err := p.expect(tokRBrace); err != nil {
			return kscheme.Image{}, err
		}
	}

	return img, nil
}

// parseAttrs consumes zero or more ".name = \"value\"," pairs, stopping
// at the first nested tag or closing brace.
func (p *parser) parseAttrs() (map[string][]string, error) {
	attrs := map[string][]string{}
	for p.peek().kind == tokAttrName {
		name := p.advance().text
		if _, err := p.expect(tokEq); err != nil {
			return nil, err
		}
		val, err := p.expect(tokString)
		if err != nil {
			return nil, err
		}
		attrs[name] = append(attrs[name], val.text)
		if p.peek().kind == tokComma {
			p.advance()
		}
	}
	return attrs, nil
}

func (p *parser) parseEntry() (kscheme.EntryImage, error) {
	if _, err := p.expect(tokTag); err != nil {
		return kscheme.EntryImage{}, err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return kscheme.EntryImage{}, err
	}
	attrs, err := p.parseAttrs()
	if err != nil {
		return kscheme.EntryImage{}, err
	}

	e := kscheme.EntryImage{
		Name:      first(attrs, "name"),
		Help:      first(attrs, "help"),
		Purpose:   kscheme.Purpose(first(attrs, "purpose")),
		Mode:      kscheme.Mode(first(attrs, "mode")),
		Container: first(attrs, "container") == "true",
		Min:       atoiOr(first(attrs, "min"), 0),
		Max:       atoiOr(first(attrs, "max"), 0),
		Ref:       first(attrs, "ref"),
		Ptype:     first(attrs, "ptype"),
		Value:     attrs["value"],
		Restore:   atoiOr(first(attrs, "restore"), 0),
		Order:     atoiOr(first(attrs, "order"), 0),
		Access:    first(attrs, "access"),
		Filter:    first(attrs, "filter") == "true",
	}

	for p.peek().kind == tokTag {
		switch p.peek().text {
		case "ACTION":
			a, err := p.parseAction()
			if err != nil {
				return e, err
			}
			e.Actions = append(e.Actions, a)
		case "HOTKEY":
			h, err := p.parseHotkey()
			if err != nil {
				return e, err
			}
			e.Hotkeys = append(e.Hotkeys, h)
		case "ENTRY":
			c, err := p.parseEntry()
			if err != nil {
				return e, err
			}
			e.Entries = append(e.Entries, c)
		default:
			return e, fmt.Errorf("kdeploy: unexpected nested tag %q inside ENTRY", p.peek().text)
		}
	}

	if _, err := p.expect(tokRBrace); err != nil {
		return e, err
	}
	return e, nil
}

func (p *parser) parseAction() (kscheme.ActionImage, error) {
	if _, err := p.expect(tokTag); err != nil {
		return kscheme.ActionImage{}, err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return kscheme.ActionImage{}, err
	}
	attrs, err := p.parseAttrs()
	if err != nil {
		return kscheme.ActionImage{}, err
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return kscheme.ActionImage{}, err
	}
	return kscheme.ActionImage{
		Symbol:        first(attrs, "symbol"),
		Lock:          first(attrs, "lock"),
		Interrupt:     first(attrs, "interrupt") == "true",
		ExecOn:        kscheme.ExecOn(first(attrs, "exec_on")),
		UpdateRetcode: first(attrs, "update_retcode") == "true",
		StdinDisp:     kscheme.StreamDisposition(first(attrs, "stdin")),
		StdoutDisp:    kscheme.StreamDisposition(first(attrs, "stdout")),
		StderrDisp:    kscheme.StreamDisposition(first(attrs, "stderr")),
		Script:        first(attrs, "script"),
	}, nil
}

func (p *parser) parseHotkey() (kscheme.HotkeyImage, error) {
	if _, err := p.expect(tokTag); err != nil {
		return kscheme.HotkeyImage{}, err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return kscheme.HotkeyImage{}, err
	}
	attrs, err := p.parseAttrs()
	if err != nil {
		return kscheme.HotkeyImage{}, err
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return kscheme.HotkeyImage{}, err
	}
	return kscheme.HotkeyImage{Key: first(attrs, "key"), CommandRef: first(attrs, "command")}, nil
}

func (p *parser) parsePlugin() (kscheme.PluginImage, error) {
	if _, err := p.expect(tokTag); err != nil {
		return kscheme.PluginImage{}, err
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return kscheme.PluginImage{}, err
	}
	attrs, err := p.parseAttrs()
	if err != nil {
		return kscheme.PluginImage{}, err
	}

	pl := kscheme.PluginImage{
		Name:   first(attrs, "name"),
		ID:     first(attrs, "id"),
		File:   first(attrs, "file"),
		Global: first(attrs, "global") == "true",
		Conf:   first(attrs, "conf"),
	}

	for p.peek().kind == tokTag && p.peek().text == "SYMBOL" {
		p.advance()
		if _, err := p.expect(tokLBrace); err != nil {
			return pl, err
		}
		sattrs, err := p.parseAttrs()
		if err != nil {
			return pl, err
		}
		if _, err := p.expect(tokRBrace); err != nil {
			return pl, err
		}
		pl.Symbols = append(pl.Symbols, kscheme.SymbolImage{
			Name:      first(sattrs, "name"),
			Permanent: triFromStr(first(sattrs, "permanent")),
			Sync:      triFromStr(first(sattrs, "sync")),
			Silent:    first(sattrs, "silent") == "true",
		})
	}

	if _, err := p.expect(tokRBrace); err != nil {
		return pl, err
	}
	return pl, nil
}

func first(attrs map[string][]string, name string) string {
	v := attrs[name]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func triFromStr(s string) kscheme.Tri {
	switch s {
	case "true":
		return kscheme.TriTrue
	case "false":
		return kscheme.TriFalse
	default:
		return kscheme.TriUnset
	}
}
