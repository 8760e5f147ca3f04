package kparser

import "strings"

// SplitPipes splits a line into pipeline segments on unquoted, unescaped
// '|' characters (spec.md §4.E, §5 "Pipeline: an ordered list of
// contexts produced by pipe-splitting one line").
//
// No example repo in the retrieval pack ships a shell-grammar tokenizer
// library (the closest, google/shlex-style splitters, are absent from
// the pack), so this and Tokenize below are hand-written against the
// stdlib — see DESIGN.md.
func SplitPipes(line string) []string {
	var segs []string
	var cur strings.Builder
	inSingle, inDouble, escaped := false, false, false

	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && !inSingle:
			cur.WriteRune(r)
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteRune(r)
		case r == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteRune(r)
		case r == '|' && !inSingle && !inDouble:
			segs = append(segs, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	segs = append(segs, cur.String())
	return segs
}

// Tokenize splits one pipeline segment into whitespace-separated tokens,
// honoring single/double quoting and backslash escapes, and unquotes the
// result. It reports whether the segment ended inside an open quote or
// a trailing escape (the parser's "continuation" case for purpose ≠
// exec, spec.md §4.E edge cases).
func Tokenize(segment string) (tokens []string, continuation bool) {
	var cur strings.Builder
	haveToken := false
	inSingle, inDouble, escaped := false, false, false

	flush := func() {
		if haveToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			haveToken = false
		}
	}

	for _, r := range segment {
		switch {
		case escaped:
			cur.WriteRune(r)
			haveToken = true
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
			haveToken = true
		case inSingle:
			if r == '\'' {
				inSingle = false
			} else {
				cur.WriteRune(r)
			}
			haveToken = true
		case inDouble:
			if r == '"' {
				inDouble = false
			} else {
				cur.WriteRune(r)
			}
			haveToken = true
		case r == '\'':
			inSingle = true
			haveToken = true
		case r == '"':
			inDouble = true
			haveToken = true
		case r == ' ' || r == '\t':
			flush()
		default:
			cur.WriteRune(r)
			haveToken = true
		}
	}
	flush()

	return tokens, inSingle || inDouble || escaped
}
