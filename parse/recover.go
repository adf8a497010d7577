package parse

import "bytes"

// The grammars predate import attributes (`from "x" with { type: "json" }`,
// `assert { ... }`) and TypeScript's `export type * from "x"`. Those clauses
// are located lexically, blanked out with spaces and the source re-parsed.
// Blanking keeps every byte offset, so nodes of the second tree still index
// the original content.

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokPunct
	tokOther // numbers, templates, regular expressions
)

type token struct {
	kind       tokenKind
	start, end int
}

// patch is a source range the grammar cannot parse.
type patch struct {
	stmt       int // offset of the statement's import or export keyword
	start, end int
	typeOnly   bool // the range is the `type` of `export type *`
}

// findPatches returns the attribute clauses of import and export statements
// and, when typeStar is set, the `type` keywords of `export type *`.
func findPatches(src []byte, typeStar bool) []patch {
	toks := scanTokens(src)

	text := func(i int) string {
		if i < 0 || i >= len(toks) {
			return ""
		}
		return string(src[toks[i].start:toks[i].end])
	}
	is := func(i int, kind tokenKind, s string) bool {
		return i >= 0 && i < len(toks) && toks[i].kind == kind && text(i) == s
	}

	var patches []patch
	stmt := -1
	for i, t := range toks {
		if t.kind == tokIdent && (text(i) == "export" || text(i) == "import") {
			stmt = t.start
			if typeStar && text(i) == "export" && is(i+1, tokIdent, "type") && is(i+2, tokPunct, "*") {
				patches = append(patches, patch{stmt: t.start, start: toks[i+1].start, end: toks[i+1].end, typeOnly: true})
			}
			continue
		}

		if t.kind != tokString || stmt < 0 {
			continue
		}
		if !is(i-1, tokIdent, "from") && !is(i-1, tokIdent, "import") {
			continue
		}
		if !is(i+1, tokIdent, "with") && !is(i+1, tokIdent, "assert") {
			continue
		}
		if !is(i+2, tokPunct, "{") {
			continue
		}
		end := matchBrace(src, toks, i+2)
		if end < 0 {
			continue
		}
		patches = append(patches, patch{stmt: stmt, start: toks[i+1].start, end: toks[end].end})
	}

	return patches
}

// matchBrace returns the index of the token closing the brace at open, or -1
// if the statement ends first.
func matchBrace(src []byte, toks []token, open int) int {
	depth := 0
	for j := open; j < len(toks); j++ {
		if toks[j].kind != tokPunct {
			continue
		}
		switch src[toks[j].start] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		case ';':
			return -1
		}
	}
	return -1
}

// blank returns a copy of src with the patched ranges replaced by spaces.
// Line breaks are kept so positions in later errors stay meaningful.
func blank(src []byte, patches []patch) []byte {
	out := bytes.Clone(src)
	for _, p := range patches {
		for i := p.start; i < p.end; i++ {
			if out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
			}
		}
	}
	return out
}

// patchesFor returns the patches belonging to the statement spanning
// [start, end).
func patchesFor(patches []patch, start, end int) []patch {
	var out []patch
	for _, p := range patches {
		if p.stmt >= start && p.stmt < end {
			out = append(out, p)
		}
	}
	return out
}

// scanTokens splits src into identifiers, string literals and punctuation.
// Whitespace and comments are skipped; template and regular expression
// literals become single opaque tokens.
func scanTokens(src []byte) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			if end := bytes.Index(src[i+2:], []byte("*/")); end >= 0 {
				i += end + 4
			} else {
				i = len(src)
			}
		case c == '"' || c == '\'':
			end := skipString(src, i)
			toks = append(toks, token{tokString, i, end})
			i = end
		case c == '`':
			end := skipTemplate(src, i)
			toks = append(toks, token{tokOther, i, end})
			i = end
		case c == '/' && regexAllowed(src, toks):
			end := skipRegex(src, i)
			toks = append(toks, token{tokOther, i, end})
			i = end
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, i, j})
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokOther, i, j})
			i = j
		default:
			toks = append(toks, token{tokPunct, i, i + 1})
			i++
		}
	}
	return toks
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// skipString returns the offset just past the string literal at i.
func skipString(src []byte, i int) int {
	quote := src[i]
	j := i + 1
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
			continue
		case quote:
			return j + 1
		case '\n':
			return j
		}
		j++
	}
	return len(src)
}

// skipTemplate returns the offset just past the template literal at i.
func skipTemplate(src []byte, i int) int {
	j := i + 1
	for j < len(src) {
		switch {
		case src[j] == '\\':
			j += 2
		case src[j] == '`':
			return j + 1
		case src[j] == '$' && j+1 < len(src) && src[j+1] == '{':
			j = skipBraces(src, j+2)
		default:
			j++
		}
	}
	return len(src)
}

// skipBraces returns the offset just past the `}` closing a substitution
// whose body starts at i.
func skipBraces(src []byte, i int) int {
	depth := 1
	j := i
	for j < len(src) {
		switch src[j] {
		case '"', '\'':
			j = skipString(src, j)
			continue
		case '`':
			j = skipTemplate(src, j)
			continue
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
		j++
	}
	return len(src)
}

var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// regexAllowed reports whether a `/` after toks starts a regular expression
// rather than a division.
func regexAllowed(src []byte, toks []token) bool {
	if len(toks) == 0 {
		return true
	}
	prev := toks[len(toks)-1]
	switch prev.kind {
	case tokIdent:
		return regexKeywords[string(src[prev.start:prev.end])]
	case tokPunct:
		switch src[prev.start] {
		case ')', ']', '}':
			return false
		}
		return true
	}
	return false
}

// skipRegex returns the offset just past the regular expression literal at i,
// flags included.
func skipRegex(src []byte, i int) int {
	inClass := false
	j := i + 1
	for j < len(src) {
		c := src[j]
		switch {
		case c == '\\':
			j += 2
			continue
		case c == '\n':
			return j
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '/':
			j++
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			return j
		}
		j++
	}
	return len(src)
}
