// Package render provides the path template renderer.
//
// Templates use a small mustache-style syntax:
//
//	{{member}}                 the exported symbol's source-side name
//	{{matches.[1]}}            a capture group of the package pattern
//	{{memberMatches.[1]}}      a capture group of the member pattern
//	{{kebabCase member}}       a helper applied to a binding
//
// Output is never HTML-escaped.
package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Context is the data available to a template.
type Context struct {
	// Matches are the package pattern's capture groups; index 0 is the whole match.
	Matches []string
	// Member is the exported symbol's source-side name, or "*" for export-all.
	Member string
	// MemberMatches are the member pattern's capture groups. Nil outside
	// member-rule rendering.
	MemberMatches []string
}

// Helper transforms a single string argument.
type Helper func(string) string

// Renderer renders templates. It is immutable after New and safe for
// concurrent use.
type Renderer struct {
	helpers map[string]Helper
}

// New creates a renderer with the lowerCase, upperCase, camelCase and kebabCase helpers.
func New() *Renderer {
	return &Renderer{helpers: map[string]Helper{
		"lowerCase": LowerCase,
		"upperCase": UpperCase,
		"camelCase": CamelCase,
		"kebabCase": KebabCase,
	}}
}

// Error describes a template that could not be parsed or rendered.
type Error struct {
	Template string
	Offset   int
	Msg      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("template %q at offset %d: %s", e.Template, e.Offset, e.Msg)
}

// Render renders tpl with ctx.
func (r *Renderer) Render(tpl string, ctx Context) (string, error) {
	nodes, err := parse(tpl)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, n := range nodes {
		if n.expr == nil {
			b.WriteString(n.text)
			continue
		}
		s, err := r.eval(tpl, n, ctx)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (r *Renderer) eval(tpl string, n node, ctx Context) (string, error) {
	fail := func(format string, args ...interface{}) (string, error) {
		return "", &Error{Template: tpl, Offset: n.offset, Msg: fmt.Sprintf(format, args...)}
	}

	var helper Helper
	path := n.expr.path
	if n.expr.helper != "" {
		h, ok := r.helpers[n.expr.helper]
		if !ok {
			return fail("unknown helper %q", n.expr.helper)
		}
		helper = h
	}

	value, err := lookup(path, ctx)
	if err != nil {
		return fail("%v", err)
	}
	if helper != nil {
		value = helper(value)
	}
	return value, nil
}

func lookup(path []string, ctx Context) (string, error) {
	var seq []string
	switch path[0] {
	case "member":
		if len(path) > 1 {
			return "", fmt.Errorf("member has no field %q", path[1])
		}
		return ctx.Member, nil
	case "matches":
		seq = ctx.Matches
	case "memberMatches":
		if ctx.MemberMatches == nil {
			return "", fmt.Errorf("memberMatches is only available in member rules")
		}
		seq = ctx.MemberMatches
	default:
		return "", fmt.Errorf("unknown binding %q", strings.Join(path, "."))
	}

	switch len(path) {
	case 1:
		return "", fmt.Errorf("%s is a list, use %s.[index]", path[0], path[0])
	case 2:
	default:
		return "", fmt.Errorf("%s.[%s] has no field %q", path[0], path[1], path[2])
	}

	i, err := strconv.Atoi(path[1])
	if err != nil || i < 0 {
		return "", fmt.Errorf("invalid index %q for %s", path[1], path[0])
	}
	if i >= len(seq) {
		return "", fmt.Errorf("index %d out of range for %s (len %d)", i, path[0], len(seq))
	}
	return seq[i], nil
}

type expr struct {
	helper string
	path   []string
}

type node struct {
	text   string
	expr   *expr
	offset int
}

func parse(tpl string) ([]node, error) {
	var nodes []node
	var text strings.Builder
	textStart := 0

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, node{text: text.String(), offset: textStart})
			text.Reset()
		}
	}

	i := 0
	for i < len(tpl) {
		if strings.HasPrefix(tpl[i:], `\{{`) {
			if text.Len() == 0 {
				textStart = i
			}
			text.WriteString("{{")
			i += 3
			continue
		}
		if !strings.HasPrefix(tpl[i:], "{{") {
			if text.Len() == 0 {
				textStart = i
			}
			text.WriteByte(tpl[i])
			i++
			continue
		}

		end := strings.Index(tpl[i+2:], "}}")
		if end < 0 {
			return nil, &Error{Template: tpl, Offset: i, Msg: "unclosed tag"}
		}
		body := tpl[i+2 : i+2+end]
		e, err := parseExpr(body)
		if err != nil {
			return nil, &Error{Template: tpl, Offset: i, Msg: err.Error()}
		}

		flush()
		nodes = append(nodes, node{expr: e, offset: i})
		i += 2 + end + 2
	}
	flush()

	return nodes, nil
}

func parseExpr(body string) (*expr, error) {
	if strings.Contains(body, "{{") {
		return nil, fmt.Errorf("nested tag")
	}

	fields := strings.Fields(body)
	switch len(fields) {
	case 0:
		return nil, fmt.Errorf("empty tag")
	case 1:
		path, err := parsePath(fields[0])
		if err != nil {
			return nil, err
		}
		return &expr{path: path}, nil
	case 2:
		if !isIdent(fields[0]) {
			return nil, fmt.Errorf("invalid helper name %q", fields[0])
		}
		path, err := parsePath(fields[1])
		if err != nil {
			return nil, err
		}
		return &expr{helper: fields[0], path: path}, nil
	default:
		return nil, fmt.Errorf("helpers take exactly one argument, got %d", len(fields)-1)
	}
}

// parsePath splits "matches.[1]" or "matches.1" into its segments.
func parsePath(s string) ([]string, error) {
	var path []string
	rest := s
	for {
		var seg string
		if strings.HasPrefix(rest, "[") {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("unclosed segment in %q", s)
			}
			seg = rest[1:end]
			rest = rest[end+1:]
		} else {
			end := strings.IndexByte(rest, '.')
			if end < 0 {
				end = len(rest)
			}
			seg = rest[:end]
			rest = rest[end:]
			if !isIdent(seg) && !isDigits(seg) {
				return nil, fmt.Errorf("invalid path %q", s)
			}
		}
		if seg == "" {
			return nil, fmt.Errorf("empty segment in %q", s)
		}
		path = append(path, seg)

		if rest == "" {
			break
		}
		if rest[0] != '.' {
			return nil, fmt.Errorf("invalid path %q", s)
		}
		rest = rest[1:]
	}

	if !isIdent(path[0]) {
		return nil, fmt.Errorf("invalid path %q", s)
	}
	return path, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
