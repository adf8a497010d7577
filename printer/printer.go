// Package printer writes modules back to source text.
package printer

import (
	"fmt"
	"strings"

	"github.com/Helloyunho/transform-exports/ast"
)

// Print renders m. Items that carry their original text are written
// verbatim; consecutive generated statements are separated by newlines.
func Print(m *ast.Module) []byte {
	var b strings.Builder
	prevGenerated := false

	for _, it := range m.Items {
		generated := isGenerated(it)
		if generated && prevGenerated {
			b.WriteByte('\n')
		}
		b.WriteString(Statement(it))
		prevGenerated = generated
	}

	return []byte(b.String())
}

func isGenerated(it ast.Item) bool {
	switch s := it.(type) {
	case *ast.NamedExport:
		return s.Text == ""
	case *ast.ExportAll:
		return s.Text == ""
	}
	return false
}

// Statement renders a single item.
func Statement(it ast.Item) string {
	switch s := it.(type) {
	case *ast.Raw:
		return s.Text
	case *ast.NamedExport:
		if s.Text != "" {
			return s.Text
		}
		return namedExport(s)
	case *ast.ExportAll:
		if s.Text != "" {
			return s.Text
		}
		return exportAll(s)
	default:
		panic(fmt.Sprintf("printer: unexpected item %T", it))
	}
}

func namedExport(s *ast.NamedExport) string {
	var b strings.Builder
	b.WriteString("export ")
	if s.TypeOnly {
		b.WriteString("type ")
	}

	var heads []string
	var named []string
	for _, spec := range s.Specifiers {
		switch sp := spec.(type) {
		case *ast.DefaultSpecifier:
			heads = append(heads, sp.Exported)
		case *ast.NamespaceSpecifier:
			heads = append(heads, "* as "+exportName(sp.Name))
		case *ast.NamedSpecifier:
			named = append(named, namedSpecifier(sp))
		default:
			panic(fmt.Sprintf("printer: unexpected specifier %T", spec))
		}
	}

	b.WriteString(strings.Join(heads, ", "))
	if len(named) > 0 || len(heads) == 0 {
		if len(heads) > 0 {
			b.WriteString(", ")
		}
		if len(named) == 0 {
			b.WriteString("{}")
		} else {
			b.WriteString("{ ")
			b.WriteString(strings.Join(named, ", "))
			b.WriteString(" }")
		}
	}

	if s.Src != nil {
		b.WriteString(" from ")
		b.WriteString(Quote(s.Src.Value))
	}
	if s.With != "" {
		b.WriteByte(' ')
		b.WriteString(s.With)
	}
	b.WriteByte(';')
	return b.String()
}

func namedSpecifier(sp *ast.NamedSpecifier) string {
	out := exportName(sp.Orig)
	if sp.TypeOnly {
		out = "type " + out
	}
	if sp.Exported != nil {
		out += " as " + exportName(*sp.Exported)
	}
	return out
}

func exportAll(s *ast.ExportAll) string {
	var b strings.Builder
	b.WriteString("export ")
	if s.TypeOnly {
		b.WriteString("type ")
	}
	b.WriteString("* from ")
	b.WriteString(Quote(s.Src.Value))
	if s.With != "" {
		b.WriteByte(' ')
		b.WriteString(s.With)
	}
	b.WriteByte(';')
	return b.String()
}

func exportName(n ast.ModuleExportName) string {
	if n.IsString {
		return Quote(n.Value)
	}
	return n.Value
}

// Quote returns s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
