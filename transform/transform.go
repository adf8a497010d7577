// Package transform rewrites barrel re-exports in a module into per-symbol
// re-exports according to a set of package rules.
package transform

import (
	"bytes"
	"fmt"

	"github.com/Helloyunho/transform-exports/ast"
	"github.com/Helloyunho/transform-exports/config"
	"github.com/Helloyunho/transform-exports/parse"
	"github.com/Helloyunho/transform-exports/pattern"
	"github.com/Helloyunho/transform-exports/printer"
	"github.com/Helloyunho/transform-exports/render"
	"github.com/Helloyunho/transform-exports/rewrite"
)

// Transformer holds the pattern table and renderer built from a
// configuration. It is safe for concurrent use across modules.
type Transformer struct {
	table    *pattern.Table
	renderer *render.Renderer
	parser   *parse.Parser
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithParser sets the parser used by Source.
func WithParser(p *parse.Parser) Option {
	return func(t *Transformer) {
		t.parser = p
	}
}

// New builds a Transformer. It fails if any pattern is invalid.
func New(cfg *config.Config, opts ...Option) (*Transformer, error) {
	table, err := pattern.NewTable(cfg)
	if err != nil {
		return nil, fmt.Errorf("building pattern table: %w", err)
	}

	t := &Transformer{
		table:    table,
		renderer: render.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.parser == nil {
		t.parser = parse.NewParser()
	}
	return t, nil
}

// Table returns the pattern table.
func (t *Transformer) Table() *pattern.Table {
	return t.table
}

// Module rewrites the top-level export statements of m and returns a new
// module. m is not modified. On error no module is returned.
func (t *Transformer) Module(m *ast.Module) (*ast.Module, error) {
	out := &ast.Module{Items: make([]ast.Item, 0, len(m.Items))}

	for _, it := range m.Items {
		switch decl := it.(type) {
		case *ast.NamedExport:
			if decl.Src == nil {
				out.Items = append(out.Items, decl)
				continue
			}
			rw := t.rewriter(decl.Src.Value)
			if rw == nil {
				out.Items = append(out.Items, decl)
				continue
			}
			rewritten, err := rw.RewriteNamed(decl)
			if err != nil {
				return nil, err
			}
			for _, r := range rewritten {
				out.Items = append(out.Items, r)
			}
		case *ast.ExportAll:
			rw := t.rewriter(decl.Src.Value)
			if rw == nil {
				out.Items = append(out.Items, decl)
				continue
			}
			rewritten, err := rw.RewriteAll(decl)
			if err != nil {
				return nil, err
			}
			for _, r := range rewritten {
				out.Items = append(out.Items, r)
			}
		default:
			out.Items = append(out.Items, it)
		}
	}

	return out, nil
}

func (t *Transformer) rewriter(source string) *rewrite.Rewriter {
	entry, groups, ok := t.table.Lookup(source)
	if !ok {
		return nil
	}
	return &rewrite.Rewriter{
		Renderer: t.renderer,
		Package:  source,
		Rule:     &entry.Rule,
		Groups:   groups,
	}
}

// Source parses content, rewrites it and prints the result. changed reports
// whether the output differs from content.
func (t *Transformer) Source(content []byte, lang string) (out []byte, changed bool, err error) {
	m, err := t.parser.Parse(content, lang)
	if err != nil {
		return nil, false, err
	}

	rewritten, err := t.Module(m)
	if err != nil {
		return nil, false, err
	}

	out = printer.Print(rewritten)
	return out, !bytes.Equal(out, content), nil
}
