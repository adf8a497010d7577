// Package rewrite turns a barrel re-export into per-symbol re-exports.
package rewrite

import (
	"fmt"
	"regexp"

	"github.com/Helloyunho/transform-exports/ast"
	"github.com/Helloyunho/transform-exports/pattern"
	"github.com/Helloyunho/transform-exports/printer"
	"github.com/Helloyunho/transform-exports/render"
)

var dupSlash = regexp.MustCompile(`/{2,}`)

// Normalize collapses runs of "/" into one.
func Normalize(path string) string {
	return dupSlash.ReplaceAllString(path, "/")
}

// Rewriter rewrites the export statements of one matched package source.
type Rewriter struct {
	Renderer *render.Renderer
	// Package is the statement's source path.
	Package string
	Rule    *pattern.Rule
	// Groups are the package pattern's capture groups for Package.
	Groups []string
}

// RewriteNamed rewrites `export { a, b as c } from "pkg"` into one statement
// per specifier, so `export {} from "pkg"` yields none. The statement is
// returned unchanged when it is type-only, carries an attributes clause, or
// contains a namespace or default specifier (unless the rule prevents full
// exports, which is an error).
func (r *Rewriter) RewriteNamed(decl *ast.NamedExport) ([]*ast.NamedExport, error) {
	if decl.TypeOnly || decl.With != "" {
		return []*ast.NamedExport{decl}, nil
	}

	out := make([]*ast.NamedExport, 0, len(decl.Specifiers))
	for _, spec := range decl.Specifiers {
		switch s := spec.(type) {
		case *ast.NamedSpecifier:
			path, err := r.path(s.Orig.Value)
			if err != nil {
				return nil, err
			}

			var newSpec ast.Specifier
			if r.Rule.SkipDefaultConversion {
				named := *s
				newSpec = &named
			} else {
				// A specifier-level `type` is dropped: the namespace form has no
				// type-only variant.
				newSpec = &ast.NamespaceSpecifier{Name: s.ExportedName()}
			}

			out = append(out, &ast.NamedExport{
				Specifiers: []ast.Specifier{newSpec},
				Src:        &ast.Str{Value: path},
			})
		case *ast.NamespaceSpecifier, *ast.DefaultSpecifier:
			if r.Rule.PreventFullExport {
				return nil, &FullExportError{Package: r.Package, Statement: printer.Statement(decl)}
			}
			// Give up on the whole statement.
			return []*ast.NamedExport{decl}, nil
		default:
			return nil, fmt.Errorf("unsupported export specifier %T", spec)
		}
	}

	return out, nil
}

// RewriteAll rewrites `export * from "pkg"` with the member "*".
func (r *Rewriter) RewriteAll(decl *ast.ExportAll) ([]*ast.ExportAll, error) {
	if decl.TypeOnly || decl.With != "" {
		return []*ast.ExportAll{decl}, nil
	}

	path, err := r.path("*")
	if err != nil {
		return nil, err
	}

	return []*ast.ExportAll{{Src: ast.Str{Value: path}}}, nil
}

func (r *Rewriter) path(member string) (string, error) {
	ctx := render.Context{Matches: r.Groups, Member: member}
	tpl := r.Rule.Template

	if r.Rule.HasMembers() {
		rule, groups, ok := r.Rule.MatchMember(member)
		if !ok {
			return "", &MissingRuleError{Member: member, Package: r.Package}
		}
		tpl = rule.Template
		ctx.MemberMatches = groups
	}

	s, err := r.Renderer.Render(tpl, ctx)
	if err != nil {
		return "", &RenderError{Package: r.Package, Template: tpl, Err: err}
	}
	return Normalize(s), nil
}
