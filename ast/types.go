// Package ast defines the module statements the export rewriter reads and writes.
package ast

// Module is the ordered list of a module's top-level items.
type Module struct {
	Items []Item
}

// Item is a top-level module item: *Raw, *NamedExport or *ExportAll.
type Item interface {
	item()
}

// Raw is source text the rewriter never inspects: non-export statements,
// comments and the whitespace between statements.
type Raw struct {
	Text string
}

// Str is a string literal.
type Str struct {
	Value string
}

// NamedExport is `export { a, b as c } from "src"` or `export * as ns from "src"`.
type NamedExport struct {
	Specifiers []Specifier
	// Src is nil for local exports such as `export { a }`.
	Src      *Str
	TypeOnly bool
	// With is the verbatim attributes clause (`with { type: "json" }`), if any.
	With string
	// Text is the original source of the statement. Empty for generated statements.
	Text string
}

// ExportAll is `export * from "src"`.
type ExportAll struct {
	Src      Str
	TypeOnly bool
	With     string
	Text     string
}

func (*Raw) item()         {}
func (*NamedExport) item() {}
func (*ExportAll) item()   {}

// ModuleExportName is an identifier or, for arbitrary module namespace
// names, a string literal.
type ModuleExportName struct {
	Value    string
	IsString bool
}

// Ident returns an identifier export name.
func Ident(name string) ModuleExportName {
	return ModuleExportName{Value: name}
}

// Specifier is a *NamedSpecifier, *NamespaceSpecifier or *DefaultSpecifier.
type Specifier interface {
	specifier()
}

// NamedSpecifier is `orig` or `orig as exported`.
type NamedSpecifier struct {
	Orig     ModuleExportName
	Exported *ModuleExportName
	TypeOnly bool
}

// NamespaceSpecifier is `* as name`.
type NamespaceSpecifier struct {
	Name ModuleExportName
}

// DefaultSpecifier is the `export v from "mod"` form.
type DefaultSpecifier struct {
	Exported string
}

func (*NamedSpecifier) specifier()     {}
func (*NamespaceSpecifier) specifier() {}
func (*DefaultSpecifier) specifier()   {}

// ExportedName returns the name the specifier is exported under.
func (s *NamedSpecifier) ExportedName() ModuleExportName {
	if s.Exported != nil {
		return *s.Exported
	}
	return s.Orig
}
