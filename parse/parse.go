// Package parse provides Tree-sitter based parsing of JavaScript and TypeScript
// modules into the statement list the export rewriter works on.
package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/Helloyunho/transform-exports/ast"
)

// SyntaxError reports source that did not parse cleanly.
type SyntaxError struct {
	Line   int // 1-based
	Column int // 1-based
	Near   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Near)
}

// Parser wraps the Tree-sitter parsers for each supported language.
// Parsers are not reentrant, so calls are serialized.
type Parser struct {
	mu        sync.Mutex
	jsParser  *sitter.Parser
	tsParser  *sitter.Parser
	tsxParser *sitter.Parser
}

// NewParser creates a parser for JavaScript, TypeScript and TSX.
func NewParser() *Parser {
	jsParser := sitter.NewParser()
	jsParser.SetLanguage(javascript.GetLanguage())

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(typescript.GetLanguage())

	tsxParser := sitter.NewParser()
	tsxParser.SetLanguage(tsx.GetLanguage())

	return &Parser{
		jsParser:  jsParser,
		tsParser:  tsParser,
		tsxParser: tsxParser,
	}
}

// LangFromPath returns the language name for a file extension, or "" if the
// file is not a JavaScript or TypeScript module.
func LangFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "js"
	case ".ts", ".mts", ".cts":
		return "ts"
	case ".tsx":
		return "tsx"
	}
	return ""
}

// Parse parses a module. Export statements are decoded; every other top-level
// node and the text between nodes are kept as ast.Raw.
func (p *Parser) Parse(content []byte, lang string) (*ast.Module, error) {
	var parser *sitter.Parser
	switch lang {
	case "ts", "typescript":
		parser = p.tsParser
	case "tsx":
		parser = p.tsxParser
	default:
		// JavaScript, JSX and anything unknown
		parser = p.jsParser
	}

	tree, err := p.parseTree(parser, content)
	if err != nil {
		return nil, err
	}

	root := tree.RootNode()
	var patches []patch
	if root.HasError() {
		synErr := firstError(root, content)
		patches = findPatches(content, parser != p.jsParser)
		if len(patches) == 0 {
			return nil, synErr
		}
		tree, err = p.parseTree(parser, blank(content, patches))
		if err != nil {
			return nil, err
		}
		root = tree.RootNode()
		if root.HasError() {
			return nil, synErr
		}
	}

	m := &ast.Module{}
	pos := uint32(0)
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if start := child.StartByte(); start > pos {
			m.Items = append(m.Items, &ast.Raw{Text: string(content[pos:start])})
		}
		start, end := int(child.StartByte()), int(child.EndByte())
		m.Items = append(m.Items, decodeStatement(child, content, patchesFor(patches, start, end)))
		pos = child.EndByte()
	}
	if int(pos) < len(content) {
		m.Items = append(m.Items, &ast.Raw{Text: string(content[pos:])})
	}

	return m, nil
}

func (p *Parser) parseTree(parser *sitter.Parser, content []byte) (*sitter.Tree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}
	return tree, nil
}

func firstError(root *sitter.Node, content []byte) error {
	iter := sitter.NewIterator(root, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}
		if n.IsError() || n.IsMissing() {
			pt := n.StartPoint()
			near := n.Content(content)
			if len(near) > 40 {
				near = near[:40]
			}
			return &SyntaxError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Near: near}
		}
	}
	return &SyntaxError{Line: 1, Column: 1}
}

// decodeStatement turns re-export statements into ast.NamedExport and
// ast.ExportAll. Declarations and default exports stay raw. patches are the
// clauses blanked out of this statement before parsing.
func decodeStatement(node *sitter.Node, content []byte, patches []patch) ast.Item {
	text := node.Content(content)
	raw := &ast.Raw{Text: text}

	if node.Type() != "export_statement" {
		return raw
	}
	if node.ChildByFieldName("declaration") != nil || node.ChildByFieldName("value") != nil {
		return raw
	}

	var (
		typeOnly bool
		star     bool
		nsExport *sitter.Node
		clause   *sitter.Node
		source   *sitter.Node
	)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)

		if source != nil {
			switch child.Type() {
			case ";", "comment":
				continue
			}
			return raw
		}

		switch child.Type() {
		case "export", "from", "comment":
		case "type":
			typeOnly = true
		case "*":
			star = true
		case "namespace_export":
			nsExport = child
		case "export_clause":
			clause = child
		case "string":
			source = child
		case ";":
		default:
			// export default, export =, export as namespace
			return raw
		}
	}

	var with string
	for _, p := range patches {
		if p.typeOnly {
			typeOnly = true
		} else {
			with = string(content[p.start:p.end])
		}
	}

	var src *ast.Str
	if source != nil {
		src = &ast.Str{Value: stringValue(source, content)}
	}

	switch {
	case star && src != nil:
		return &ast.ExportAll{Src: *src, TypeOnly: typeOnly, With: with, Text: text}
	case nsExport != nil && src != nil:
		return &ast.NamedExport{
			Specifiers: []ast.Specifier{&ast.NamespaceSpecifier{Name: namespaceName(nsExport, content)}},
			Src:        src,
			TypeOnly:   typeOnly,
			With:       with,
			Text:       text,
		}
	case clause != nil:
		return &ast.NamedExport{
			Specifiers: exportSpecifiers(clause, content),
			Src:        src,
			TypeOnly:   typeOnly,
			With:       with,
			Text:       text,
		}
	}

	return raw
}

// exportSpecifiers parses: { a, b as c, type D, "e-f" as g }
func exportSpecifiers(clause *sitter.Node, content []byte) []ast.Specifier {
	var specs []ast.Specifier

	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		if child.Type() != "export_specifier" {
			continue
		}

		spec := &ast.NamedSpecifier{}
		nameNode := child.ChildByFieldName("name")
		aliasNode := child.ChildByFieldName("alias")
		for j := 0; j < int(child.ChildCount()); j++ {
			c := child.Child(j)
			switch c.Type() {
			case "type", "typeof":
				if !c.IsNamed() {
					spec.TypeOnly = true
				}
			}
		}
		if nameNode == nil {
			nameNode = firstName(child)
		}
		if nameNode == nil {
			continue
		}

		spec.Orig = exportName(nameNode, content)
		if aliasNode != nil {
			alias := exportName(aliasNode, content)
			spec.Exported = &alias
		}
		specs = append(specs, spec)
	}

	return specs
}

func firstName(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "identifier" || c.Type() == "string" {
			return c
		}
	}
	return nil
}

// namespaceName returns the binding of `* as name`.
func namespaceName(node *sitter.Node, content []byte) ast.ModuleExportName {
	var last *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "*", "as", "comment":
		default:
			last = c
		}
	}
	if last == nil {
		return ast.ModuleExportName{}
	}
	return exportName(last, content)
}

func exportName(node *sitter.Node, content []byte) ast.ModuleExportName {
	if node.Type() == "string" {
		return ast.ModuleExportName{Value: stringValue(node, content), IsString: true}
	}
	return ast.Ident(node.Content(content))
}

func stringValue(node *sitter.Node, content []byte) string {
	return Unquote(node.Content(content))
}
