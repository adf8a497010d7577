package rewrite

import (
	"errors"
	"fmt"
)

var (
	// ErrRender is matched by *RenderError.
	ErrRender = errors.New("render error")
	// ErrMissingRule is matched by *MissingRuleError.
	ErrMissingRule = errors.New("missing transform")
	// ErrFullExport is matched by *FullExportError.
	ErrFullExport = errors.New("full module export")
)

// RenderError reports a template that failed to render for a package.
type RenderError struct {
	Package  string
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("error rendering template for '%s': %v", e.Package, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }

// MissingRuleError reports an export that no member rule matches.
type MissingRuleError struct {
	Member  string
	Package string
}

func (e *MissingRuleError) Error() string {
	return fmt.Sprintf("missing transform for export '%s' of package '%s'", e.Member, e.Package)
}

func (e *MissingRuleError) Is(target error) bool { return target == ErrMissingRule }

// FullExportError reports a statement that would re-export an entire module
// from a package with preventFullExport set.
type FullExportError struct {
	Package   string
	Statement string
}

func (e *FullExportError) Error() string {
	return fmt.Sprintf("export %s causes the entire module '%s' to be exported", e.Statement, e.Package)
}

func (e *FullExportError) Is(target error) bool { return target == ErrFullExport }
