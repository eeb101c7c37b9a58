package relocate

import "fmt"

// ReferenceError reports an import specifier that cannot be safely rewritten
// to the moved location, or one that still points at it after rewriting. It
// is surfaced to the operator rather than silently skipped.
type ReferenceError struct {
	Path      string
	Line      int
	Specifier string
	Reason    string
}

// Error implements the error interface for ReferenceError.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s:%d: reference %q: %s", e.Path, e.Line, e.Specifier, e.Reason)
}
