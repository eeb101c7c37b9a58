package fsutil

import (
	"errors"
	"fmt"
)

// ErrNotADirectory marks a path that exists but is not the directory a plan
// expects.
var ErrNotADirectory = errors.New("path exists and is not a directory")

// IOError reports a file-system operation that could not be performed: a
// path occupied by the wrong kind of entry, a missing source, or a write the
// process is not permitted to make. It is fatal to the phase that hit it.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface for IOError.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *IOError) Unwrap() error {
	return e.Err
}
