// File: pkg/transform/errors.go
package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Write after end-of-input was signaled.
	ErrClosed = errors.New("transform: write after end of input")

	// ErrPanic marks a panic recovered while finalizing a transform.
	ErrPanic = errors.New("transform: panic during finalization")
)

// MinifyError is the fatal error a transform reports when minification or the
// post-processing of its result fails.
type MinifyError struct {
	File string // File being transformed.
	Err  error  // Cause reported by the minifier or the map rewrite.
}

func (e *MinifyError) Error() string {
	return fmt.Sprintf("minify %s: %v", e.File, e.Err)
}

func (e *MinifyError) Unwrap() error { return e.Err }
