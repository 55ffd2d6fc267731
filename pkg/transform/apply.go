// File: pkg/transform/apply.go
package transform

import (
	"context"
	"fmt"
	"io"

	"github.com/browserify/uglifyify/pkg/options"
)

// Apply streams src through a transform for file and writes the result to dst.
// Nothing is written to dst when minification fails.
func Apply(ctx context.Context, file string, opts options.Options, src io.Reader, dst io.Writer, optFns ...Option) error {
	t, err := New(file, opts, NewWriterSink(dst), optFns...)
	if err != nil {
		return err
	}
	if _, err := io.Copy(t, src); err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return t.Finish(ctx)
}
