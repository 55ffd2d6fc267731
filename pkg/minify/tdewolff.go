// File: pkg/minify/tdewolff.go
package minify

import (
	"context"
	"fmt"

	"github.com/browserify/uglifyify/pkg/options"
	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/js"
	"go.uber.org/zap"
)

const jsMediaType = "application/javascript"

// Tdewolff minifies with tdewolff/minify. It never produces a source map, so a
// transform using it appends nothing after the code.
type Tdewolff struct {
	logger *zap.Logger
}

// NewTdewolff returns a tdewolff engine.
func NewTdewolff(logger *zap.Logger) *Tdewolff {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tdewolff{logger: logger}
}

// Minify satisfies Minifier.
func (t *Tdewolff) Minify(ctx context.Context, source string, opts options.Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := tdminify.New()
	m.Add(jsMediaType, t.minifier(opts))

	code, err := m.String(jsMediaType, source)
	if err != nil {
		return nil, fmt.Errorf("tdewolff: %w", err)
	}
	if !opts.SourceMapDisabled() {
		t.logger.Debug("tdewolff engine does not emit source maps")
	}
	return &Result{Code: code}, nil
}

func (t *Tdewolff) minifier(opts options.Options) *js.Minifier {
	jm := &js.Minifier{KeepVarNames: !enabled(opts[options.KeyMangle])}
	if ecma, ok := opts["ecma"]; ok {
		if v, ok := ecma.(int); ok && v >= 2015 {
			jm.Version = v
		}
	}
	return jm
}
