// Package minify defines the minifier collaborator a transform calls and the
// engines shipped with it.
package minify

import (
	"context"
	"fmt"
	"sort"

	"github.com/browserify/uglifyify/pkg/options"
	"go.uber.org/zap"
)

// Result is what a minifier hands back on success.
type Result struct {
	Code string // Minified source.
	Map  string // Source map JSON; empty when none was requested.
}

// Minifier minifies one complete source text. A non-nil error means the
// result must not be used.
type Minifier interface {
	Minify(ctx context.Context, source string, opts options.Options) (*Result, error)
}

// Func adapts a plain function to Minifier.
type Func func(ctx context.Context, source string, opts options.Options) (*Result, error)

// Minify satisfies Minifier.
func (f Func) Minify(ctx context.Context, source string, opts options.Options) (*Result, error) {
	return f(ctx, source, opts)
}

// Outcome is one value delivered by an asynchronous minifier.
type Outcome struct {
	Result *Result
	Err    error
}

// AsyncFunc starts a minification and delivers its outcome on the channel.
type AsyncFunc func(ctx context.Context, source string, opts options.Options) <-chan Outcome

// Async wraps a channel-delivering minifier so callers can treat it like a
// synchronous one. The wait ends early if ctx is done.
func Async(fn AsyncFunc) Minifier {
	return Func(func(ctx context.Context, source string, opts options.Options) (*Result, error) {
		select {
		case out, ok := <-fn(ctx, source, opts):
			if !ok {
				return nil, fmt.Errorf("minifier closed its result channel without a result")
			}
			return out.Result, out.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

// Engine names.
const (
	EngineEsbuild  = "esbuild"
	EngineTdewolff = "tdewolff"
)

var engines = map[string]func(*zap.Logger) Minifier{
	EngineEsbuild:  func(l *zap.Logger) Minifier { return NewEsbuild(l) },
	EngineTdewolff: func(l *zap.Logger) Minifier { return NewTdewolff(l) },
}

// Default returns the engine used when no override is configured.
func Default(logger *zap.Logger) Minifier {
	return NewEsbuild(logger)
}

// Lookup resolves an engine by name. The empty name selects the default.
func Lookup(name string, logger *zap.Logger) (Minifier, error) {
	if name == "" {
		return Default(logger), nil
	}
	build, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown minifier engine %q (available: %v)", name, Engines())
	}
	return build(logger), nil
}

// Engines lists the registered engine names.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
