// Package transform implements the per-file minify transform: it buffers a
// file's content, runs one minification when input ends and emits the minified
// code followed by an inline source map.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/browserify/uglifyify/pkg/gate"
	"github.com/browserify/uglifyify/pkg/minify"
	"github.com/browserify/uglifyify/pkg/options"
	"github.com/browserify/uglifyify/pkg/sourcemap"
	"go.uber.org/zap"
)

// State is the lifecycle position of a Transform.
type State int

const (
	Accumulating State = iota
	Finalizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PlaceholderMapURL is the map filename handed to the minifier in debug mode.
// The reference comment it produces is stripped from the output.
const PlaceholderMapURL = "out.js.map"

var placeholderComment = regexp.MustCompile(`\n?//[#@] ?sourceMappingURL=out\.js\.map$`)

// Transform is a single-use stream adapter over one file. Write feeds input;
// Close or Finish ends input and emits the result to the Sink.
type Transform struct {
	file        string
	opts        options.Options
	decision    gate.Decision
	passthrough bool
	minifier    minify.Minifier
	sink        Sink
	logger      *zap.Logger

	mu    sync.Mutex
	state State
	buf   bytes.Buffer
	err   error
}

// Option customizes a Transform.
type Option func(*settings)

type settings struct {
	logger   *zap.Logger
	minifier minify.Minifier
	compile  gate.CompileFunc
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMinifier overrides the minifier. It takes precedence over opts["uglify"].
func WithMinifier(m minify.Minifier) Option {
	return func(s *settings) { s.minifier = m }
}

// WithGlobCompiler swaps the glob matcher used for ignore patterns.
func WithGlobCompiler(fn gate.CompileFunc) Option {
	return func(s *settings) { s.compile = fn }
}

// New creates the transform for file. Ignored or excluded files get a
// passthrough transform that copies input to the sink unchanged. A malformed
// ignore pattern fails construction with a *gate.ConfigError.
func New(file string, opts options.Options, sink Sink, optFns ...Option) (*Transform, error) {
	var s settings
	for _, fn := range optFns {
		fn(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	logger := s.logger.With(zap.String("filePath", file))

	var gateOpts []gate.Option
	if s.compile != nil {
		gateOpts = append(gateOpts, gate.WithCompiler(s.compile))
	}
	g, err := gate.New(gate.Config{
		Ignore:     opts.Strings(options.KeyIgnore),
		Extensions: opts.Extensions(),
	}, logger, gateOpts...)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", file, err)
	}

	t := &Transform{
		file:     file,
		decision: g.Decide(file),
		sink:     sink,
		logger:   logger,
	}
	if t.decision != gate.Minify {
		t.passthrough = true
		logger.Debug("Passing file through unchanged", zap.Stringer("decision", t.decision))
		return t, nil
	}

	t.minifier, err = resolveMinifier(s.minifier, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("transform %s: %w", file, err)
	}
	t.opts = opts.Without(options.KeyGlobal, options.KeyExts, options.KeyX, options.KeyUglify, options.KeyIgnore)
	return t, nil
}

func resolveMinifier(override minify.Minifier, opts options.Options, logger *zap.Logger) (minify.Minifier, error) {
	if override != nil {
		return override, nil
	}
	switch u := opts[options.KeyUglify].(type) {
	case nil:
		return minify.Default(logger), nil
	case minify.Minifier:
		return u, nil
	case func(context.Context, string, options.Options) (*minify.Result, error):
		return minify.Func(u), nil
	case string:
		return minify.Lookup(u, logger)
	default:
		return nil, fmt.Errorf("uglify option must be a minifier or an engine name, got %T", u)
	}
}

// File returns the path this transform was created for.
func (t *Transform) File() string { return t.file }

// Decision returns the gate's verdict for the file.
func (t *Transform) Decision() gate.Decision { return t.decision }

// Passthrough reports whether the transform copies input unchanged.
func (t *Transform) Passthrough() bool { return t.passthrough }

// State returns the current lifecycle state.
func (t *Transform) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Write appends p to the buffer, or forwards it directly in passthrough mode.
func (t *Transform) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Accumulating {
		return 0, ErrClosed
	}
	if t.passthrough {
		if len(p) == 0 {
			return 0, nil
		}
		if err := t.sink.Push(p); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	return t.buf.Write(p)
}

// Close signals end-of-input and finalizes with a background context.
func (t *Transform) Close() error {
	return t.Finish(context.Background())
}

// Finish signals end-of-input, runs the minifier and emits the result. On
// failure the sink receives Fail and no output. Calling Finish again returns
// the first outcome.
func (t *Transform) Finish(ctx context.Context) error {
	t.mu.Lock()
	if t.state != Accumulating {
		err := t.err
		t.mu.Unlock()
		if err != nil {
			return err
		}
		return ErrClosed
	}
	t.state = Finalizing
	t.mu.Unlock()

	if t.passthrough {
		t.setState(Done, nil)
		return t.sink.End()
	}

	start := time.Now()
	t.logger.Debug("Minifying file", zap.Int("bytes", t.buf.Len()))

	chunks, err := t.finalize(ctx)
	if err != nil {
		merr := &MinifyError{File: t.file, Err: err}
		t.logger.Error("Minification failed", zap.Error(err))
		t.setState(Failed, merr)
		t.sink.Fail(merr)
		return merr
	}

	out := 0
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		if err := t.sink.Push(chunk); err != nil {
			werr := fmt.Errorf("emit %s: %w", t.file, err)
			t.setState(Failed, werr)
			t.sink.Fail(werr)
			return werr
		}
		out += len(chunk)
	}

	t.setState(Done, nil)
	t.logger.Debug("Minified file",
		zap.Int("inputBytes", t.buf.Len()),
		zap.Int("outputBytes", out),
		zap.Bool("sourceMap", len(chunks) > 1),
		zap.Duration("elapsed", time.Since(start)))
	return t.sink.End()
}

func (t *Transform) setState(s State, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	t.err = err
}

// finalize computes the whole output before anything is emitted, so a failure
// at any step leaves the sink empty.
func (t *Transform) finalize(ctx context.Context) (chunks [][]byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	res, err := t.minifier.Minify(ctx, t.buf.String(), MergeOptions(t.file, t.opts))
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("minifier returned no result")
	}

	chunks = [][]byte{[]byte(StripPlaceholderComment(res.Code))}

	if res.Map != "" && res.Map != "null" {
		conv, err := sourcemap.FromJSON(res.Map)
		if err != nil {
			return nil, err
		}
		conv.SetProperty("sources", []string{filepath.Base(t.file)})
		comment, err := conv.ToComment(sourcemap.CommentOptions{})
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, []byte("\n"), []byte(comment))
	}
	return chunks, nil
}

// MergeOptions builds the option set handed to the minifier for file: defaults
// first, then the caller's options, aliases renamed, CLI artifacts dropped and
// the debug source-map settings applied. opts is not modified.
func MergeOptions(file string, opts options.Options) options.Options {
	debug := !opts.SourceMapDisabled() && opts.Debug()

	merged := options.Merge(options.Defaults(file), opts.ForMinifier()).
		RenameAliases().
		CleanCompress()

	if debug {
		sm, ok := merged.Map(options.KeySourceMap)
		if !ok {
			sm = options.Options{options.KeyFilename: file}
		}
		sm = sm.With(options.KeyURL, PlaceholderMapURL).With(options.KeyContent, "inline")
		merged = merged.With(options.KeySourceMap, sm)
	}
	return merged
}

// StripPlaceholderComment removes a trailing reference to the minifier's
// placeholder map file, along with the newline before it.
func StripPlaceholderComment(code string) string {
	return placeholderComment.ReplaceAllString(code, "")
}
