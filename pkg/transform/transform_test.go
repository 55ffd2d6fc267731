package transform

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/browserify/uglifyify/pkg/gate"
	"github.com/browserify/uglifyify/pkg/minify"
	"github.com/browserify/uglifyify/pkg/options"
	"github.com/browserify/uglifyify/pkg/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubMinifier struct {
	calls  int
	source string
	opts   options.Options
	result *minify.Result
	err    error
	panics any
}

func (m *stubMinifier) Minify(_ context.Context, source string, opts options.Options) (*minify.Result, error) {
	m.calls++
	m.source = source
	m.opts = opts
	if m.panics != nil {
		panic(m.panics)
	}
	return m.result, m.err
}

type recordingSink struct {
	pushes [][]byte
	ended  bool
	failed error
}

func (s *recordingSink) Push(chunk []byte) error {
	s.pushes = append(s.pushes, append([]byte(nil), chunk...))
	return nil
}

func (s *recordingSink) Fail(err error) { s.failed = err }

func (s *recordingSink) End() error {
	s.ended = true
	return nil
}

func (s *recordingSink) String() string {
	return string(bytes.Join(s.pushes, nil))
}

func run(t *testing.T, file string, opts options.Options, m minify.Minifier, chunks ...string) (*recordingSink, *Transform, error) {
	t.Helper()
	sink := &recordingSink{}
	tr, err := New(file, opts, sink, WithMinifier(m), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	for _, c := range chunks {
		n, err := tr.Write([]byte(c))
		require.NoError(t, err)
		require.Equal(t, len(c), n)
	}
	return sink, tr, tr.Close()
}

func TestPassthroughIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		file string
		opts options.Options
		want gate.Decision
	}{
		{"ignored", "src/vendor/lib.js", options.Options{options.KeyIgnore: "src/vendor/**"}, gate.Ignored},
		{"ignored by list", "dist/app.min.js", options.Options{options.KeyIgnore: []any{"nothing/**", "**/*.min.js"}}, gate.Ignored},
		{"extension filter", "src/style.css", options.Options{options.KeyExts: []any{"js"}, options.KeyX: "ts"}, gate.Excluded},
		{"json", "src/data.json", options.Options{}, gate.JSONData},
		{"json with json extension allowed", "src/data.json", options.Options{options.KeyExts: ".json"}, gate.JSONData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubMinifier{result: &minify.Result{Code: "nope"}}
			sink, tr, err := run(t, tt.file, tt.opts, m, "{ \"a\":", "\n 1 }", "")
			require.NoError(t, err)

			assert.True(t, tr.Passthrough())
			assert.Equal(t, tt.want, tr.Decision())
			assert.Equal(t, "{ \"a\":\n 1 }", sink.String())
			assert.Len(t, sink.pushes, 2, "chunks are forwarded as they arrive")
			assert.True(t, sink.ended)
			assert.Zero(t, m.calls)
			assert.Equal(t, Done, tr.State())
		})
	}
}

func TestPassthroughIgnoresBrokenMinifier(t *testing.T) {
	sink := &recordingSink{}
	tr, err := New("lib/data.json", options.Options{options.KeyUglify: 42}, sink)
	require.NoError(t, err)
	_, err = tr.Write([]byte("[1,2]"))
	require.NoError(t, err)
	require.NoError(t, tr.Close())
	assert.Equal(t, "[1,2]", sink.String())
}

func TestMinifierGetsWholeInputOnce(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{Code: "x"}}
	sink, _, err := run(t, "a.js", options.Options{}, m, "var a", " = 1;", "\nvar b = 2;")
	require.NoError(t, err)

	assert.Equal(t, 1, m.calls)
	assert.Equal(t, "var a = 1;\nvar b = 2;", m.source)
	assert.Equal(t, "x", sink.String())
}

func TestRoundTripWithoutMap(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{Code: "var x=1;"}}
	sink, tr, err := run(t, "a.js", options.Options{}, m, "var x = 1;")
	require.NoError(t, err)

	assert.Equal(t, "var x=1;", sink.String())
	assert.True(t, sink.ended)
	assert.Nil(t, sink.failed)
	assert.Equal(t, Done, tr.State())
}

func TestNullMapIsNoMap(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{Code: "a;", Map: "null"}}
	sink, _, err := run(t, "a.js", options.Options{}, m, "a;")
	require.NoError(t, err)
	assert.Equal(t, "a;", sink.String())
}

func TestStripPlaceholderComment(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"a;\n//# sourceMappingURL=out.js.map", "a;"},
		{"a;\n//@ sourceMappingURL=out.js.map", "a;"},
		{"a;//#sourceMappingURL=out.js.map", "a;"},
		{"a;\n//# sourceMappingURL=other.js.map", "a;\n//# sourceMappingURL=other.js.map"},
		{"a;\n//# sourceMappingURL=out.js.map\nb;", "a;\n//# sourceMappingURL=out.js.map\nb;"},
		{"a;", "a;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripPlaceholderComment(tt.code), tt.code)
	}

	m := &stubMinifier{result: &minify.Result{Code: "a;\n//# sourceMappingURL=out.js.map"}}
	sink, _, err := run(t, "a.js", options.Options{}, m, "a;")
	require.NoError(t, err)
	assert.Equal(t, "a;", sink.String())
}

func TestMapIsRewrittenToBasename(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{
		Code: "a;",
		Map:  `{"version":3,"sources":["input"],"mappings":""}`,
	}}
	sink, _, err := run(t, "/proj/src/app.js", options.Options{}, m, "a ;")
	require.NoError(t, err)

	out := sink.String()
	require.True(t, strings.HasPrefix(out, "a;\n//# sourceMappingURL=data:application/json;charset=utf-8;base64,"), out)

	conv, err := sourcemap.FromSource(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, conv.Sources())
}

func TestMergedOptions(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{Code: "a;"}}
	opts := options.Options{
		"c":                 options.Options{"drop_console": true},
		"m":                 false,
		options.KeyFlags:    options.Options{"debug": false},
		options.KeyArgs:     []any{"entry.js"},
		options.KeyExts:     []any{".js"},
		options.KeyGlobal:   true,
		options.KeyIgnore:   "vendor/**",
		"passthroughOption": "kept",
	}
	_, _, err := run(t, "/proj/a.js", opts, m, "a;")
	require.NoError(t, err)

	got := m.opts
	assert.Equal(t, options.Options{"drop_console": true}, got[options.KeyCompress])
	assert.Equal(t, true, got[options.KeyMangle], "falsy alias does not override the default")
	assert.Equal(t, options.Options{options.KeyFilename: "/proj/a.js"}, got[options.KeySourceMap])
	assert.Equal(t, "kept", got["passthroughOption"])
	for _, k := range []string{"c", "m", options.KeyFlags, options.KeyArgs, options.KeyExts, options.KeyGlobal, options.KeyIgnore, options.KeyUglify} {
		assert.NotContains(t, got, k)
	}

	assert.Contains(t, opts, "c", "caller options are not modified")
	assert.Contains(t, opts, options.KeyFlags)
}

func TestMergeOptionsCompressPositionalArgs(t *testing.T) {
	inner := options.Options{"passes": 2, options.KeyArgs: []any{"x"}}
	merged := MergeOptions("a.js", options.Options{options.KeyCompress: inner})
	assert.Equal(t, options.Options{"passes": 2}, merged[options.KeyCompress])
	assert.Contains(t, inner, options.KeyArgs)
}

func TestMergeOptionsDebug(t *testing.T) {
	debug := options.Options{options.KeyFlags: options.Options{"debug": true}}

	merged := MergeOptions("/p/a.js", debug)
	sm, ok := merged.Map(options.KeySourceMap)
	require.True(t, ok)
	assert.Equal(t, options.Options{
		options.KeyFilename: "/p/a.js",
		options.KeyURL:      PlaceholderMapURL,
		options.KeyContent:  "inline",
	}, sm)

	disabled := MergeOptions("/p/a.js", debug.With(options.KeySourceMap, false))
	assert.Equal(t, false, disabled[options.KeySourceMap], "sourceMap false wins over debug")

	plain := MergeOptions("/p/a.js", options.Options{})
	assert.Equal(t, options.Options{options.KeyFilename: "/p/a.js"}, plain[options.KeySourceMap])

	boolean := MergeOptions("/p/a.js", debug.With(options.KeySourceMap, true))
	sm, ok = boolean.Map(options.KeySourceMap)
	require.True(t, ok)
	assert.Equal(t, PlaceholderMapURL, sm[options.KeyURL])
}

func TestMinifierErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	m := &stubMinifier{err: boom}
	sink, tr, err := run(t, "a.js", options.Options{}, m, "a;")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var merr *MinifyError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, "a.js", merr.File)

	assert.Empty(t, sink.pushes)
	assert.False(t, sink.ended)
	assert.ErrorIs(t, sink.failed, boom)
	assert.Equal(t, Failed, tr.State())

	assert.ErrorIs(t, tr.Close(), boom, "repeated close reports the same failure")
	_, err = tr.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInvalidMapIsFatal(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{Code: "a;", Map: "{broken"}}
	sink, _, err := run(t, "a.js", options.Options{}, m, "a;")
	require.Error(t, err)
	assert.Empty(t, sink.pushes)
	assert.NotNil(t, sink.failed)
}

func TestNilResultIsFatal(t *testing.T) {
	m := &stubMinifier{}
	sink, _, err := run(t, "a.js", options.Options{}, m, "a;")
	require.Error(t, err)
	assert.Empty(t, sink.pushes)
}

func TestPanicBecomesError(t *testing.T) {
	m := &stubMinifier{panics: "kaboom"}
	sink, tr, err := run(t, "a.js", options.Options{}, m, "a;")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Empty(t, sink.pushes)
	assert.Equal(t, Failed, tr.State())
}

func TestWriteAfterClose(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{Code: "a;"}}
	_, tr, err := run(t, "a.js", options.Options{}, m, "a;")
	require.NoError(t, err)

	_, err = tr.Write([]byte("b;"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, tr.Close(), ErrClosed)
	assert.Equal(t, 1, m.calls)
}

func TestBadIgnorePatternFailsConstruction(t *testing.T) {
	_, err := New("a.js", options.Options{options.KeyIgnore: "src/[a-"}, &recordingSink{})
	require.Error(t, err)
	var cfgErr *gate.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestUglifyOption(t *testing.T) {
	m := &stubMinifier{result: &minify.Result{Code: "from option"}}
	sink := &recordingSink{}
	tr, err := New("a.js", options.Options{options.KeyUglify: m}, sink)
	require.NoError(t, err)
	_, err = tr.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	assert.Equal(t, "from option", sink.String())
	assert.NotContains(t, m.opts, options.KeyUglify)

	fn := func(ctx context.Context, source string, opts options.Options) (*minify.Result, error) {
		return &minify.Result{Code: strings.ToUpper(source)}, nil
	}
	var buf bytes.Buffer
	require.NoError(t, Apply(context.Background(), "b.js", options.Options{options.KeyUglify: fn}, strings.NewReader("abc"), &buf))
	assert.Equal(t, "ABC", buf.String())

	_, err = New("a.js", options.Options{options.KeyUglify: 42}, sink)
	assert.Error(t, err)

	_, err = New("a.js", options.Options{options.KeyUglify: "no-such-engine"}, sink)
	assert.Error(t, err)
}

func TestChanSink(t *testing.T) {
	sink := NewChanSink(4)
	m := &stubMinifier{result: &minify.Result{Code: "a;", Map: `{"version":3,"sources":["x"],"mappings":""}`}}
	tr, err := New("lib/a.js", options.Options{}, sink, WithMinifier(m))
	require.NoError(t, err)

	go func() {
		_, _ = tr.Write([]byte("a ;"))
		_ = tr.Close()
	}()

	var out bytes.Buffer
	for ev := range sink.Events() {
		require.NoError(t, ev.Err)
		out.Write(ev.Chunk)
	}
	conv, err := sourcemap.FromSource(out.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, conv.Sources())

	failing := NewChanSink(1)
	tr, err = New("b.js", options.Options{}, failing, WithMinifier(&stubMinifier{err: errors.New("boom")}))
	require.NoError(t, err)
	go func() { _ = tr.Close() }()

	var events []Event
	for ev := range failing.Events() {
		events = append(events, ev)
	}
	require.Len(t, events, 1)
	assert.Error(t, events[0].Err)
}

func TestApplyWithEsbuild(t *testing.T) {
	var buf bytes.Buffer
	err := Apply(context.Background(), "a.js", options.Options{options.KeySourceMap: false}, strings.NewReader("var x = 1;"), &buf)
	require.NoError(t, err)
	assert.Equal(t, "var x=1;", buf.String())

	buf.Reset()
	err = Apply(context.Background(), "/proj/src/app.js", options.Options{}, strings.NewReader("function f(a) {\n  return a * 2;\n}\nf(2);\n"), &buf,
		WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	conv, err := sourcemap.FromSource(buf.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, conv.Sources())

	buf.Reset()
	err = Apply(context.Background(), "/proj/src/app.js", options.Options{options.KeyFlags: options.Options{"debug": true}}, strings.NewReader("let y = 2; console.log(y);"), &buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "out.js.map")
	conv, err = sourcemap.FromSource(buf.String())
	require.NoError(t, err)
	content, ok := conv.Property("sourcesContent")
	assert.True(t, ok)
	assert.NotNil(t, content)

	buf.Reset()
	err = Apply(context.Background(), "broken.js", options.Options{}, strings.NewReader("var = ;"), &buf)
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestWriterSinkRecordsFirstError(t *testing.T) {
	s := NewWriterSink(&bytes.Buffer{})
	first := errors.New("first")
	s.Fail(first)
	s.Fail(errors.New("second"))
	assert.Equal(t, first, s.Err())
	assert.NoError(t, s.End())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "accumulating", Accumulating.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(7)", State(7).String())
}
