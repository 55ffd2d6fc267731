// File: pkg/minify/esbuild.go
package minify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/browserify/uglifyify/pkg/options"
	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// Esbuild minifies through esbuild's transform API.
type Esbuild struct {
	Target api.Target // Used when the options carry no ecma level.
	logger *zap.Logger
}

// NewEsbuild returns an esbuild engine targeting ESNext.
func NewEsbuild(logger *zap.Logger) *Esbuild {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Esbuild{Target: api.ESNext, logger: logger}
}

// Minify satisfies Minifier.
func (e *Esbuild) Minify(ctx context.Context, source string, opts options.Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tOpts, url, err := e.TransformOptions(opts)
	if err != nil {
		return nil, err
	}

	res := api.Transform(source, tOpts)
	for _, w := range res.Warnings {
		e.logger.Debug("esbuild warning", zap.String("message", formatMessage(w)))
	}
	if len(res.Errors) > 0 {
		return nil, errors.New(formatMessage(res.Errors[0]))
	}

	// esbuild always ends its output with a newline; minifiers in this
	// pipeline hand back code without one.
	code := strings.TrimSuffix(string(res.Code), "\n")
	if url != "" {
		code += "\n//# sourceMappingURL=" + url
	}

	return &Result{Code: code, Map: string(res.Map)}, nil
}

// TransformOptions translates minifier options into esbuild's transform
// options. The second return value is the map reference URL to append, if any.
func (e *Esbuild) TransformOptions(opts options.Options) (api.TransformOptions, string, error) {
	t := api.TransformOptions{
		Target:            e.Target,
		Charset:           api.CharsetUTF8,
		MinifyWhitespace:  true,
		MinifySyntax:      enabled(opts[options.KeyCompress]),
		MinifyIdentifiers: enabled(opts[options.KeyMangle]),
		Loader:            api.LoaderJS,
		LogLevel:          api.LogLevelSilent,
	}

	if compress, ok := opts.Map(options.KeyCompress); ok {
		if truthyKey(compress, "drop_console") {
			t.Drop |= api.DropConsole
		}
		if truthyKey(compress, "drop_debugger") {
			t.Drop |= api.DropDebugger
		}
		t.Pure = append(t.Pure, compress.Strings("pure_funcs")...)
		if truthyKey(compress, "keep_fnames") {
			t.KeepNames = true
		}
	}

	if mangle, ok := opts.Map(options.KeyMangle); ok {
		if truthyKey(mangle, "keep_fnames") {
			t.KeepNames = true
		}
		if props, ok := mangle.Map("properties"); ok {
			if re, ok := props.String("regex"); ok {
				t.MangleProps = re
			}
		}
	}

	if enabledOr(opts[options.KeyBeautify], false) {
		t.MinifyWhitespace = false
	}
	if output, ok := opts.Map(options.KeyOutput); ok {
		if truthyKey(output, "beautify") {
			t.MinifyWhitespace = false
		}
		if truthyKey(output, "ascii_only") {
			t.Charset = api.CharsetASCII
		}
		if comments, ok := output["comments"]; ok {
			t.LegalComments = legalComments(comments)
		}
	}

	if define, ok := opts.Map(options.KeyDefine); ok {
		t.Define = make(map[string]string, len(define))
		for name, value := range define {
			expr, err := defineExpr(value)
			if err != nil {
				return t, "", fmt.Errorf("define %s: %w", name, err)
			}
			t.Define[name] = expr
		}
	}

	if ecma, ok := opts["ecma"]; ok {
		target, err := ecmaTarget(ecma)
		if err != nil {
			return t, "", err
		}
		t.Target = target
	}

	var url string
	switch sm := opts[options.KeySourceMap].(type) {
	case nil:
		t.Sourcemap = api.SourceMapNone
	case bool:
		if sm {
			t.Sourcemap = api.SourceMapExternal
			t.SourcesContent = api.SourcesContentExclude
		}
	default:
		smOpts, ok := options.AsMap(sm)
		if !ok {
			return t, "", fmt.Errorf("sourceMap must be a boolean or an object, got %T", sm)
		}
		t.Sourcemap = api.SourceMapExternal
		t.SourcesContent = api.SourcesContentExclude
		if filename, ok := smOpts.String(options.KeyFilename); ok {
			t.Sourcefile = filename
			t.Loader = loaderFor(filepath.Ext(filename))
		}
		if root, ok := smOpts.String("root"); ok {
			t.SourceRoot = root
		}
		if smOpts.Has(options.KeyContent) || truthyKey(smOpts, "includeSources") {
			t.SourcesContent = api.SourcesContentInclude
		}
		url, _ = smOpts.String(options.KeyURL)
	}

	if loader, ok := opts.String("loader"); ok {
		t.Loader = loaderFor("." + strings.TrimPrefix(loader, "."))
	}

	return t, url, nil
}

func formatMessage(msg api.Message) string {
	var s string
	if loc := msg.Location; loc != nil {
		s = fmt.Sprintf("%s:%d:%d: ", filepath.Base(loc.File), loc.Line, loc.Column)
	}
	return s + msg.Text
}

func loaderFor(ext string) api.Loader {
	switch ext {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}

func legalComments(v any) api.LegalComments {
	switch c := v.(type) {
	case bool:
		if c {
			return api.LegalCommentsInline
		}
		return api.LegalCommentsNone
	case string:
		switch c {
		case "", "false":
			return api.LegalCommentsNone
		case "eof":
			return api.LegalCommentsEndOfFile
		default:
			return api.LegalCommentsInline
		}
	}
	return api.LegalCommentsDefault
}

// defineExpr renders a define value as the JS expression esbuild substitutes.
func defineExpr(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func ecmaTarget(v any) (api.Target, error) {
	var year int
	switch t := v.(type) {
	case int:
		year = t
	case int64:
		year = int(t)
	case float64:
		year = int(t)
	case string:
		s := strings.TrimPrefix(strings.ToLower(t), "es")
		if s == "next" {
			return api.ESNext, nil
		}
		if _, err := fmt.Sscanf(s, "%d", &year); err != nil {
			return 0, fmt.Errorf("invalid ecma version %q", t)
		}
	default:
		return 0, fmt.Errorf("invalid ecma version %v", v)
	}

	switch year {
	case 5:
		return api.ES5, nil
	case 6, 2015:
		return api.ES2015, nil
	case 7, 2016:
		return api.ES2016, nil
	case 8, 2017:
		return api.ES2017, nil
	case 9, 2018:
		return api.ES2018, nil
	case 10, 2019:
		return api.ES2019, nil
	case 11, 2020:
		return api.ES2020, nil
	case 12, 2021:
		return api.ES2021, nil
	case 13, 2022:
		return api.ES2022, nil
	}
	return 0, fmt.Errorf("unsupported ecma version %d", year)
}

// enabled treats a missing value and any non-false value as on.
func enabled(v any) bool {
	return enabledOr(v, true)
}

func enabledOr(v any, fallback bool) bool {
	switch t := v.(type) {
	case nil:
		return fallback
	case bool:
		return t
	}
	return true
}

func truthyKey(o options.Options, key string) bool {
	b, ok := o.Bool(key)
	return ok && b
}
