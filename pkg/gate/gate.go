package gate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Decision is the outcome of running a file through the gate.
type Decision int

const (
	Minify   Decision = iota // File goes through the minifier.
	Ignored                  // File matched an ignore pattern.
	Excluded                 // File extension is not in the allow list.
	JSONData                 // File is a JSON document and is never minified.
)

func (d Decision) String() string {
	switch d {
	case Minify:
		return "minify"
	case Ignored:
		return "ignored"
	case Excluded:
		return "excluded"
	case JSONData:
		return "json"
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// Matcher reports whether a path matches one compiled glob pattern.
type Matcher interface {
	Match(path string) bool
}

// CompileFunc compiles a glob pattern into a Matcher.
type CompileFunc func(pattern string) (Matcher, error)

// ConfigError reports an ignore pattern that could not be compiled.
type ConfigError struct {
	Pattern string // Offending pattern as given by the caller.
	Err     error  // Underlying compile error.
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid ignore pattern %q: %v", e.Pattern, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config carries the gate-related options of a transform.
type Config struct {
	Ignore     []string // Glob patterns; any match skips the file.
	Extensions []string // Allowed extensions; empty allows every extension.
}

// Pattern pairs a compiled matcher with the text it came from.
type Pattern struct {
	Matcher Matcher
	Line    string
}

// Gate decides whether a file is minified.
type Gate struct {
	patterns []*Pattern
	exts     map[string]struct{}
	logger   *zap.Logger
}

// Option customizes a Gate.
type Option func(*gateSettings)

type gateSettings struct {
	compile CompileFunc
}

// WithCompiler swaps the glob matcher collaborator.
func WithCompiler(fn CompileFunc) Option {
	return func(s *gateSettings) { s.compile = fn }
}

// New compiles every ignore pattern up front. A pattern that fails to compile
// stops construction with a *ConfigError.
func New(cfg Config, logger *zap.Logger, opts ...Option) (*Gate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := gateSettings{compile: CompileGlob}
	for _, opt := range opts {
		opt(&settings)
	}

	g := &Gate{
		patterns: make([]*Pattern, 0, len(cfg.Ignore)),
		exts:     make(map[string]struct{}, len(cfg.Extensions)),
		logger:   logger,
	}

	for i, line := range cfg.Ignore {
		m, err := settings.compile(line)
		if err != nil {
			logger.Error("Invalid ignore pattern", zap.String("pattern", line), zap.Int("index", i), zap.Error(err))
			return nil, &ConfigError{Pattern: line, Err: err}
		}
		g.patterns = append(g.patterns, &Pattern{Matcher: m, Line: line})
		logger.Debug("Compiled ignore pattern", zap.Int("index", i), zap.String("pattern", line))
	}

	for _, ext := range cfg.Extensions {
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		g.exts[ext] = struct{}{}
	}

	return g, nil
}

// Ignored reports whether file matches any ignore pattern.
func (g *Gate) Ignored(file string) bool {
	matched, _ := g.IgnoredWithPattern(file)
	return matched
}

// IgnoredWithPattern is Ignored plus the first pattern that matched.
func (g *Gate) IgnoredWithPattern(file string) (bool, *Pattern) {
	for _, p := range g.patterns {
		if p.Matcher.Match(file) {
			return true, p
		}
	}
	return false, nil
}

// Excluded reports whether file fails the extension filter or is JSON data.
func (g *Gate) Excluded(file string) bool {
	return g.excludedAs(file) != Minify
}

func (g *Gate) excludedAs(file string) Decision {
	if isJSON(file) {
		return JSONData
	}
	if len(g.exts) == 0 {
		return Minify
	}
	if _, ok := g.exts[filepath.Ext(file)]; !ok {
		return Excluded
	}
	return Minify
}

// Decide runs the ignore check, then the JSON and extension checks.
func (g *Gate) Decide(file string) Decision {
	if ok, p := g.IgnoredWithPattern(file); ok {
		g.logger.Debug("File matches ignore pattern", zap.String("filePath", file), zap.String("pattern", p.Line))
		return Ignored
	}
	d := g.excludedAs(file)
	if d != Minify {
		g.logger.Debug("File excluded from minification",
			zap.String("filePath", file),
			zap.String("extension", filepath.Ext(file)),
			zap.Stringer("decision", d))
	}
	return d
}

// isJSON matches the .json suffix exactly, like the bundler's own loader does.
func isJSON(file string) bool {
	return strings.HasSuffix(file, ".json")
}

// globMatcher is the default Matcher, backed by doublestar.
type globMatcher struct {
	pattern string
}

func (m globMatcher) Match(path string) bool {
	ok, err := doublestar.Match(m.pattern, filepath.ToSlash(path))
	return err == nil && ok
}

// CompileGlob validates pattern with doublestar and returns a Matcher for it.
func CompileGlob(pattern string) (Matcher, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	return globMatcher{pattern: pattern}, nil
}
