// Package ignore reads .uglifyifyignore files: one glob per line, gitignore-style
// comments and blank lines, turned into patterns for the ignore option.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"
)

// FileName is the ignore file looked up in the working directory.
const FileName = ".uglifyifyignore"

// Pattern is one glob read from an ignore file.
type Pattern struct {
	Glob   string // Pattern in doublestar syntax.
	Line   string // Original pattern line.
	LineNo int    // Line number in the source (1-based).
}

// Parse reads patterns from r. A line without a slash matches at any depth and
// a trailing slash selects everything below a directory. Negated lines are not
// supported and are skipped with a warning.
func Parse(r io.Reader, logger *zap.Logger) ([]Pattern, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var patterns []Pattern
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "!") {
			logger.Warn("Negated ignore patterns are not supported", zap.String("pattern", line), zap.Int("lineNo", lineNo))
			continue
		}
		patterns = append(patterns, Pattern{Glob: toGlob(line), Line: line, LineNo: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

func toGlob(line string) string {
	glob := strings.TrimPrefix(line, "/")
	if strings.HasSuffix(glob, "/") {
		glob += "**"
	}
	if !strings.Contains(strings.TrimSuffix(line, "/"), "/") {
		glob = "**/" + glob
	}
	return glob
}

// Load reads the ignore file at path. A missing file yields no patterns.
func Load(path string, logger *zap.Logger) ([]Pattern, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("No ignore file", zap.String("filePath", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	patterns, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", path, err)
	}
	logger.Debug("Loaded ignore file", zap.String("filePath", path), zap.Int("patterns", len(patterns)))
	return patterns, nil
}

// Globs returns the glob of each pattern.
func Globs(patterns []Pattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = p.Glob
	}
	return out
}
