// File: pkg/batch/config.go
package batch

import (
	"io"
	"path/filepath"

	"github.com/browserify/uglifyify/pkg/gate"
	"github.com/browserify/uglifyify/pkg/minify"
	"github.com/browserify/uglifyify/pkg/options"
)

// Arguments holds the configuration options for a batch minify run.
type Arguments struct {
	Paths      []string        // Files or directories to process.
	OutDir     string          // Destination root; outputs mirror each file's path relative to its input root.
	Out        io.Writer       // Receives outputs in path order when OutDir is empty.
	MaxWorkers int             // Number of concurrent workers; <= 0 means runtime.NumCPU().
	Options    options.Options // Transform options applied to every file.
	Minifier   minify.Minifier // Optional minifier override.
	Verbose    bool            // If true, logs skipped files.
}

// Entry is one file found during collection.
type Entry struct {
	Path string // Absolute path of the file.
	Root string // Directory the relative output path is computed from.
}

// Rel returns the slash-separated path of the file relative to its root.
func (e Entry) Rel() string {
	rel, err := filepath.Rel(e.Root, e.Path)
	if err != nil {
		return filepath.ToSlash(filepath.Base(e.Path))
	}
	return filepath.ToSlash(rel)
}

// CollectedFiles contains categorized lists of files discovered during collection.
type CollectedFiles struct {
	Regular []Entry  // Text files handed to the transform.
	Binary  []string // Files skipped because their content looks binary.
}

// FileResult reports the outcome for one file.
type FileResult struct {
	Entry    Entry
	Decision gate.Decision
	Output   []byte // Transform output; nil on failure.
	Written  string // Output path when OutDir is set.
	Err      error
}
