// File: cmd/minify.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/browserify/uglifyify/pkg/batch"
	"github.com/browserify/uglifyify/pkg/ignore"
	"github.com/browserify/uglifyify/pkg/minify"
	"github.com/browserify/uglifyify/pkg/options"
	"github.com/browserify/uglifyify/pkg/transform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var minifyCmd = &cobra.Command{
	Use:   "minify [paths...]",
	Short: "Minify files or directories",
	Long: `Minify runs every file under the given paths through the transform. Results are
written under --out-dir, mirroring each file's path relative to the directory it was
found in, or to stdout when no output directory is set. With no paths, stdin is read.`,
	RunE: runMinify,
}

func init() {
	f := minifyCmd.Flags()
	f.StringP("out-dir", "o", "", "Directory to write minified files to (default stdout)")
	f.StringSlice("ignore", nil, "Glob patterns of files to pass through unchanged")
	f.String("ignore-file", ignore.FileName, "File with additional ignore patterns, one per line")
	f.StringSlice("exts", nil, "Only minify files with these extensions")
	f.Bool("debug", false, "Generate source maps with the original source inlined")
	f.Bool("no-source-map", false, "Do not append a source map")
	f.String("engine", "", fmt.Sprintf("Minifier engine (%s)", strings.Join(minify.Engines(), ", ")))
	f.IntP("workers", "w", 0, "Number of concurrent workers (default number of CPUs)")
	f.String("stdin-filename", "stdin.js", "File name used for input read from stdin")

	if err := v.BindPFlags(f); err != nil {
		panic(fmt.Sprintf("bind minify flags: %v", err))
	}
	RootCmd.AddCommand(minifyCmd)
}

// minifyOptions builds the transform options from the options file and flags.
// Flags are layered on top of the file.
func minifyOptions() (options.Options, error) {
	opts := options.Options{}
	if path := v.GetString("config"); path != "" {
		loaded, err := options.Load(path)
		if err != nil {
			return nil, err
		}
		opts = loaded
		logger.Debug("Loaded options file", zap.String("path", path), zap.Int("keys", len(opts)))
	}

	patterns := opts.Strings(options.KeyIgnore)
	if path := v.GetString("ignore-file"); path != "" {
		fromFile, err := ignore.Load(path, logger)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, ignore.Globs(fromFile)...)
	}
	patterns = append(patterns, v.GetStringSlice("ignore")...)
	if len(patterns) > 0 {
		opts = opts.With(options.KeyIgnore, patterns)
	}
	if exts := v.GetStringSlice("exts"); len(exts) > 0 {
		opts = opts.With(options.KeyX, exts)
	}
	if v.GetBool("debug") {
		opts = opts.With(options.KeyFlags, options.Options{"debug": true})
	}
	if v.GetBool("no-source-map") {
		opts = opts.With(options.KeySourceMap, false)
	}
	return opts, nil
}

func runMinify(cmd *cobra.Command, paths []string) error {
	opts, err := minifyOptions()
	if err != nil {
		return err
	}

	var m minify.Minifier
	if name := v.GetString("engine"); name != "" {
		m, err = minify.Lookup(name, logger)
		if err != nil {
			return err
		}
	}

	if len(paths) == 0 {
		var tOpts []transform.Option
		tOpts = append(tOpts, transform.WithLogger(logger))
		if m != nil {
			tOpts = append(tOpts, transform.WithMinifier(m))
		}
		return transform.Apply(cmd.Context(), v.GetString("stdin-filename"), opts, cmd.InOrStdin(), cmd.OutOrStdout(), tOpts...)
	}

	args := batch.Arguments{
		Paths:      paths,
		OutDir:     v.GetString("out-dir"),
		MaxWorkers: v.GetInt("workers"),
		Options:    opts,
		Minifier:   m,
		Verbose:    v.GetBool("verbose"),
	}
	if args.OutDir == "" {
		args.Out = cmd.OutOrStdout()
	}

	if _, err := batch.Run(cmd.Context(), args, logger); err != nil {
		return fmt.Errorf("minify failed: %w", err)
	}
	return nil
}
