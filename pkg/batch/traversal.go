// File: pkg/batch/traversal.go
package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// CollectFiles traverses the provided paths and sorts files into regular and
// binary ones. Map files are skipped. A path that cannot be accessed is an error.
func CollectFiles(paths []string, logger *zap.Logger, verbose bool) (CollectedFiles, error) {
	var collected CollectedFiles
	logger.Debug("Starting file collection", zap.Int("pathCount", len(paths)))

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return collected, fmt.Errorf("resolve %s: %w", path, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return collected, fmt.Errorf("stat %s: %w", path, err)
		}

		if info.IsDir() {
			logger.Debug("Processing directory", zap.String("dir", absPath))
			c, err := traverse(absPath, logger, verbose)
			if err != nil {
				return collected, fmt.Errorf("traverse %s: %w", path, err)
			}
			collected.Regular = append(collected.Regular, c.Regular...)
			collected.Binary = append(collected.Binary, c.Binary...)
			continue
		}

		root := filepath.Dir(absPath)
		if err := classify(&collected, Entry{Path: absPath, Root: root}, logger, verbose); err != nil {
			return collected, err
		}
	}

	logger.Debug("Completed file collection",
		zap.Int("regularFiles", len(collected.Regular)),
		zap.Int("binaryFiles", len(collected.Binary)))
	return collected, nil
}

// traverse walks a directory, skipping hidden directories below the root.
func traverse(root string, logger *zap.Logger, verbose bool) (CollectedFiles, error) {
	var collected CollectedFiles

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			if path != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
				if verbose {
					logger.Debug("Skipping hidden directory", zap.String("directory", path))
				}
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return classify(&collected, Entry{Path: path, Root: root}, logger, verbose)
	})
	return collected, err
}

func classify(collected *CollectedFiles, e Entry, logger *zap.Logger, verbose bool) error {
	if isSourceMap(e.Path) {
		if verbose {
			logger.Debug("Skipping source map file", zap.String("filePath", e.Path))
		}
		return nil
	}

	binary, err := isBinaryFile(e.Path)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", e.Path, err)
	}
	if binary {
		collected.Binary = append(collected.Binary, e.Path)
		if verbose {
			logger.Debug("Detected binary file", zap.String("filePath", e.Path))
		}
		return nil
	}

	collected.Regular = append(collected.Regular, e)
	return nil
}
