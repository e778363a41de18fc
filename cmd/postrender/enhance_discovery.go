package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/maruel/natural"

	"github.com/alnah/go-postrender"
	"github.com/alnah/go-postrender/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .html or .htm extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// FileToEnhance represents a single page to process.
type FileToEnhance struct {
	InputPath  string
	OutputPath string
	RelPath    string // slash-separated path below the input root
}

// discoverFiles finds every page to enhance, in natural order so that
// page-2.html sorts before page-10.html.
func discoverFiles(inputPath, outputDir string) ([]FileToEnhance, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateHTMLExtension(inputPath); err != nil {
			return nil, err
		}
		return []FileToEnhance{{
			InputPath:  inputPath,
			OutputPath: resolveOutputPath(inputPath, outputDir, ""),
			RelPath:    filepath.Base(inputPath),
		}}, nil
	}

	var files []FileToEnhance
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !fileutil.IsHTMLFile(path) {
			return nil
		}
		rel, err := filepath.Rel(inputPath, path)
		if err != nil {
			return err
		}
		files = append(files, FileToEnhance{
			InputPath:  path,
			OutputPath: resolveOutputPath(path, outputDir, inputPath),
			RelPath:    filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(files, func(a, b FileToEnhance) int {
		switch {
		case natural.Less(a.RelPath, b.RelPath):
			return -1
		case natural.Less(b.RelPath, a.RelPath):
			return 1
		}
		return 0
	})
	return files, nil
}

// resolveOutputPath determines where an enhanced page is written.
// Without an output directory pages are rewritten in place.
func resolveOutputPath(inputPath, outputDir, baseInputDir string) string {
	if outputDir == "" {
		return inputPath
	}

	if baseInputDir == "" && fileutil.IsHTMLFile(outputDir) {
		return outputDir
	}

	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(outputDir, rel)
		}
	}

	return filepath.Join(outputDir, filepath.Base(inputPath))
}

// validateHTMLExtension checks that the file has an .html or .htm extension.
func validateHTMLExtension(path string) error {
	if !fileutil.IsHTMLFile(path) {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > postrender.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, postrender.MaxPoolSize)
	}
	return nil
}
