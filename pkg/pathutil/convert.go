// Package pathutil converts between absolute and relative paths.
//
// blocksearch uses absolute paths internally so the same file is never
// double-counted under two spellings during a run. User-facing output
// (the CLI, or any formatter consuming model.Results) should use
// repo-relative paths for readability; this package is the conversion
// layer between the two.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/blocksearch/internal/model"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or the path already is
// relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go" (outside root)
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToRelativeScoredBlocks converts FilePath on each block from absolute to
// relative. Returns a new slice; the input is left untouched.
func ToRelativeScoredBlocks(blocks []model.ScoredBlock, rootDir string) []model.ScoredBlock {
	if len(blocks) == 0 {
		return blocks
	}

	converted := make([]model.ScoredBlock, len(blocks))
	copy(converted, blocks)

	for i := range converted {
		converted[i].FilePath = ToRelative(converted[i].FilePath, rootDir)
	}

	return converted
}

// ToRelativeSkippedFiles converts FilePath on each skipped-file record from
// absolute to relative. Returns a new slice; the input is left untouched.
func ToRelativeSkippedFiles(files []model.SkippedFile, rootDir string) []model.SkippedFile {
	if len(files) == 0 {
		return files
	}

	converted := make([]model.SkippedFile, len(files))
	copy(converted, files)

	for i := range converted {
		converted[i].FilePath = ToRelative(converted[i].FilePath, rootDir)
	}

	return converted
}

// ToRelativeResults returns a copy of results with every path converted; the
// input's Results and SkippedFiles slices are left untouched.
func ToRelativeResults(results model.Results, rootDir string) model.Results {
	results.Results = ToRelativeScoredBlocks(results.Results, rootDir)
	results.SkippedFiles = ToRelativeSkippedFiles(results.SkippedFiles, rootDir)
	return results
}
