// Package fsenum is the reference FileEnumerator the CLI wires into the
// driver: a filesystem walk applying the config's include/exclude globs
// plus the query's ext:/dir:/file: hints. Build-artifact directories reach
// it through Exclude, which the CLI extends with the detected directories.
//
// Glob matching runs doublestar.Match against both the absolute and
// root-relative path, so patterns written either way behave the same.
package fsenum

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/blocksearch/internal/model"
)

// Enumerator walks Root, keeping files that pass Include/Exclude globs and
// are no larger than MaxFileBytes, a guard against reading something
// enormous into memory (0 disables the size check).
type Enumerator struct {
	Root         string
	Include      []string
	Exclude      []string
	MaxFileBytes int64
}

func New(root string, include, exclude []string, maxFileBytes int64) *Enumerator {
	return &Enumerator{Root: root, Include: include, Exclude: exclude, MaxFileBytes: maxFileBytes}
}

// Enumerate walks the tree once, applying Exclude globs unconditionally and
// Include globs when non-empty, then applying any ext:/dir:/file: hints
// from the query as a further filter.
func (e *Enumerator) Enumerate(ctx context.Context, hints []model.Hint) ([]string, error) {
	var extHints, dirHints, fileHints []string
	for _, h := range hints {
		switch h.Kind {
		case "ext":
			extHints = append(extHints, strings.ToLower(h.Value))
		case "dir":
			dirHints = append(dirHints, h.Value)
		case "file":
			fileHints = append(fileHints, h.Value)
		}
	}

	var out []string
	err := filepath.WalkDir(e.Root, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(e.Root, path)
		if relErr != nil {
			rel = path
		}

		if e.excluded(path, rel) {
			return nil
		}
		if len(e.Include) > 0 && !e.matchesAny(e.Include, path, rel) {
			return nil
		}
		if len(extHints) > 0 && !matchesExtHint(rel, extHints) {
			return nil
		}
		if len(dirHints) > 0 && !matchesDirHint(rel, dirHints) {
			return nil
		}
		if len(fileHints) > 0 && !matchesFileHint(rel, fileHints) {
			return nil
		}

		if e.MaxFileBytes > 0 {
			info, statErr := d.Info()
			if statErr == nil && info.Size() > e.MaxFileBytes {
				return nil
			}
		}

		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Read loads path's content and derives its extension (without the dot,
// lowercased) for the language registry.
func (e *Enumerator) Read(path string) (string, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return string(content), ext, nil
}

func (e *Enumerator) excluded(path, rel string) bool {
	return e.matchesAny(e.Exclude, path, rel)
}

func (e *Enumerator) matchesAny(patterns []string, path, rel string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func matchesExtHint(rel string, exts []string) bool {
	got := strings.TrimPrefix(strings.ToLower(filepath.Ext(rel)), ".")
	for _, e := range exts {
		if got == strings.TrimPrefix(e, ".") {
			return true
		}
	}
	return false
}

func matchesDirHint(rel string, dirs []string) bool {
	dir := filepath.Dir(rel)
	for _, d := range dirs {
		if strings.Contains(dir, d) {
			return true
		}
	}
	return false
}

func matchesFileHint(rel string, files []string) bool {
	base := filepath.Base(rel)
	for _, f := range files {
		if strings.Contains(base, f) {
			return true
		}
	}
	return false
}
