package pathutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/standardbeagle/blocksearch/internal/model"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{
			name:     "simple relative path",
			absPath:  "/home/user/project/src/main.go",
			rootDir:  "/home/user/project",
			expected: "src/main.go",
		},
		{
			name:     "nested relative path",
			absPath:  "/home/user/project/internal/core/search.go",
			rootDir:  "/home/user/project",
			expected: "internal/core/search.go",
		},
		{
			name:     "root level file",
			absPath:  "/home/user/project/README.md",
			rootDir:  "/home/user/project",
			expected: "README.md",
		},
		{
			name:     "same directory",
			absPath:  "/home/user/project",
			rootDir:  "/home/user/project",
			expected: ".",
		},
		{
			name:     "already relative path",
			absPath:  "src/main.go",
			rootDir:  "/home/user/project",
			expected: "src/main.go",
		},
		{
			name:     "path outside root - fallback to absolute",
			absPath:  "/other/location/file.go",
			rootDir:  "/home/user/project",
			expected: "/other/location/file.go",
		},
		{
			name:     "empty root directory",
			absPath:  "/home/user/project/file.go",
			rootDir:  "",
			expected: "/home/user/project/file.go",
		},
		{
			name:     "empty absolute path",
			absPath:  "",
			rootDir:  "/home/user/project",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRelative(tt.absPath, tt.rootDir)

			if runtime.GOOS == "windows" {
				result = filepath.ToSlash(result)
				expected := filepath.ToSlash(tt.expected)
				if result != expected {
					t.Errorf("ToRelative() = %v, want %v", result, expected)
				}
			} else {
				if result != tt.expected {
					t.Errorf("ToRelative() = %v, want %v", result, tt.expected)
				}
			}
		})
	}
}

func TestToRelativeScoredBlocks(t *testing.T) {
	rootDir := "/home/user/project"

	input := []model.ScoredBlock{
		{CodeBlock: model.CodeBlock{FilePath: "/home/user/project/src/main.go", StartLine: 10, EndLine: 20}, BM25Score: 1.5},
		{CodeBlock: model.CodeBlock{FilePath: "/home/user/project/internal/core/search.go", StartLine: 5, EndLine: 9}, BM25Score: 0.9},
	}

	results := ToRelativeScoredBlocks(input, rootDir)

	expected := []string{"src/main.go", "internal/core/search.go"}
	if len(results) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(results))
	}

	for i, result := range results {
		gotPath := result.FilePath
		wantPath := expected[i]
		if runtime.GOOS == "windows" {
			gotPath = filepath.ToSlash(gotPath)
			wantPath = filepath.ToSlash(wantPath)
		}
		if gotPath != wantPath {
			t.Errorf("result %d: FilePath = %v, want %v", i, gotPath, wantPath)
		}
		if result.StartLine != input[i].StartLine || result.EndLine != input[i].EndLine {
			t.Errorf("result %d: line range changed", i)
		}
		if result.BM25Score != input[i].BM25Score {
			t.Errorf("result %d: BM25Score changed", i)
		}
	}

	// Original slice must be untouched.
	if input[0].FilePath != "/home/user/project/src/main.go" {
		t.Errorf("input slice was mutated")
	}
}

func TestToRelativeSkippedFiles(t *testing.T) {
	rootDir := "/home/user/project"

	input := []model.SkippedFile{
		{FilePath: "/home/user/project/src/big.go", MatchedKeywords: []string{"foo"}, TotalMatchesInFile: 3},
	}

	results := ToRelativeSkippedFiles(input, rootDir)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].FilePath != "src/big.go" {
		t.Errorf("FilePath = %v, want src/big.go", results[0].FilePath)
	}
	if results[0].TotalMatchesInFile != 3 {
		t.Errorf("TotalMatchesInFile not preserved")
	}
}

func TestToRelativeEmptySlice(t *testing.T) {
	rootDir := "/home/user/project"

	if got := ToRelativeScoredBlocks(nil, rootDir); len(got) != 0 {
		t.Errorf("expected empty slice for ScoredBlocks, got %d elements", len(got))
	}
	if got := ToRelativeSkippedFiles(nil, rootDir); len(got) != 0 {
		t.Errorf("expected empty slice for SkippedFiles, got %d elements", len(got))
	}
}

func TestToRelativeResults(t *testing.T) {
	rootDir := "/home/user/project"

	in := model.Results{
		Results: []model.ScoredBlock{
			{CodeBlock: model.CodeBlock{FilePath: "/home/user/project/a.go"}},
		},
		SkippedFiles: []model.SkippedFile{
			{FilePath: "/home/user/project/b.go"},
		},
	}

	out := ToRelativeResults(in, rootDir)

	if out.Results[0].FilePath != "a.go" {
		t.Errorf("Results[0].FilePath = %v, want a.go", out.Results[0].FilePath)
	}
	if out.SkippedFiles[0].FilePath != "b.go" {
		t.Errorf("SkippedFiles[0].FilePath = %v, want b.go", out.SkippedFiles[0].FilePath)
	}
}
