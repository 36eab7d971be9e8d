package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/blocksearch/internal/model"
)

func sb(path, code string) model.ScoredBlock {
	return model.ScoredBlock{CodeBlock: model.CodeBlock{FilePath: path, Code: code}}
}

func TestApply_NoLimitsAcceptsEverything(t *testing.T) {
	blocks := []model.ScoredBlock{sb("a.go", "one"), sb("b.go", "two")}
	out := Apply(blocks, Options{})
	assert.Len(t, out.Accepted, 2)
	assert.Empty(t, out.Skipped)
}

func TestApply_MaxResultsStopsAcceptance(t *testing.T) {
	blocks := []model.ScoredBlock{sb("a.go", "one"), sb("b.go", "two"), sb("c.go", "three")}
	out := Apply(blocks, Options{MaxResults: 2})
	require.Len(t, out.Accepted, 2)
	require.NotNil(t, out.LimitsApplied.MaxResults)
	assert.Equal(t, 2, *out.LimitsApplied.MaxResults)
	assert.Len(t, out.Skipped, 1)
}

func TestApply_MaxBytesStopsAcceptance(t *testing.T) {
	blocks := []model.ScoredBlock{sb("a.go", strings.Repeat("x", 10)), sb("b.go", strings.Repeat("y", 10))}
	out := Apply(blocks, Options{MaxBytes: 15})
	assert.Len(t, out.Accepted, 1)
	require.NotNil(t, out.LimitsApplied.MaxBytes)
}

func TestApply_DuplicateCodeCountsTokensOnce(t *testing.T) {
	code := strings.Repeat("z", 40)
	blocks := []model.ScoredBlock{sb("a.go", code), sb("b.go", code)}
	out := Apply(blocks, Options{MaxTokens: 12})
	assert.Len(t, out.Accepted, 2)
}

func TestApply_FirstExceededBudgetStopsAcceptanceEvenIfLaterBlockFits(t *testing.T) {
	blocks := []model.ScoredBlock{
		sb("a.go", strings.Repeat("x", 120*4)),
		sb("b.go", strings.Repeat("y", 150*4)),
		sb("c.go", strings.Repeat("z", 50*4)),
	}
	out := Apply(blocks, Options{MaxTokens: 200})

	require.Len(t, out.Accepted, 1)
	assert.Equal(t, "a.go", out.Accepted[0].FilePath)
	require.Len(t, out.Skipped, 2)
	assert.Equal(t, "b.go", out.Skipped[0].FilePath)
	assert.Equal(t, "c.go", out.Skipped[1].FilePath)
}

func TestApply_SkippedFilesAggregateKeywordsAndMatches(t *testing.T) {
	over := model.ScoredBlock{
		CodeBlock:       model.CodeBlock{FilePath: "c.go", Code: "x"},
		MatchedKeywords: map[string]bool{"parse": true},
		TotalMatches:    3,
	}
	blocks := []model.ScoredBlock{sb("a.go", "one"), over}
	out := Apply(blocks, Options{MaxResults: 1})
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "c.go", out.Skipped[0].FilePath)
	assert.Contains(t, out.Skipped[0].MatchedKeywords, "parse")
	assert.Equal(t, 3, out.Skipped[0].TotalMatchesInFile)
}
