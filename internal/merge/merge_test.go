package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/blocksearch/internal/model"
)

func scoredBlock(path string, start, end int, score float64) model.ScoredBlock {
	return model.ScoredBlock{
		CodeBlock: model.CodeBlock{
			FilePath:  path,
			StartLine: start,
			EndLine:   end,
			Code:      "code",
		},
		CombinedScore: score,
	}
}

func TestMerge_CombinesAdjacentBlocksWithinThreshold(t *testing.T) {
	blocks := []model.ScoredBlock{
		scoredBlock("a.go", 1, 10, 0.5),
		scoredBlock("a.go", 13, 20, 0.8),
	}
	out := Merge(blocks, 5)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].StartLine)
	assert.Equal(t, 20, out[0].EndLine)
	assert.Equal(t, "merged_ast_range", out[0].NodeType)
	assert.Equal(t, 0.8, out[0].CombinedScore)
}

func TestMerge_LeavesDistantBlocksSeparate(t *testing.T) {
	blocks := []model.ScoredBlock{
		scoredBlock("a.go", 1, 10, 0.5),
		scoredBlock("a.go", 50, 60, 0.8),
	}
	out := Merge(blocks, 5)
	assert.Len(t, out, 2)
}

func TestMerge_DoesNotMergeAcrossFiles(t *testing.T) {
	blocks := []model.ScoredBlock{
		scoredBlock("a.go", 1, 10, 0.5),
		scoredBlock("b.go", 11, 15, 0.8),
	}
	out := Merge(blocks, 5)
	assert.Len(t, out, 2)
}

func TestMerge_SkipsFallbackBlocks(t *testing.T) {
	a := scoredBlock("a.go", 1, 10, 0.5)
	b := scoredBlock("a.go", 12, 20, 0.8)
	b.Fallback = true
	out := Merge([]model.ScoredBlock{a, b}, 5)
	assert.Len(t, out, 2)
}

func TestMerge_FixedPointChainsThreeBlocks(t *testing.T) {
	blocks := []model.ScoredBlock{
		scoredBlock("a.go", 1, 5, 0.1),
		scoredBlock("a.go", 7, 10, 0.9),
		scoredBlock("a.go", 12, 15, 0.3),
	}
	out := Merge(blocks, 2)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].StartLine)
	assert.Equal(t, 15, out[0].EndLine)
	assert.Equal(t, 0.9, out[0].CombinedScore)
}
