// Package merge implements the block merger: adjacent accepted blocks
// in the same file are combined into one "merged_ast_range" block when the
// gap between them is small enough to read as one contiguous region.
//
// Structurally this is a sweep over a start-line-sorted slice like
// internal/blocks.dedupAndNest, modeled after rather than importing it (the
// comparison rule differs: dedupAndNest drops containment in a single pass,
// this merges adjacency and repeats passes until nothing changes).
package merge

import (
	"sort"

	"github.com/standardbeagle/blocksearch/internal/model"
)

// Merge combines blocks from the same file whose gap (B.StartLine -
// A.EndLine) is between 0 and threshold lines, repeating until no more merges
// apply. The merged block's score is the max of its constituents' combined
// score, and MatchedKeywords is the union. Blocks are otherwise returned
// unchanged, grouped by file in first-seen order and sorted by start line
// within each file.
func Merge(blocks []model.ScoredBlock, threshold int) []model.ScoredBlock {
	if threshold < 0 {
		return blocks
	}

	byFile := map[string][]model.ScoredBlock{}
	var fileOrder []string
	for _, b := range blocks {
		if _, seen := byFile[b.FilePath]; !seen {
			fileOrder = append(fileOrder, b.FilePath)
		}
		byFile[b.FilePath] = append(byFile[b.FilePath], b)
	}

	var out []model.ScoredBlock
	for _, file := range fileOrder {
		out = append(out, mergeFile(byFile[file], threshold)...)
	}
	return out
}

func mergeFile(blocks []model.ScoredBlock, threshold int) []model.ScoredBlock {
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].StartLine < blocks[j].StartLine })

	for {
		merged, changed := mergePass(blocks, threshold)
		blocks = merged
		if !changed {
			return blocks
		}
	}
}

func mergePass(blocks []model.ScoredBlock, threshold int) ([]model.ScoredBlock, bool) {
	if len(blocks) < 2 {
		return blocks, false
	}

	out := make([]model.ScoredBlock, 0, len(blocks))
	changed := false
	i := 0
	for i < len(blocks) {
		cur := blocks[i]
		for i+1 < len(blocks) && adjacent(cur, blocks[i+1], threshold) {
			cur = combine(cur, blocks[i+1])
			changed = true
			i++
		}
		out = append(out, cur)
		i++
	}
	return out, changed
}

func adjacent(a, b model.ScoredBlock, threshold int) bool {
	if a.Fallback || b.Fallback {
		return false
	}
	gap := b.StartLine - a.EndLine
	return gap >= 0 && gap <= threshold
}

func combine(a, b model.ScoredBlock) model.ScoredBlock {
	merged := a
	if b.EndLine > merged.EndLine {
		merged.EndLine = b.EndLine
	}
	merged.NodeType = "merged_ast_range"
	merged.Code = a.Code + "\n" + b.Code
	merged.TokenizedContent = append(append([]string{}, a.TokenizedContent...), b.TokenizedContent...)
	merged.MatchedLines = append(append([]int{}, a.MatchedLines...), b.MatchedLines...)
	merged.HasSignature = a.HasSignature
	if !merged.HasSignature {
		merged.SymbolSignature = b.SymbolSignature
		merged.HasSignature = b.HasSignature
	}

	if b.CombinedScore > merged.CombinedScore {
		merged.CombinedScore = b.CombinedScore
	}
	if b.BM25Score > merged.BM25Score {
		merged.BM25Score = b.BM25Score
	}
	if b.TFIDFScore > merged.TFIDFScore {
		merged.TFIDFScore = b.TFIDFScore
	}
	merged.TotalMatches = a.TotalMatches + b.TotalMatches

	keywords := map[string]bool{}
	for k := range a.MatchedKeywords {
		keywords[k] = true
	}
	for k := range b.MatchedKeywords {
		keywords[k] = true
	}
	merged.MatchedKeywords = keywords
	merged.UniqueTermsMatched = len(keywords)

	return merged
}
