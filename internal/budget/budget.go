// Package budget implements the budget limiter: walks a ranked block
// sequence in order, accepting blocks while the running totals stay within
// the configured result/byte/token ceilings.
//
// Token estimation stays a documented heuristic on the standard library:
// len(code)/4, the common whitespace-free approximation, rather than
// importing a BPE/tiktoken-style encoder nothing else in the repo would use.
package budget

import "github.com/standardbeagle/blocksearch/internal/model"

// Options controls the limiter's ceilings. A zero value means "no limit"
// for that dimension.
type Options struct {
	MaxResults int
	MaxBytes   int
	MaxTokens  int
}

// Outcome is the limiter's result: the accepted blocks in their input
// order, which limits actually triggered, and per-file skip bookkeeping.
type Outcome struct {
	Accepted      []model.ScoredBlock
	LimitsApplied model.LimitsApplied
	Skipped       []model.SkippedFile
}

// Apply walks blocks (already ranked) in order, accepting each while
// cumulative byte count, deduplicated token estimate, and result count stay
// within Options' ceilings. Content-identical blocks (same Code) count
// their token estimate only once. The first block that would exceed any
// ceiling stops acceptance entirely: that block and every block after it
// become skipped_files entries, even if a later block alone would have
// fit.
func Apply(blocks []model.ScoredBlock, opts Options) Outcome {
	var accepted []model.ScoredBlock
	skippedByFile := map[string]*model.SkippedFile{}
	var skippedOrder []string

	seenCode := map[string]bool{}
	bytesUsed := 0
	tokensUsed := 0
	resultsUsed := 0

	limitsHit := model.LimitsApplied{}
	exhausted := false

	for _, b := range blocks {
		if exhausted {
			recordSkip(skippedByFile, &skippedOrder, b)
			continue
		}

		blockBytes := len(b.Code)
		blockTokens := 0
		if !seenCode[b.Code] {
			blockTokens = estimateTokens(b.Code)
		}

		overResults := opts.MaxResults > 0 && resultsUsed+1 > opts.MaxResults
		overBytes := opts.MaxBytes > 0 && bytesUsed+blockBytes > opts.MaxBytes
		overTokens := opts.MaxTokens > 0 && tokensUsed+blockTokens > opts.MaxTokens

		if overResults || overBytes || overTokens {
			if overResults {
				limitsHit.MaxResults = &opts.MaxResults
			}
			if overBytes {
				limitsHit.MaxBytes = &opts.MaxBytes
			}
			if overTokens {
				limitsHit.MaxTokens = &opts.MaxTokens
			}
			exhausted = true
			recordSkip(skippedByFile, &skippedOrder, b)
			continue
		}

		accepted = append(accepted, b)
		seenCode[b.Code] = true
		bytesUsed += blockBytes
		tokensUsed += blockTokens
		resultsUsed++
	}

	skipped := make([]model.SkippedFile, 0, len(skippedOrder))
	for _, path := range skippedOrder {
		skipped = append(skipped, *skippedByFile[path])
	}

	return Outcome{Accepted: accepted, LimitsApplied: limitsHit, Skipped: skipped}
}

func recordSkip(byFile map[string]*model.SkippedFile, order *[]string, b model.ScoredBlock) {
	entry, ok := byFile[b.FilePath]
	if !ok {
		entry = &model.SkippedFile{FilePath: b.FilePath}
		byFile[b.FilePath] = entry
		*order = append(*order, b.FilePath)
	}
	for kw := range b.MatchedKeywords {
		if !containsString(entry.MatchedKeywords, kw) {
			entry.MatchedKeywords = append(entry.MatchedKeywords, kw)
		}
	}
	entry.TotalMatchesInFile += b.TotalMatches
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// estimateTokens approximates LLM token count from byte length. 4 bytes per
// token is the standard rough English/code approximation absent a real
// tokenizer.
func estimateTokens(code string) int {
	if len(code) == 0 {
		return 0
	}
	n := len(code) / 4
	if n == 0 {
		return 1
	}
	return n
}
