// Package termindex builds the per-file term index: a map from
// analyzed term to the sorted, deduplicated list of 1-based lines on which
// it occurs, plus the query evaluator that turns a QueryPlan and a
// FileRecord's index into the candidate lines and verified blocks the AST
// block resolver needs.
package termindex

import (
	"sort"
	"strings"

	"github.com/standardbeagle/blocksearch/internal/model"
	"github.com/standardbeagle/blocksearch/internal/tokenize"
)

// Build tokenizes each line of content with preserve_original=true and
// records every term's occurrence lines.
func Build(tok *tokenize.Tokenizer, content string, opts tokenize.Options) map[string][]int {
	opts.PreserveOriginal = true

	index := map[string]map[int]bool{}
	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1
		for _, term := range tok.Tokenize(line, opts) {
			if index[term.Text] == nil {
				index[term.Text] = map[int]bool{}
			}
			index[term.Text][lineNo] = true
		}
	}

	result := make(map[string][]int, len(index))
	for term, lines := range index {
		sorted := make([]int, 0, len(lines))
		for l := range lines {
			sorted = append(sorted, l)
		}
		sort.Ints(sorted)
		result[term] = sorted
	}
	return result
}

// CandidateLines intersects required-term hit lines, then unions with
// optional-term hit lines. ok is false when required terms are non-empty but
// their intersection is empty — the file has no candidate lines and should
// be skipped entirely.
func CandidateLines(index map[string][]int, plan model.QueryPlan) (lines []int, ok bool) {
	required := plan.RequiredTerms()
	optional := plan.OptionalTerms()

	var requiredHits []int
	if len(required) > 0 {
		requiredHits = index[required[0].Text]
		for _, t := range required[1:] {
			requiredHits = intersect(requiredHits, index[t.Text])
			if len(requiredHits) == 0 {
				return nil, false
			}
		}
		if len(requiredHits) == 0 {
			return nil, false
		}
	}

	union := map[int]bool{}
	for _, l := range requiredHits {
		union[l] = true
	}
	for _, t := range optional {
		for _, l := range index[t.Text] {
			union[l] = true
		}
	}

	out := make([]int, 0, len(union))
	for l := range union {
		out = append(out, l)
	}
	sort.Ints(out)
	return out, true
}

func intersect(a, b []int) []int {
	if a == nil || b == nil {
		return nil
	}
	setB := make(map[int]bool, len(b))
	for _, v := range b {
		setB[v] = true
	}
	var out []int
	for _, v := range a {
		if setB[v] {
			out = append(out, v)
		}
	}
	return out
}

// VerifyBlock tokenizes the block's code, checks every required term appears
// and no excluded term appears, and computes the matched-keyword, unique-term,
// and total-match counts the ranker needs.
func VerifyBlock(tok *tokenize.Tokenizer, block model.CodeBlock, plan model.QueryPlan, opts tokenize.Options) (model.ScoredBlock, bool) {
	opts.PreserveOriginal = true
	terms := tok.Tokenize(block.Code, opts)

	counts := map[string]int{}
	for _, t := range terms {
		counts[t.Text]++
	}

	for _, required := range plan.RequiredTerms() {
		if counts[required.Text] == 0 {
			return model.ScoredBlock{}, false
		}
	}
	for _, excluded := range plan.ExcludedTerms() {
		if counts[excluded.Text] > 0 {
			return model.ScoredBlock{}, false
		}
	}

	matched := map[string]bool{}
	total := 0
	for text := range plan.Terms {
		if counts[text] > 0 {
			matched[text] = true
			total += counts[text]
		}
	}

	tokenTexts := make([]string, len(terms))
	for i, t := range terms {
		tokenTexts[i] = t.Text
	}
	block.TokenizedContent = tokenTexts

	return model.ScoredBlock{
		CodeBlock:          block,
		UniqueTermsMatched: len(matched),
		TotalMatches:       total,
		MatchedKeywords:    matched,
	}, true
}
