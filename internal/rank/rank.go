// Package rank implements the block ranker: BM25, TF-IDF, and two
// hybrid combinations over the candidate blocks the query evaluator
// produces, plus the corpus statistics (N, df, avgdl) those formulas need.
//
// Structured as a stats-gathering pass over the corpus followed by a
// per-document scoring pass, generalized from file-level indexing scores to
// per-block scores.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/standardbeagle/blocksearch/internal/model"
)

// hybrid weights BM25 over TF-IDF 0.7/0.3: BM25's length normalization makes
// it the stronger signal, TF-IDF contributes a smaller corrective term.
const (
	hybridBM25Weight  = 0.7
	hybridTFIDFWeight = 0.3
)

// Options holds the ranker's tunable parameters, mirroring config.Ranking.
type Options struct {
	K1               float64
	B                float64
	FilenameBoost    float64
	ExcludeFilenames bool
	Reranker         string // "bm25" | "tfidf" | "hybrid" | "hybrid2"
}

// Corpus holds the statistics BM25/TF-IDF need across the whole candidate
// set: document count, document frequency per term, and average document
// length in tokens.
type Corpus struct {
	N      int
	DF     map[string]int
	AvgDL  float64
}

// BuildCorpus scans every block's tokenized content once to gather document
// frequency and average length. A block is one "document" for these
// purposes, matching the unit the scores are computed over.
func BuildCorpus(blocks []model.ScoredBlock) Corpus {
	df := map[string]int{}
	totalLen := 0

	for _, b := range blocks {
		seen := map[string]bool{}
		totalLen += len(b.TokenizedContent)
		for _, term := range b.TokenizedContent {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	avgDL := 0.0
	if len(blocks) > 0 {
		avgDL = float64(totalLen) / float64(len(blocks))
	}

	return Corpus{N: len(blocks), DF: df, AvgDL: avgDL}
}

// Score computes every ranking model's raw score for each block (so a
// consumer can inspect the scores the active reranker did not choose),
// adds the filename boost to the raw scores, normalizes the active
// reranker's score to [0, 1] over the candidate set, and sorts by the
// active score descending with
// a stable tie-break: unique terms matched, then file path lexicographically,
// then start line.
func Score(blocks []model.ScoredBlock, plan model.QueryPlan, corpus Corpus, opts Options) []model.ScoredBlock {
	terms := make([]model.Term, 0, len(plan.Terms))
	for _, t := range plan.Terms {
		terms = append(terms, t)
	}

	out := make([]model.ScoredBlock, len(blocks))
	copy(out, blocks)

	for i := range out {
		termFreq := countTerms(out[i].TokenizedContent)
		dl := len(out[i].TokenizedContent)

		out[i].BM25Score = bm25(terms, termFreq, dl, corpus, opts)
		out[i].TFIDFScore = tfidf(terms, termFreq, dl, corpus)

		if !opts.ExcludeFilenames {
			boost := opts.FilenameBoost * float64(filenameMatches(out[i].FilePath, terms))
			out[i].BM25Score += boost
			out[i].TFIDFScore += boost
		}
	}

	bm25Norm := normalize(out, func(b model.ScoredBlock) float64 { return b.BM25Score })
	tfidfNorm := normalize(out, func(b model.ScoredBlock) float64 { return b.TFIDFScore })

	for i := range out {
		switch opts.Reranker {
		case "tfidf":
			out[i].CombinedScore = tfidfNorm[i]
		case "hybrid":
			out[i].CombinedScore = hybridBM25Weight*bm25Norm[i] + hybridTFIDFWeight*tfidfNorm[i]
		case "hybrid2":
			out[i].CombinedScore = 0 // filled by reciprocalRankFusion below
		default:
			out[i].CombinedScore = bm25Norm[i]
		}
	}

	if opts.Reranker == "hybrid2" {
		reciprocalRankFusion(out)
	}

	sortByScore(out)
	assignRanks(out)
	return out
}

func countTerms(tokens []string) map[string]int {
	counts := map[string]int{}
	for _, tok := range tokens {
		counts[tok]++
	}
	return counts
}

// bm25 implements the Okapi BM25 formula with the standard k1/b parameters:
// sum over query terms of idf(t) * (tf*(k1+1)) / (tf + k1*(1-b+b*dl/avgdl)).
func bm25(terms []model.Term, termFreq map[string]int, dl int, corpus Corpus, opts Options) float64 {
	if corpus.AvgDL == 0 {
		return 0
	}
	score := 0.0
	for _, term := range terms {
		tf := float64(termFreq[term.Text])
		if tf == 0 {
			continue
		}
		idf := idf(term.Text, corpus)
		denom := tf + opts.K1*(1-opts.B+opts.B*float64(dl)/corpus.AvgDL)
		score += idf * (tf * (opts.K1 + 1) / denom)
	}
	return score
}

// tfidf implements a standard log-scaled TF-IDF sum over query terms:
// (1 + ln tf) * ln(N / max(df, 1)) for every term with tf > 0.
func tfidf(terms []model.Term, termFreq map[string]int, dl int, corpus Corpus) float64 {
	if dl == 0 {
		return 0
	}
	score := 0.0
	for _, term := range terms {
		tf := float64(termFreq[term.Text])
		if tf == 0 {
			continue
		}
		df := math.Max(float64(corpus.DF[term.Text]), 1)
		score += (1 + math.Log(tf)) * math.Log(float64(corpus.N)/df)
	}
	return score
}

// idf is the standard BM25 inverse document frequency with the +1 smoothing
// term that keeps the value non-negative when df == N.
func idf(term string, corpus Corpus) float64 {
	df := corpus.DF[term]
	return math.Log(1 + (float64(corpus.N)-float64(df)+0.5)/(float64(df)+0.5))
}

// filenameMatches counts the query terms that occur in filePath.
func filenameMatches(filePath string, terms []model.Term) int {
	lower := strings.ToLower(filePath)
	n := 0
	for _, term := range terms {
		if term.Text != "" && strings.Contains(lower, term.Text) {
			n++
		}
	}
	return n
}

// normalize min-max scales values to [0, 1] over the candidate set. When
// every value is equal (including a single-block set), every score
// normalizes to 1 so a sole candidate is never unfairly zeroed out.
func normalize(blocks []model.ScoredBlock, get func(model.ScoredBlock) float64) []float64 {
	if len(blocks) == 0 {
		return nil
	}
	min, max := get(blocks[0]), get(blocks[0])
	for _, b := range blocks[1:] {
		v := get(b)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make([]float64, len(blocks))
	if max == min {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, b := range blocks {
		out[i] = (get(b) - min) / (max - min)
	}
	return out
}

// reciprocalRankFusion implements hybrid2: rank blocks separately by BM25
// and TF-IDF, then combine with RRF (k=60).
func reciprocalRankFusion(blocks []model.ScoredBlock) {
	const k = 60.0

	bm25Order := make([]int, len(blocks))
	for i := range bm25Order {
		bm25Order[i] = i
	}
	tfidfOrder := append([]int(nil), bm25Order...)
	sort.SliceStable(bm25Order, func(i, j int) bool { return blocks[bm25Order[i]].BM25Score > blocks[bm25Order[j]].BM25Score })
	sort.SliceStable(tfidfOrder, func(i, j int) bool { return blocks[tfidfOrder[i]].TFIDFScore > blocks[tfidfOrder[j]].TFIDFScore })
	for r := range blocks {
		blocks[bm25Order[r]].BM25Rank = r + 1
		blocks[tfidfOrder[r]].TFIDFRank = r + 1
	}

	for i := range blocks {
		blocks[i].CombinedScore = 1/(k+float64(blocks[i].BM25Rank)) + 1/(k+float64(blocks[i].TFIDFRank))
	}
}

// sortByScore orders by CombinedScore descending, then the stable
// tie-breaks: unique terms matched descending, file path ascending, start
// line ascending.
func sortByScore(blocks []model.ScoredBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		if a.UniqueTermsMatched != b.UniqueTermsMatched {
			return a.UniqueTermsMatched > b.UniqueTermsMatched
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.StartLine < b.StartLine
	})
}

func assignRanks(blocks []model.ScoredBlock) {
	for i := range blocks {
		blocks[i].CombinedRank = i + 1
	}
}
