// Package model holds the data types shared by the query compiler, the AST
// block resolver, the ranker, and the search driver. It has no behavior of
// its own beyond small, obviously-correct helpers.
package model

// Term is a lowercase analyzed token, possibly a stem. IsExact terms came
// from a quoted phrase or exact-mode query and bypass stemming entirely.
type Term struct {
	Text    string
	IsExact bool
}

// QueryPlan is the compiled form of a user query, ready for evaluation
// against a file's term index.
type QueryPlan struct {
	Raw       string
	Terms     map[string]Term
	Required  map[string]Term
	Excluded  map[string]Term
	Optional  map[string]Term
	ExactMode bool
	Hints     []Hint
}

// Hint is an ext:/file:/dir:/type:/lang: filter atom extracted from the
// query. The core evaluator does not apply these; it hands them to the
// file enumerator collaborator.
type Hint struct {
	Kind  string // "ext", "file", "dir", "type", "lang"
	Value string
}

// RequiredTerms returns the plan's required terms in a stable order.
func (p QueryPlan) RequiredTerms() []Term {
	return sortedTerms(p.Required)
}

// OptionalTerms returns the plan's optional terms in a stable order.
func (p QueryPlan) OptionalTerms() []Term {
	return sortedTerms(p.Optional)
}

// ExcludedTerms returns the plan's excluded terms in a stable order.
func (p QueryPlan) ExcludedTerms() []Term {
	return sortedTerms(p.Excluded)
}

func sortedTerms(m map[string]Term) []Term {
	out := make([]Term, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sortTermsInPlace(out)
	return out
}

func sortTermsInPlace(terms []Term) {
	for i := 1; i < len(terms); i++ {
		for j := i; j > 0 && terms[j].Text < terms[j-1].Text; j-- {
			terms[j], terms[j-1] = terms[j-1], terms[j]
		}
	}
}

// FileRecord is a file after tokenization and indexing, ready for query
// evaluation and AST resolution.
type FileRecord struct {
	Path       string
	Extension  string
	SizeBytes  int
	LineCount  int
	Content    string
	TermIndex  map[string][]int // term -> sorted 1-based line numbers
	IsTestFile bool
}

// CodeBlock is the smallest syntactically meaningful construct enclosing a
// match, or a literal context-window / whole-file fallback.
type CodeBlock struct {
	FilePath         string
	StartLine        int // 1-based, inclusive
	EndLine          int // 1-based, inclusive
	NodeType         string
	Code             string
	SymbolSignature  string
	HasSignature     bool
	MatchedLines     []int // lines relative to StartLine (0-based) that matched
	ParentFileID      uint64
	BlockID          uint64
	TokenizedContent []string
	Fallback         bool // true when NodeType is "context", "file" or "literal_range"
}

// Lines returns the block's inclusive 1-based line range.
func (b CodeBlock) Lines() (start, end int) { return b.StartLine, b.EndLine }

// ScoredBlock is a CodeBlock annotated with every ranking model's score, so
// a consumer can inspect scores the active reranker did not choose.
type ScoredBlock struct {
	CodeBlock
	BM25Score          float64
	TFIDFScore         float64
	CombinedScore      float64
	BM25Rank           int
	TFIDFRank          int
	CombinedRank       int
	UniqueTermsMatched int
	TotalMatches       int
	MatchedKeywords    map[string]bool
}

// LimitsApplied records which budgets were actually enforced on a run.
type LimitsApplied struct {
	MaxResults *int
	MaxBytes   *int
	MaxTokens  *int
}

// SkippedFile is a file that had matches whose blocks were dropped by the
// budget limiter.
type SkippedFile struct {
	FilePath              string
	MatchedKeywords       []string
	TotalMatchesInFile    int
}

// Results is the language-neutral record the core hands to formatter
// collaborators.
type Results struct {
	Results                      []ScoredBlock
	SkippedFiles                 []SkippedFile
	LimitsApplied                *LimitsApplied
	CachedBlocksSkipped          int
	FilesSkippedEarlyTermination int
	QueryPlan                    QueryPlan
	ElapsedMS                    int64
	Partial                      bool
	Warnings                     []string
}
