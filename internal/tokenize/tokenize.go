// Package tokenize turns text and filenames into a sequence of lowercase,
// optionally stemmed Terms. It is the single analysis pipeline shared by
// the term-index builder, the query compiler, and the ranker's
// tokenized-content field, so the same word is always represented the same
// way across a run.
//
// Identifier splitting reuses semantic.NameSplitter, stemming reuses
// semantic.Stemmer.
package tokenize

import (
	"strings"
	"unicode"

	"github.com/standardbeagle/blocksearch/internal/model"
	"github.com/standardbeagle/blocksearch/internal/semantic"
)

// Options controls which stages of the analysis pipeline run.
type Options struct {
	Stemming         bool
	Stopwords        bool
	SplitIdentifiers bool
	PreserveOriginal bool
}

// Tokenizer holds the stateful sub-components (stemmer, name splitter) the
// pipeline reuses across calls so identifier-split results stay cached.
type Tokenizer struct {
	splitter *semantic.NameSplitter
	stemmer  *semantic.Stemmer
}

// New builds a Tokenizer. minStemLength and exclusions tune the stemmer.
func New(minStemLength int, exclusions map[string]bool) *Tokenizer {
	return &Tokenizer{
		splitter: semantic.NewNameSplitter(),
		stemmer:  semantic.NewStemmer(true, "porter2", minStemLength, exclusions),
	}
}

// stopwords is a fixed English list, trimmed of domain-specific entries
// ("work", "use", "get") that carry search signal in code identifiers.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "i": true, "me": true, "my": true,
	"we": true, "our": true, "you": true, "your": true, "it": true, "its": true,
	"that": true, "this": true, "what": true, "which": true, "who": true, "how": true,
	"all": true, "some": true, "any": true, "no": true, "not": true, "so": true,
	"up": true, "out": true, "about": true,
}

// Tokenize runs the analysis pipeline on text. Options.PreserveOriginal,
// when set, emits both the lowercased original word and its stem as
// separate Terms.
func (t *Tokenizer) Tokenize(text string, opts Options) []model.Term {
	words := splitWords(text)

	var identifierWords []string
	if opts.SplitIdentifiers {
		for _, w := range words {
			identifierWords = append(identifierWords, t.splitter.Split(w)...)
		}
	} else {
		for _, w := range words {
			identifierWords = append(identifierWords, strings.ToLower(w))
		}
	}

	terms := make([]model.Term, 0, len(identifierWords)*2)
	for _, w := range identifierWords {
		if w == "" {
			continue
		}
		if opts.Stopwords && stopwords[w] {
			continue
		}

		if !opts.Stemming {
			terms = append(terms, model.Term{Text: w})
			continue
		}

		stem := t.stemmer.Stem(w)
		// Re-stem until the stem is stable ("parse" → "pars" → "par"), so
		// analyzing already-analyzed text yields the same terms.
		for i := 0; i < 4; i++ {
			next := t.stemmer.Stem(stem)
			if next == stem {
				break
			}
			stem = next
		}
		if opts.PreserveOriginal && stem != w {
			terms = append(terms, model.Term{Text: w})
		}
		terms = append(terms, model.Term{Text: stem})
	}

	return terms
}

// TokenizeWithFilename tokenizes file content and appends the filename's own
// analyzed terms (extension stripped) to the stream, so filename words rank
// queries even when absent from the body.
func (t *Tokenizer) TokenizeWithFilename(content, filename string, opts Options) []model.Term {
	terms := t.Tokenize(content, opts)
	stem := stripExtension(filename)
	terms = append(terms, t.Tokenize(stem, opts)...)
	return terms
}

// ExactMatch lowercases both sides and performs a case-insensitive substring
// match, bypassing stemming and identifier splitting entirely.
func ExactMatch(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// splitWords splits on non-alphanumeric boundaries, keeping runs of
// letters/digits.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func stripExtension(filename string) string {
	if idx := strings.LastIndexByte(filename, '/'); idx >= 0 {
		filename = filename[idx+1:]
	}
	if idx := strings.LastIndexByte(filename, '.'); idx > 0 {
		return filename[:idx]
	}
	return filename
}
