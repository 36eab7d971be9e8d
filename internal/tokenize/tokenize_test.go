package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_SplitsIdentifiers(t *testing.T) {
	tok := New(3, nil)
	terms := tok.Tokenize("getUserName", Options{SplitIdentifiers: true, Stemming: false, Stopwords: false})

	var texts []string
	for _, term := range terms {
		texts = append(texts, term.Text)
	}

	assert.Contains(t, texts, "get")
	assert.Contains(t, texts, "user")
	assert.Contains(t, texts, "name")
}

func TestTokenize_RemovesStopwords(t *testing.T) {
	tok := New(3, nil)
	terms := tok.Tokenize("the quick fox", Options{Stopwords: true})

	var texts []string
	for _, term := range terms {
		texts = append(texts, term.Text)
	}

	assert.NotContains(t, texts, "the")
	assert.Contains(t, texts, "quick")
	assert.Contains(t, texts, "fox")
}

func TestTokenize_Stemming(t *testing.T) {
	tok := New(3, nil)
	terms := tok.Tokenize("running runner runs", Options{Stemming: true})

	require.NotEmpty(t, terms)
	for _, term := range terms {
		assert.Equal(t, "run", term.Text[:3])
	}
}

func TestTokenize_PreserveOriginal(t *testing.T) {
	tok := New(3, nil)
	terms := tok.Tokenize("running", Options{Stemming: true, PreserveOriginal: true})

	var texts []string
	for _, term := range terms {
		texts = append(texts, term.Text)
	}

	assert.Contains(t, texts, "running")
	assert.Contains(t, texts, "run")
}

func TestTokenize_NoStemmingNoSplitting(t *testing.T) {
	tok := New(3, nil)
	terms := tok.Tokenize("getUserName", Options{})

	require.Len(t, terms, 1)
	assert.Equal(t, "getusername", terms[0].Text)
}

func TestTokenizeWithFilename_AppendsFilenameTerms(t *testing.T) {
	tok := New(3, nil)
	terms := tok.TokenizeWithFilename("package main", "user_handler.go", Options{SplitIdentifiers: true})

	var texts []string
	for _, term := range terms {
		texts = append(texts, term.Text)
	}

	assert.Contains(t, texts, "user")
	assert.Contains(t, texts, "handler")
}

func TestExactMatch(t *testing.T) {
	assert.True(t, ExactMatch("Exact Phrase here", "exact phrase"))
	assert.False(t, ExactMatch("something else", "exact phrase"))
}

func TestTokenize_Idempotent(t *testing.T) {
	tok := New(3, nil)
	opts := Options{Stemming: true, SplitIdentifiers: true, Stopwords: false}

	first := tok.Tokenize("parseExpression", opts)
	var words []string
	for _, term := range first {
		words = append(words, term.Text)
	}

	second := tok.Tokenize(joinWords(words), opts)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
