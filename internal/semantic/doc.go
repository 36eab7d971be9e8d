// Package semantic provides the text-normalization primitives shared by the
// tokenizer and the symbol-mode block resolver.
//
// # Core Components
//
// Stemmer: Reduces words to their root forms using the Porter2 algorithm,
// enabling matches between different word forms (e.g., "validate" and "validation").
//
// NameSplitter: Splits compound identifiers into component words, supporting
// camelCase, PascalCase, snake_case, and kebab-case conventions.
//
// FuzzyMatcher: Implements fuzzy string matching using configurable algorithms
// (jaro-winkler, levenshtein, or cosine over character bigrams). Used as the
// last-resort fallback when symbol-mode resolution finds no exact name match.
//
// # Usage Example
//
//	splitter := semantic.NewNameSplitter()
//	stemmer := semantic.NewStemmer(true, "porter2", 3, nil)
//	fuzzer := semantic.NewFuzzyMatcher(true, 0.7, "jaro-winkler")
//
//	words := splitter.Split("getUserName")
//	stems := stemmer.StemAll(words)
//	matches := fuzzer.FindMatches("getUserNme", []string{"getUserName", "setUserName"})
//
// # Performance Considerations
//
// NameSplitter caches recent splits so repeated identifiers across a large
// file set are not re-analyzed on every occurrence.
package semantic
