// Package errors defines the error kinds surfaced by the query compiler,
// the AST block resolver, the search driver, and the session cache: one
// concrete struct per ErrorKind, each implementing error and Unwrap.
package errors

import (
	"fmt"
	"time"
)

// Kind identifies which part of the pipeline produced an error.
type Kind string

const (
	KindQuerySyntax         Kind = "query_syntax"
	KindUnsupportedLanguage Kind = "unsupported_language"
	KindParseFailure        Kind = "parse_failure"
	KindIO                  Kind = "io"
	KindTimeout             Kind = "timeout"
	KindSessionCacheCorrupt Kind = "session_cache_corrupt"
)

// QuerySyntaxError is fatal to the invocation: it aborts before any file is
// processed.
type QuerySyntaxError struct {
	Query      string
	ByteOffset int
	Reason     string
}

func NewQuerySyntaxError(query string, offset int, reason string) *QuerySyntaxError {
	return &QuerySyntaxError{Query: query, ByteOffset: offset, Reason: reason}
}

func (e *QuerySyntaxError) Error() string {
	return fmt.Sprintf("query syntax error at byte %d: %s (query: %q)", e.ByteOffset, e.Reason, e.Query)
}

// UnsupportedLanguageError is recovered locally: the offending file is
// skipped and a warning recorded.
type UnsupportedLanguageError struct {
	FilePath  string
	Extension string
}

func NewUnsupportedLanguageError(path, ext string) *UnsupportedLanguageError {
	return &UnsupportedLanguageError{FilePath: path, Extension: ext}
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q for %s", e.Extension, e.FilePath)
}

// ParseFailureError is recovered locally: the file falls back to a single
// whole-file block with NodeType "file".
type ParseFailureError struct {
	FilePath   string
	Underlying error
}

func NewParseFailureError(path string, err error) *ParseFailureError {
	return &ParseFailureError{FilePath: path, Underlying: err}
}

func (e *ParseFailureError) Error() string {
	return fmt.Sprintf("parse failure for %s: %v", e.FilePath, e.Underlying)
}

func (e *ParseFailureError) Unwrap() error { return e.Underlying }

// IoError is recovered locally: the file is skipped and added to the
// driver's warnings list.
type IoError struct {
	FilePath   string
	Operation  string
	Underlying error
}

func NewIoError(op, path string, err error) *IoError {
	return &IoError{FilePath: path, Operation: op, Underlying: err}
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io %s failed for %s: %v", e.Operation, e.FilePath, e.Underlying)
}

func (e *IoError) Unwrap() error { return e.Underlying }

// TimeoutError is non-fatal: the driver emits whatever reached the ranking
// stage with Results.Partial set.
type TimeoutError struct {
	DeadlineAfter time.Duration
}

func NewTimeoutError(after time.Duration) *TimeoutError {
	return &TimeoutError{DeadlineAfter: after}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search timed out after %s", e.DeadlineAfter)
}

// SessionCacheCorruptError is recovered: the cache file is rewritten fresh
// and a warning surfaced.
type SessionCacheCorruptError struct {
	Path   string
	Reason string
}

func NewSessionCacheCorruptError(path, reason string) *SessionCacheCorruptError {
	return &SessionCacheCorruptError{Path: path, Reason: reason}
}

func (e *SessionCacheCorruptError) Error() string {
	return fmt.Sprintf("session cache %s is corrupt: %s", e.Path, e.Reason)
}

// MultiError aggregates the non-fatal errors collected across workers.
// Only QuerySyntaxError aborts a run before any file is processed; every
// other kind ends up here.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

func (e *MultiError) Unwrap() []error { return e.Errors }

// Strings renders each collected error as a warning string, in the order
// collected, for inclusion in a Results envelope.
func (e *MultiError) Strings() []string {
	out := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err.Error()
	}
	return out
}
