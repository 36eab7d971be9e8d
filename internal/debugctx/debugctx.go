// Package debugctx carries diagnostic logging through the driver instead of
// re-reading an environment variable or a package-level flag at every call
// site. A Logger is constructed once at process start and threaded through
// driver.Options and per-request contexts.
package debugctx

import (
	"context"
	"fmt"
	"io"
)

// Logger writes diagnostic lines. The zero value discards everything.
type Logger struct {
	w io.Writer
}

// New returns a Logger writing to w. A nil w is equivalent to Discard.
func New(w io.Writer) Logger {
	return Logger{w: w}
}

// Discard is a Logger that writes nothing.
var Discard = Logger{}

// Enabled reports whether this logger actually writes anywhere.
func (l Logger) Enabled() bool {
	return l.w != nil
}

// Logf writes a formatted diagnostic line if the logger is enabled.
func (l Logger) Logf(format string, args ...any) {
	if l.w == nil {
		return
	}
	fmt.Fprintf(l.w, format+"\n", args...)
}

type key int

const loggerKey key = 0

// WithContext returns a context carrying the given logger.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or Discard if none was
// attached.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Discard
}
