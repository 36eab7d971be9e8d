// Package driver implements the search driver: the orchestration state
// machine that turns a compiled QueryPlan and a stream of files into a
// ranked, merged, budget-limited Results envelope.
//
// File enumeration is an external collaborator (the FileEnumerator
// interface) rather than this package's concern.
//
// Concurrency follows golang.org/x/sync/errgroup with a bounded worker
// count: errgroup.WithContext for structured concurrency, a pool sized off
// runtime.NumCPU(). The per-file pipeline runs up to a barrier, then
// coordinator-only global stages run the rest.
package driver

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/blocksearch/internal/blocks"
	"github.com/standardbeagle/blocksearch/internal/budget"
	"github.com/standardbeagle/blocksearch/internal/debugctx"
	"github.com/standardbeagle/blocksearch/internal/errors"
	"github.com/standardbeagle/blocksearch/internal/lang"
	"github.com/standardbeagle/blocksearch/internal/merge"
	"github.com/standardbeagle/blocksearch/internal/model"
	"github.com/standardbeagle/blocksearch/internal/rank"
	"github.com/standardbeagle/blocksearch/internal/session"
	"github.com/standardbeagle/blocksearch/internal/termindex"
	"github.com/standardbeagle/blocksearch/internal/tokenize"
)

// FileEnumerator discovers candidate files for a query. It is external to
// the core: the CLI wires a doublestar-glob-and-hint-filtering
// implementation, tests wire an in-memory one.
type FileEnumerator interface {
	Enumerate(ctx context.Context, hints []model.Hint) ([]string, error)
	Read(path string) (content string, extension string, err error)
}

// Options configures one Run invocation.
type Options struct {
	Enumerator      FileEnumerator
	Tokenizer       *tokenize.Tokenizer
	TokenizeOptions tokenize.Options
	Rank            rank.Options
	BlockOptions    blocks.Options
	MergeThreshold  int
	NoMerge         bool
	Budget          budget.Options
	Session         *session.Store
	Workers         int           // 0 = runtime.NumCPU()
	Timeout         time.Duration // 0 = no deadline
	Logger          debugctx.Logger
}

// Run executes the full pipeline: PROCESSING (parallel per file) ->
// RANKING -> MERGING -> CACHE_FILTER -> LIMITING -> EMIT.
func Run(ctx context.Context, plan model.QueryPlan, opts Options) (model.Results, error) {
	start := timeNow()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	ctx = debugctx.WithContext(ctx, opts.Logger)

	paths, err := opts.Enumerator.Enumerate(ctx, plan.Hints)
	if err != nil {
		return model.Results{}, err
	}
	opts.Logger.Logf("enumerated %d candidate files for query %q", len(paths), plan.Raw)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var deadlineHit int32
	var warnings []string
	var warningsMu sync.Mutex

	candidates := make([][]model.ScoredBlock, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil || atomic.LoadInt32(&deadlineHit) == 1 {
				return nil
			}
			result, fileWarnings := processFile(gctx, opts, plan, path)
			candidates[i] = result
			if len(fileWarnings) > 0 {
				warningsMu.Lock()
				warnings = append(warnings, fileWarnings...)
				warningsMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	partial := false
	if ctx.Err() != nil {
		partial = true
		atomic.StoreInt32(&deadlineHit, 1)
		warnings = append(warnings, errors.NewTimeoutError(opts.Timeout).Error())
	}

	var all []model.ScoredBlock
	for _, blocksForFile := range candidates {
		all = append(all, blocksForFile...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].FilePath != all[j].FilePath {
			return all[i].FilePath < all[j].FilePath
		}
		return all[i].StartLine < all[j].StartLine
	})

	opts.Logger.Logf("resolved %d candidate blocks across %d files", len(all), len(paths))

	corpus := rank.BuildCorpus(all)
	ranked := rank.Score(all, plan, corpus, opts.Rank)

	if !opts.NoMerge {
		before := len(ranked)
		ranked = merge.Merge(ranked, opts.MergeThreshold)
		sortByScore(ranked)
		opts.Logger.Logf("merged %d blocks into %d", before, len(ranked))
	}

	cachedSkipped := 0
	if opts.Session != nil {
		ranked, cachedSkipped = filterCached(opts.Session, ranked)
	}

	outcome := budget.Apply(ranked, opts.Budget)

	if opts.Session != nil {
		for _, b := range outcome.Accepted {
			opts.Session.Record(session.Compute(b.CodeBlock))
		}
	}

	return model.Results{
		Results:                      outcome.Accepted,
		SkippedFiles:                 outcome.Skipped,
		LimitsApplied:                &outcome.LimitsApplied,
		CachedBlocksSkipped:          cachedSkipped,
		FilesSkippedEarlyTermination: countEarlyTermination(candidates, deadlineHit),
		QueryPlan:                    plan,
		ElapsedMS:                    timeNow().Sub(start).Milliseconds(),
		Partial:                      partial,
		Warnings:                     warnings,
	}, nil
}

// processFile implements one file's READ -> TOKENIZE -> INDEX -> EVALUATE ->
// RESOLVE_AST -> LOCAL_BLOCKS sequence.
func processFile(ctx context.Context, opts Options, plan model.QueryPlan, path string) ([]model.ScoredBlock, []string) {
	logger := debugctx.FromContext(ctx)

	content, extension, err := opts.Enumerator.Read(path)
	if err != nil {
		return nil, []string{errors.NewIoError("read", path, err).Error()}
	}

	index := termindex.Build(opts.Tokenizer, content, opts.TokenizeOptions)
	candidateLines, ok := termindex.CandidateLines(index, plan)
	if !ok {
		logger.Logf("%s: no line satisfies the required-term intersection, skipping", path)
		return nil, nil
	}
	if len(candidateLines) == 0 {
		return nil, nil
	}

	found, err := blocks.FindBlocks(path, content, extension, candidateLines, opts.BlockOptions)
	var warnings []string
	if err != nil {
		warnings = append(warnings, err.Error())
	}

	var out []model.ScoredBlock
	for _, b := range found {
		scored, ok := termindex.VerifyBlock(opts.Tokenizer, b, plan, opts.TokenizeOptions)
		if !ok {
			continue
		}
		out = append(out, scored)
	}
	logger.Logf("%s: %d candidate lines -> %d verified blocks", path, len(candidateLines), len(out))
	return out, warnings
}

func filterCached(store *session.Store, blocks []model.ScoredBlock) ([]model.ScoredBlock, int) {
	out := make([]model.ScoredBlock, 0, len(blocks))
	skipped := 0
	for _, b := range blocks {
		if store.Seen(session.Compute(b.CodeBlock)) {
			skipped++
			continue
		}
		out = append(out, b)
	}
	return out, skipped
}

func countEarlyTermination(candidates [][]model.ScoredBlock, deadlineHit int32) int {
	if atomic.LoadInt32(&deadlineHit) == 0 {
		return 0
	}
	n := 0
	for _, c := range candidates {
		if c == nil {
			n++
		}
	}
	return n
}

func sortByScore(blocks []model.ScoredBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].CombinedScore > blocks[j].CombinedScore
	})
}

// ResolveRangeFile runs the AST block resolver's range mode directly against
// one file, outside the query search pipeline.
func ResolveRangeFile(path, content, extension string, start, end int, opts blocks.Options) (model.CodeBlock, error) {
	return blocks.ResolveRange(path, content, extension, start, end, opts)
}

// ResolveSymbolFile runs the AST block resolver's symbol mode directly
// against one file, outside the query search pipeline.
func ResolveSymbolFile(path, content, extension, symbol string, opts blocks.Options) (model.CodeBlock, bool, error) {
	return blocks.ResolveSymbol(path, content, extension, symbol, opts)
}

// SupportedLanguage reports whether extension has a registered handler.
func SupportedLanguage(extension string) bool {
	_, ok := lang.Resolve(extension)
	return ok
}

var timeNow = func() time.Time { return time.Now() }
