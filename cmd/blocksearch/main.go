// Command blocksearch is the CLI entry point: it compiles a query, wires a
// filesystem FileEnumerator into the search driver, and prints ranked code
// blocks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/blocksearch/internal/blocks"
	"github.com/standardbeagle/blocksearch/internal/budget"
	"github.com/standardbeagle/blocksearch/internal/config"
	"github.com/standardbeagle/blocksearch/internal/debugctx"
	"github.com/standardbeagle/blocksearch/internal/driver"
	"github.com/standardbeagle/blocksearch/internal/fsenum"
	"github.com/standardbeagle/blocksearch/internal/model"
	"github.com/standardbeagle/blocksearch/internal/query"
	"github.com/standardbeagle/blocksearch/internal/rank"
	"github.com/standardbeagle/blocksearch/internal/session"
	"github.com/standardbeagle/blocksearch/internal/tokenize"
	"github.com/standardbeagle/blocksearch/pkg/pathutil"
)

func main() {
	app := &cli.App{
		Name:      "blocksearch",
		Usage:     "AST-aware code search: boolean/regex query to ranked code blocks",
		ArgsUsage: "<query> [path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "exact", Usage: "Case-insensitive substring match, no stemming"},
			&cli.StringFlag{Name: "reranker", Usage: "bm25|tfidf|hybrid|hybrid2", Value: "bm25"},
			&cli.BoolFlag{Name: "frequency", Usage: "Stemming + stopwords in tokenization", Value: true},
			&cli.BoolFlag{Name: "exclude-filenames", Usage: "Disable filename boost"},
			&cli.BoolFlag{Name: "allow-tests", Usage: "Include test-declaration blocks"},
			&cli.IntFlag{Name: "max-results", Usage: "Maximum result count"},
			&cli.IntFlag{Name: "max-bytes", Usage: "Maximum total result bytes"},
			&cli.IntFlag{Name: "max-tokens", Usage: "Maximum total estimated tokens"},
			&cli.BoolFlag{Name: "no-merge", Usage: "Disable adjacent-block merging"},
			&cli.IntFlag{Name: "merge-threshold", Usage: "Merge adjacency threshold in lines"},
			&cli.StringFlag{Name: "session", Usage: "Session id: 'new' forces fresh, empty disables"},
			&cli.IntFlag{Name: "timeout", Usage: "Deadline in seconds", Value: 30},
			&cli.BoolFlag{Name: "strict-elastic-syntax", Usage: "Implicit whitespace becomes AND"},
			&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
			&cli.BoolFlag{Name: "debug", Usage: "Print pipeline diagnostics to stderr"},
		},
		Action: searchCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "blocksearch: %v\n", err)
		os.Exit(1)
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: blocksearch <query> [path]", 1)
	}

	rawQuery := c.Args().First()
	root := "."
	if c.NArg() > 1 {
		root = c.Args().Get(1)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(c, cfg)
	cfg.Exclude = config.DeduplicatePatterns(append(cfg.Exclude,
		config.NewBuildArtifactDetector(cfg.Project.Root).DetectOutputDirectories()...))

	tok := tokenize.New(3, nil)
	tokenizeOpts := tokenize.Options{
		Stemming:         cfg.Search.Frequency,
		Stopwords:        cfg.Search.Frequency,
		SplitIdentifiers: cfg.Search.Frequency,
	}

	plan, err := query.Compile(rawQuery, query.Options{
		Tokenizer:  tok,
		TokenizeOp: tokenizeOpts,
		ExactMode:  cfg.Search.Exact,
		Strict:     cfg.Search.StrictElasticSyntax,
	})
	if err != nil {
		return err
	}

	enum := fsenum.New(cfg.Project.Root, cfg.Include, cfg.Exclude, 0)

	store, err := session.Open(cfg.Session.CacheDir, cfg.Session.ID, cfg.Session.MaxFingerprints, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("opening session cache: %w", err)
	}

	logger := debugctx.Discard
	if c.Bool("debug") {
		logger = debugctx.New(os.Stderr)
	}

	opts := driver.Options{
		Enumerator:      enum,
		Tokenizer:       tok,
		TokenizeOptions: tokenizeOpts,
		Rank: rank.Options{
			K1:               cfg.Ranking.K1,
			B:                cfg.Ranking.B,
			FilenameBoost:    cfg.Ranking.FilenameBoost,
			ExcludeFilenames: cfg.Search.ExcludeFilenames,
			Reranker:         cfg.Search.Reranker,
		},
		BlockOptions: blocks.Options{
			AllowTests:   cfg.Search.AllowTests,
			ContextLines: cfg.Search.ContextLines,
		},
		MergeThreshold: cfg.Ranking.MergeThreshold,
		NoMerge:        cfg.Search.NoMerge,
		Budget: budget.Options{
			MaxResults: cfg.Search.MaxResults,
			MaxBytes:   cfg.Search.MaxBytes,
			MaxTokens:  cfg.Search.MaxTokens,
		},
		Session: store,
		Workers: cfg.Performance.ParallelFileWorkers,
		Timeout: time.Duration(cfg.Performance.TimeoutSeconds) * time.Second,
		Logger:  logger,
	}

	results, err := driver.Run(context.Background(), plan, opts)
	if err != nil {
		return err
	}

	if err := store.Flush(); err != nil {
		results.Warnings = append(results.Warnings, err.Error())
	}

	results = pathutil.ToRelativeResults(results, cfg.Project.Root)

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(results)
	}
	printResults(results)
	return nil
}

func printResults(results model.Results) {
	for _, b := range results.Results {
		fmt.Printf("%s:%d-%d  (score %.4f, %d/%d terms)\n",
			b.FilePath, b.StartLine, b.EndLine, b.CombinedScore, b.UniqueTermsMatched, len(results.QueryPlan.Terms))
		fmt.Println(b.Code)
		fmt.Println("---")
	}
	if len(results.SkippedFiles) > 0 {
		fmt.Fprintf(os.Stderr, "%d file(s) skipped by budget limits\n", len(results.SkippedFiles))
	}
	if results.CachedBlocksSkipped > 0 {
		fmt.Fprintf(os.Stderr, "%d block(s) skipped: already seen this session\n", results.CachedBlocksSkipped)
	}
	for _, w := range results.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func applyFlagOverrides(c *cli.Context, cfg *config.Config) {
	if c.IsSet("exact") {
		cfg.Search.Exact = c.Bool("exact")
	}
	if c.IsSet("reranker") {
		cfg.Search.Reranker = c.String("reranker")
	}
	if c.IsSet("frequency") {
		cfg.Search.Frequency = c.Bool("frequency")
	}
	if c.IsSet("exclude-filenames") {
		cfg.Search.ExcludeFilenames = c.Bool("exclude-filenames")
	}
	if c.IsSet("allow-tests") {
		cfg.Search.AllowTests = c.Bool("allow-tests")
	}
	if c.IsSet("max-results") {
		cfg.Search.MaxResults = c.Int("max-results")
	}
	if c.IsSet("max-bytes") {
		cfg.Search.MaxBytes = c.Int("max-bytes")
	}
	if c.IsSet("max-tokens") {
		cfg.Search.MaxTokens = c.Int("max-tokens")
	}
	if c.IsSet("no-merge") {
		cfg.Search.NoMerge = c.Bool("no-merge")
	}
	if c.IsSet("merge-threshold") {
		cfg.Ranking.MergeThreshold = c.Int("merge-threshold")
	}
	if c.IsSet("session") {
		cfg.Session.ID = c.String("session")
	}
	if c.IsSet("timeout") {
		cfg.Performance.TimeoutSeconds = c.Int("timeout")
	}
	if c.IsSet("strict-elastic-syntax") {
		cfg.Search.StrictElasticSyntax = c.Bool("strict-elastic-syntax")
	}
}
