// Package config loads blocksearch's runtime configuration: search/ranking
// defaults, session-cache placement, and worker/timeout settings. Load order
// is global then project KDL file, merged, with Include/Exclude glob
// defaults, restructured around the query/rank/session/driver components
// instead of an indexing pipeline.
package config

import (
	"os"
	"runtime"
)

// Config is the root configuration object. It is loaded once per invocation
// and handed to query.Compile, rank.Options, session.Store, and driver.Options.
type Config struct {
	Project     Project
	Search      Search
	Ranking     Ranking
	Session     Session
	Performance Performance
	Include     []string
	Exclude     []string
}

// Project identifies the root the file enumerator walks. It is informational
// for the core; the enumerator is an external collaborator.
type Project struct {
	Root string
}

// Search controls query compilation and tokenization, mirroring the CLI's
// external flag table.
type Search struct {
	Exact               bool   // --exact: disable stemming, case-insensitive substring match
	Reranker            string // --reranker: bm25|tfidf|hybrid|hybrid2
	Frequency            bool  // --frequency (default on): stemming + stopwords in C1
	ExcludeFilenames    bool   // --exclude-filenames: disable filename boost in C6
	AllowTests          bool   // --allow-tests: bypass the C3 test-node filter
	NoMerge             bool   // --no-merge: disable C7
	StrictElasticSyntax bool   // --strict-elastic-syntax: implicit whitespace becomes AND
	ContextLines        int    // context-window half-width used when C3 finds no acceptable parent
	MaxResults          int    // --max-results
	MaxBytes            int    // --max-bytes
	MaxTokens           int    // --max-tokens
}

// Ranking holds the block ranker and merger's tunable parameters.
type Ranking struct {
	K1             float64 // BM25 term-frequency saturation
	B              float64 // BM25 length normalization
	FilenameBoost  float64 // raw-BM25 addend per matched filename term
	MergeThreshold int     // C7 adjacency threshold, in lines
}

// Session controls the C8 fingerprint cache.
type Session struct {
	ID              string // --session: "new" forces a fresh cache, "" disables it
	CacheDir        string // base directory (the user cache dir by default); sessions live in its probe-sessions subdirectory
	MaxFingerprints int     // cap before oldest-first compaction
}

// Performance controls the C10 driver's worker pool and deadline.
type Performance struct {
	ParallelFileWorkers int // 0 = auto-detect (the driver uses runtime.NumCPU())
	TimeoutSeconds      int // --timeout
}

// Load resolves configuration for searchDir: a global ~/.blocksearch.kdl
// merged under a project .blocksearch.kdl, falling back to defaults when
// neither file exists.
func Load(searchDir string) (*Config, error) {
	var base *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			base = globalCfg
		}
	}

	project, err := LoadKDL(searchDir)
	if err != nil {
		return nil, err
	}

	switch {
	case base != nil && project != nil:
		return mergeConfigs(base, project), nil
	case project != nil:
		return project, nil
	case base != nil:
		base.Project.Root = searchDir
		return base, nil
	}

	cfg := Default()
	cfg.Project.Root = searchDir
	return cfg, nil
}

// Default returns the configuration the CLI uses when no KDL file and no
// flag overrides are present. Values match the flag defaults in section 6.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return &Config{
		Project: Project{Root: cwd},
		Search: Search{
			Exact:               false,
			Reranker:            "bm25",
			Frequency:           true,
			ExcludeFilenames:    false,
			AllowTests:          false,
			NoMerge:             false,
			StrictElasticSyntax: false,
			ContextLines:        3,
			MaxResults:          100,
			MaxBytes:            1 << 20, // 1 MiB
			MaxTokens:           20000,
		},
		Ranking: Ranking{
			K1:             1.2,
			B:              0.75,
			FilenameBoost:  0.15,
			MergeThreshold: 5,
		},
		Session: Session{
			ID:              "",
			CacheDir:        defaultCacheDir(),
			MaxFingerprints: 50000,
		},
		Performance: Performance{
			ParallelFileWorkers: max(1, runtime.NumCPU()-1),
			TimeoutSeconds:      30,
		},
		Include: []string{},
		Exclude: defaultExclusions(),
	}
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cache"
	}
	return home + "/.cache"
}

// mergeConfigs merges a base (global) config with a project config. Project
// settings win; exclusions are the union of both so a global ignore list is
// never silently dropped by a project file.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Exclude) > 0 {
		seen := make(map[string]bool, len(base.Exclude)+len(project.Exclude))
		combined := make([]string, 0, len(base.Exclude)+len(project.Exclude))
		for _, pattern := range base.Exclude {
			if !seen[pattern] {
				seen[pattern] = true
				combined = append(combined, pattern)
			}
		}
		for _, pattern := range project.Exclude {
			if !seen[pattern] {
				seen[pattern] = true
				combined = append(combined, pattern)
			}
		}
		merged.Exclude = combined
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}

	return &merged
}

func defaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/.*/**",
		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**",
		"**/bin/**",
		"**/obj/**",
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",
		"**/__pycache__/**",
		"**/*.pyc",
		"**/.cache/**",
		"**/logs/**",
		"**/*.log",
	}
}
