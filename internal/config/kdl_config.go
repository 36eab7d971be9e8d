package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL loads configuration from <projectRoot>/.blocksearch.kdl. It
// returns (nil, nil) when the file does not exist, so Load can
// distinguish "absent" from "invalid".
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".blocksearch.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .blocksearch.kdl: %w", err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	if cfg.Project.Root != "" {
		if filepath.IsAbs(cfg.Project.Root) {
			cfg.Project.Root = filepath.Clean(cfg.Project.Root)
		} else {
			cfg.Project.Root = filepath.Clean(filepath.Join(projectRoot, cfg.Project.Root))
		}
	} else if absRoot, err := filepath.Abs(projectRoot); err == nil {
		cfg.Project.Root = absRoot
	} else {
		cfg.Project.Root = projectRoot
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
			}
		case "search":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "exact":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.Exact = b
					}
				case "reranker":
					if s, ok := firstStringArg(cn); ok {
						cfg.Search.Reranker = s
					}
				case "frequency":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.Frequency = b
					}
				case "exclude_filenames":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.ExcludeFilenames = b
					}
				case "allow_tests":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.AllowTests = b
					}
				case "no_merge":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.NoMerge = b
					}
				case "strict_elastic_syntax":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Search.StrictElasticSyntax = b
					}
				case "context_lines":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.ContextLines = v
					}
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxResults = v
					}
				case "max_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxBytes = v
					}
				case "max_tokens":
					if v, ok := firstIntArg(cn); ok {
						cfg.Search.MaxTokens = v
					}
				}
			}
		case "ranking":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "k1":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Ranking.K1 = v
					}
				case "b":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Ranking.B = v
					}
				case "filename_boost":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Ranking.FilenameBoost = v
					}
				case "merge_threshold":
					if v, ok := firstIntArg(cn); ok {
						cfg.Ranking.MergeThreshold = v
					}
				}
			}
		case "session":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "cache_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.Session.CacheDir = s
					}
				case "max_fingerprints":
					if v, ok := firstIntArg(cn); ok {
						cfg.Session.MaxFingerprints = v
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "parallel_file_workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.ParallelFileWorkers = v
					}
				case "timeout_seconds":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.TimeoutSeconds = v
					}
				}
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		log.Printf("WARNING: invalid float value for '%s' in KDL config, expected number but got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB". No KDL field
// is parsed through it: max_bytes takes a plain integer.
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
