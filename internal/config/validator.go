package config

import (
	"fmt"
	"runtime"
)

// Validator validates configuration and fills in smart defaults for fields
// left at their zero value.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateSearchConfig(&cfg.Search); err != nil {
		return fmt.Errorf("search config: %w", err)
	}

	if err := v.validateRankingConfig(&cfg.Ranking); err != nil {
		return fmt.Errorf("ranking config: %w", err)
	}

	if err := v.validatePerformanceConfig(&cfg.Performance); err != nil {
		return fmt.Errorf("performance config: %w", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateSearchConfig(s *Search) error {
	if s.MaxResults < 0 {
		return fmt.Errorf("MaxResults cannot be negative, got %d", s.MaxResults)
	}
	if s.MaxBytes < 0 {
		return fmt.Errorf("MaxBytes cannot be negative, got %d", s.MaxBytes)
	}
	if s.MaxTokens < 0 {
		return fmt.Errorf("MaxTokens cannot be negative, got %d", s.MaxTokens)
	}
	if s.ContextLines < 0 {
		return fmt.Errorf("ContextLines cannot be negative, got %d", s.ContextLines)
	}

	switch s.Reranker {
	case "", "bm25", "tfidf", "hybrid", "hybrid2":
	default:
		return fmt.Errorf("Reranker must be one of bm25, tfidf, hybrid, hybrid2, got %q", s.Reranker)
	}

	return nil
}

func (v *Validator) validateRankingConfig(r *Ranking) error {
	if r.K1 < 0 {
		return fmt.Errorf("K1 must be non-negative, got %v", r.K1)
	}
	if r.B < 0 || r.B > 1 {
		return fmt.Errorf("B must be in [0,1], got %v", r.B)
	}
	if r.MergeThreshold < 0 {
		return fmt.Errorf("MergeThreshold cannot be negative, got %d", r.MergeThreshold)
	}
	return nil
}

func (v *Validator) validatePerformanceConfig(p *Performance) error {
	if p.ParallelFileWorkers < 0 {
		return fmt.Errorf("ParallelFileWorkers cannot be negative, got %d", p.ParallelFileWorkers)
	}
	if p.TimeoutSeconds < 0 {
		return fmt.Errorf("TimeoutSeconds cannot be negative, got %d", p.TimeoutSeconds)
	}
	return nil
}

// setSmartDefaults fills zero-valued fields with sensible system-derived
// defaults, using a cores-minus-one heuristic for worker counts.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.ParallelFileWorkers == 0 {
		cfg.Performance.ParallelFileWorkers = max(1, runtime.NumCPU()-1)
	}
	if cfg.Performance.TimeoutSeconds == 0 {
		cfg.Performance.TimeoutSeconds = 30
	}
	if cfg.Search.Reranker == "" {
		cfg.Search.Reranker = "bm25"
	}
	if cfg.Ranking.K1 == 0 {
		cfg.Ranking.K1 = 1.2
	}
	if cfg.Ranking.B == 0 {
		cfg.Ranking.B = 0.75
	}
	if cfg.Session.MaxFingerprints == 0 {
		cfg.Session.MaxFingerprints = 50000
	}
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
