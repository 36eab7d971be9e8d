package config

import (
	"testing"
)

func TestValidateAndSetDefaults(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: "/test/root"},
		Performance: Performance{
			ParallelFileWorkers: 1,
			TimeoutSeconds:      1,
		},
		Search: Search{
			Reranker: "bm25",
		},
	}

	validator := NewValidator()
	if err := validator.ValidateAndSetDefaults(cfg); err != nil {
		t.Fatalf("ValidateAndSetDefaults failed: %v", err)
	}

	if cfg.Performance.ParallelFileWorkers == 0 {
		t.Errorf("ParallelFileWorkers should have stayed at its set value, got 0")
	}
	if cfg.Ranking.K1 == 0 {
		t.Errorf("K1 should have been set to 1.2")
	}
	if cfg.Ranking.B == 0 {
		t.Errorf("B should have been set to 0.75")
	}
	if cfg.Session.MaxFingerprints == 0 {
		t.Errorf("MaxFingerprints should have been set to 50000")
	}
}

func TestValidateSearchConfig(t *testing.T) {
	validator := NewValidator()

	if err := validator.validateSearchConfig(&Search{MaxResults: 100, Reranker: "hybrid"}); err != nil {
		t.Errorf("Expected no error for valid config, got %v", err)
	}

	if err := validator.validateSearchConfig(&Search{MaxResults: -10}); err == nil {
		t.Errorf("Expected error for negative MaxResults")
	}

	if err := validator.validateSearchConfig(&Search{ContextLines: -1}); err == nil {
		t.Errorf("Expected error for negative ContextLines")
	}

	if err := validator.validateSearchConfig(&Search{Reranker: "nonsense"}); err == nil {
		t.Errorf("Expected error for unknown reranker")
	}
}

func TestValidateRankingConfig(t *testing.T) {
	validator := NewValidator()

	if err := validator.validateRankingConfig(&Ranking{K1: 1.2, B: 0.75, MergeThreshold: 5}); err != nil {
		t.Errorf("Expected no error for valid config, got %v", err)
	}

	if err := validator.validateRankingConfig(&Ranking{K1: -1, B: 0.75}); err == nil {
		t.Errorf("Expected error for negative K1")
	}

	if err := validator.validateRankingConfig(&Ranking{K1: 1.2, B: 1.5}); err == nil {
		t.Errorf("Expected error for B outside [0,1]")
	}

	if err := validator.validateRankingConfig(&Ranking{K1: 1.2, B: 0.75, MergeThreshold: -1}); err == nil {
		t.Errorf("Expected error for negative MergeThreshold")
	}
}

func TestValidatePerformanceConfig(t *testing.T) {
	validator := NewValidator()

	if err := validator.validatePerformanceConfig(&Performance{ParallelFileWorkers: 8, TimeoutSeconds: 30}); err != nil {
		t.Errorf("Expected no error for valid config, got %v", err)
	}

	// Zero means auto-detect; must not error.
	if err := validator.validatePerformanceConfig(&Performance{}); err != nil {
		t.Errorf("Expected no error for zero-valued (auto-detect) config, got %v", err)
	}

	if err := validator.validatePerformanceConfig(&Performance{ParallelFileWorkers: -1}); err == nil {
		t.Errorf("Expected error for negative ParallelFileWorkers")
	}

	if err := validator.validatePerformanceConfig(&Performance{TimeoutSeconds: -1}); err == nil {
		t.Errorf("Expected error for negative TimeoutSeconds")
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := Default()
	cfg.Project.Root = "/test/root"

	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig failed: %v", err)
	}

	invalidCfg := Default()
	invalidCfg.Search.Reranker = "made-up"

	if err := ValidateConfig(invalidCfg); err == nil {
		t.Errorf("Expected error for invalid reranker")
	}
}

func TestSetSmartDefaults(t *testing.T) {
	cfg := &Config{
		Project:     Project{Root: "/test/root"},
		Performance: Performance{}, // should be populated
		Search:      Search{},      // should be populated
	}

	validator := NewValidator()
	validator.setSmartDefaults(cfg)

	if cfg.Performance.ParallelFileWorkers == 0 {
		t.Errorf("ParallelFileWorkers should have been set")
	}
	if cfg.Performance.TimeoutSeconds == 0 {
		t.Errorf("TimeoutSeconds should have been set")
	}
	if cfg.Search.Reranker == "" {
		t.Errorf("Reranker should have been set")
	}
}

func BenchmarkValidateAndSetDefaults(b *testing.B) {
	cfg := Default()
	validator := NewValidator()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		testCfg := *cfg
		_ = validator.ValidateAndSetDefaults(&testCfg)
	}
}
