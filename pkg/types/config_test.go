// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"
)

func TestWithDefaults(t *testing.T) {
	cfg := PipelineConfig{}.WithDefaults()

	if cfg.Text.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want %q", cfg.Text.Provider, ProviderOpenAI)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.MaxHintDelay != 5*time.Minute {
		t.Errorf("MaxHintDelay = %v, want 5m", cfg.Retry.MaxHintDelay)
	}
	if cfg.Retry.BackoffBase != 2 {
		t.Errorf("BackoffBase = %v, want 2", cfg.Retry.BackoffBase)
	}
	if len(cfg.Retry.RetryableStatusCodes) != 5 {
		t.Errorf("RetryableStatusCodes = %v, want 5 codes", cfg.Retry.RetryableStatusCodes)
	}
	if cfg.Dedup.Threshold != 0.8 {
		t.Errorf("Threshold = %v, want 0.8", cfg.Dedup.Threshold)
	}
	if cfg.Dedup.MinWordLength != 2 {
		t.Errorf("MinWordLength = %d, want 2", cfg.Dedup.MinWordLength)
	}
	if cfg.Dedup.MinSharedWords != 2 || cfg.Dedup.MinCoverage != 0.5 {
		t.Errorf("MinSharedWords, MinCoverage = %d, %v, want 2, 0.5", cfg.Dedup.MinSharedWords, cfg.Dedup.MinCoverage)
	}
	if cfg.Images.ApprovedDomain != "unsplash.com" {
		t.Errorf("ApprovedDomain = %q, want unsplash.com", cfg.Images.ApprovedDomain)
	}
	if cfg.Generation.DefaultCategory != "General" {
		t.Errorf("DefaultCategory = %q, want General", cfg.Generation.DefaultCategory)
	}
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := PipelineConfig{
		Text:  AIConfig{Provider: ProviderClaude},
		Retry: RetryConfig{MaxAttempts: 7, BaseDelay: 5 * time.Millisecond},
		Dedup: DedupConfig{Threshold: 0.6},
	}.WithDefaults()

	if cfg.Text.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("Model = %q, want the Claude default", cfg.Text.Model)
	}
	if cfg.Retry.MaxAttempts != 7 {
		t.Errorf("MaxAttempts = %d, want 7", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.BaseDelay != 5*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 5ms", cfg.Retry.BaseDelay)
	}
	if cfg.Dedup.Threshold != 0.6 {
		t.Errorf("Threshold = %v, want 0.6", cfg.Dedup.Threshold)
	}
}
