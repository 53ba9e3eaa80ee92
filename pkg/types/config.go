// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds a single upstream call. A call that runs past it is
	// treated as a retryable network failure.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "content-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MinInterval is the minimum spacing between two calls to the same service.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval" mapstructure:"min_interval"`
}

// RetryConfig configures the retry governor wrapped around every upstream call.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// BaseDelay is the delay before the first retry (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`

	// MaxDelay caps any computed delay (default 30s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`

	// MaxHintDelay caps a wait requested by the server through Retry-After
	// or a rate-limit reset (default 5m).
	MaxHintDelay time.Duration `json:"max_hint_delay" yaml:"max_hint_delay" mapstructure:"max_hint_delay"`

	// BackoffBase is the exponential growth factor (default 2).
	BackoffBase float64 `json:"backoff_base" yaml:"backoff_base" mapstructure:"backoff_base"`

	// RetryableStatusCodes lists upstream status codes worth retrying
	// (default 429, 500, 502, 503, 504).
	RetryableStatusCodes []int `json:"retryable_status_codes" yaml:"retryable_status_codes" mapstructure:"retryable_status_codes"`
}

// TextProvider identifies the generative text backend.
type TextProvider string

const (
	ProviderOpenAI TextProvider = "openai"
	ProviderClaude TextProvider = "claude"
)

// AIConfig holds settings for the generative text service.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the backend: openai or claude.
	Provider TextProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// ImageConfig holds settings for the image search service and asset resolver.
type ImageConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// AccessKey is the image search API key.
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty" mapstructure:"access_key"`

	// ApprovedDomain is the only host (and its subdomains) image URLs may
	// point at (default "unsplash.com").
	ApprovedDomain string `json:"approved_domain" yaml:"approved_domain" mapstructure:"approved_domain"`

	// CoverCandidates is how many results a cover search fetches (default 10).
	CoverCandidates int `json:"cover_candidates" yaml:"cover_candidates" mapstructure:"cover_candidates"`

	// InlinePerQuery caps validated inline images per query (default 1).
	InlinePerQuery int `json:"inline_per_query" yaml:"inline_per_query" mapstructure:"inline_per_query"`

	// PacingDelay is the fixed pause between inline queries (default 1s).
	PacingDelay time.Duration `json:"pacing_delay" yaml:"pacing_delay" mapstructure:"pacing_delay"`
}

// DedupConfig holds the duplicate-title thresholds.
type DedupConfig struct {
	// Threshold is the shared content-word fraction at or above which two
	// titles are duplicates (default 0.8).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// MinWordLength excludes words of this length or shorter (default 2).
	MinWordLength int `json:"min_word_length" yaml:"min_word_length" mapstructure:"min_word_length"`

	// MinSharedWords is the fewest shared content words a fuzzy match needs
	// (default 2).
	MinSharedWords int `json:"min_shared_words" yaml:"min_shared_words" mapstructure:"min_shared_words"`

	// MinCoverage is the shared fraction of the larger title's content words
	// a fuzzy match also needs (default 0.5).
	MinCoverage float64 `json:"min_coverage" yaml:"min_coverage" mapstructure:"min_coverage"`
}

// ValidationConfig holds the advisory word-count thresholds.
type ValidationConfig struct {
	// MinWords is the advisory minimum body length (default 1500).
	MinWords int `json:"min_words" yaml:"min_words" mapstructure:"min_words"`

	// TargetWords is the advisory target body length (default 2500).
	TargetWords int `json:"target_words" yaml:"target_words" mapstructure:"target_words"`
}

// GenerationConfig holds settings for the batch driver.
type GenerationConfig struct {
	// MaxCount caps the number of articles per run (default 5).
	MaxCount int `json:"max_count" yaml:"max_count" mapstructure:"max_count"`

	// OutputDir is the directory finished articles are written to and
	// existing titles are read from (default "output/articles").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// DefaultCategory is used when metadata generation fails (default "General").
	DefaultCategory string `json:"default_category" yaml:"default_category" mapstructure:"default_category"`

	// DefaultTags are used when metadata generation fails (default ["business"]).
	DefaultTags []string `json:"default_tags" yaml:"default_tags" mapstructure:"default_tags"`

	// InlineQueries is how many inline image queries to request (default 3).
	InlineQueries int `json:"inline_queries" yaml:"inline_queries" mapstructure:"inline_queries"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Text       AIConfig         `json:"text" yaml:"text" mapstructure:"text"`
	Images     ImageConfig      `json:"images" yaml:"images" mapstructure:"images"`
	Retry      RetryConfig      `json:"retry" yaml:"retry" mapstructure:"retry"`
	Dedup      DedupConfig      `json:"dedup" yaml:"dedup" mapstructure:"dedup"`
	Validation ValidationConfig `json:"validation" yaml:"validation" mapstructure:"validation"`
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
}

const defaultUserAgent = "content-engine/0.1"

// WithDefaults returns a copy of c with every zero field replaced by its default.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Text.Provider == "" {
		c.Text.Provider = ProviderOpenAI
	}
	if c.Text.Model == "" {
		switch c.Text.Provider {
		case ProviderClaude:
			c.Text.Model = "claude-sonnet-4-5-20250929"
		default:
			c.Text.Model = "gpt-4o-mini"
		}
	}
	if c.Text.Timeout <= 0 {
		c.Text.Timeout = 120 * time.Second
	}
	if c.Text.UserAgent == "" {
		c.Text.UserAgent = defaultUserAgent
	}
	if c.Text.MinInterval <= 0 {
		c.Text.MinInterval = time.Second
	}

	if c.Images.Timeout <= 0 {
		c.Images.Timeout = 30 * time.Second
	}
	if c.Images.UserAgent == "" {
		c.Images.UserAgent = defaultUserAgent
	}
	if c.Images.MinInterval <= 0 {
		c.Images.MinInterval = time.Second
	}
	if c.Images.ApprovedDomain == "" {
		c.Images.ApprovedDomain = "unsplash.com"
	}
	if c.Images.CoverCandidates <= 0 {
		c.Images.CoverCandidates = 10
	}
	if c.Images.InlinePerQuery <= 0 {
		c.Images.InlinePerQuery = 1
	}
	if c.Images.PacingDelay <= 0 {
		c.Images.PacingDelay = time.Second
	}

	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelay <= 0 {
		c.Retry.BaseDelay = time.Second
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = 30 * time.Second
	}
	if c.Retry.MaxHintDelay <= 0 {
		c.Retry.MaxHintDelay = 5 * time.Minute
	}
	if c.Retry.BackoffBase <= 1 {
		c.Retry.BackoffBase = 2
	}
	if len(c.Retry.RetryableStatusCodes) == 0 {
		c.Retry.RetryableStatusCodes = []int{429, 500, 502, 503, 504}
	}

	if c.Dedup.Threshold <= 0 {
		c.Dedup.Threshold = 0.8
	}
	if c.Dedup.MinWordLength <= 0 {
		c.Dedup.MinWordLength = 2
	}
	if c.Dedup.MinSharedWords <= 0 {
		c.Dedup.MinSharedWords = 2
	}
	if c.Dedup.MinCoverage <= 0 {
		c.Dedup.MinCoverage = 0.5
	}

	if c.Validation.MinWords <= 0 {
		c.Validation.MinWords = 1500
	}
	if c.Validation.TargetWords <= 0 {
		c.Validation.TargetWords = 2500
	}

	if c.Generation.MaxCount <= 0 {
		c.Generation.MaxCount = 5
	}
	if c.Generation.OutputDir == "" {
		c.Generation.OutputDir = "output/articles"
	}
	if c.Generation.DefaultCategory == "" {
		c.Generation.DefaultCategory = "General"
	}
	if len(c.Generation.DefaultTags) == 0 {
		c.Generation.DefaultTags = []string{"business"}
	}
	if c.Generation.InlineQueries <= 0 {
		c.Generation.InlineQueries = 3
	}
	return c
}
