package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full papermine configuration, assembled from defaults,
// ~/.papermine/config.yaml, PAPERMINE_* environment variables and CLI flags.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Limiter   LimiterConfig   `yaml:"limiter"`
	Batch     BatchConfig     `yaml:"batch"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Filter    FilterConfig    `yaml:"filter"`
	Mining    MiningConfig    `yaml:"mining"`
}

// MiningConfig names what is being mined: the research topic papers are
// screened against and the metric families extracted from each paper.
type MiningConfig struct {
	Topic   string   `yaml:"topic"`
	Metrics []string `yaml:"metrics"`
}

// LLMConfig holds language-model provider settings.
type LLMConfig struct {
	// Provider name: "openai", "ollama", "" (disabled)
	Provider string `yaml:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model"`

	// APIKey for hosted providers
	APIKey string `yaml:"api_key"`

	// BaseURL for custom endpoints (e.g., Ollama, Azure-compatible gateways)
	BaseURL string `yaml:"base_url"`

	// Timeout for a single API request, in seconds
	Timeout int `yaml:"timeout"`

	// MaxTokens for response generation
	MaxTokens int `yaml:"max_tokens"`

	// Temperature for sampling
	Temperature float32 `yaml:"temperature"`
}

// LimiterConfig controls the process-wide outbound-call limiter.
type LimiterConfig struct {
	// Concurrency is the maximum number of in-flight model calls
	Concurrency int `yaml:"concurrency"`

	// MinDelay/MaxDelay bound the randomized pacing delay before each call
	MinDelay time.Duration `yaml:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`

	// RequestsPerSecond caps the overall outbound rate (0 disables the cap)
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// BatchConfig controls batched submission of units of work.
type BatchConfig struct {
	// Size is the number of units submitted and awaited together
	Size int `yaml:"size"`
}

// ConsensusConfig carries the per-task retry ceilings of the consensus loop.
// The ceilings differ deliberately across tasks: per-paper extraction gets a
// generous budget, categorization and support lookup give up quickly.
type ConsensusConfig struct {
	// GenerateRetries bounds the inner generate-and-parse attempts per round
	GenerateRetries int `yaml:"generate_retries"`

	// Retry ceilings, one per task instantiation
	ExtractCeiling    int `yaml:"extract_ceiling"`
	TaxonomyCeiling   int `yaml:"taxonomy_ceiling"`
	CategorizeCeiling int `yaml:"categorize_ceiling"`
	AnalysisCeiling   int `yaml:"analysis_ceiling"`
	GuidanceCeiling   int `yaml:"guidance_ceiling"`
	SupportCeiling    int `yaml:"support_ceiling"`

	// NullCap bounds consecutive "not available" rounds before the null
	// result is accepted as terminal
	NullCap int `yaml:"null_cap"`

	// TaxonomySampleCap caps the number of papers sampled for metric
	// taxonomy induction
	TaxonomySampleCap int `yaml:"taxonomy_sample_cap"`
}

// FilterConfig parameterizes the percentile filtering engine.
type FilterConfig struct {
	// RetentionRatio is the fraction of papers kept on the favorable side
	// of each metric threshold
	RetentionRatio float64 `yaml:"retention_ratio"`

	// MinSampleCount drops metric categories reported by fewer papers
	MinSampleCount int `yaml:"min_sample_count"`
}

// UnmarshalConfig overlays YAML config data onto cfg; fields absent from
// the data keep their current values.
func UnmarshalConfig(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:    "",
			Model:       "",
			Timeout:     120,
			MaxTokens:   4096,
			Temperature: 0.3,
		},
		Limiter: LimiterConfig{
			Concurrency:       10,
			MinDelay:          500 * time.Millisecond,
			MaxDelay:          2 * time.Second,
			RequestsPerSecond: 0,
		},
		Batch: BatchConfig{
			Size: 50,
		},
		Consensus: ConsensusConfig{
			GenerateRetries:   2,
			ExtractCeiling:    10,
			TaxonomyCeiling:   10,
			CategorizeCeiling: 3,
			AnalysisCeiling:   3,
			GuidanceCeiling:   10,
			SupportCeiling:    3,
			NullCap:           3,
			TaxonomySampleCap: 300,
		},
		Filter: FilterConfig{
			RetentionRatio: 0.4,
			MinSampleCount: 10,
		},
		Mining: MiningConfig{
			Topic:   "electrocatalytic oxygen evolution",
			Metrics: []string{"activity", "selectivity", "stability"},
		},
	}
}
