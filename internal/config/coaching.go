package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// CoachingConfig holds the tunables of the scoring and recommendation pipelines
type CoachingConfig struct {
	Alpha                 float64 `env:"COACH_EWMA_ALPHA" yaml:"ewma_alpha" default:"0.25"`
	SentimentSamples      int     `env:"COACH_SENTIMENT_SAMPLES" yaml:"sentiment_samples" default:"3"`
	RecommendationSamples int     `env:"COACH_RECOMMENDATION_SAMPLES" yaml:"recommendation_samples" default:"5"`
	MaxRecommendations    int     `env:"COACH_MAX_RECOMMENDATIONS" yaml:"max_recommendations" default:"5"`

	PartnerMemoryWindow int `env:"COACH_PARTNER_MEMORY_WINDOW" yaml:"partner_memory_window" default:"15"`
	SentimentWindow     int `env:"COACH_SENTIMENT_WINDOW" yaml:"sentiment_window" default:"5"`
	RankerWindow        int `env:"COACH_RANKER_WINDOW" yaml:"ranker_window" default:"5"`
	AdviceWindow        int `env:"COACH_ADVICE_WINDOW" yaml:"advice_window" default:"15"`

	// Per-stage model overrides; empty uses the provider's fast or smart tier
	RelevanceModel  string `env:"COACH_RELEVANCE_MODEL" yaml:"relevance_model"`
	ExtractionModel string `env:"COACH_EXTRACTION_MODEL" yaml:"extraction_model"`
	SentimentModel  string `env:"COACH_SENTIMENT_MODEL" yaml:"sentiment_model"`
	RankerModel     string `env:"COACH_RANKER_MODEL" yaml:"ranker_model"`
	AdviceModel     string `env:"COACH_ADVICE_MODEL" yaml:"advice_model"`
	ReportModel     string `env:"COACH_REPORT_MODEL" yaml:"report_model"`

	PromptVersion          int           `env:"COACH_PROMPT_VERSION" yaml:"prompt_version" default:"1"`
	RecommendationCacheTTL time.Duration `env:"COACH_RECOMMENDATION_CACHE_TTL" yaml:"recommendation_cache_ttl" default:"10m"`
	CompletionRPS          float64       `env:"COACH_COMPLETION_RPS" yaml:"completion_rps" default:"0"`
	CompletionBurst        int           `env:"COACH_COMPLETION_BURST" yaml:"completion_burst" default:"10"`
}

// Validate checks ranges of the coaching tunables
func (c CoachingConfig) Validate() error {
	var result error
	if c.Alpha <= 0 || c.Alpha > 1 {
		result = multierror.Append(result, fmt.Errorf("ewma_alpha must be in (0, 1], got %v", c.Alpha))
	}
	if c.SentimentSamples < 1 {
		result = multierror.Append(result, fmt.Errorf("sentiment_samples must be at least 1, got %d", c.SentimentSamples))
	}
	if c.RecommendationSamples < 1 {
		result = multierror.Append(result, fmt.Errorf("recommendation_samples must be at least 1, got %d", c.RecommendationSamples))
	}
	if c.MaxRecommendations < 1 {
		result = multierror.Append(result, fmt.Errorf("max_recommendations must be at least 1, got %d", c.MaxRecommendations))
	}
	for name, w := range map[string]int{
		"partner_memory_window": c.PartnerMemoryWindow,
		"sentiment_window":      c.SentimentWindow,
		"ranker_window":         c.RankerWindow,
		"advice_window":         c.AdviceWindow,
	} {
		if w < 0 {
			result = multierror.Append(result, fmt.Errorf("%s cannot be negative, got %d", name, w))
		}
	}
	if c.PromptVersion < 1 {
		result = multierror.Append(result, fmt.Errorf("prompt_version must be at least 1, got %d", c.PromptVersion))
	}
	if c.CompletionRPS < 0 {
		result = multierror.Append(result, fmt.Errorf("completion_rps cannot be negative"))
	}
	return result
}

// StageModels resolves the model of every pipeline stage, applying overrides over tiers.
func (c *AppConfig) StageModels() StageModels {
	tiers := c.Tiers()
	pick := func(override, tier string) string {
		if override != "" {
			return override
		}
		return tier
	}
	return StageModels{
		Relevance:  pick(c.Coaching.RelevanceModel, tiers.Fast),
		Extraction: pick(c.Coaching.ExtractionModel, tiers.Smart),
		Sentiment:  pick(c.Coaching.SentimentModel, tiers.Fast),
		Ranker:     pick(c.Coaching.RankerModel, tiers.Fast),
		Advice:     pick(c.Coaching.AdviceModel, tiers.Fast),
		Report:     pick(c.Coaching.ReportModel, tiers.Smart),
	}
}

// StageModels names the model used by each pipeline stage
type StageModels struct {
	Relevance  string
	Extraction string
	Sentiment  string
	Ranker     string
	Advice     string
	Report     string
}
