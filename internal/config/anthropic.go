package config

import "time"

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey     string        `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	FastModel  string        `env:"CLAUDE_FAST_MODEL" yaml:"fast_model" default:"claude-haiku-4-5"`
	SmartModel string        `env:"CLAUDE_SMART_MODEL" yaml:"smart_model" default:"claude-sonnet-4-5"`
	APIBaseURL string        `env:"ANTHROPIC_API_URL" yaml:"api_base_url" default:"https://api.anthropic.com"`
	MaxRetries int           `env:"ANTHROPIC_MAX_RETRIES" yaml:"max_retries" default:"2"`
	MaxTokens  int64         `env:"ANTHROPIC_MAX_TOKENS" yaml:"max_tokens" default:"1024"`
	Timeout    time.Duration `env:"ANTHROPIC_TIMEOUT" yaml:"timeout" default:"30s"`
}
