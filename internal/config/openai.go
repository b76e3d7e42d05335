package config

import "time"

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey     string        `env:"OPENAI_API_KEY" yaml:"api_key"`
	FastModel  string        `env:"OPENAI_FAST_MODEL" yaml:"fast_model" default:"gpt-4.1-nano"`
	SmartModel string        `env:"OPENAI_SMART_MODEL" yaml:"smart_model" default:"gpt-4.1-mini"`
	APIBaseURL string        `env:"OPENAI_API_URL" yaml:"api_base_url" default:"https://api.openai.com/v1"`
	MaxRetries int           `env:"OPENAI_MAX_RETRIES" yaml:"max_retries" default:"2"`
	Timeout    time.Duration `env:"OPENAI_TIMEOUT" yaml:"timeout" default:"30s"`
}
