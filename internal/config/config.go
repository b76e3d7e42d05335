package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	pkgconfig "github.com/lewisedginton/dating_coach/pkg/config"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"dating-coach"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	HTTP        pkgconfig.HTTPServerConfig `yaml:"http"`
	Logging     LoggingConfig              `yaml:"logging"`
	LLM         LLMConfig                  `yaml:"llm"`
	OpenAI      OpenAIConfig               `yaml:"openai"`
	Anthropic   AnthropicConfig            `yaml:"anthropic"`
	Gemini      GeminiConfig               `yaml:"gemini"`
	Coaching    CoachingConfig             `yaml:"coaching"`
	Storage     StorageConfig              `yaml:"storage"`
	Persistence PersistenceConfig          `yaml:"persistence"`
	Database    pkgconfig.DatabaseConfig   `yaml:"database"`
	Redis       RedisConfig                `yaml:"redis"`
	Metrics     pkgconfig.MetricsConfig    `yaml:"metrics"`
	Health      HealthConfig               `yaml:"health"`
	Security    SecurityConfig             `yaml:"security"`
}

// Validate validates the configuration and returns every problem found
func (c *AppConfig) Validate() error {
	var result error

	if err := c.Logging.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.HTTP.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Metrics.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.validateProvider(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Coaching.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Health.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Storage.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Persistence.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Persistence.Backend == PersistencePostgres {
		if err := c.Database.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if c.Persistence.Backend == PersistenceRedis && c.Redis.URL == "" {
		result = multierror.Append(result, fmt.Errorf("redis url is required when persistence backend is %q", PersistenceRedis))
	}
	if c.Security.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}
	if c.Security.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be greater than 0"))
	}

	return result
}

func (c *AppConfig) validateProvider() error {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when provider is %q", ProviderOpenAI)
		}
	case ProviderClaude:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when provider is %q", ProviderClaude)
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" && c.Gemini.Project == "" {
			return fmt.Errorf("GEMINI_API_KEY or GOOGLE_CLOUD_PROJECT is required when provider is %q", ProviderGemini)
		}
	default:
		return fmt.Errorf("llm provider must be one of [%s, %s, %s], got %q", ProviderOpenAI, ProviderClaude, ProviderGemini, c.LLM.Provider)
	}
	return nil
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(c.Logging.Level)
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// LogConfig logs the current configuration without secrets
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("http_port", c.HTTP.Port),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.Float64Field("ewma_alpha", c.Coaching.Alpha),
		logger.IntField("sentiment_samples", c.Coaching.SentimentSamples),
		logger.IntField("recommendation_samples", c.Coaching.RecommendationSamples),
		logger.StringField("storage_backend", c.Storage.Backend),
		logger.StringField("persistence_backend", c.Persistence.Backend),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.BoolField("metrics_exposed", c.Metrics.ExposeMetrics),
	)
}
