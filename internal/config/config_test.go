package config

import (
	"os"
	"testing"

	pkgconfig "github.com/lewisedginton/dating_coach/pkg/config"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromEnv(t *testing.T, vars map[string]string) (AppConfig, error) {
	t.Helper()
	os.Clearenv()
	for k, v := range vars {
		t.Setenv(k, v)
	}
	var cfg AppConfig
	err := pkgconfig.GetConfigFromEnvVars(&cfg)
	return cfg, err
}

func TestAppConfig_Defaults(t *testing.T) {
	cfg, err := loadFromEnv(t, map[string]string{"OPENAI_API_KEY": "sk-test"})
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 0.25, cfg.Coaching.Alpha)
	assert.Equal(t, 3, cfg.Coaching.SentimentSamples)
	assert.Equal(t, 5, cfg.Coaching.RecommendationSamples)
	assert.Equal(t, 5, cfg.Coaching.MaxRecommendations)
	assert.Equal(t, 15, cfg.Coaching.PartnerMemoryWindow)
	assert.Equal(t, 5, cfg.Coaching.SentimentWindow)
	assert.Equal(t, 5, cfg.Coaching.RankerWindow)
	assert.Equal(t, 15, cfg.Coaching.AdviceWindow)
	assert.Equal(t, StorageLocal, cfg.Storage.Backend)
	assert.Equal(t, PersistenceNone, cfg.Persistence.Backend)
	assert.Equal(t, "/health/live", cfg.Health.LivenessPath)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.Security.CORSAllowedOrigins)
	assert.Equal(t, logger.InfoLevel, cfg.GetLogLevel())
	assert.False(t, cfg.IsProduction())
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "openai without key", env: map[string]string{}, wantErr: "OPENAI_API_KEY"},
		{name: "claude without key", env: map[string]string{"LLM_PROVIDER": "claude"}, wantErr: "ANTHROPIC_API_KEY"},
		{name: "gemini with project", env: map[string]string{"LLM_PROVIDER": "gemini", "GOOGLE_CLOUD_PROJECT": "p"}},
		{name: "unknown provider", env: map[string]string{"LLM_PROVIDER": "llama"}, wantErr: "llm provider"},
		{
			name:    "alpha out of range",
			env:     map[string]string{"OPENAI_API_KEY": "k", "COACH_EWMA_ALPHA": "1.5"},
			wantErr: "ewma_alpha",
		},
		{
			name:    "zero samples",
			env:     map[string]string{"OPENAI_API_KEY": "k", "COACH_SENTIMENT_SAMPLES": "0"},
			wantErr: "sentiment_samples",
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"OPENAI_API_KEY": "k", "STORAGE_BACKEND": "s3"},
			wantErr: "s3_bucket",
		},
		{
			name:    "redis persistence without url",
			env:     map[string]string{"OPENAI_API_KEY": "k", "PERSISTENCE_BACKEND": "redis"},
			wantErr: "redis url",
		},
		{
			name:    "unknown persistence",
			env:     map[string]string{"OPENAI_API_KEY": "k", "PERSISTENCE_BACKEND": "mongo"},
			wantErr: "persistence backend",
		},
		{
			name:    "health paths collide",
			env:     map[string]string{"OPENAI_API_KEY": "k", "HEALTH_READINESS_PATH": "/health/live"},
			wantErr: "must differ",
		},
		{
			name:    "health path under api",
			env:     map[string]string{"OPENAI_API_KEY": "k", "HEALTH_LIVENESS_PATH": "/api/live"},
			wantErr: "/api/",
		},
		{
			name: "disabled health skips path checks",
			env:  map[string]string{"OPENAI_API_KEY": "k", "HEALTH_ENABLED": "false", "HEALTH_LIVENESS_PATH": "live"},
		},
		{
			name:    "bad log format",
			env:     map[string]string{"OPENAI_API_KEY": "k", "LOG_FORMAT": "xml"},
			wantErr: "log_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadFromEnv(t, tt.env)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestAppConfig_ValidateCollectsAllErrors(t *testing.T) {
	_, err := loadFromEnv(t, map[string]string{
		"COACH_EWMA_ALPHA": "0",
		"LOG_LEVEL":        "loud",
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
	assert.ErrorContains(t, err, "ewma_alpha")
	assert.ErrorContains(t, err, "log_level")
}

func TestAppConfig_StageModels(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want StageModels
	}{
		{
			name: "openai tiers",
			env:  map[string]string{"OPENAI_API_KEY": "k"},
			want: StageModels{
				Relevance: "gpt-4.1-nano", Extraction: "gpt-4.1-mini", Sentiment: "gpt-4.1-nano",
				Ranker: "gpt-4.1-nano", Advice: "gpt-4.1-nano", Report: "gpt-4.1-mini",
			},
		},
		{
			name: "claude tiers with override",
			env:  map[string]string{"LLM_PROVIDER": "claude", "ANTHROPIC_API_KEY": "k", "COACH_REPORT_MODEL": "claude-opus-4-1"},
			want: StageModels{
				Relevance: "claude-haiku-4-5", Extraction: "claude-sonnet-4-5", Sentiment: "claude-haiku-4-5",
				Ranker: "claude-haiku-4-5", Advice: "claude-haiku-4-5", Report: "claude-opus-4-1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadFromEnv(t, tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.StageModels())
		})
	}
}
