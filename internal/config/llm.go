package config

// LLM provider constants
const (
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLMConfig holds LLM provider selection configuration
type LLMConfig struct {
	// Provider is one of "openai", "claude" or "gemini"
	Provider string `env:"LLM_PROVIDER" yaml:"provider" default:"openai"`
}

// Tiered model names. Fast models serve the high-volume classification stages, smart
// models the extraction and summarization stages.
type ModelTiers struct {
	Fast  string
	Smart string
}

// Tiers returns the fast/smart model pair of the selected provider.
func (c *AppConfig) Tiers() ModelTiers {
	switch c.LLM.Provider {
	case ProviderClaude:
		return ModelTiers{Fast: c.Anthropic.FastModel, Smart: c.Anthropic.SmartModel}
	case ProviderGemini:
		return ModelTiers{Fast: c.Gemini.FastModel, Smart: c.Gemini.SmartModel}
	default:
		return ModelTiers{Fast: c.OpenAI.FastModel, Smart: c.OpenAI.SmartModel}
	}
}
