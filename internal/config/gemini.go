package config

// GeminiConfig holds Google Gemini-specific configuration
type GeminiConfig struct {
	APIKey     string `env:"GEMINI_API_KEY" yaml:"-"`
	FastModel  string `env:"GEMINI_FAST_MODEL" yaml:"fast_model" default:"gemini-2.5-flash-lite"`
	SmartModel string `env:"GEMINI_SMART_MODEL" yaml:"smart_model" default:"gemini-2.5-flash"`
	Project    string `env:"GOOGLE_CLOUD_PROJECT" yaml:"project"` // Vertex AI only
	Region     string `env:"GOOGLE_CLOUD_REGION" yaml:"region"`   // Vertex AI only
}
