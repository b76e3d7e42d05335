package config

import "time"

// SecurityConfig holds request hardening settings
type SecurityConfig struct {
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" default:"http://localhost:3000,http://localhost:8080"`
	MaxRequestSize     int64         `env:"MAX_REQUEST_SIZE" yaml:"max_request_size" default:"1048576"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"90s"`
}
