package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// HealthConfig controls the probe endpoints mounted on the API router.
type HealthConfig struct {
	Enabled       bool   `env:"HEALTH_ENABLED" yaml:"enabled" default:"true"`
	LivenessPath  string `env:"HEALTH_LIVENESS_PATH" yaml:"liveness_path" default:"/health/live"`
	ReadinessPath string `env:"HEALTH_READINESS_PATH" yaml:"readiness_path" default:"/health/ready"`
	// Timeout bounds each individual check.
	Timeout time.Duration `env:"HEALTH_TIMEOUT" yaml:"timeout" default:"5s"`
	// FailureThreshold is the number of consecutive failures before a check reports unhealthy.
	FailureThreshold int `env:"HEALTH_FAILURE_THRESHOLD" yaml:"failure_threshold" default:"3"`
}

// Validate checks the probe paths and limits when health checks are enabled.
func (h HealthConfig) Validate() error {
	if !h.Enabled {
		return nil
	}
	var result error
	for name, p := range map[string]string{"liveness_path": h.LivenessPath, "readiness_path": h.ReadinessPath} {
		if !strings.HasPrefix(p, "/") {
			result = multierror.Append(result, fmt.Errorf("health %s must start with '/', got %q", name, p))
		}
	}
	if h.LivenessPath == h.ReadinessPath {
		result = multierror.Append(result, fmt.Errorf("health liveness_path and readiness_path must differ"))
	}
	if strings.HasPrefix(h.LivenessPath, "/api/") || strings.HasPrefix(h.ReadinessPath, "/api/") {
		result = multierror.Append(result, fmt.Errorf("health paths cannot live under /api/"))
	}
	if h.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("health timeout must be greater than 0"))
	}
	if h.FailureThreshold < 1 {
		result = multierror.Append(result, fmt.Errorf("health failure_threshold must be at least 1, got %d", h.FailureThreshold))
	}
	return result
}
