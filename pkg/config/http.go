package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
)

// writeMargin is added on top of a handler timeout so the handler can still write its
// own timeout response.
const writeMargin = 5 * time.Second

// HTTPServerConfig holds the API listener settings.
type HTTPServerConfig struct {
	// Host is empty to listen on every interface.
	Host string `env:"HTTP_HOST" yaml:"host"`
	Port int    `env:"HTTP_PORT" yaml:"http_port" default:"8080"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" yaml:"write_timeout" default:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" default:"10s"`

	MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" yaml:"max_header_bytes" default:"1048576"`
}

// Validate checks the port range and timeouts.
func (h HTTPServerConfig) Validate() error {
	var result error
	if h.Port < 1 || h.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("http port must be between 1-65535, got %d", h.Port))
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":  h.ReadTimeout,
		"write_timeout": h.WriteTimeout,
		"idle_timeout":  h.IdleTimeout,
	} {
		if d < 0 {
			result = multierror.Append(result, fmt.Errorf("http %s cannot be negative, got %s", name, d))
		}
	}
	if h.ShutdownTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("http shutdown_timeout must be greater than 0, got %s", h.ShutdownTimeout))
	}
	return result
}

// Addr returns the listen address.
func (h HTTPServerConfig) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// WriteTimeoutFor returns the write timeout stretched to outlast a handler bounded by
// handlerTimeout.
func (h HTTPServerConfig) WriteTimeoutFor(handlerTimeout time.Duration) time.Duration {
	if h.WriteTimeout <= 0 || h.WriteTimeout >= handlerTimeout+writeMargin {
		return h.WriteTimeout
	}
	return handlerTimeout + writeMargin
}
