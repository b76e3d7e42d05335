package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/unrolled/secure"
)

// Config selects and configures the middleware stack. Start from DefaultConfig().
type Config struct {
	Logger       logger.Logger
	CORS         *CORSConfig
	Security     *secure.Options
	Timeout      time.Duration
	MaxBodyBytes int64

	EnableCorrelationID bool
	EnableLogging       bool // requires Logger
	EnableRecovery      bool
	EnableCORS          bool
	EnableSecurity      bool
	EnableCompression   bool
	EnableHeartbeat     bool
	EnableRealIP        bool
	EnableTimeout       bool
}

// DefaultConfig returns a production-ready middleware configuration.
// Logging stays off until a Logger is set and EnableLogging is true.
func DefaultConfig() Config {
	corsConfig := DefaultCORSConfig()
	return Config{
		CORS:         &corsConfig,
		Timeout:      60 * time.Second,
		MaxBodyBytes: 1 << 20,

		EnableCorrelationID: true,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableCompression:   true,
		EnableHeartbeat:     true,
		EnableRealIP:        true,
		EnableTimeout:       true,
	}
}

// ApplyToRouter installs the connection-level middleware on router, outermost first:
// correlation ID, security headers, real IP, logging, recovery, CORS, heartbeat.
// These are safe for long-lived websocket routes.
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}
	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}
	if config.EnableRealIP {
		router.Use(middleware.RealIP)
	}
	if config.EnableLogging && config.Logger != nil {
		router.Use(config.Logger.HTTPMiddleware)
	}
	if config.EnableRecovery {
		router.Use(middleware.Recoverer)
	}
	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}
	if config.EnableHeartbeat {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// RequestScoped returns the middleware meant for short request/response routes only:
// body limit, timeout and compression. Mount it on a route group, never on streams.
func RequestScoped(config Config) []func(http.Handler) http.Handler {
	var mws []func(http.Handler) http.Handler
	if config.MaxBodyBytes > 0 {
		mws = append(mws, BodyLimit(config.MaxBodyBytes))
	}
	if config.EnableTimeout && config.Timeout > 0 {
		mws = append(mws, middleware.Timeout(config.Timeout))
	}
	if config.EnableCompression {
		mws = append(mws, middleware.Compress(5))
	}
	return mws
}

// WithLogger applies DefaultConfig with logging enabled.
func WithLogger(router chi.Router, log logger.Logger) {
	config := DefaultConfig()
	config.Logger = log
	config.EnableLogging = true
	ApplyToRouter(router, config)
}
