// Package middleware provides the HTTP middleware specific to the coaching API.
package middleware

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	Logger           logger.Logger
	EnableStackTrace bool
	// ResponseBody is written with a 500 after a panic.
	ResponseBody string
}

// DefaultRecoveryConfig returns a configuration that answers panics with the API's
// JSON error shape.
func DefaultRecoveryConfig(log logger.Logger) RecoveryConfig {
	return RecoveryConfig{
		Logger:           log,
		EnableStackTrace: true,
		ResponseBody:     `{"error":"internal server error"}`,
	}
}

// Recovery turns a panic in a handler into a logged 500. The response writer is not
// wrapped, so websocket upgrades keep working behind it.
func Recovery(config RecoveryConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(rec)
				}
				logPanic(r, rec, config)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(config.ResponseBody))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func logPanic(r *http.Request, rec any, config RecoveryConfig) {
	if config.Logger == nil {
		return
	}
	fields := []logger.LogField{
		logger.StringField("panic_error", fmt.Sprintf("%v", rec)),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.ClientIPField(ClientIP(r)),
		logger.StringField("user_agent", r.UserAgent()),
	}
	if config.EnableStackTrace {
		fields = append(fields, logger.StringField("stack_trace", string(debug.Stack())))
	}
	logger.GetLoggerFromContext(r.Context(), config.Logger).Error("HTTP request panic recovered", fields...)
}

// ClientIP extracts the client address from proxy headers, falling back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
