package httpmiddleware

import (
	"net/http"

	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// CorrelationID makes sure every request carries a UUID correlation ID in its header and
// context and echoes it on the response. A valid client-supplied UUID is kept so that a
// client can follow one conversation turn across its own logs and ours.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, id := logger.EnsureHTTPCorrelationID(r)
			w.Header().Set(logger.CorrelationIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}
