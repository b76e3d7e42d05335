package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err to a status code and writes {"error": message}. Messages of
// unclassified errors are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := conversation.HTTPStatus(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}

	fields := []logger.LogField{
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.HTTPStatusField(status),
		logger.ErrorField(err),
	}
	reqLog := logger.GetLoggerFromContext(r.Context(), log)
	if status >= http.StatusInternalServerError {
		reqLog.Error("Request failed", fields...)
	} else {
		reqLog.Warn("Request rejected", fields...)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(r *http.Request, dst any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return conversation.Validationf("failed to read request body: %v", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		if errors.Is(err, conversation.ErrValidation) {
			return err
		}
		return conversation.Validationf("invalid JSON body: %v", err)
	}
	return nil
}
