package conversation

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by every layer. Wrap them with the helpers below and test with errors.Is.
var (
	// ErrNotFound means a conversation or advice id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the caller supplied malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream means a single completion call failed, was refused or returned unusable content.
	ErrUpstream = errors.New("upstream completion failed")
	// ErrAggregate means every sample of a self-consistency fan-out failed.
	ErrAggregate = errors.New("all completion samples failed")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upstream wraps cause as an ErrUpstream, keeping both in the chain.
func Upstream(cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, ErrUpstream) {
		return cause
	}
	return fmt.Errorf("%w: %w", ErrUpstream, cause)
}

// Aggregate wraps the combined sample failures of a fan-out as an ErrAggregate.
func Aggregate(stage string, samples int, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s: %d of %d samples failed", ErrAggregate, stage, samples, samples)
	}
	return fmt.Errorf("%w: %s: %d of %d samples failed: %w", ErrAggregate, stage, samples, samples, cause)
}

// HTTPStatus maps an error from this package's taxonomy to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAggregate), errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
