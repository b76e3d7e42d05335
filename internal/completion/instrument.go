package completion

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/metrics"
)

// Instrumented records latency and outcome of every call.
type Instrumented struct {
	next     Service
	provider string
	metrics  *metrics.Metrics
	log      logger.Logger
}

// NewInstrumented wraps next. m may be nil.
func NewInstrumented(next Service, provider string, m *metrics.Metrics, log logger.Logger) *Instrumented {
	return &Instrumented{next: next, provider: provider, metrics: m, log: log}
}

// Complete forwards req and records the call.
func (i *Instrumented) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	start := time.Now()
	raw, err := i.next.Complete(ctx, req)
	elapsed := time.Since(start)

	outcome := Outcome(err)
	i.metrics.ObserveCompletion(i.provider, req.Stage, outcome, elapsed)

	fields := []logger.LogField{
		logger.StringField("provider", i.provider),
		logger.StageField(req.Stage),
		logger.StringField("model", req.Model),
		logger.StringField("outcome", outcome),
		logger.DurationField("duration", elapsed),
	}
	if err != nil {
		i.log.Warn("Completion failed", append(fields, logger.ErrorField(err))...)
		return nil, err
	}
	i.log.Debug("Completion succeeded", fields...)
	return raw, nil
}

// Outcome classifies an error for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrRefusal):
		return metrics.OutcomeRefusal
	case errors.Is(err, ErrInvalidOutput):
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeError
	}
}
