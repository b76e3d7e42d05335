// Package api is the HTTP transport of the coaching service: a chi router over the
// coach operations plus a websocket stream for message-by-message scoring.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/coach"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/internal/middleware"
	"github.com/lewisedginton/dating_coach/pkg/health"
	"github.com/lewisedginton/dating_coach/pkg/httpmiddleware"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/metrics"
)

// Coach is the set of operations the API exposes.
type Coach interface {
	Init(ctx context.Context, id string) (time.Time, error)
	Delete(ctx context.Context, id string) error
	AddMessage(ctx context.Context, id string, msg conversation.Message) (coach.AddResult, error)
	Scores(id string) (conversation.Scores, error)
	PartnerMemory(id string) (conversation.PartnerMemory, error)
	RecommendAdvice(ctx context.Context, id string) ([]advice.Metadata, error)
	GetAdvice(ctx context.Context, id, adviceID string) (advice.Metadata, advice.Content, error)
	FinalReport(ctx context.Context, id string) (coach.Report, error)
	ArchivedReport(ctx context.Context, id, reportID string) (string, error)
}

// Config holds the dependencies of the router.
type Config struct {
	Coach  Coach
	Logger logger.Logger
	// Middleware configures the shared stack; recovery is always handled by this package.
	Middleware httpmiddleware.Config
	Metrics    *metrics.Metrics
	// Health is mounted at LivenessPath and ReadinessPath when set.
	Health        *health.HealthChecker
	LivenessPath  string
	ReadinessPath string
	// AllowedOrigins restricts websocket upgrades; empty or "*" accepts any origin.
	AllowedOrigins []string
	// MessageTimeout bounds the handling of one streamed message.
	MessageTimeout time.Duration
}

type handler struct {
	coach          Coach
	log            logger.Logger
	upgrader       websocket.Upgrader
	messageTimeout time.Duration
}

// NewRouter builds the HTTP handler of the service.
func NewRouter(config Config) http.Handler {
	h := &handler{
		coach:          config.Coach,
		log:            config.Logger,
		messageTimeout: config.MessageTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(config.AllowedOrigins),
		},
	}
	if h.messageTimeout <= 0 {
		h.messageTimeout = 90 * time.Second
	}

	mw := config.Middleware
	mw.Logger = config.Logger
	mw.EnableRecovery = false

	r := chi.NewRouter()
	httpmiddleware.ApplyToRouter(r, mw)
	r.Use(middleware.Recovery(middleware.DefaultRecoveryConfig(config.Logger)))
	if config.Metrics != nil {
		r.Use(config.Metrics.HTTPMiddleware())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, h.log, conversation.NotFoundf("route %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	if config.Health != nil {
		config.Health.Mount(r, config.LivenessPath, config.ReadinessPath)
	}

	r.Route("/api/v1/conversation/{conversationID}", func(r chi.Router) {
		r.Get("/stream", h.stream)

		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.RequestScoped(mw)...)

			r.Post("/", h.initConversation)
			r.Delete("/", h.deleteConversation)
			r.Post("/messages", h.addMessage)
			r.Post("/realtime-memory", h.partnerMemory)
			r.Get("/realtime-analysis", h.scores)
			r.Post("/breaktime-advice/recommendation", h.recommendAdvice)
			r.Post("/breaktime-advice/{adviceID}", h.getAdvice)
			r.Post("/final-report", h.finalReport)
			r.Get("/final-report/{reportID}", h.archivedReport)
		})
	})

	return r
}

func conversationID(r *http.Request) string {
	return chi.URLParam(r, "conversationID")
}
