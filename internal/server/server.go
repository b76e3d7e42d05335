// Package server wires the coaching service together from configuration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/api"
	"github.com/lewisedginton/dating_coach/internal/coach"
	"github.com/lewisedginton/dating_coach/internal/completion"
	appconfig "github.com/lewisedginton/dating_coach/internal/config"
	"github.com/lewisedginton/dating_coach/internal/conversation_manager"
	"github.com/lewisedginton/dating_coach/internal/prompt_manager"
	"github.com/lewisedginton/dating_coach/internal/storage_manager"
	"github.com/lewisedginton/dating_coach/internal/store"
	"github.com/lewisedginton/dating_coach/pkg/health"
	"github.com/lewisedginton/dating_coach/pkg/health/checkers"
	"github.com/lewisedginton/dating_coach/pkg/httpmiddleware"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/metrics"
)

// Server encapsulates the coaching service components and their lifecycle.
type Server struct {
	cfg            *appconfig.AppConfig
	log            logger.Logger
	storageManager *storage_manager.StorageManager
	promptManager  *prompt_manager.PromptManager
	catalog        *advice.Catalog
	metrics        *metrics.Metrics
	store          store.Store
	health         *health.HealthChecker
	manager        conversation_manager.Manager
	coach          *coach.Service
	httpServer     *http.Server
}

// New creates a Server with every component initialized. Conversations are restored
// from the configured store before New returns.
//
//nolint:revive // cognitive-complexity: sequential component setup
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewMetrics(cfg.Metrics.EnableHTTPMetrics, cfg.Metrics.EnableCompletionMetrics, log),
		health: health.New(
			health.WithLogger(log),
			health.WithTimeout(cfg.Health.Timeout),
			health.WithFailureThreshold(cfg.Health.FailureThreshold),
		),
	}

	var err error
	s.storageManager, err = s.createStorageManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	// Prompts are read once and cached; a missing prompt fails startup.
	s.promptManager = prompt_manager.New(s.storageManager.GetProvider(storage_manager.NamespacePrompts), cfg.Coaching.PromptVersion)
	if err := s.promptManager.Preload(ctx, coach.PromptNames()...); err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	catalogProvider := s.storageManager.GetProvider(storage_manager.NamespaceCatalog)
	s.catalog, err = advice.Load(ctx, advice.Config{
		FileProvider: catalogProvider,
		Path:         cfg.Storage.CatalogPath,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load advice catalog: %w", err)
	}
	s.health.AddReadinessCheck(health.NewCheckFunc("storage", func(ctx context.Context) error {
		_, err := catalogProvider.Exists(ctx, cfg.Storage.CatalogPath)
		return err
	}))

	svc, err := s.createCompletionService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion service: %w", err)
	}

	s.store, err = s.createStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation store: %w", err)
	}

	s.manager, err = conversation_manager.New(conversation_manager.Config{
		Alpha:   cfg.Coaching.Alpha,
		Store:   s.store,
		Logger:  log,
		Metrics: s.metrics,
	})
	if err != nil {
		_ = s.store.Close()
		return nil, fmt.Errorf("failed to create conversation manager: %w", err)
	}

	if cfg.Persistence.RestoreOnStart && cfg.Persistence.Backend != appconfig.PersistenceNone {
		n, err := s.manager.Restore(ctx)
		if err != nil {
			_ = s.store.Close()
			return nil, fmt.Errorf("failed to restore conversations: %w", err)
		}
		log.Info("Conversations restored", logger.IntField("count", n))
	}

	s.coach, err = coach.New(coach.Config{
		Manager:           s.manager,
		Catalog:           s.catalog,
		Completion:        svc,
		Prompts:           s.promptManager,
		Settings:          s.settings(),
		Reports:           s.storageManager.GetProvider(storage_manager.NamespaceReports),
		RecommendationTTL: cfg.Coaching.RecommendationCacheTTL,
		Logger:            log,
	})
	if err != nil {
		_ = s.store.Close()
		return nil, fmt.Errorf("failed to create coach: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:           cfg.HTTP.Addr(),
		Handler:        s.router(),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeoutFor(cfg.Security.RequestTimeout),
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	log.Info("Coaching server initialized",
		logger.IntField("http_port", cfg.HTTP.Port),
		logger.IntField("advice_items", s.catalog.Len()),
		logger.StringField("llm_provider", cfg.LLM.Provider))

	return s, nil
}

// Handler returns the HTTP handler of the service.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Coach returns the coaching service.
func (s *Server) Coach() *coach.Service {
	return s.coach
}

func (s *Server) router() http.Handler {
	mw := httpmiddleware.DefaultConfig()
	mw.EnableLogging = true
	mw.Timeout = s.cfg.Security.RequestTimeout
	mw.MaxBodyBytes = s.cfg.Security.MaxRequestSize
	if len(s.cfg.Security.CORSAllowedOrigins) > 0 {
		mw.CORS.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
	}

	config := api.Config{
		Coach:          s.coach,
		Logger:         s.log,
		Middleware:     mw,
		Metrics:        s.metrics,
		AllowedOrigins: s.cfg.Security.CORSAllowedOrigins,
		MessageTimeout: s.cfg.Security.RequestTimeout,
	}
	if s.cfg.Health.Enabled {
		config.Health = s.health
		config.LivenessPath = s.cfg.Health.LivenessPath
		config.ReadinessPath = s.cfg.Health.ReadinessPath
	}
	return api.NewRouter(config)
}

func (s *Server) settings() coach.Settings {
	models := s.cfg.StageModels()
	c := s.cfg.Coaching
	return coach.Settings{
		Models: coach.Models{
			Relevance:  models.Relevance,
			Extraction: models.Extraction,
			Sentiment:  models.Sentiment,
			Ranker:     models.Ranker,
			Advice:     models.Advice,
			Report:     models.Report,
		},
		SentimentSamples:      c.SentimentSamples,
		RecommendationSamples: c.RecommendationSamples,
		MaxRecommendations:    c.MaxRecommendations,
		PartnerMemoryWindow:   c.PartnerMemoryWindow,
		SentimentWindow:       c.SentimentWindow,
		RankerWindow:          c.RankerWindow,
		AdviceWindow:          c.AdviceWindow,
	}
}

// Listen starts the HTTP and metrics listeners. It returns the merged listener errors,
// a forced closer and a graceful closer.
func (s *Server) Listen() ([]<-chan error, func(), func()) {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.StringField("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	chans := []<-chan error{errChan}
	if s.cfg.Metrics.ExposeMetrics {
		chans = append(chans, s.metrics.Listen(s.cfg.Metrics.Port))
	}

	closer := func() {
		s.log.Info("Forcefully closing HTTP server")
		if err := s.httpServer.Close(); err != nil {
			s.log.Error("Error during forced shutdown", logger.ErrorField(err))
		}
		s.closeDependencies(context.Background())
	}

	gracefulCloser := func() {
		s.log.Info("Gracefully closing HTTP server")
		if err := s.GracefulShutdown(); err != nil {
			s.log.Error("Error during graceful shutdown", logger.ErrorField(err))
		}
	}

	return chans, closer, gracefulCloser
}

// GracefulShutdown drains in-flight requests, then closes the store and the metrics
// listener.
func (s *Server) GracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.closeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Close releases the store without touching the listeners.
func (s *Server) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Server) closeDependencies(ctx context.Context) {
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.log.Error("Metrics shutdown error", logger.ErrorField(err))
	}
	if err := s.Close(); err != nil {
		s.log.Error("Store close error", logger.ErrorField(err))
	}
}

// createStorageManager creates a storage manager based on configuration
func (s *Server) createStorageManager(ctx context.Context) (*storage_manager.StorageManager, error) {
	cfg := &s.cfg.Storage

	switch cfg.Backend {
	case appconfig.StorageLocal:
		s.log.Info("Using local file-based storage", logger.StringField("directory", cfg.LocalDir))

		if err := os.MkdirAll(cfg.LocalDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		return storage_manager.New(ctx, storage_manager.Config{
			Backend:     storage_manager.BackendLocal,
			LocalConfig: &storage_manager.LocalConfig{BaseDir: cfg.LocalDir},
		})

	case appconfig.StorageS3:
		s.log.Info("Using S3-based storage",
			logger.StringField("bucket", cfg.S3Bucket),
			logger.StringField("prefix", cfg.S3Prefix),
			logger.StringField("region", cfg.S3Region))

		return storage_manager.New(ctx, storage_manager.Config{
			Backend: storage_manager.BackendS3,
			S3Config: &storage_manager.S3Config{
				Bucket:  cfg.S3Bucket,
				Prefix:  cfg.S3Prefix,
				Region:  cfg.S3Region,
				Profile: cfg.S3Profile,
			},
		})

	case appconfig.StorageGit:
		s.log.Info("Using git-backed storage",
			logger.StringField("path", cfg.GitPath),
			logger.StringField("branch", cfg.GitBranch))

		return storage_manager.New(ctx, storage_manager.Config{
			Backend: storage_manager.BackendGit,
			GitConfig: &storage_manager.GitProviderOptions{
				Path:          cfg.GitPath,
				RemoteURL:     cfg.GitRemoteURL,
				Branch:        cfg.GitBranch,
				Subdir:        cfg.GitSubdir,
				Username:      cfg.GitAuthUsername,
				Password:      cfg.GitAuthPassword,
				AuthorName:    s.cfg.ServiceName,
				AuthorEmail:   s.cfg.ServiceName + "@localhost",
				InitIfMissing: cfg.GitRemoteURL == "",
			},
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be 'local', 's3' or 'git')", cfg.Backend)
	}
}

// createCompletionService builds the configured provider backend and wraps it with
// schema validation, optional rate limiting and instrumentation.
func (s *Server) createCompletionService(ctx context.Context) (completion.Service, error) {
	provider := strings.ToLower(s.cfg.LLM.Provider)
	tiers := s.cfg.Tiers()

	var backend completion.Service
	switch provider {
	case appconfig.ProviderClaude:
		s.log.Info("Initializing Claude completion backend",
			logger.StringField("fast_model", tiers.Fast),
			logger.StringField("smart_model", tiers.Smart))
		a, err := completion.NewAnthropic(completion.AnthropicOptions{
			APIKey:     s.cfg.Anthropic.APIKey,
			BaseURL:    s.cfg.Anthropic.APIBaseURL,
			MaxRetries: s.cfg.Anthropic.MaxRetries,
			MaxTokens:  s.cfg.Anthropic.MaxTokens,
			Timeout:    s.cfg.Anthropic.Timeout,
		})
		if err != nil {
			return nil, err
		}
		backend = a

	case appconfig.ProviderGemini:
		s.log.Info("Initializing Gemini completion backend",
			logger.StringField("fast_model", tiers.Fast),
			logger.StringField("smart_model", tiers.Smart))
		if s.cfg.Gemini.Project != "" && s.cfg.Gemini.Region != "" {
			s.log.Info("Using Vertex AI backend",
				logger.StringField("project", s.cfg.Gemini.Project),
				logger.StringField("region", s.cfg.Gemini.Region))
		}
		g, err := completion.NewGemini(ctx, completion.GeminiOptions{
			APIKey:  s.cfg.Gemini.APIKey,
			Project: s.cfg.Gemini.Project,
			Region:  s.cfg.Gemini.Region,
		})
		if err != nil {
			return nil, err
		}
		backend = g

	case appconfig.ProviderOpenAI:
		s.log.Info("Initializing OpenAI completion backend",
			logger.StringField("fast_model", tiers.Fast),
			logger.StringField("smart_model", tiers.Smart))
		o, err := completion.NewOpenAI(completion.OpenAIOptions{
			APIKey:     s.cfg.OpenAI.APIKey,
			BaseURL:    s.cfg.OpenAI.APIBaseURL,
			MaxRetries: s.cfg.OpenAI.MaxRetries,
			Timeout:    s.cfg.OpenAI.Timeout,
		})
		if err != nil {
			return nil, err
		}
		backend = o

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	var svc completion.Service = completion.NewValidating(backend)
	if rps := s.cfg.Coaching.CompletionRPS; rps > 0 {
		s.log.Info("Completion rate limit enabled",
			logger.Float64Field("rps", rps),
			logger.IntField("burst", s.cfg.Coaching.CompletionBurst))
		svc = completion.NewRateLimited(svc, rps, s.cfg.Coaching.CompletionBurst)
	}
	return completion.NewInstrumented(svc, provider, s.metrics, s.log), nil
}

// createStore opens the configured snapshot store and registers its readiness probe.
func (s *Server) createStore(ctx context.Context) (store.Store, error) {
	cfg := &s.cfg.Persistence

	switch cfg.Backend {
	case appconfig.PersistenceNone:
		s.log.Info("Conversation persistence disabled")
		return store.NewNoop(), nil

	case appconfig.PersistencePostgres:
		s.log.Info("Using PostgreSQL conversation store",
			logger.StringField("host", s.cfg.Database.Host),
			logger.StringField("database", s.cfg.Database.Database))
		st, err := store.NewPostgresStore(ctx, s.cfg.Database.GetConnectionConfig(), s.log)
		if err != nil {
			return nil, err
		}
		s.health.AddReadinessCheck(checkers.NewDatabaseChecker(st, "postgres"))
		return st, nil

	case appconfig.PersistenceSQLite:
		s.log.Info("Using SQLite conversation store", logger.StringField("path", cfg.SQLitePath))
		st, err := store.NewSQLiteStore(cfg.SQLitePath, s.log)
		if err != nil {
			return nil, err
		}
		s.health.AddReadinessCheck(checkers.NewDatabaseChecker(st, "sqlite"))
		return st, nil

	case appconfig.PersistenceRedis:
		s.log.Info("Using Redis conversation store", logger.StringField("key_prefix", cfg.RedisKeyPrefix))
		client, err := store.NewRedisClient(s.cfg.Redis.URL, s.cfg.Redis.Password, s.cfg.Redis.Database, s.cfg.Redis.Timeout)
		if err != nil {
			return nil, err
		}
		s.health.AddReadinessCheck(checkers.NewRedisChecker(client, "redis"))
		return store.NewRedisStore(client, store.RedisOptions{
			KeyPrefix: cfg.RedisKeyPrefix,
			TTL:       cfg.SnapshotTTL,
			Logger:    s.log,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported persistence backend: %s", cfg.Backend)
	}
}
