package coach

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/internal/conversation_manager"
	"github.com/lewisedginton/dating_coach/internal/storage_manager"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/prefixed_uuid"
	"github.com/patrickmn/go-cache"
)

// ReportIDPrefix prefixes archived final report ids.
const ReportIDPrefix = "rpt"

// Config holds the dependencies of a Service.
type Config struct {
	Manager    conversation_manager.Manager
	Catalog    *advice.Catalog
	Completion completion.Service
	Prompts    Prompts
	Settings   Settings
	// Reports archives final reports; nil disables archiving.
	Reports storage_manager.FileProvider
	// RecommendationTTL bounds how long a ranking is reused while no new message
	// arrives. Zero disables the cache.
	RecommendationTTL time.Duration
	Logger            logger.Logger
}

// Service exposes the coaching operations over the conversation registry.
type Service struct {
	manager   conversation_manager.Manager
	catalog   *advice.Catalog
	memory    *PartnerMemoryPipeline
	sentiment *SentimentPipeline
	ranker    *Ranker
	generator *AdviceGenerator
	reporter  *Reporter
	reports   storage_manager.FileProvider
	cache     *cache.Cache
	logger    logger.Logger
}

// AddResult is the outcome of AddMessage.
type AddResult struct {
	Scores conversation.Scores
	// Duplicate is set when the message was dropped by the tail check.
	Duplicate bool
}

// Report is a generated final report.
type Report struct {
	ID   string
	Text string
}

// New builds a Service.
func New(config Config) (*Service, error) {
	switch {
	case config.Manager == nil:
		return nil, fmt.Errorf("conversation manager is required")
	case config.Catalog == nil:
		return nil, fmt.Errorf("advice catalog is required")
	case config.Completion == nil:
		return nil, fmt.Errorf("completion service is required")
	case config.Prompts == nil:
		return nil, fmt.Errorf("prompts are required")
	case config.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}

	s := &Service{
		manager:   config.Manager,
		catalog:   config.Catalog,
		memory:    NewPartnerMemoryPipeline(config.Completion, config.Prompts, config.Settings, config.Logger.WithFields(logger.StageField(StageExtraction))),
		sentiment: NewSentimentPipeline(config.Completion, config.Prompts, config.Settings, config.Logger.WithFields(logger.StageField(StageSentiment))),
		ranker:    NewRanker(config.Completion, config.Prompts, config.Catalog, config.Settings, config.Logger.WithFields(logger.StageField(StageRanker))),
		generator: NewAdviceGenerator(config.Completion, config.Prompts, config.Settings, config.Logger.WithFields(logger.StageField(StageAdvice))),
		reporter:  NewReporter(config.Completion, config.Prompts, config.Settings, config.Logger.WithFields(logger.StageField(StageReport))),
		reports:   config.Reports,
		logger:    config.Logger,
	}
	if config.RecommendationTTL > 0 {
		s.cache = cache.New(config.RecommendationTTL, 2*config.RecommendationTTL)
	}
	return s, nil
}

// Init creates a conversation, replacing any existing one with the same id.
func (s *Service) Init(ctx context.Context, id string) (time.Time, error) {
	c, err := s.manager.Init(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return c.CreatedAt, nil
}

// Delete removes a conversation and its archived reports.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.manager.Delete(ctx, id); err != nil {
		return err
	}
	s.purgeReports(ctx, id)
	return nil
}

// AddMessage appends msg and runs the partner-memory and sentiment pipelines
// concurrently. The message stays in the log even if a pipeline fails.
func (s *Service) AddMessage(ctx context.Context, id string, msg conversation.Message) (AddResult, error) {
	c, err := s.manager.Get(id)
	if err != nil {
		return AddResult{}, err
	}
	log := s.logger.WithFields(logger.ConversationIDField(id), logger.MessageIDField(msg.ID))

	c.Lock()
	defer c.Unlock()

	if c.Memory.IsDuplicate(msg) {
		log.Info("Duplicate message ignored")
		return AddResult{Scores: c.Scorer.Scores(), Duplicate: true}, nil
	}
	c.Memory.AddMessage(msg)

	start := time.Now()
	err = forkJoin(ctx,
		func(ctx context.Context) error {
			_, err := s.memory.Run(ctx, c.Memory)
			return err
		},
		func(ctx context.Context) error {
			_, err := s.sentiment.Run(ctx, c.Memory, c.Scorer)
			return err
		},
	)
	s.manager.Commit(ctx, c)

	scores := c.Scorer.Scores()
	if err != nil {
		log.Error("Message pipelines failed", logger.ErrorField(err), logger.DurationField("duration", time.Since(start)))
		return AddResult{Scores: scores}, err
	}
	log.Info("Message processed",
		logger.Float64Field("partner_engagement", scores.PartnerEngagement),
		logger.DurationField("duration", time.Since(start)))
	return AddResult{Scores: scores}, nil
}

// Scores returns the current scores.
func (s *Service) Scores(id string) (conversation.Scores, error) {
	scorer, err := s.manager.GetScorer(id)
	if err != nil {
		return conversation.Scores{}, err
	}
	return scorer.Scores(), nil
}

// PartnerMemory returns a copy of the current partner memory.
func (s *Service) PartnerMemory(id string) (conversation.PartnerMemory, error) {
	mem, err := s.manager.GetMemory(id)
	if err != nil {
		return conversation.PartnerMemory{}, err
	}
	return mem.PartnerMemory(), nil
}

// RecommendAdvice ranks the catalog for the current state of the conversation.
// Rankings are reused until a new message arrives or the cache entry expires.
func (s *Service) RecommendAdvice(ctx context.Context, id string) ([]advice.Metadata, error) {
	c, err := s.manager.Get(id)
	if err != nil {
		return nil, err
	}

	key := recommendationKey(c)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return append([]advice.Metadata(nil), cached.([]advice.Metadata)...), nil
		}
	}

	items, err := s.ranker.Recommend(ctx, c.Memory)
	if err != nil {
		s.logger.Error("Advice ranking failed", logger.ConversationIDField(id), logger.ErrorField(err))
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetDefault(key, append([]advice.Metadata(nil), items...))
	}
	return items, nil
}

// recommendationKey changes whenever the conversation is re-initialized or grows.
func recommendationKey(c *conversation_manager.Conversation) string {
	return c.ID + "/" + strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + "/" + strconv.Itoa(c.Memory.Len())
}

// GetAdvice generates the content of one catalog item.
func (s *Service) GetAdvice(ctx context.Context, id, adviceID string) (advice.Metadata, advice.Content, error) {
	mem, err := s.manager.GetMemory(id)
	if err != nil {
		return advice.Metadata{}, advice.Content{}, err
	}
	item, err := s.catalog.Get(adviceID)
	if err != nil {
		return advice.Metadata{}, advice.Content{}, err
	}

	content, err := s.generator.Generate(ctx, mem, item)
	if err != nil {
		s.logger.Error("Advice generation failed",
			logger.ConversationIDField(id),
			logger.StringField("advice_id", item.ID),
			logger.ErrorField(err))
		return item, advice.Content{}, err
	}
	return item, content, nil
}

// FinalReport writes the end-of-conversation report and archives it when a
// report provider is configured. Archive failures are logged only.
func (s *Service) FinalReport(ctx context.Context, id string) (Report, error) {
	mem, err := s.manager.GetMemory(id)
	if err != nil {
		return Report{}, err
	}

	text, err := s.reporter.Write(ctx, mem)
	if err != nil {
		s.logger.Error("Final report failed", logger.ConversationIDField(id), logger.ErrorField(err))
		return Report{}, err
	}

	report := Report{ID: prefixed_uuid.New(ReportIDPrefix).String(), Text: text}
	if s.reports != nil {
		if err := s.reports.Write(ctx, reportPath(id, report.ID), []byte(text)); err != nil {
			s.logger.Error("Failed to archive final report",
				logger.ConversationIDField(id),
				logger.StringField("report_id", report.ID),
				logger.ErrorField(err))
		}
	}
	return report, nil
}

// ArchivedReport reads a previously archived report.
func (s *Service) ArchivedReport(ctx context.Context, id, reportID string) (string, error) {
	if !s.manager.Exists(id) {
		return "", conversation.NotFoundf("conversation %q", id)
	}
	if s.reports == nil {
		return "", conversation.NotFoundf("report %q", reportID)
	}
	if _, err := prefixed_uuid.Parse(ReportIDPrefix, reportID); err != nil {
		return "", conversation.Validationf("report id %q: %v", reportID, err)
	}
	data, err := s.reports.Read(ctx, reportPath(id, reportID))
	if errors.Is(err, storage_manager.ErrNotFound) {
		return "", conversation.NotFoundf("report %q", reportID)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func reportPath(id, reportID string) string {
	return path.Join(id, reportID+".md")
}

func (s *Service) purgeReports(ctx context.Context, id string) {
	if s.reports == nil {
		return
	}
	paths, err := s.reports.List(ctx, id+"/")
	if err != nil {
		s.logger.Warn("Failed to list archived reports", logger.ConversationIDField(id), logger.ErrorField(err))
		return
	}
	for _, p := range paths {
		if err := s.reports.Delete(ctx, p); err != nil {
			s.logger.Warn("Failed to delete archived report", logger.ConversationIDField(id), logger.StringField("path", p), logger.ErrorField(err))
		}
	}
}
