// Package coach runs the LLM-backed pipelines of a live conversation: partner-memory
// extraction and sentiment scoring on every message, and on demand the advice ranker,
// the advice generator and the final report.
package coach

import (
	"context"
	"strings"

	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// Prompt file names, without kind and version.
const (
	PromptRelevance  = "memory/partner_message_relevance_classifier"
	PromptExtraction = "memory/partner_memory_update_instruction_generator"
	PromptSentiment  = "score/sentimental_analysis"
	PromptRanker     = "breaktime_advice/ranker"
	PromptAdvice     = "breaktime_advice/advice"
	PromptReport     = "final_report/partner_memory_final_summarizer"
)

// PromptNames lists every system prompt the pipelines load.
func PromptNames() []string {
	return []string{PromptRelevance, PromptExtraction, PromptSentiment, PromptRanker, PromptAdvice, PromptReport}
}

// Stage labels used in logs, metrics and completion requests.
const (
	StageRelevance  = "partner_memory_relevance"
	StageExtraction = "partner_memory_extraction"
	StageSentiment  = "sentiment"
	StageRanker     = "advice_ranker"
	StageAdvice     = "advice"
	StageReport     = "final_report"
)

// Prompts resolves system prompts by name.
type Prompts interface {
	System(ctx context.Context, name string, vars map[string]string) (string, error)
}

// Models names the model used by each stage.
type Models struct {
	Relevance  string
	Extraction string
	Sentiment  string
	Ranker     string
	Advice     string
	Report     string
}

// Settings tunes sample counts and message windows.
type Settings struct {
	Models                Models
	SentimentSamples      int
	RecommendationSamples int
	MaxRecommendations    int
	PartnerMemoryWindow   int
	SentimentWindow       int
	RankerWindow          int
	AdviceWindow          int
}

// DefaultSettings returns the stock sample counts and windows with OpenAI models.
func DefaultSettings() Settings {
	return Settings{
		Models: Models{
			Relevance:  "gpt-4.1-nano",
			Extraction: "gpt-4.1-mini",
			Sentiment:  "gpt-4.1-nano",
			Ranker:     "gpt-4.1-nano",
			Advice:     "gpt-4.1-nano",
			Report:     "gpt-4.1-mini",
		},
		SentimentSamples:      3,
		RecommendationSamples: 5,
		MaxRecommendations:    5,
		PartnerMemoryWindow:   15,
		SentimentWindow:       5,
		RankerWindow:          5,
		AdviceWindow:          15,
	}
}

// pipeline is the shared plumbing of every stage.
type pipeline struct {
	completion completion.Service
	prompts    Prompts
	logger     logger.Logger
}

// categoryVars fills the {categories} placeholder.
func categoryVars() map[string]string {
	return map[string]string{"categories": strings.Join(conversation.CategoryNames(), ", ")}
}

// request loads the system prompt of name and builds a completion request.
func (p pipeline) request(ctx context.Context, stage, name, model, user string, vars map[string]string, schema completion.Schema) (completion.Request, error) {
	system, err := p.prompts.System(ctx, name, vars)
	if err != nil {
		return completion.Request{}, err
	}
	return completion.Request{
		Stage:  stage,
		Model:  model,
		System: system,
		User:   user,
		Schema: schema,
	}, nil
}
