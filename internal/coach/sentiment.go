package coach

import (
	"context"
	"fmt"
	"math"

	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

// Sentiment scores range over 0 (very negative) to 4 (very positive).
const (
	MinSentiment = 0
	MaxSentiment = 4
)

type sentimentOutput struct {
	Score int `json:"score"`
}

var sentimentSchema = completion.Schema{
	Name:        "message_sentiment",
	Description: "Sentiment of the latest message on a 0 to 4 scale",
	Definition: completion.Object(map[string]any{
		"score": map[string]any{"type": "integer", "enum": []int{0, 1, 2, 3, 4}},
	}),
}

// SentimentPipeline scores the newest message by self-consistency: several
// independent samples are averaged and rounded.
type SentimentPipeline struct {
	pipeline
	model   string
	samples int
	window  int
}

// NewSentimentPipeline builds the sentiment pipeline.
func NewSentimentPipeline(svc completion.Service, prompts Prompts, settings Settings, log logger.Logger) *SentimentPipeline {
	return &SentimentPipeline{
		pipeline: pipeline{completion: svc, prompts: prompts, logger: log},
		model:    settings.Models.Sentiment,
		samples:  settings.SentimentSamples,
		window:   settings.SentimentWindow,
	}
}

// Score returns the consensus sentiment of the newest message.
func (p *SentimentPipeline) Score(ctx context.Context, mem *conversation.Memory) (int, error) {
	if mem.Len() == 0 {
		return 0, conversation.Validationf("no message to score")
	}

	user := conversation.JoinSections(mem.RenderMessages(p.window), mem.RenderTargetMessage())
	req, err := p.request(ctx, StageSentiment, PromptSentiment, p.model, user, nil, sentimentSchema)
	if err != nil {
		return 0, err
	}

	scores, err := sample(ctx, p.logger, StageSentiment, p.samples, func(ctx context.Context) (int, error) {
		out, err := completion.Decode[sentimentOutput](ctx, p.completion, req)
		if err != nil {
			return 0, conversation.Upstream(err)
		}
		if out.Score < MinSentiment || out.Score > MaxSentiment {
			return 0, conversation.Upstream(fmt.Errorf("%w: score %d out of range", completion.ErrInvalidOutput, out.Score))
		}
		return out.Score, nil
	})
	if err != nil {
		return 0, err
	}
	return Consensus(scores), nil
}

// Run scores the newest message and folds the result into scorer.
func (p *SentimentPipeline) Run(ctx context.Context, mem *conversation.Memory, scorer *conversation.Scorer) (int, error) {
	score, err := p.Score(ctx, mem)
	if err != nil {
		return 0, err
	}
	scorer.Update(mem, score)
	return score, nil
}

// Consensus is the mean of scores rounded to the nearest integer, ties to even.
func Consensus(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return int(math.RoundToEven(float64(total) / float64(len(scores))))
}
