package coach

import (
	"context"
	"sort"

	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

type rankingOutput struct {
	FinalAnswer []string `json:"final_answer"`
}

var rankingSchema = completion.Schema{
	Name:        "advice_ranking",
	Description: "Advice ids ordered from most to least useful right now",
	Definition: completion.Object(map[string]any{
		"final_answer": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	}),
}

// Ranker orders the advice catalog for the current moment by sampling several
// independent rankings and combining them with a rank sum.
type Ranker struct {
	pipeline
	catalog *advice.Catalog
	model   string
	samples int
	limit   int
	window  int
}

// NewRanker builds the advice ranker over catalog.
func NewRanker(svc completion.Service, prompts Prompts, catalog *advice.Catalog, settings Settings, log logger.Logger) *Ranker {
	return &Ranker{
		pipeline: pipeline{completion: svc, prompts: prompts, logger: log},
		catalog:  catalog,
		model:    settings.Models.Ranker,
		samples:  settings.RecommendationSamples,
		limit:    settings.MaxRecommendations,
		window:   settings.RankerWindow,
	}
}

// Recommend returns at most the configured number of catalog items, best first.
func (r *Ranker) Recommend(ctx context.Context, mem *conversation.Memory) ([]advice.Metadata, error) {
	user := conversation.JoinSections(
		r.catalog.RenderList(),
		mem.RenderConversationInfo(),
		mem.RenderPartnerMemory(),
		mem.RenderMessages(r.window),
	)
	req, err := r.request(ctx, StageRanker, PromptRanker, r.model, user, nil, rankingSchema)
	if err != nil {
		return nil, err
	}

	rankings, err := sample(ctx, r.logger, StageRanker, r.samples, func(ctx context.Context) ([]string, error) {
		out, err := completion.Decode[rankingOutput](ctx, r.completion, req)
		if err != nil {
			return nil, conversation.Upstream(err)
		}
		return out.FinalAnswer, nil
	})
	if err != nil {
		return nil, err
	}

	ids := RankSum(rankings, func(id string) (string, bool) {
		m, ok := r.catalog.Lookup(id)
		return m.ID, ok
	}, r.limit)
	if len(ids) == 0 {
		r.logger.Warn("No known advice id in any ranking", logger.IntField("rankings", len(rankings)))
	}
	return r.catalog.Resolve(ids), nil
}

// RankSum combines rankings into one order. Each id scores the sum of its 1-based
// positions over the rankings that contain it; lower is better and ties break on id.
// canonical maps a returned id to its catalog id and rejects unknown ids, which are
// dropped before the result is cut to limit. A ranking that repeats an id counts only
// its first position. limit <= 0 keeps every id.
func RankSum(rankings [][]string, canonical func(string) (string, bool), limit int) []string {
	sums := make(map[string]int)
	for _, ranking := range rankings {
		seen := make(map[string]bool, len(ranking))
		for pos, raw := range ranking {
			id, ok := canonical(raw)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			sums[id] += pos + 1
		}
	}

	ids := make([]string, 0, len(sums))
	for id := range sums {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if sums[ids[i]] != sums[ids[j]] {
			return sums[ids[i]] < sums[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
