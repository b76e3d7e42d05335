package coach

import (
	"context"
	"fmt"

	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
)

var adviceSchemas = map[advice.ContentType]completion.Schema{
	advice.ContentString: {
		Name:        "advice_text",
		Description: "A single piece of advice",
		Definition: completion.Object(map[string]any{
			"advice": map[string]any{"type": "string"},
		}),
	},
	advice.ContentList: {
		Name:        "advice_list",
		Description: "Advice as a list of suggestions, each with a short explanation",
		Definition: completion.Object(map[string]any{
			"advice": map[string]any{
				"type": "array",
				"items": completion.Object(map[string]any{
					"value":  map[string]any{"type": "string"},
					"detail": map[string]any{"type": "string"},
				}),
			},
		}),
	},
}

// AdviceGenerator writes the content of one catalog item for the current conversation.
type AdviceGenerator struct {
	pipeline
	model  string
	window int
}

// NewAdviceGenerator builds the advice generator.
func NewAdviceGenerator(svc completion.Service, prompts Prompts, settings Settings, log logger.Logger) *AdviceGenerator {
	return &AdviceGenerator{
		pipeline: pipeline{completion: svc, prompts: prompts, logger: log},
		model:    settings.Models.Advice,
		window:   settings.AdviceWindow,
	}
}

// Generate produces content shaped by the item's content type.
func (g *AdviceGenerator) Generate(ctx context.Context, mem *conversation.Memory, item advice.Metadata) (advice.Content, error) {
	schema, ok := adviceSchemas[item.ContentType]
	if !ok {
		return advice.Content{}, fmt.Errorf("advice %s has unknown content type %q", item.ID, item.ContentType)
	}

	user := conversation.JoinSections(
		item.Render(),
		mem.RenderConversationInfo(),
		mem.RenderPartnerMemory(),
		mem.RenderMessages(g.window),
	)
	req, err := g.request(ctx, StageAdvice, PromptAdvice, g.model, user, nil, schema)
	if err != nil {
		return advice.Content{}, err
	}

	raw, err := g.completion.Complete(ctx, req)
	if err != nil {
		return advice.Content{}, conversation.Upstream(err)
	}
	content, err := advice.ParseContent(item.ContentType, raw)
	if err != nil {
		return advice.Content{}, conversation.Upstream(fmt.Errorf("%w: %w", completion.ErrInvalidOutput, err))
	}
	return content, nil
}
