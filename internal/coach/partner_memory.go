package coach

import (
	"context"
	"fmt"

	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/utils"
)

type relevanceOutput struct {
	ShouldRemember bool `json:"should_remember"`
}

var relevanceSchema = completion.Schema{
	Name:        "partner_memory_relevance",
	Description: "Whether the partner's latest message holds something worth remembering",
	Definition: completion.Object(map[string]any{
		"should_remember": map[string]any{"type": "boolean"},
	}),
}

func extractionSchema() completion.Schema {
	categories := make([]any, 0, len(conversation.Categories)+1)
	for _, c := range conversation.CategoryNames() {
		categories = append(categories, c)
	}
	categories = append(categories, nil)

	return completion.Schema{
		Name:        "partner_memory_update",
		Description: "A single edit to the notes kept about the partner",
		Definition: completion.Object(map[string]any{
			"should_update": map[string]any{"type": "boolean"},
			"category":      map[string]any{"type": []string{"string", "null"}, "enum": categories},
			"content":       map[string]any{"type": []string{"string", "null"}},
		}),
	}
}

// PartnerMemoryPipeline decides whether the partner's newest message is worth noting
// and, if so, files one memo under a category.
type PartnerMemoryPipeline struct {
	pipeline
	relevanceModel  string
	extractionModel string
	window          int
	schema          completion.Schema
}

// NewPartnerMemoryPipeline builds the two-stage partner-memory pipeline.
func NewPartnerMemoryPipeline(svc completion.Service, prompts Prompts, settings Settings, log logger.Logger) *PartnerMemoryPipeline {
	return &PartnerMemoryPipeline{
		pipeline:        pipeline{completion: svc, prompts: prompts, logger: log},
		relevanceModel:  settings.Models.Relevance,
		extractionModel: settings.Models.Extraction,
		window:          settings.PartnerMemoryWindow,
		schema:          extractionSchema(),
	}
}

// Run analyses the newest message of mem and applies the resulting edit. Messages
// from the user are skipped without any completion call.
func (p *PartnerMemoryPipeline) Run(ctx context.Context, mem *conversation.Memory) (conversation.UpdateInstruction, error) {
	last, ok := mem.Last()
	if !ok || last.Role != conversation.RolePartner {
		return conversation.NoUpdate(), nil
	}

	remember, err := p.relevant(ctx, mem)
	if err != nil {
		return conversation.NoUpdate(), conversation.Upstream(fmt.Errorf("%s: %w", StageRelevance, err))
	}
	if !remember {
		return conversation.NoUpdate(), nil
	}

	instr, err := p.extract(ctx, mem)
	if err != nil {
		return conversation.NoUpdate(), conversation.Upstream(fmt.Errorf("%s: %w", StageExtraction, err))
	}
	if !instr.Applicable() {
		return conversation.NoUpdate(), nil
	}
	if _, ok := conversation.ParseCategory(instr.Category); !ok {
		return conversation.NoUpdate(), conversation.Upstream(
			fmt.Errorf("%s: %w: unknown category %q", StageExtraction, completion.ErrInvalidOutput, instr.Category))
	}

	mem.Apply(instr)
	p.logger.Debug("Partner memory updated",
		logger.MessageIDField(last.ID),
		logger.StringField("category", instr.Category))
	return instr, nil
}

func (p *PartnerMemoryPipeline) relevant(ctx context.Context, mem *conversation.Memory) (bool, error) {
	user := conversation.JoinSections(mem.RenderMessages(p.window), mem.RenderTargetMessage())
	req, err := p.request(ctx, StageRelevance, PromptRelevance, p.relevanceModel, user, categoryVars(), relevanceSchema)
	if err != nil {
		return false, err
	}
	out, err := completion.Decode[relevanceOutput](ctx, p.completion, req)
	if err != nil {
		return false, err
	}
	return out.ShouldRemember, nil
}

func (p *PartnerMemoryPipeline) extract(ctx context.Context, mem *conversation.Memory) (conversation.UpdateInstruction, error) {
	user := conversation.JoinSections(
		mem.RenderPartnerMemory(),
		mem.RenderMessages(p.window),
		mem.RenderTargetMessage(),
	)
	req, err := p.request(ctx, StageExtraction, PromptExtraction, p.extractionModel, user, categoryVars(), p.schema)
	if err != nil {
		return conversation.NoUpdate(), err
	}
	req.Temperature = utils.ToPtr(0.0)
	return completion.Decode[conversation.UpdateInstruction](ctx, p.completion, req)
}
