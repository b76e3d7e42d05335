package coach

import (
	"context"
	"fmt"
	"strings"

	"github.com/lewisedginton/dating_coach/internal/completion"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/utils"
)

const (
	reportHeader = "### 📝 파트너에 대해 알게 된 내용을 정리해드릴게요!\n"
	// EmptyReport is the body used when nothing was learned about the partner.
	EmptyReport = "아직 파트너에 대해 알게 된 내용이 없어요. 대화를 조금 더 나눠 보세요!\n"
)

type reportOutput struct {
	Content map[string][]string `json:"content"`
}

func reportSchema() completion.Schema {
	categories := make(map[string]any, len(conversation.Categories))
	for _, c := range conversation.CategoryNames() {
		categories[c] = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	}
	return completion.Schema{
		Name:        "partner_memory_summary",
		Description: "Consolidated notes about the partner, grouped by category",
		Definition: completion.Object(map[string]any{
			"content": completion.Object(categories),
		}),
	}
}

// Reporter condenses the partner memory into the end-of-conversation report.
type Reporter struct {
	pipeline
	model  string
	schema completion.Schema
}

// NewReporter builds the final report writer.
func NewReporter(svc completion.Service, prompts Prompts, settings Settings, log logger.Logger) *Reporter {
	return &Reporter{
		pipeline: pipeline{completion: svc, prompts: prompts, logger: log},
		model:    settings.Models.Report,
		schema:   reportSchema(),
	}
}

// Write renders the report. An empty partner memory yields a fixed body without
// calling the model.
func (r *Reporter) Write(ctx context.Context, mem *conversation.Memory) (string, error) {
	memory := mem.PartnerMemory()
	if memory.IsEmpty() {
		return reportHeader + EmptyReport, nil
	}

	req, err := r.request(ctx, StageReport, PromptReport, r.model, conversation.RenderPartnerMemory(memory), categoryVars(), r.schema)
	if err != nil {
		return "", err
	}
	req.Temperature = utils.ToPtr(0.0)

	out, err := completion.Decode[reportOutput](ctx, r.completion, req)
	if err != nil {
		return "", conversation.Upstream(err)
	}

	summary := conversation.PartnerMemoryFromMap(out.Content)
	if summary.IsEmpty() {
		return "", conversation.Upstream(fmt.Errorf("%w: summary dropped every memo", completion.ErrInvalidOutput))
	}
	return reportHeader + RenderReport(summary), nil
}

// RenderReport renders one block per non-empty category in fixed order.
func RenderReport(p conversation.PartnerMemory) string {
	blocks := make([]string, 0, len(conversation.Categories))
	for _, c := range conversation.Categories {
		memos := p.Memos(c)
		if len(memos) == 0 {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "<%s>\n", c)
		for _, memo := range memos {
			fmt.Fprintf(&b, "- %s\n", memo)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}
