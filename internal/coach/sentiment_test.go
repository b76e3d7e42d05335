package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsensus(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   int
	}{
		{name: "unanimous", scores: []int{3, 3, 3}, want: 3},
		{name: "rounds down", scores: []int{1, 1, 2}, want: 1},
		{name: "rounds up", scores: []int{4, 4, 3}, want: 4},
		{name: "half rounds to even below", scores: []int{2, 3}, want: 2},
		{name: "half rounds to even above", scores: []int{1, 2}, want: 2},
		{name: "low half", scores: []int{0, 1}, want: 0},
		{name: "high half", scores: []int{3, 4}, want: 4},
		{name: "two of three samples survive", scores: []int{4, 1}, want: 2},
		{name: "single", scores: []int{0}, want: 0},
		{name: "empty", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Consensus(tt.scores))
		})
	}
}

func TestSentimentPipeline_Score(t *testing.T) {
	tests := []struct {
		name    string
		reply   reply
		want    int
		wantErr error
	}{
		{name: "consensus of every sample", reply: sequence(`{"score":4}`, `{"score":4}`, `{"score":3}`), want: 4},
		{name: "failed samples are excluded", reply: sequence(`{"score":4}`, ``, `{"score":3}`), want: 4},
		{name: "out of range samples are excluded", reply: sequence(`{"score":9}`, `{"score":1}`, `{"score":1}`), want: 1},
		{name: "malformed samples are excluded", reply: sequence(`not json`, `{"score":2}`, `{"score":2}`), want: 2},
		{name: "every sample fails", reply: failing(errors.New("timeout")), wantErr: conversation.ErrAggregate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeCompletion(map[string]reply{StageSentiment: tt.reply})
			p := NewSentimentPipeline(fake, staticPrompts{}, testSettings(), logger.NewNopLogger())
			mem := newMemory(t, msg(t, "1", conversation.RolePartner, "오늘 정말 즐거웠어요"))

			got, err := p.Score(context.Background(), mem)

			assert.Equal(t, 3, fake.count(StageSentiment))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSentimentPipeline_EmptyMemory(t *testing.T) {
	fake := newFakeCompletion(nil)
	p := NewSentimentPipeline(fake, staticPrompts{}, testSettings(), logger.NewNopLogger())

	_, err := p.Score(context.Background(), newMemory(t))

	assert.ErrorIs(t, err, conversation.ErrValidation)
	assert.Zero(t, fake.count(StageSentiment))
}

func TestSentimentPipeline_Run(t *testing.T) {
	fake := newFakeCompletion(map[string]reply{StageSentiment: fixed(`{"score":3}`)})
	settings := testSettings()
	p := NewSentimentPipeline(fake, staticPrompts{}, settings, logger.NewNopLogger())
	mem := newMemory(t, msg(t, "0", conversation.RolePartner, "안녕"))
	scorer := conversation.NewScorer(conversation.DefaultAlpha)

	score, err := p.Run(context.Background(), mem, scorer)
	require.NoError(t, err)

	assert.Equal(t, 3, score)
	assert.Equal(t, 3.0, scorer.Scores().PartnerEngagement)
	assert.Zero(t, scorer.Scores().SelfEngagement)

	req := fake.last(StageSentiment)
	assert.Equal(t, settings.Models.Sentiment, req.Model)
	assert.Equal(t, PromptSentiment+"|", req.System)
	assert.Contains(t, req.User, "### 🔍 분석할 메시지:\n파트너: 안녕\n")
}

func TestSentimentPipeline_RunFailureLeavesScores(t *testing.T) {
	fake := newFakeCompletion(map[string]reply{StageSentiment: failing(errors.New("down"))})
	p := NewSentimentPipeline(fake, staticPrompts{}, testSettings(), logger.NewNopLogger())
	mem := newMemory(t, msg(t, "0", conversation.RolePartner, "안녕"))
	scorer := conversation.NewScorer(conversation.DefaultAlpha)

	_, err := p.Run(context.Background(), mem, scorer)

	assert.ErrorIs(t, err, conversation.ErrAggregate)
	assert.Equal(t, conversation.Scores{}, scorer.Scores())
}
