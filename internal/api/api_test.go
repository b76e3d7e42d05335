package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/coach"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	"github.com/lewisedginton/dating_coach/pkg/health"
	"github.com/lewisedginton/dating_coach/pkg/httpmiddleware"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/lewisedginton/dating_coach/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2025, 5, 1, 19, 0, 0, 0, time.UTC)

// stubCoach keeps conversations in a map and returns canned pipeline results.
type stubCoach struct {
	mu       sync.Mutex
	convs    map[string][]conversation.Message
	scores   conversation.Scores
	addErr   error
	messages []conversation.Message
}

func newStubCoach() *stubCoach {
	return &stubCoach{
		convs:  make(map[string][]conversation.Message),
		scores: conversation.Scores{SelfEngagement: 2, PartnerEngagement: 3, SelfTalkShare: 0.5},
	}
}

func (s *stubCoach) exists(id string) error {
	if _, ok := s.convs[id]; !ok {
		return conversation.NotFoundf("conversation %q", id)
	}
	return nil
}

func (s *stubCoach) Init(_ context.Context, id string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[id] = nil
	return createdAt, nil
}

func (s *stubCoach) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.exists(id); err != nil {
		return err
	}
	delete(s.convs, id)
	return nil
}

func (s *stubCoach) AddMessage(_ context.Context, id string, msg conversation.Message) (coach.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.exists(id); err != nil {
		return coach.AddResult{}, err
	}
	if s.addErr != nil {
		return coach.AddResult{}, s.addErr
	}
	msgs := s.convs[id]
	if len(msgs) > 0 && conversation.CompareIDs(msgs[len(msgs)-1].ID, msg.ID) >= 0 {
		return coach.AddResult{Scores: s.scores, Duplicate: true}, nil
	}
	s.convs[id] = append(msgs, msg)
	s.messages = append(s.messages, msg)
	return coach.AddResult{Scores: s.scores}, nil
}

func (s *stubCoach) Scores(id string) (conversation.Scores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.exists(id); err != nil {
		return conversation.Scores{}, err
	}
	return s.scores, nil
}

func (s *stubCoach) PartnerMemory(id string) (conversation.PartnerMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.exists(id); err != nil {
		return conversation.PartnerMemory{}, err
	}
	return conversation.PartnerMemoryFromMap(map[string][]string{"취미/관심사": {"등산"}}), nil
}

func (s *stubCoach) RecommendAdvice(_ context.Context, id string) ([]advice.Metadata, error) {
	if _, err := s.Scores(id); err != nil {
		return nil, err
	}
	return []advice.Metadata{
		{ID: "cheer_up", Emoji: "💪", Title: "응원", Description: "d", PromptInstruction: "secret", ContentType: advice.ContentString},
	}, nil
}

func (s *stubCoach) GetAdvice(_ context.Context, id, adviceID string) (advice.Metadata, advice.Content, error) {
	if _, err := s.Scores(id); err != nil {
		return advice.Metadata{}, advice.Content{}, err
	}
	switch adviceID {
	case "conversation_topics":
		return advice.Metadata{ID: adviceID, ContentType: advice.ContentList},
			advice.ListContent([]advice.ListItem{{Value: "여행", Detail: "최근 여행"}}), nil
	case "cheer_up":
		return advice.Metadata{ID: adviceID, ContentType: advice.ContentString}, advice.StringContent("화이팅!"), nil
	case "broken":
		return advice.Metadata{}, advice.Content{}, conversation.Upstream(errors.New("model refused"))
	default:
		return advice.Metadata{}, advice.Content{}, conversation.NotFoundf("advice %q", adviceID)
	}
}

func (s *stubCoach) FinalReport(_ context.Context, id string) (coach.Report, error) {
	if _, err := s.Scores(id); err != nil {
		return coach.Report{}, err
	}
	return coach.Report{ID: "rpt-1", Text: "### report\n"}, nil
}

func (s *stubCoach) ArchivedReport(_ context.Context, id, reportID string) (string, error) {
	if _, err := s.Scores(id); err != nil {
		return "", err
	}
	if reportID != "rpt-1" {
		return "", conversation.NotFoundf("report %q", reportID)
	}
	return "### report\n", nil
}

func newTestRouter(t *testing.T, c Coach) http.Handler {
	t.Helper()
	mw := httpmiddleware.DefaultConfig()
	mw.MaxBodyBytes = 1024
	return NewRouter(Config{
		Coach:      c,
		Logger:     logger.NewNopLogger(),
		Middleware: mw,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Conversation(t *testing.T) {
	c := newStubCoach()
	h := newTestRouter(t, c)
	const scores = `{"scores":{"user_engagement":2,"partner_engagement":3,"user_talk_share":0.5}}`

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantBody string
	}{
		{name: "missing conversation", method: http.MethodGet, path: "/api/v1/conversation/c1/realtime-analysis", wantCode: 404, wantBody: `{"error":"not found: conversation \"c1\""}`},
		{name: "init", method: http.MethodPost, path: "/api/v1/conversation/c1", wantCode: 201, wantBody: `{"conversation_id":"c1","created_at":"2025-05-01T19:00:00Z"}`},
		{name: "add message with numeric id", method: http.MethodPost, path: "/api/v1/conversation/c1/messages", body: `{"message":{"message_id":0,"role":"파트너","content":"안녕"}}`, wantCode: 200, wantBody: scores},
		{name: "duplicate message", method: http.MethodPost, path: "/api/v1/conversation/c1/messages", body: `{"message":{"message_id":"0","role":"partner","content":"안녕"}}`, wantCode: 200, wantBody: `{"scores":{"user_engagement":2,"partner_engagement":3,"user_talk_share":0.5},"duplicate":true}`},
		{name: "unknown role", method: http.MethodPost, path: "/api/v1/conversation/c1/messages", body: `{"message":{"message_id":1,"role":"host","content":"hi"}}`, wantCode: 400},
		{name: "negative id", method: http.MethodPost, path: "/api/v1/conversation/c1/messages", body: `{"message":{"message_id":-1,"role":"나","content":"hi"}}`, wantCode: 400},
		{name: "missing message", method: http.MethodPost, path: "/api/v1/conversation/c1/messages", body: `{}`, wantCode: 400, wantBody: `{"error":"validation failed: message is required"}`},
		{name: "malformed json", method: http.MethodPost, path: "/api/v1/conversation/c1/messages", body: `{"message":`, wantCode: 400},
		{name: "body too large", method: http.MethodPost, path: "/api/v1/conversation/c1/messages", body: `{"message":{"message_id":1,"role":"나","content":"` + strings.Repeat("a", 2048) + `"}}`, wantCode: 413},
		{name: "scores", method: http.MethodGet, path: "/api/v1/conversation/c1/realtime-analysis", wantCode: 200, wantBody: scores},
		{name: "partner memory", method: http.MethodPost, path: "/api/v1/conversation/c1/realtime-memory", wantCode: 200, wantBody: `{"partner_memory":{"content":{"취미/관심사":["등산"],"고민":[],"가족/친구":[],"직업/학업":[],"성격/가치관":[],"이상형/연애관":[],"생활습관":[]}}}`},
		{name: "recommendation hides prompt instructions", method: http.MethodPost, path: "/api/v1/conversation/c1/breaktime-advice/recommendation", wantCode: 200, wantBody: `{"advice_metadatas":[{"advice_id":"cheer_up","emoji":"💪","title":"응원","description":"d"}]}`},
		{name: "string advice", method: http.MethodPost, path: "/api/v1/conversation/c1/breaktime-advice/cheer_up", wantCode: 200, wantBody: `{"advice_id":"cheer_up","content_type":"string","advice":"화이팅!"}`},
		{name: "list advice", method: http.MethodPost, path: "/api/v1/conversation/c1/breaktime-advice/conversation_topics", wantCode: 200, wantBody: `{"advice_id":"conversation_topics","content_type":"list","advice":[{"value":"여행","detail":"최근 여행"}]}`},
		{name: "unknown advice", method: http.MethodPost, path: "/api/v1/conversation/c1/breaktime-advice/nope", wantCode: 404},
		{name: "upstream failure", method: http.MethodPost, path: "/api/v1/conversation/c1/breaktime-advice/broken", wantCode: 502},
		{name: "final report", method: http.MethodPost, path: "/api/v1/conversation/c1/final-report", wantCode: 200, wantBody: `{"report_id":"rpt-1","final_report":"### report\n"}`},
		{name: "archived report", method: http.MethodGet, path: "/api/v1/conversation/c1/final-report/rpt-1", wantCode: 200, wantBody: `{"report_id":"rpt-1","final_report":"### report\n"}`},
		{name: "wrong method", method: http.MethodGet, path: "/api/v1/conversation/c1/messages", wantCode: 405},
		{name: "delete", method: http.MethodDelete, path: "/api/v1/conversation/c1", wantCode: 200},
		{name: "delete again", method: http.MethodDelete, path: "/api/v1/conversation/c1", wantCode: 404},
		{name: "scores after delete", method: http.MethodGet, path: "/api/v1/conversation/c1/realtime-analysis", wantCode: 404},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantCode: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantCode >= 400 {
				var body errorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body.Error)
			}
		})
	}

	require.Len(t, c.messages, 1)
	assert.Equal(t, "0", c.messages[0].ID)
	assert.Equal(t, conversation.RolePartner, c.messages[0].Role)
}

func TestRouter_DeleteResponse(t *testing.T) {
	c := newStubCoach()
	h := newTestRouter(t, c)
	do(t, h, http.MethodPost, "/api/v1/conversation/c9", "")

	rec := do(t, h, http.MethodDelete, "/api/v1/conversation/c9", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body deleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "c9", body.ConversationID)
	assert.WithinDuration(t, time.Now(), body.DeletedAt, time.Minute)
}

func TestRouter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "aggregate", err: conversation.Aggregate("sentiment", 3, errors.New("timeout")), wantCode: 502},
		{name: "upstream", err: conversation.Upstream(errors.New("refused")), wantCode: 502},
		{name: "unclassified hides details", err: errors.New("db password leaked"), wantCode: 500, wantBody: `{"error":"Internal Server Error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newStubCoach()
			c.addErr = tt.err
			h := newTestRouter(t, c)
			do(t, h, http.MethodPost, "/api/v1/conversation/c1", "")

			rec := do(t, h, http.MethodPost, "/api/v1/conversation/c1/messages", `{"message":{"message_id":"1","role":"나","content":"hi"}}`)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRouter_Ambient(t *testing.T) {
	m := metrics.NewMetrics(true, false, logger.NewNopLogger())
	checker := health.New()
	checker.AddReadinessCheck(health.NewCheckFunc("store", func(context.Context) error { return nil }))

	h := NewRouter(Config{
		Coach:         newStubCoach(),
		Logger:        logger.NewNopLogger(),
		Middleware:    httpmiddleware.DefaultConfig(),
		Metrics:       m,
		Health:        checker,
		LivenessPath:  "/health/live",
		ReadinessPath: "/health/ready",
	})

	for _, path := range []string{"/health/live", "/health/ready", "/ping"} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/conversation/c1", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(logger.CorrelationIDHeader))

	metricsRec := httptest.NewRecorder()
	m.Handler().ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), `app_http_responses_total{code="201"} 1`)
}

func TestMessageID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `"abc"`, want: "abc"},
		{in: `12`, want: "12"},
		{in: `1.5`, wantErr: true},
		{in: `-3`, wantErr: true},
		{in: `true`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id messageID
			err := id.UnmarshalJSON([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(id))
		})
	}
}
