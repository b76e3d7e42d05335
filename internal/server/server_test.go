package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	appconfig "github.com/lewisedginton/dating_coach/internal/config"
	"github.com/lewisedginton/dating_coach/internal/conversation"
	pkgconfig "github.com/lewisedginton/dating_coach/pkg/config"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completionReplies maps a response schema name to the JSON the fake model returns.
var completionReplies = map[string]string{
	"partner_memory_relevance": `{"should_remember":true}`,
	"partner_memory_update":    `{"should_update":true,"category":"취미/관심사","content":"주말마다 등산을 해요"}`,
	"message_sentiment":        `{"score":3}`,
	"advice_ranking":           `{"final_answer":["talk_balance","cheer_up","conversation_topics"]}`,
	"advice_text":              `{"advice":"천천히 질문을 이어가 보세요"}`,
	"advice_list":              `{"advice":[{"value":"등산","detail":"좋아하는 산을 물어보세요"}]}`,
	"partner_memory_summary":   summaryReply(),
}

// summaryReply lists every category since the summary schema requires them all.
func summaryReply() string {
	content := make(map[string][]string)
	for _, c := range conversation.CategoryNames() {
		content[c] = []string{}
	}
	content[string(conversation.CategoryInterests)] = []string{"주말마다 등산을 해요"}
	out, _ := json.Marshal(map[string]any{"content": content})
	return string(out)
}

type fakeOpenAI struct {
	*httptest.Server
	mu    sync.Mutex
	calls map[string]int
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{calls: make(map[string]int)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ResponseFormat struct {
				JSONSchema struct {
					Name string `json:"name"`
				} `json:"json_schema"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name := req.ResponseFormat.JSONSchema.Name
		content, ok := completionReplies[name]
		if !ok {
			http.Error(w, "unexpected schema "+name, http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.calls[name]++
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4.1-nano",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOpenAI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func testConfig(t *testing.T, openAIURL string) *appconfig.AppConfig {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")

	var cfg appconfig.AppConfig
	require.NoError(t, pkgconfig.GetConfigFromEnvVars(&cfg))

	dir := t.TempDir()
	resources := filepath.Join(dir, "resources")
	require.NoError(t, os.CopyFS(resources, os.DirFS(filepath.Join("..", "..", "resources"))))

	cfg.OpenAI.APIBaseURL = openAIURL
	cfg.OpenAI.MaxRetries = 0
	cfg.Storage.LocalDir = resources
	cfg.Persistence.Backend = appconfig.PersistenceSQLite
	cfg.Persistence.SQLitePath = filepath.Join(dir, "data", "coach.db")
	cfg.Coaching.SentimentSamples = 3
	cfg.Coaching.RecommendationSamples = 2
	return &cfg
}

func call(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
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

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestServer_EndToEnd(t *testing.T) {
	llm := newFakeOpenAI(t)
	cfg := testConfig(t, llm.URL)

	s, err := New(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	h := s.Handler()

	const base = "/api/v1/conversation/date-1"

	code, body := call(t, h, http.MethodPost, base, "")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "date-1", body["conversation_id"])

	code, body = call(t, h, http.MethodPost, base+"/messages",
		`{"message":{"message_id":"1","role":"파트너","content":"저는 주말마다 등산해요"}}`)
	require.Equal(t, http.StatusOK, code, body)
	scores := body["scores"].(map[string]any)
	assert.Equal(t, 3.0, scores["partner_engagement"])
	assert.Equal(t, 3, llm.count("message_sentiment"))
	assert.Equal(t, 1, llm.count("partner_memory_update"))

	code, body = call(t, h, http.MethodPost, base+"/realtime-memory", "")
	require.Equal(t, http.StatusOK, code)
	memory := body["partner_memory"].(map[string]any)["content"].(map[string]any)
	assert.Equal(t, []any{"주말마다 등산을 해요"}, memory["취미/관심사"])

	code, body = call(t, h, http.MethodPost, base+"/breaktime-advice/recommendation", "")
	require.Equal(t, http.StatusOK, code, body)
	var ids []string
	for _, item := range body["advice_metadatas"].([]any) {
		ids = append(ids, item.(map[string]any)["advice_id"].(string))
	}
	assert.Equal(t, []string{"talk_balance", "cheer_up", "conversation_topics"}, ids)
	assert.Equal(t, 2, llm.count("advice_ranking"))

	code, body = call(t, h, http.MethodPost, base+"/breaktime-advice/conversation_topics", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "list", body["content_type"])
	assert.Equal(t, []any{map[string]any{"value": "등산", "detail": "좋아하는 산을 물어보세요"}}, body["advice"])

	code, body = call(t, h, http.MethodPost, base+"/breaktime-advice/cheer_up", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "string", body["content_type"])
	assert.Equal(t, "천천히 질문을 이어가 보세요", body["advice"])

	code, body = call(t, h, http.MethodPost, base+"/final-report", "")
	require.Equal(t, http.StatusOK, code, body)
	report := body["final_report"].(string)
	assert.Contains(t, report, "주말마다 등산을 해요")
	reportID := body["report_id"].(string)
	assert.True(t, strings.HasPrefix(reportID, "rpt-"))

	code, body = call(t, h, http.MethodGet, base+"/final-report/"+reportID, "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, report, body["final_report"])

	code, _ = call(t, h, http.MethodGet, cfg.Health.ReadinessPath, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_RestoresConversations(t *testing.T) {
	llm := newFakeOpenAI(t)
	cfg := testConfig(t, llm.URL)

	first, err := New(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	h := first.Handler()

	code, _ := call(t, h, http.MethodPost, "/api/v1/conversation/date-2", "")
	require.Equal(t, http.StatusCreated, code)
	code, _ = call(t, h, http.MethodPost, "/api/v1/conversation/date-2/messages",
		`{"message":{"message_id":"1","role":"파트너","content":"저는 주말마다 등산해요"}}`)
	require.Equal(t, http.StatusOK, code)
	_, before := call(t, h, http.MethodGet, "/api/v1/conversation/date-2/realtime-analysis", "")
	require.NoError(t, first.Close())

	second, err := New(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	code, after := call(t, second.Handler(), http.MethodGet, "/api/v1/conversation/date-2/realtime-analysis", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, before, after)

	code, body := call(t, second.Handler(), http.MethodPost, "/api/v1/conversation/date-2/realtime-memory", "")
	require.Equal(t, http.StatusOK, code)
	memory := body["partner_memory"].(map[string]any)["content"].(map[string]any)
	assert.Equal(t, []any{"주말마다 등산을 해요"}, memory["취미/관심사"])
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *appconfig.AppConfig)
		wantErr string
	}{
		{
			name:    "unknown provider",
			mutate:  func(cfg *appconfig.AppConfig) { cfg.LLM.Provider = "llama" },
			wantErr: "unsupported LLM provider",
		},
		{
			name:    "unknown storage backend",
			mutate:  func(cfg *appconfig.AppConfig) { cfg.Storage.Backend = "ftp" },
			wantErr: "unsupported storage backend",
		},
		{
			name:    "missing catalog",
			mutate:  func(cfg *appconfig.AppConfig) { cfg.Storage.CatalogPath = "missing.json" },
			wantErr: "advice catalog",
		},
		{
			name:    "unknown prompt version",
			mutate:  func(cfg *appconfig.AppConfig) { cfg.Coaching.PromptVersion = 99 },
			wantErr: "failed to load prompts",
		},
		{
			name:    "unknown persistence backend",
			mutate:  func(cfg *appconfig.AppConfig) { cfg.Persistence.Backend = "etcd" },
			wantErr: "unsupported persistence backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, "http://127.0.0.1:1")
			tt.mutate(cfg)

			_, err := New(context.Background(), cfg, logger.NewNopLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
