package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/store/storetest"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	db := storetest.MemoryConfig()
	db.AutoMigrate = true
	db.Seed = true

	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			Environment:     "test",
			LogLevel:        "error",
			LogFormat:       "text",
			ShutdownTimeout: time.Second,
		},
		Database: db,
		Router: config.RouterConfig{
			Strategy:        "keyword",
			ReasoningPolicy: "router",
			HistoryLimit:    20,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()

	a, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return newServer(a)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestServer_Health(t *testing.T) {
	app := newTestServer(t, testConfig())

	status, body := doJSON(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "keyword", stats["strategy"])
	assert.Equal(t, false, stats["export"])
}

func TestServer_Categories(t *testing.T) {
	app := newTestServer(t, testConfig())

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/categories", nil, nil)
	require.Equal(t, http.StatusOK, status)

	categories, ok := body["categories"].([]any)
	require.True(t, ok)
	require.Len(t, categories, 3)

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		entry := c.(map[string]any)
		names = append(names, entry["name"].(string))
		assert.NotEmpty(t, entry["keywords"])
	}
	assert.Equal(t, []string{"order", "billing", "support"}, names)
}

func TestServer_Route(t *testing.T) {
	app := newTestServer(t, testConfig())

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCat    string
		wantConf   float64
		wantCode   string
	}{
		{
			name:       "order keywords",
			body:       map[string]string{"message": "Track my order ORD-001"},
			wantStatus: http.StatusOK,
			wantCat:    "order",
			wantConf:   0.6,
		},
		{
			name:       "no keywords falls back to support",
			body:       map[string]string{"message": "hello"},
			wantStatus: http.StatusOK,
			wantCat:    "support",
			wantConf:   0.5,
		},
		{
			name:       "continuity with previous category",
			body:       map[string]string{"message": "and the status?", "previous_category": "order"},
			wantStatus: http.StatusOK,
			wantCat:    "order",
			wantConf:   0.9,
		},
		{
			name:       "missing message",
			body:       map[string]string{"message": ""},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ORCHESTRATOR.MISSING_MESSAGE",
		},
		{
			name:       "whitespace only message",
			body:       map[string]string{"message": "  \n\t "},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ORCHESTRATOR.MISSING_MESSAGE",
		},
		{
			name:       "message over the length limit",
			body:       map[string]string{"message": strings.Repeat("é", 4001)},
			wantStatus: http.StatusBadRequest,
			wantCode:   "ORCHESTRATOR.MESSAGE_TOO_LONG",
		},
		{
			name:       "unknown conversation",
			body:       map[string]string{"message": "hi", "conversation_id": "missing"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown previous category",
			body:       map[string]string{"message": "hi", "previous_category": "shipping"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, "/api/v1/route", tt.body, nil)
			require.Equal(t, tt.wantStatus, status, body)
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["error"])
				if tt.wantCode != "" {
					assert.Equal(t, tt.wantCode, body["code"])
				}
				return
			}

			decision := body["decision"].(map[string]any)
			assert.Equal(t, tt.wantCat, decision["category"])
			assert.InDelta(t, tt.wantConf, decision["confidence"], 1e-9)
			assert.Len(t, body["scores"], 3)
		})
	}
}

func TestServer_ChatConversationFlow(t *testing.T) {
	app := newTestServer(t, testConfig())

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{
		"message": "Track my order ORD-001",
		"user":    map[string]string{"id": "u-1001"},
	}, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "order", body["category"])
	assert.Equal(t, "u-1001", body["user_id"])
	assert.Contains(t, body["content"], "1Z999AA10123456784")

	id, ok := body["conversation_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":         "and the status of ORD-002?",
		"conversation_id": id,
		"user":            map[string]string{"id": "u-1001"},
	}, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "order", body["category"])
	assert.InDelta(t, 0.9, body["confidence"], 1e-9)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/conversations/"+id+"/messages", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 4, body["count"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/conversations/"+id, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "order", body["category"])
	assert.Equal(t, "Track my order ORD-001", body["title"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/conversations/"+id+"?messages=true", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["messages"], 4)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/conversations?user_id=u-1001", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/conversations/"+id+"/export", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.NotEmpty(t, body["code"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":         "show my orders",
		"conversation_id": id,
	}, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "u-1001", body["user_id"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":         "show my orders",
		"conversation_id": id,
	}, map[string]string{anonymousHeader: "anon_intruder"})
	assert.Equal(t, http.StatusForbidden, status, body)
	assert.Equal(t, "ORCHESTRATOR.CONVERSATION_FORBIDDEN", body["code"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/route", map[string]any{
		"message":         "and the status?",
		"conversation_id": id,
	}, nil)
	require.Equal(t, http.StatusOK, status, body)
	decision := body["decision"].(map[string]any)
	assert.Equal(t, "order", decision["category"])
	assert.InDelta(t, 0.9, decision["confidence"], 1e-9)

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/route", map[string]any{
		"message":         "and the status?",
		"conversation_id": id,
	}, map[string]string{anonymousHeader: "anon_intruder"})
	assert.Equal(t, http.StatusForbidden, status, body)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/v1/conversations/"+id, nil, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":         "hello again",
		"conversation_id": id,
		"user":            map[string]string{"id": "u-1001"},
	}, nil)
	assert.Equal(t, http.StatusGone, status, body)
}

func TestServer_ChatAnonymousHeader(t *testing.T) {
	app := newTestServer(t, testConfig())

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/anonymous-id", nil, nil)
	require.Equal(t, http.StatusOK, status)
	anonID, _ := body["anonymous_id"].(string)
	require.True(t, strings.HasPrefix(anonID, "anon_"))

	headers := map[string]string{anonymousHeader: anonID}
	status, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]string{"message": "hi there"}, headers)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, anonID, body["user_id"])
	assert.Equal(t, "support", body["category"])

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/conversations", nil, headers)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])
}

func TestServer_Errors(t *testing.T) {
	app := newTestServer(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"empty chat message", http.MethodPost, "/api/v1/chat", map[string]string{"message": "  "}, http.StatusBadRequest},
		{"malformed chat body", http.MethodPost, "/api/v1/chat", "{", http.StatusBadRequest},
		{"chat on unknown conversation", http.MethodPost, "/api/v1/chat", map[string]string{"message": "hi", "conversation_id": "missing"}, http.StatusNotFound},
		{"unknown conversation", http.MethodGet, "/api/v1/conversations/missing", nil, http.StatusNotFound},
		{"list without user", http.MethodGet, "/api/v1/conversations", nil, http.StatusBadRequest},
		{"create without user", http.MethodPost, "/api/v1/conversations", map[string]string{"title": "x"}, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/nothing", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.wantStatus, status, body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServer_CreateConversation(t *testing.T) {
	app := newTestServer(t, testConfig())

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/conversations",
		map[string]string{"user_id": "u-1002", "title": "Billing question"}, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "u-1002", body["user_id"])
	assert.Equal(t, "Billing question", body["title"])
	assert.Equal(t, true, body["is_active"])

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":         "I want a refund",
		"conversation_id": body["id"],
		"user":            map[string]string{"id": "u-1002"},
	}, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "billing", body["category"])
	assert.Contains(t, body["content"], "REF-003")
}

func TestServer_ChatRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 1
	cfg.Server.RateLimitWindow = time.Minute
	app := newTestServer(t, cfg)

	headers := map[string]string{anonymousHeader: "anon_limited"}
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]string{"message": "hello"}, headers)
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]string{"message": "hello"}, headers)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests", body["error"])

	// other endpoints are not limited
	status, _ = doJSON(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_MemoryConversationBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Conversations.Backend = "memory"

	a, err := buildApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	app := newServer(a)

	user := map[string]string{"id": "u-1001"}
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{"message": "Track my order ORD-001", "user": user}, nil)
	require.Equal(t, http.StatusOK, status, body)
	id := body["conversation_id"].(string)

	status, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", map[string]any{
		"message":         "and the status of ORD-002?",
		"conversation_id": id,
		"user":            user,
	}, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.InDelta(t, 0.9, body["confidence"], 1e-9)

	status, body = doJSON(t, app, http.MethodGet, "/api/v1/conversations/"+id+"/messages", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 4, body["count"])

	var stored int
	require.NoError(t, a.db.GetContext(context.Background(), &stored, "SELECT COUNT(*) FROM conversations"))
	assert.Zero(t, stored)
}
