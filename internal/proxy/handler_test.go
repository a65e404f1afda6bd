package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/reqlog"
	"github.com/aicodeswitch/aicodeswitch/internal/sse"
)

// fakeStore is a minimal in-memory config.Store fixture, avoiding the
// filesystem so these tests exercise the Proxy Engine only.
type fakeStore struct {
	routes   []config.Route
	rules    map[string][]config.Rule
	services []config.APIService
	vendors  []config.Vendor
	app      config.AppConfig
}

func (f *fakeStore) ListActiveRoutes(context.Context) ([]config.Route, error) { return f.routes, nil }
func (f *fakeStore) ListRules(_ context.Context, routeID string) ([]config.Rule, error) {
	return f.rules[routeID], nil
}
func (f *fakeStore) ListServices(context.Context) ([]config.APIService, error) {
	return f.services, nil
}
func (f *fakeStore) GetVendors(context.Context) ([]config.Vendor, error) { return f.vendors, nil }
func (f *fakeStore) GetConfig(context.Context) (config.AppConfig, error) { return f.app, nil }

func newTestEngine(t *testing.T, upstreamURL string, apiKey string) *Engine {
	t.Helper()

	store := &fakeStore{
		routes: []config.Route{
			{ID: "route-cc", Name: "claude code", TargetType: config.TargetClaudeCode, IsActive: true},
		},
		rules: map[string][]config.Rule{
			"route-cc": {
				{ID: "rule-default", RouteID: "route-cc", ContentType: config.ContentDefault, TargetServiceID: "svc-1"},
			},
		},
		services: []config.APIService{
			{ID: "svc-1", VendorID: "vendor-1", Name: "test service", APIURL: upstreamURL, APIKey: "upstream-key", SourceType: config.SourceClaudeChat},
		},
		vendors: []config.Vendor{{ID: "vendor-1", Name: "Test Vendor"}},
		app:     config.AppConfig{EnableLogging: true, APIKey: apiKey},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := config.NewManager(store, logger)
	require.NoError(t, mgr.Reload(context.Background()))

	return New(mgr, reqlog.NewMemorySink(), logger)
}

func TestEngine_PassThroughMessages(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "upstream-key", r.Header.Get("x-api-key"))
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "claude-3-5-sonnet", got["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "msg_1", "model": "claude-3-5-sonnet",
			"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer upstream.Close()

	engine := newTestEngine(t, upstream.URL, "")

	reqBody, _ := json.Marshal(map[string]any{"model": "claude-3-5-sonnet", "messages": []any{}})
	req := httptest.NewRequest(http.MethodPost, "/claude-code/v1/messages", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()

	engine.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "msg_1", got["id"])
}

func TestEngine_RejectsBadAPIKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream should not be dispatched to when auth fails")
	}))
	defer upstream.Close()

	engine := newTestEngine(t, upstream.URL, "secret")

	reqBody, _ := json.Marshal(map[string]any{"model": "claude-3-5-sonnet"})
	req := httptest.NewRequest(http.MethodPost, "/claude-code/v1/messages", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()

	engine.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestEngine_AcceptsValidAPIKey(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "msg_2"})
	}))
	defer upstream.Close()

	engine := newTestEngine(t, upstream.URL, "secret")

	reqBody, _ := json.Marshal(map[string]any{"model": "claude-3-5-sonnet"})
	req := httptest.NewRequest(http.MethodPost, "/claude-code/v1/messages", bytes.NewReader(reqBody))
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()

	engine.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestEngine_UnknownPathIs404(t *testing.T) {
	engine := newTestEngine(t, "http://example.invalid", "")

	req := httptest.NewRequest(http.MethodGet, "/not-a-route", nil)
	rr := httptest.NewRecorder()

	engine.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEngine_StreamingPassThroughReassemblesSSE(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		writer := sse.NewWriter(w)
		_ = writer.WriteJSON("message_start", "", map[string]any{"type": "message_start"})
		_ = writer.WriteEvent(sse.Event{Done: true})
	}))
	defer upstream.Close()

	engine := newTestEngine(t, upstream.URL, "")

	reqBody, _ := json.Marshal(map[string]any{"model": "claude-3-5-sonnet", "stream": true})
	req := httptest.NewRequest(http.MethodPost, "/claude-code/v1/messages", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()

	engine.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, rr.Body.String(), "message_start")
	assert.Contains(t, rr.Body.String(), "[DONE]")
}

func TestEngine_ChatToMessagesStreamingTranslation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		writer := sse.NewWriter(w)
		_ = writer.WriteEvent(sse.Event{Data: `{"id":"chatcmpl-1","choices":[{"delta":{"content":"he"}}]}`})
		_ = writer.WriteEvent(sse.Event{Data: `{"choices":[{"delta":{"content":"llo"}}]}`})
		_ = writer.WriteEvent(sse.Event{Data: `{"choices":[{"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":2}}`})
		_ = writer.WriteEvent(sse.Event{Done: true})
	}))
	defer upstream.Close()

	store := &fakeStore{
		routes: []config.Route{{ID: "route-cc", TargetType: config.TargetClaudeCode, IsActive: true}},
		rules: map[string][]config.Rule{
			"route-cc": {{ID: "rule-default", RouteID: "route-cc", ContentType: config.ContentDefault, TargetServiceID: "svc-chat"}},
		},
		services: []config.APIService{
			{ID: "svc-chat", VendorID: "vendor-1", APIURL: upstream.URL, APIKey: "k", SourceType: config.SourceOpenAIChat},
		},
		vendors: []config.Vendor{{ID: "vendor-1", Name: "Test Vendor"}},
		app:     config.AppConfig{EnableLogging: true},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := config.NewManager(store, logger)
	require.NoError(t, mgr.Reload(context.Background()))
	engine := New(mgr, reqlog.NewMemorySink(), logger)

	reqBody, _ := json.Marshal(map[string]any{
		"model":    "gpt-4o",
		"stream":   true,
		"messages": []any{map[string]any{"role": "user", "content": "hello"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/claude-code/v1/messages", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()

	engine.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/event-stream")

	var types []string
	reader := sse.NewReader(bytes.NewReader(rr.Body.Bytes()))
	for {
		ev, err := reader.Next()
		if err != nil {
			break
		}
		require.False(t, ev.Done, "translated Messages stream must not carry the [DONE] sentinel")
		types = append(types, ev.Type)
	}

	assert.Equal(t, []string{
		"message_start",
		"content_block_start",
		"content_block_delta",
		"content_block_delta",
		"content_block_stop",
		"message_delta",
		"message_stop",
	}, types)
}

func TestEngine_ChatToMessagesNonStreamingTranslation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		// request was translated from Messages to Chat-Completions shape.
		assert.Contains(t, got, "messages")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"model":   "gpt-4o",
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "hi"}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	defer upstream.Close()

	store := &fakeStore{
		routes: []config.Route{{ID: "route-cc", TargetType: config.TargetClaudeCode, IsActive: true}},
		rules: map[string][]config.Rule{
			"route-cc": {{ID: "rule-default", RouteID: "route-cc", ContentType: config.ContentDefault, TargetServiceID: "svc-chat"}},
		},
		services: []config.APIService{
			{ID: "svc-chat", VendorID: "vendor-1", APIURL: upstream.URL, APIKey: "k", SourceType: config.SourceOpenAIChat},
		},
		vendors: []config.Vendor{{ID: "vendor-1", Name: "Test Vendor"}},
		app:     config.AppConfig{EnableLogging: true},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := config.NewManager(store, logger)
	require.NoError(t, mgr.Reload(context.Background()))
	engine := New(mgr, reqlog.NewMemorySink(), logger)

	reqBody, _ := json.Marshal(map[string]any{
		"model":    "gpt-4o",
		"messages": []any{map[string]any{"role": "user", "content": "hello"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/claude-code/v1/messages", bytes.NewReader(reqBody))
	rr := httptest.NewRecorder()

	engine.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	// response was translated back from Chat-Completions to Messages shape.
	assert.Equal(t, "message", got["type"])
	usage, ok := got["usage"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, usage["input_tokens"])
}
