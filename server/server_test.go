package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reasonalabs/reasona/agent"
	"github.com/reasonalabs/reasona/model"
	"github.com/reasonalabs/reasona/tool"
)

func newTestServer(t *testing.T) (*Server, *agent.Conductor) {
	t.Helper()

	c, err := agent.New("api-agent", func(o *agent.Options) {
		o.Model = model.NewMockModel("test-model")
		o.Instructions = "You answer questions for the API tests."
		o.Tools = []tool.Tool{tool.NewCalculator()}
	})
	require.NoError(t, err)

	return New(c), c
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

// -------------------- Health and discovery --------------------

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "healthy", got["status"])
	assert.NotEmpty(t, got["timestamp"])
	assert.NotEmpty(t, got["version"])
}

func TestAgentInfo(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/agent", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "api-agent", got["name"])
	assert.Equal(t, "mock/test-model", got["model"])
	assert.Equal(t, "active", got["status"])
	assert.Equal(t, []any{"calculator"}, got["tools"])
}

func TestAgentCard(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/.well-known/agent-card.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "api-agent", got["name"])
	assert.Contains(t, got["capabilities"], "tool_use")
	assert.Contains(t, got["skills"], "calculator")
}

// -------------------- Think --------------------

func TestThink(t *testing.T) {
	s, c := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/think", `{"input": "hello"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	assert.Equal(t, "Mock response to: hello", got["output"])
	assert.Equal(t, "mock/test-model", got["model"])
	assert.Len(t, c.History(), 2)
}

func TestThinkChatAlias(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/chat", `{"input": "hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mock response to: hi", decodeBody(t, rec)["output"])
}

func TestThinkValidation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/think", `{"stream": false}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "input is required", decodeBody(t, rec)["error"])

	rec = doRequest(t, s, http.MethodPost, "/v1/think", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestThinkStream(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/v1/think", `{"input": "hello", "stream": true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "data: Mock ")
	assert.Contains(t, body, "hello")
	// Every chunk is a separate SSE event.
	assert.GreaterOrEqual(t, strings.Count(body, "data: "), 2)
}

// -------------------- Reset and tools --------------------

func TestReset(t *testing.T) {
	s, c := newTestServer(t)

	doRequest(t, s, http.MethodPost, "/v1/think", `{"input": "hello"}`)
	require.Len(t, c.History(), 2)

	rec := doRequest(t, s, http.MethodPost, "/v1/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.Empty(t, c.History())
}

func TestListTools(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/tools", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	tools, ok := got["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)

	entry := tools[0].(map[string]any)
	assert.Equal(t, "calculator", entry["name"])
	assert.NotEmpty(t, entry["description"])
	assert.NotNil(t, entry["schema"])
}

// -------------------- Routing --------------------

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/think", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodOptions, "/v1/think", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
