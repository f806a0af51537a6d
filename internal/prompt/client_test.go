package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennie-hq/eavesly/internal/configuration"
)

func testRetry() configuration.RetryConfig {
	return configuration.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClient(configuration.PromptLayerConfig{
		BaseURL:  serverURL,
		APIKey:   "pl-test",
		Label:    "prod",
		CacheTTL: time.Minute,
		Timeout:  time.Second,
	}, testRetry(), nil, nil)
	require.NoError(t, err)
	return client
}

func kwargsBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"llm_kwargs": map[string]any{
			"model": "openai/gpt-4o-2024-08-06",
			"messages": []map[string]string{
				{"role": "system", "content": "You are a call QA evaluator."},
				{"role": "user", "content": "Evaluate this transcript."},
			},
			"temperature": 0.3,
			"max_tokens":  2000,
		},
	})
	require.NoError(t, err)
	return body
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(configuration.PromptLayerConfig{}, testRetry(), nil, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestResolve(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody executeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write(kwargsBody(t))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	descriptor, err := client.Resolve(context.Background(), "call_qa_compliance", map[string]any{
		"transcript": "Agent: hello...",
	})
	require.NoError(t, err)

	assert.Equal(t, "/prompt-templates/call_qa_compliance", gotPath)
	assert.Equal(t, "pl-test", gotAPIKey)
	assert.Equal(t, "prod", gotBody.Label)
	assert.Equal(t, "Agent: hello...", gotBody.InputVariables["transcript"])

	assert.Equal(t, "openai/gpt-4o-2024-08-06", descriptor.Model)
	require.Len(t, descriptor.Messages, 2)
	assert.Equal(t, "system", descriptor.Messages[0].Role)
	require.NotNil(t, descriptor.Temperature)
	assert.InDelta(t, 0.3, *descriptor.Temperature, 1e-9)
}

func TestResolve_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Resolve(context.Background(), "call_qa_missing", nil)

	var notFound *TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "call_qa_missing", notFound.Template)
	assert.False(t, IsRetryable(err))
}

func TestResolve_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":"upstream hiccup"}`, http.StatusBadGateway)
			return
		}
		w.Write(kwargsBody(t))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	descriptor, err := client.Resolve(context.Background(), "call_qa_communication", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.NotEmpty(t, descriptor.Model)
}

func TestResolve_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"down"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Resolve(context.Background(), "call_qa_compliance", nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolve_InvalidKwargs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing llm_kwargs", `{"metadata":{}}`},
		{"missing model", `{"llm_kwargs":{"messages":[{"role":"user","content":"x"}]}}`},
		{"missing messages", `{"llm_kwargs":{"model":"openai/gpt-4o"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Resolve(context.Background(), "call_qa_compliance", nil)

			var invalid *TemplateInvalidError
			require.ErrorAs(t, err, &invalid)
			assert.False(t, IsRetryable(err))
		})
	}
}

func TestFetchTemplate_Caches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"id":1,"prompt_name":"call_qa_compliance","prompt_template":[]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchTemplate(context.Background(), "call_qa_compliance")
	require.NoError(t, err)
	_, err = client.FetchTemplate(context.Background(), "call_qa_compliance")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "second fetch must hit the cache")

	stats := client.Stats()
	assert.Equal(t, 1, stats.TotalCached)
	assert.Equal(t, 1, stats.ValidCached)

	client.ClearCache("call_qa_compliance")
	assert.Zero(t, client.Stats().TotalCached)

	_, err = client.FetchTemplate(context.Background(), "call_qa_compliance")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
