package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennie-hq/eavesly/internal/configuration"
	"github.com/pennie-hq/eavesly/internal/domain"
)

func testConfig(baseURL string) *configuration.Config {
	cfg := configuration.DefaultConfig()
	cfg.OpenRouter.BaseURL = baseURL
	cfg.OpenRouter.APIKey = "sk-or-test"
	cfg.Retry = fastRetry()
	return cfg
}

func completionBody(content string) string {
	payload := map[string]any{
		"id": "gen-abc123",
		"choices": []map[string]any{
			{
				"message":       map[string]string{"content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int64{
			"prompt_tokens":     812,
			"completion_tokens": 240,
			"total_tokens":      1052,
		},
	}
	out, _ := json.Marshal(payload)
	return string(out)
}

func TestClientComplete(t *testing.T) {
	var gotAuth, gotReferer, gotTitle string
	var gotPayload chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		fmt.Fprint(w, completionBody(`{"items":[],"summary":{}}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL), nil, nil)
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-or-test", gotAuth)
	assert.Equal(t, "https://trypennie.com", gotReferer)
	assert.Equal(t, "Pennie Call QA System", gotTitle)
	assert.Equal(t, "json_object", gotPayload.ResponseFormat.Type)
	assert.Equal(t, "openai/gpt-4o-2024-08-06", gotPayload.Model)

	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, int64(1052), resp.Usage.TotalTokens)
	assert.Equal(t, "gen-abc123", resp.ProviderRequestID)
}

func TestClientComplete_RejectsInvalidDescriptor(t *testing.T) {
	client := NewClientWithHandler(HandlerFunc(func(context.Context, *Request) (*Response, error) {
		t.Fatal("handler must not run for an invalid descriptor")
		return nil, nil
	}))

	req := testRequest()
	req.Descriptor.Model = ""
	_, err := client.Complete(context.Background(), req)
	assert.Error(t, err)
}

func TestClientComplete_ClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantType   ErrorType
		wantRetry  bool
	}{
		{"rate limited", http.StatusTooManyRequests, ErrorTypeRateLimit, true},
		{"unauthorized", http.StatusUnauthorized, ErrorTypeAuth, false},
		{"server error", http.StatusInternalServerError, ErrorTypeUnavailable, true},
		{"bad request", http.StatusBadRequest, ErrorTypeBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			cfg := testConfig(server.URL)
			cfg.Retry.MaxAttempts = 1
			client, err := NewClient(cfg, nil, nil)
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), testRequest())
			require.Error(t, err)
			assert.Equal(t, tt.wantRetry, IsRetryable(err))
			if tt.wantType != ErrorTypeRateLimit {
				var provider *ProviderError
				require.ErrorAs(t, err, &provider)
				assert.Equal(t, tt.wantType, provider.Type)
			}
		})
	}
}

func TestCompleteStructured(t *testing.T) {
	t.Run("decodes and validates the shape", func(t *testing.T) {
		content := `{
			"items": [{"name": "Recording disclosure", "status": "No Infraction"}],
			"summary": {
				"no_infraction": ["Recording disclosure"],
				"coaching_needed": [],
				"violations": [],
				"not_applicable": []
			}
		}`
		client := NewClientWithHandler(HandlerFunc(func(context.Context, *Request) (*Response, error) {
			return &Response{Content: content}, nil
		}))

		compliance, err := CompleteStructured[domain.Compliance](context.Background(), client, testRequest())
		require.NoError(t, err)
		assert.Equal(t, []string{"Recording disclosure"}, compliance.Summary.NoInfraction)
		assert.False(t, compliance.HasViolations())
	})

	t.Run("non-JSON content fails as shape decode", func(t *testing.T) {
		client := NewClientWithHandler(HandlerFunc(func(context.Context, *Request) (*Response, error) {
			return &Response{Content: "I'm sorry, I can't help with that."}, nil
		}))

		_, err := CompleteStructured[domain.Compliance](context.Background(), client, testRequest())
		var decodeErr *ShapeDecodeError
		require.ErrorAs(t, err, &decodeErr)
		assert.Equal(t, ShapeCompliance, decodeErr.Shape)
	})

	t.Run("schema violation fails validation", func(t *testing.T) {
		// Status outside the enum.
		content := `{"items": [{"name": "x", "status": "Sort Of Fine"}], "summary": {}}`
		client := NewClientWithHandler(HandlerFunc(func(context.Context, *Request) (*Response, error) {
			return &Response{Content: content}, nil
		}))

		_, err := CompleteStructured[domain.Compliance](context.Background(), client, testRequest())
		var decodeErr *ShapeDecodeError
		require.ErrorAs(t, err, &decodeErr)
	})
}

func TestOpenRouter_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"gen-1","choices":[],"usage":{}}`)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Retry.MaxAttempts = 1
	client, err := NewClient(cfg, nil, nil)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no choices")
}
