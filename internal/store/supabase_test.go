package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennie-hq/eavesly/internal/configuration"
	"github.com/pennie-hq/eavesly/internal/domain"
)

func testRecord() *Record {
	return &Record{
		CallID:           "call-123",
		AgentID:          "agent-7",
		CorrelationID:    "eval_deadbeef",
		ProcessingTimeMs: 5400,
		OverallScore:     88,
		EvaluatedAt:      time.Date(2025, 3, 14, 15, 9, 0, 0, time.UTC),
		Version:          EvaluationVersion,
		Classification: domain.CallClassification{
			CallOutcome: domain.CallOutcomeCompleted,
		},
		ScriptDeviation: domain.ScriptAdherence{Sections: map[string]domain.SectionEvaluation{}},
		Compliance:      domain.Compliance{},
		Communication:   domain.Communication{},
	}
}

func newTestStore(t *testing.T, url string, attempts int) *SupabaseStore {
	t.Helper()
	return NewSupabaseStore(
		configuration.SupabaseConfig{
			URL:            url,
			ServiceRoleKey: "service-key",
			Table:          "eavesly_transcription_qa",
			Timeout:        time.Second,
		},
		configuration.RetryConfig{MaxAttempts: attempts, InitialInterval: time.Millisecond},
		nil, nil,
	)
}

func TestUpsertEvaluation(t *testing.T) {
	var gotPath, gotQuery, gotPrefer, gotAuth string
	var gotRows []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotPrefer = r.Header.Get("Prefer")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRows))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL, 3)
	require.NoError(t, store.UpsertEvaluation(context.Background(), testRecord()))

	assert.Equal(t, "/rest/v1/eavesly_transcription_qa", gotPath)
	assert.Equal(t, "on_conflict=call_id", gotQuery)
	assert.Equal(t, "resolution=merge-duplicates,return=minimal", gotPrefer)
	assert.Equal(t, "Bearer service-key", gotAuth)

	require.Len(t, gotRows, 1)
	row := gotRows[0]
	assert.Equal(t, "call-123", row["call_id"])
	assert.Equal(t, float64(88), row["api_overall_score"])
	assert.Equal(t, "v1", row["evaluation_version"])
	assert.Contains(t, row, "classification_result")
	assert.Contains(t, row, "deep_dive_result")
	assert.Nil(t, row["deep_dive_result"], "absent deep dive must serialize as null")
}

func TestUpsertEvaluation_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL, 3)
	require.NoError(t, store.UpsertEvaluation(context.Background(), testRecord()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestUpsertEvaluation_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message":"column does not exist"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL, 3)
	err := store.UpsertEvaluation(context.Background(), testRecord())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNoopStore(t *testing.T) {
	store := NewNoopStore(nil)
	assert.NoError(t, store.UpsertEvaluation(context.Background(), testRecord()))
}
