// Package store persists evaluation results. The backing store is a
// Supabase PostgREST table upserted by call id; persistence is best-effort
// and its failures never fail an evaluation.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pennie-hq/eavesly/internal/configuration"
	"github.com/pennie-hq/eavesly/internal/domain"
)

// EvaluationVersion tags stored rows with the scoring algorithm revision
// so downstream reporting can segment by it.
const EvaluationVersion = "v1"

// Record is one row of the evaluation results table. Column names follow
// the existing reporting schema.
type Record struct {
	CallID           string    `json:"call_id"`
	AgentID          string    `json:"agent_id"`
	CorrelationID    string    `json:"correlation_id"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	OverallScore     int       `json:"api_overall_score"`
	EvaluatedAt      time.Time `json:"api_evaluation_timestamp"`
	Version          string    `json:"evaluation_version"`

	Classification  domain.CallClassification `json:"classification_result"`
	ScriptDeviation domain.ScriptAdherence    `json:"script_deviation_result"`
	Compliance      domain.Compliance         `json:"compliance_result"`
	Communication   domain.Communication      `json:"communication_result"`
	DeepDive        *domain.DeepDive          `json:"deep_dive_result"`
}

// ResultStore persists evaluation rows.
type ResultStore interface {
	UpsertEvaluation(ctx context.Context, record *Record) error
}

// SupabaseStore talks to the PostgREST endpoint of a Supabase project with
// the service role key.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	table      string
	httpClient *http.Client
	retry      configuration.RetryConfig
	logger     *slog.Logger
}

// NewSupabaseStore builds the store from configuration.
func NewSupabaseStore(
	cfg configuration.SupabaseConfig,
	retry configuration.RetryConfig,
	httpClient *http.Client,
	logger *slog.Logger,
) *SupabaseStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SupabaseStore{
		baseURL:    cfg.URL,
		serviceKey: cfg.ServiceRoleKey,
		table:      cfg.Table,
		httpClient: httpClient,
		retry:      retry,
		logger:     logger.With("component", "store"),
	}
}

// UpsertEvaluation writes the record, replacing any existing row for the
// same call id. Transient failures are retried with a linear pause; the
// caller treats any returned error as log-only.
func (s *SupabaseStore) UpsertEvaluation(ctx context.Context, record *Record) error {
	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(s.retry.InitialInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retryable, err := s.upsertOnce(ctx, record)
		if err == nil {
			s.logger.InfoContext(ctx, "evaluation stored",
				"call_id", record.CallID,
				"correlation_id", record.CorrelationID,
				"overall_score", record.OverallScore)
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("upsert exhausted %d attempts: %w", s.retry.MaxAttempts, lastErr)
}

func (s *SupabaseStore) upsertOnce(ctx context.Context, record *Record) (retryable bool, err error) {
	// PostgREST bulk insert takes an array even for one row.
	body, err := json.Marshal([]*Record{record})
	if err != nil {
		return false, fmt.Errorf("marshal evaluation record: %w", err)
	}

	url := fmt.Sprintf("%s/rest/v1/%s?on_conflict=call_id", s.baseURL, s.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build upsert request: %w", err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("upsert request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return false, nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	err = fmt.Errorf("upsert returned %d: %s", resp.StatusCode, detail)
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
}

// NoopStore discards records. Used when persistence is not configured so
// the rest of the pipeline behaves identically.
type NoopStore struct {
	logger *slog.Logger
}

// NewNoopStore returns a store that logs and drops every record.
func NewNoopStore(logger *slog.Logger) *NoopStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopStore{logger: logger.With("component", "store")}
}

func (s *NoopStore) UpsertEvaluation(ctx context.Context, record *Record) error {
	s.logger.DebugContext(ctx, "persistence disabled; dropping evaluation record",
		"call_id", record.CallID)
	return nil
}
