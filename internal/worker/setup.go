// Package worker wires the evaluation pipeline's collaborators together
// and registers them with a Temporal worker. Initialization logic lives
// here so the activity packages stay free of construction concerns.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pennie-hq/eavesly/internal/configuration"
	"github.com/pennie-hq/eavesly/internal/evaluation"
	"github.com/pennie-hq/eavesly/internal/llm"
	"github.com/pennie-hq/eavesly/internal/prompt"
	"github.com/pennie-hq/eavesly/internal/store"
	"github.com/pennie-hq/eavesly/pkg/activity"
	"github.com/pennie-hq/eavesly/pkg/events"
)

// InitializeActivities builds the evaluation activities with their full
// collaborator stack: template resolver, completion client, results store,
// and event sink.
func InitializeActivities(cfg *configuration.Config, logger *slog.Logger) (*evaluation.Activities, *prompt.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resolver, err := prompt.NewClient(cfg.PromptLayer, cfg.Retry, nil, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize template client: %w", err)
	}

	llmClient, err := llm.NewClient(cfg, nil, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize completion client: %w", err)
	}

	results := InitializeResultStore(cfg, logger)
	base := activity.NewBaseActivities(events.NewLogEventSink(logger))

	return evaluation.NewActivities(base, resolver, llmClient, results), resolver, nil
}

// InitializeResultStore returns the Supabase-backed store when persistence
// is configured and a logging no-op store otherwise, so the pipeline
// behaves identically either way.
func InitializeResultStore(cfg *configuration.Config, logger *slog.Logger) store.ResultStore {
	if cfg.Supabase.URL == "" {
		logger.Warn("supabase not configured, evaluation results will not be persisted")
		return store.NewNoopStore(logger)
	}
	return store.NewSupabaseStore(cfg.Supabase, cfg.Retry, nil, logger)
}

// VerifyTemplates fetches every stage template once so a misnamed or
// missing template surfaces at startup instead of on the first call.
func VerifyTemplates(ctx context.Context, resolver *prompt.Client, logger *slog.Logger) error {
	templates := []string{
		evaluation.TemplateClassifier,
		evaluation.TemplateScriptDeviation,
		evaluation.TemplateCompliance,
		evaluation.TemplateCommunication,
		evaluation.TemplateDeepDive,
	}

	for _, name := range templates {
		if _, err := resolver.FetchTemplate(ctx, name); err != nil {
			return fmt.Errorf("verify template %q: %w", name, err)
		}
		logger.Debug("template verified", "template", name)
	}
	return nil
}
