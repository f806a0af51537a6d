// Package configuration defines the explicit configuration object for the
// evaluation worker. The config is built once at process start (defaults
// overlaid with environment variables) and passed by reference into
// constructors; no component reads ambient global state for its knobs.
package configuration

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names. Secrets are referenced by name only and are
// never serialized or logged.
const (
	EnvOpenRouterAPIKey  = "OPENROUTER_API_KEY"
	EnvOpenRouterModel   = "OPENROUTER_MODEL"
	EnvPromptLayerAPIKey = "PROMPTLAYER_API_KEY"
	EnvSupabaseURL       = "SUPABASE_URL"
	EnvSupabaseKey       = "SUPABASE_SERVICE_ROLE_KEY"
	EnvTemporalAddress   = "TEMPORAL_ADDRESS"
	EnvTemporalNamespace = "TEMPORAL_NAMESPACE"
	EnvTaskQueue         = "TASK_QUEUE"
	EnvMaxConcurrent     = "MAX_CONCURRENT_EVALUATIONS"
	EnvLogLevel          = "LOG_LEVEL"
	EnvRedactPrompts     = "REDACT_PROMPTS"
	EnvTemplateCacheTTL  = "TEMPLATE_CACHE_TTL_SECONDS"
)

var (
	ErrMissingOpenRouterKey  = errors.New("openrouter api key not configured")
	ErrMissingPromptLayerKey = errors.New("promptlayer api key not configured")
)

// TemporalConfig locates the Temporal cluster.
type TemporalConfig struct {
	HostPort  string
	Namespace string
}

// WorkerConfig tunes the worker process.
type WorkerConfig struct {
	TaskQueue string

	// MaxConcurrentEvaluations caps batch size and worker-side activity
	// concurrency.
	MaxConcurrentEvaluations int
}

// OpenRouterConfig tunes the structured completion client.
type OpenRouterConfig struct {
	BaseURL string
	APIKey  string

	// Model is the default model; templates may override it through
	// their own llm_kwargs.
	Model string

	// Referer and AppTitle populate OpenRouter's attribution headers.
	Referer  string
	AppTitle string

	Timeout time.Duration
}

// PromptLayerConfig tunes the template provider client.
type PromptLayerConfig struct {
	BaseURL string
	APIKey  string

	// Label selects the template release channel.
	Label string

	// CacheTTL bounds how long a fetched template stays fresh.
	CacheTTL time.Duration

	Timeout time.Duration
}

// SupabaseConfig tunes the results store. An empty URL disables
// persistence (results are still returned to the caller).
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	Table          string
	Timeout        time.Duration
}

// RetryConfig governs the bounded retry inside the HTTP collaborators.
// Temporal-level activity retries stay at a single attempt so the
// collaborator cap is the overall cap.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	UseJitter       bool
}

// ObservabilityConfig tunes logging behavior.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// RedactPrompts drops prompt and transcript content from logs.
	// Transcripts contain customer PII; keep this on outside development.
	RedactPrompts bool
}

// Config is the complete worker configuration.
type Config struct {
	Temporal      TemporalConfig
	Worker        WorkerConfig
	OpenRouter    OpenRouterConfig
	PromptLayer   PromptLayerConfig
	Supabase      SupabaseConfig
	Retry         RetryConfig
	Observability ObservabilityConfig
}

// DefaultConfig returns production defaults with no secrets filled in.
func DefaultConfig() *Config {
	return &Config{
		Temporal: TemporalConfig{
			HostPort:  "localhost:7233",
			Namespace: "default",
		},
		Worker: WorkerConfig{
			TaskQueue:                "call-qa-evaluation",
			MaxConcurrentEvaluations: 5,
		},
		OpenRouter: OpenRouterConfig{
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "openai/gpt-4o-2024-08-06",
			Referer:  "https://trypennie.com",
			AppTitle: "Pennie Call QA System",
			Timeout:  30 * time.Second,
		},
		PromptLayer: PromptLayerConfig{
			BaseURL:  "https://api.promptlayer.com",
			Label:    "prod",
			CacheTTL: 5 * time.Minute,
			Timeout:  30 * time.Second,
		},
		Supabase: SupabaseConfig{
			Table:   "eavesly_transcription_qa",
			Timeout: 10 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 2 * time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2.0,
			UseJitter:       true,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			RedactPrompts: true,
		},
	}
}

// FromEnv builds the configuration from defaults overlaid with environment
// variables, then validates it.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()

	setString(&cfg.Temporal.HostPort, EnvTemporalAddress)
	setString(&cfg.Temporal.Namespace, EnvTemporalNamespace)
	setString(&cfg.Worker.TaskQueue, EnvTaskQueue)
	setString(&cfg.OpenRouter.APIKey, EnvOpenRouterAPIKey)
	setString(&cfg.OpenRouter.Model, EnvOpenRouterModel)
	setString(&cfg.PromptLayer.APIKey, EnvPromptLayerAPIKey)
	setString(&cfg.Supabase.URL, EnvSupabaseURL)
	setString(&cfg.Supabase.ServiceRoleKey, EnvSupabaseKey)
	setString(&cfg.Observability.LogLevel, EnvLogLevel)

	if v := os.Getenv(EnvMaxConcurrent); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s: %q", EnvMaxConcurrent, v)
		}
		cfg.Worker.MaxConcurrentEvaluations = n
	}
	if v := os.Getenv(EnvTemplateCacheTTL); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 1 {
			return nil, fmt.Errorf("invalid %s: %q", EnvTemplateCacheTTL, v)
		}
		cfg.PromptLayer.CacheTTL = time.Duration(secs) * time.Second
	}
	if v := os.Getenv(EnvRedactPrompts); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", EnvRedactPrompts, v)
		}
		cfg.Observability.RedactPrompts = b
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the configuration the worker cannot run
// without. Supabase is optional: without it results are returned but not
// persisted.
func (c *Config) Validate() error {
	if c.OpenRouter.APIKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingOpenRouterKey, EnvOpenRouterAPIKey)
	}
	if c.PromptLayer.APIKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingPromptLayerKey, EnvPromptLayerAPIKey)
	}
	if c.Supabase.URL != "" && c.Supabase.ServiceRoleKey == "" {
		return fmt.Errorf("supabase url set but %s is empty", EnvSupabaseKey)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Worker.MaxConcurrentEvaluations < 1 {
		return fmt.Errorf("max concurrent evaluations must be at least 1, got %d",
			c.Worker.MaxConcurrentEvaluations)
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
