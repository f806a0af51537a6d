package prompt

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey indicates the client was constructed without
// credentials.
var ErrMissingAPIKey = errors.New("promptlayer api key is required")

// TemplateNotFoundError reports a template name the provider does not
// know. Not retryable: the name is wrong, not the network.
type TemplateNotFoundError struct {
	Template string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Template)
}

// TemplateInvalidError reports a provider response that does not contain a
// usable invocation descriptor. Not retryable: the template itself is
// broken.
type TemplateInvalidError struct {
	Template string
	Reason   string
}

func (e *TemplateInvalidError) Error() string {
	return fmt.Sprintf("template %q invalid: %s", e.Template, e.Reason)
}

// APIError reports a failed provider call. StatusCode 0 means the request
// never got a response (network failure).
type APIError struct {
	Template   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("promptlayer request for %q failed: %s", e.Template, e.Message)
	}
	return fmt.Sprintf("promptlayer returned %d for %q: %s", e.StatusCode, e.Template, e.Message)
}

// Retryable reports whether the failure is plausibly transient.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// IsRetryable classifies any error this package returns.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
