package evaluation

import (
	"go.temporal.io/sdk/temporal"

	"github.com/pennie-hq/eavesly/internal/llm"
	"github.com/pennie-hq/eavesly/internal/prompt"
)

// Application error types surfaced to the workflow. The workflow never
// retries activities (the collaborators own the attempt budget), but the
// retryable/non-retryable split still matters: it tells operators whether
// re-running the workflow could help.
const (
	errTypeValidation  = "ValidationError"
	errTypeTemplate    = "TemplateError"
	errTypeCompletion  = "CompletionError"
	errTypePersistence = "PersistenceError"
)

func nonRetryable(errType string, err error) error {
	return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
}

func retryable(errType string, err error) error {
	return temporal.NewApplicationError(err.Error(), errType, err)
}

// classifyTemplateError maps template-provider failures onto application
// errors. A missing or broken template will not fix itself on retry.
func classifyTemplateError(err error) error {
	if prompt.IsRetryable(err) {
		return retryable(errTypeTemplate, err)
	}
	return nonRetryable(errTypeTemplate, err)
}

// classifyCompletionError maps completion failures onto application
// errors.
func classifyCompletionError(err error) error {
	if llm.IsRetryable(err) {
		return retryable(errTypeCompletion, err)
	}
	return nonRetryable(errTypeCompletion, err)
}
