// Package prompt resolves managed prompt templates into ready-to-execute
// LLM invocation descriptors. Templates live in PromptLayer; resolving one
// renders its variables server-side and returns the complete model call
// parameters, so prompt content never lives in this codebase.
package prompt

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Message is one chat message of a rendered template.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// InvocationDescriptor is a fully rendered model call: everything the
// completion client needs, nothing it has to add. It mirrors the
// llm_kwargs object PromptLayer returns.
type InvocationDescriptor struct {
	Model    string    `json:"model" validate:"required,min=1"`
	Messages []Message `json:"messages" validate:"required,min=1,dive"`

	// Temperature and MaxTokens are optional template-level overrides.
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
}

// Validate checks that the descriptor is executable.
func (d *InvocationDescriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid invocation descriptor: %w", err)
	}
	return nil
}
