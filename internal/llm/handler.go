package llm

import (
	"context"

	"github.com/pennie-hq/eavesly/internal/prompt"
)

// Shape names the expected result structure of a completion. It selects
// the decode target and labels logs and errors.
type Shape string

const (
	ShapeClassification  Shape = "call_classification"
	ShapeScriptAdherence Shape = "script_adherence"
	ShapeCompliance      Shape = "compliance"
	ShapeCommunication   Shape = "communication"
	ShapeDeepDive        Shape = "deep_dive"
)

// Request is one structured completion call: a rendered descriptor plus
// the shape its output must decode into.
type Request struct {
	// Template is the template the descriptor was resolved from; carried
	// for logging and error context only.
	Template string

	Shape      Shape
	Descriptor prompt.InvocationDescriptor
}

// Usage is the provider-reported token accounting for one completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Response is the raw completion before shape decoding.
type Response struct {
	// Content is the model output; in JSON mode, a JSON document.
	Content string

	FinishReason string
	Usage        Usage

	// ProviderRequestID is OpenRouter's id for the call, for support
	// correlation.
	ProviderRequestID string
}

// Handler executes one completion request.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Handler with additional behavior.
type Middleware func(Handler) Handler

// Chain applies middlewares so the first listed is outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
