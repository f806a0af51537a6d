// Package llm executes rendered prompt descriptors against OpenRouter and
// decodes the completions into validated domain result shapes.
//
// The transport is a middleware chain over a small Handler interface:
//
//	logging -> retry -> OpenRouter HTTP core
//
// Logging observes every attempt's outcome; retry owns the bounded
// exponential backoff (this client is the only retry layer — Temporal
// activity retries are capped at one attempt); the core speaks the
// chat-completions protocol in JSON mode and classifies failures into the
// typed errors in errors.go.
package llm
