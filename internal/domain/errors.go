package domain

import "errors"

var (
	// ErrInvalidRequest indicates an evaluation request that failed
	// contract validation before any stage ran.
	ErrInvalidRequest = errors.New("invalid evaluation request")

	// ErrInvalidResult indicates an LLM result shape that failed contract
	// validation after decoding.
	ErrInvalidResult = errors.New("invalid evaluation result")

	// ErrEmptyBatch indicates a batch request with no calls to evaluate.
	ErrEmptyBatch = errors.New("batch request contains no calls")

	// ErrBatchTooLarge indicates a batch request exceeding the configured
	// concurrency cap.
	ErrBatchTooLarge = errors.New("batch request exceeds maximum size")
)
