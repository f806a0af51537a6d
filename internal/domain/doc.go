// Package domain defines the contracts shared by the call-QA evaluation
// pipeline: the evaluation request, the five LLM result shapes, the
// activity input/output types, and the pure functions that turn a set of
// stage results into a deep-dive decision, an overall score, and a
// coaching summary.
//
// Nothing in this package performs I/O. Workflows and activities depend on
// it; it depends on nothing above it.
package domain
