// Package ai defines the interface for AI-generated supplier insight
// analysis and provides a Groq-backed implementation with a deterministic
// rule-based fallback.
package ai

import (
	"context"
	"fmt"

	"github.com/procurelens/supplier-insights-backend/internal/model"
)

// Analyst is the interface the HTTP layer uses to generate insights.
// The concrete implementations are the Groq client (external path) and the
// orchestrator in orchestrator.go, which layers the external path over the
// rule engine. Tests inject stubs that return canned responses.
type Analyst interface {
	// GenerateInsights produces a complete, contract-conforming result for a
	// validated request.
	//
	// Implementations must be safe to call concurrently. A non-nil error
	// means the entire call failed; no partial result is ever returned
	// alongside an error.
	GenerateInsights(ctx context.Context, req *model.InsightRequest) (model.InsightResult, error)
}

// ─── ERROR TAXONOMY ──────────────────────────────────────────────────────────
// All three error kinds below are external-path failures. The orchestrator
// treats them identically — log and fall back — but keeping them distinct
// makes the logs say which stage gave up.

// UpstreamError is a non-success response from the chat-completion endpoint.
// It carries the HTTP status and a truncated response body for logging and
// is never retried.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai: upstream status %d: %.200s", e.Status, e.Body)
}

// ParseError means no JSON object could be recovered from the raw model
// output, even after brace extraction and repair.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ai: parse response: %v (raw: %.200s)", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NormalizationError means the parsed object was structurally impossible to
// coerce into the output contract (e.g. a confidence value that is neither a
// number nor a numeric string). Absent fields are not errors — they get
// defaults.
type NormalizationError struct {
	Field string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("ai: normalize field %q: %v", e.Field, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }
