package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/procurelens/supplier-insights-backend/internal/model"
	"github.com/procurelens/supplier-insights-backend/internal/rules"
)

// orchestrator layers the external analysis path over the deterministic rule
// engine. It tries the external Analyst first; any failure there — upstream,
// parse, normalization, or anything unexpected — is logged and superseded by
// rule-engine output. External may be nil, which pins the process to
// fallback-only mode for its whole lifetime (the choice is made once, in
// main, from configuration — never per request).
type orchestrator struct {
	external Analyst
	logger   *slog.Logger
}

// NewOrchestrator returns the Analyst the HTTP layer should use.
func NewOrchestrator(external Analyst, logger *slog.Logger) Analyst {
	return &orchestrator{
		external: external,
		logger:   logger,
	}
}

// GenerateInsights tries the external path, then falls back. The only error
// it can return is a rule-engine failure, which is unreachable on validated
// input but handled defensively — callers see it as a generic failure.
func (o *orchestrator) GenerateInsights(ctx context.Context, req *model.InsightRequest) (model.InsightResult, error) {
	if o.external != nil {
		result, err := o.generateExternal(ctx, req)
		if err == nil {
			return result, nil
		}
		o.logger.Warn("ai: external analysis failed, using rule-based fallback",
			"error", err,
			"category", req.Category,
			"suppliers", req.SupplierCount(),
		)
	}

	return o.generateFallback(req)
}

// generateExternal runs the external Analyst, converting a panic into an
// ordinary error so that every unexpected failure mode — not just returned
// errors — falls through to the rule engine.
func (o *orchestrator) generateExternal(ctx context.Context, req *model.InsightRequest) (result model.InsightResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = model.InsightResult{}
			err = fmt.Errorf("ai: external path panicked: %v", r)
		}
	}()

	return o.external.GenerateInsights(ctx, req)
}

// generateFallback runs the rule engine. It is pure arithmetic over
// already-validated fields, so a panic here indicates a bug — recover it
// into the one failure mode visible beyond the process boundary rather than
// killing the request goroutine.
func (o *orchestrator) generateFallback(req *model.InsightRequest) (result model.InsightResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("ai: rule-based fallback panicked", "panic", r, "category", req.Category)
			result = model.InsightResult{}
			err = fmt.Errorf("ai: insight generation failed")
		}
	}()

	return rules.Generate(req), nil
}
