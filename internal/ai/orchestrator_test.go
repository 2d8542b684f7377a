package ai_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/procurelens/supplier-insights-backend/internal/ai"
	"github.com/procurelens/supplier-insights-backend/internal/model"
	"github.com/procurelens/supplier-insights-backend/internal/rules"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

type stubAnalyst struct {
	result model.InsightResult
	err    error
	calls  int
}

func (s *stubAnalyst) GenerateInsights(_ context.Context, _ *model.InsightRequest) (model.InsightResult, error) {
	s.calls++
	return s.result, s.err
}

// panickyAnalyst simulates an unexpected external-path failure mode.
type panickyAnalyst struct{}

func (panickyAnalyst) GenerateInsights(_ context.Context, _ *model.InsightRequest) (model.InsightResult, error) {
	panic("unexpected")
}

// discardLogger returns a *slog.Logger that silently drops all log output.
// Use this instead of nil — the orchestrator calls logger.Warn() which
// panics on nil.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func orchestratorRequest() *model.InsightRequest {
	return &model.InsightRequest{
		Category: "Logistics Services",
		Suppliers: []model.SupplierRecord{
			{SupplierName: "FastFreight", AnnualSpendUSD: 2_500_000, OnTimeDeliveryPct: 88,
				ContractExpiryMonths: 5, Region: "Europe"},
			{SupplierName: "OceanLink", AnnualSpendUSD: 1_500_000, OnTimeDeliveryPct: 96,
				ContractExpiryMonths: 18, Region: "APAC"},
		},
	}
}

// ─── Orchestrator ─────────────────────────────────────────────────────────────

func TestOrchestrator_ExternalSucceeds(t *testing.T) {
	external := &stubAnalyst{
		result: model.InsightResult{
			Category:                     "Logistics Services",
			OverallRiskLevel:             model.RiskMedium,
			KeyRisks:                     []string{"external risk"},
			NegotiationLevers:            []string{"external lever"},
			RecommendedActionsNext90Days: []string{"external action"},
			ConfidenceScore:              0.9,
		},
	}

	analyst := ai.NewOrchestrator(external, discardLogger())
	res, err := analyst.GenerateInsights(context.Background(), orchestratorRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.KeyRisks[0] != "external risk" {
		t.Errorf("expected external result, got: %+v", res)
	}
	if external.calls != 1 {
		t.Errorf("external should be called once, got %d calls", external.calls)
	}
}

func TestOrchestrator_ExternalFailureFallsBack(t *testing.T) {
	req := orchestratorRequest()
	want := rules.Generate(req)

	// Every external-path error kind must produce identical fallback output.
	failures := []error{
		&ai.UpstreamError{Status: 500, Body: "internal"},
		&ai.ParseError{Raw: "not json", Err: errors.New("no JSON object recovered")},
		&ai.NormalizationError{Field: "confidence_score", Err: errors.New("non-numeric")},
		errors.New("connection reset"),
	}

	for _, failure := range failures {
		t.Run(failure.Error(), func(t *testing.T) {
			external := &stubAnalyst{err: failure}
			analyst := ai.NewOrchestrator(external, discardLogger())

			got, err := analyst.GenerateInsights(context.Background(), req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("fallback result diverged:\n got: %+v\nwant: %+v", got, want)
			}
			if external.calls != 1 {
				t.Errorf("external should be called once, got %d calls", external.calls)
			}
		})
	}
}

func TestOrchestrator_NilExternalGoesStraightToRules(t *testing.T) {
	req := orchestratorRequest()
	want := rules.Generate(req)

	analyst := ai.NewOrchestrator(nil, discardLogger())
	got, err := analyst.GenerateInsights(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fallback-only result diverged:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestOrchestrator_FailedExternalEqualsFallbackOnly(t *testing.T) {
	// A request whose external path fails must produce exactly the result of
	// a process that never had an external client configured.
	req := orchestratorRequest()

	withFailing := ai.NewOrchestrator(&stubAnalyst{err: errors.New("boom")}, discardLogger())
	fallbackOnly := ai.NewOrchestrator(nil, discardLogger())

	a, err := withFailing.GenerateInsights(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := fallbackOnly.GenerateInsights(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("results differ:\nfailing external: %+v\nfallback only:    %+v", a, b)
	}
}

func TestOrchestrator_ExternalPanicIsContained(t *testing.T) {
	// Even a panicking external path is an "unexpected failure" that must
	// fall through to the rule engine rather than kill the request.
	req := orchestratorRequest()
	want := rules.Generate(req)

	analyst := ai.NewOrchestrator(panickyAnalyst{}, discardLogger())
	got, err := analyst.GenerateInsights(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("panic fallback diverged:\n got: %+v\nwant: %+v", got, want)
	}
}
