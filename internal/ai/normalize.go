package ai

import (
	"fmt"
	"math"
	"strconv"

	"github.com/procurelens/supplier-insights-backend/internal/model"
)

// External-path normalization constants. Missing fields get defaults rather
// than errors — the model not emitting a field is a degraded answer, not a
// broken one.
const (
	defaultConfidence = 0.7
	maxListEntries    = 10
)

// Single-entry placeholders for list fields the model omitted or left empty.
const (
	placeholderRisk   = "No risks identified"
	placeholderLever  = "Review contracts"
	placeholderAction = "Conduct review"
)

// ─── UNTRUSTED OBJECT ────────────────────────────────────────────────────────

// untrusted wraps the loosely-typed object recovered by the parser. Nothing
// outside this file reads its fields directly; every access goes through a
// typed accessor with a well-defined behaviour on absence, so no untyped
// structure leaks past the normalizer boundary.
type untrusted struct {
	fields map[string]any
}

// str returns the string at key, or "" when absent or not a string.
// Risk-level matching already defaults on unrecognised input, so there is no
// error case here.
func (u untrusted) str(key string) string {
	s, _ := u.fields[key].(string)
	return s
}

// num returns the number at key. Numeric strings ("0.8") are coerced, since
// models emit them routinely. A present value that is neither is a
// *NormalizationError; an absent key is (0, false, nil).
func (u untrusted) num(key string) (float64, bool, error) {
	v, ok := u.fields[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false, &NormalizationError{Field: key, Err: fmt.Errorf("non-numeric value %q", n)}
		}
		return f, true, nil
	default:
		return 0, false, &NormalizationError{Field: key, Err: fmt.Errorf("unexpected type %T", v)}
	}
}

// strList returns the string array at key. An absent key is (nil, false, nil);
// a present value that is not an array of strings is a *NormalizationError.
func (u untrusted) strList(key string) ([]string, bool, error) {
	v, ok := u.fields[key]
	if !ok {
		return nil, false, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false, &NormalizationError{Field: key, Err: fmt.Errorf("expected array, got %T", v)}
	}
	out := make([]string, 0, len(arr))
	for i, el := range arr {
		s, ok := el.(string)
		if !ok {
			return nil, false, &NormalizationError{Field: key, Err: fmt.Errorf("element %d is %T, not string", i, el)}
		}
		out = append(out, s)
	}
	return out, true, nil
}

// ─── NORMALIZATION ───────────────────────────────────────────────────────────

// normalize coerces a parsed object into the output contract: defaults for
// absent fields, clamped and rounded confidence, bounded list lengths, and
// the request's own category echoed back. Only structurally impossible input
// errors out; everything merely missing degrades gracefully.
//
// The external-path confidence bonus is NOT applied here — see
// adjustConfidence, which runs after this returns.
func normalize(obj untrusted, req *model.InsightRequest) (model.InsightResult, error) {
	confidence := defaultConfidence
	if v, ok, err := obj.num("confidence_score"); err != nil {
		return model.InsightResult{}, err
	} else if ok {
		confidence = v
	}
	confidence = round2(math.Max(0, math.Min(1, confidence)))

	risks, err := normalizeList(obj, "key_risks", placeholderRisk)
	if err != nil {
		return model.InsightResult{}, err
	}
	levers, err := normalizeList(obj, "negotiation_levers", placeholderLever)
	if err != nil {
		return model.InsightResult{}, err
	}
	actions, err := normalizeList(obj, "recommended_actions_next_90_days", placeholderAction)
	if err != nil {
		return model.InsightResult{}, err
	}

	return model.InsightResult{
		Category:                     req.Category,
		OverallRiskLevel:             model.ParseRiskLevel(obj.str("overall_risk_level")),
		KeyRisks:                     risks,
		NegotiationLevers:            levers,
		RecommendedActionsNext90Days: actions,
		ConfidenceScore:              confidence,
	}, nil
}

// normalizeList reads a list field, substitutes the placeholder when the
// field is absent or empty, and truncates to the first maxListEntries.
func normalizeList(obj untrusted, key, placeholder string) ([]string, error) {
	entries, ok, err := obj.strList(key)
	if err != nil {
		return nil, err
	}
	if !ok || len(entries) == 0 {
		return []string{placeholder}, nil
	}
	if len(entries) > maxListEntries {
		entries = entries[:maxListEntries]
	}
	return entries, nil
}

// adjustConfidence applies the external-path trust bonus exactly once, after
// normalize has clamped and rounded. Re-rounding absorbs float drift from
// the addition.
func adjustConfidence(c float64) float64 {
	return round2(math.Min(confidenceCap, c+confidenceBonus))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
