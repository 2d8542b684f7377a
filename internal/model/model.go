// Package model defines the request and response types for supplier insight
// generation. It is intentionally dependency-free: it imports nothing from
// internal/ and can be tested without any infrastructure.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ─── RISK LEVEL ──────────────────────────────────────────────────────────────

// RiskLevel is the three-bucket overall classification. String values match
// the wire contract exactly ("Low" | "Medium" | "High").
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel matches s case-insensitively against the three levels.
// Anything absent or unrecognised maps to Medium.
func ParseRiskLevel(s string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow
	case "high":
		return RiskHigh
	default:
		return RiskMedium
	}
}

// ─── SUPPLIER RECORD ─────────────────────────────────────────────────────────

// SupplierRecord is one supplier's procurement profile within a request.
type SupplierRecord struct {
	SupplierName           string  `json:"supplier_name"`
	AnnualSpendUSD         float64 `json:"annual_spend_usd"`
	OnTimeDeliveryPct      float64 `json:"on_time_delivery_pct"`
	ContractExpiryMonths   int     `json:"contract_expiry_months"`
	SingleSourceDependency bool    `json:"single_source_dependency"`
	Region                 string  `json:"region"`
}

// normalizeDeliveryPct converts decimal-form delivery rates (0.92) to
// percentages (92). Values already above 1 pass through untouched, so the
// conversion cannot compound on re-ingestion.
//
// Known ambiguity, preserved deliberately: an input of exactly 0 or 1 and a
// genuine sub-1% literal (0.5 meaning 0.5%) are all read as fractions.
func normalizeDeliveryPct(v float64) float64 {
	if v >= 0 && v <= 1 {
		return v * 100
	}
	return v
}

func (s *SupplierRecord) validate() error {
	var errs []error

	name := strings.TrimSpace(s.SupplierName)
	if name == "" {
		errs = append(errs, errors.New("supplier_name must not be empty"))
	}
	if len(name) > 200 {
		errs = append(errs, fmt.Errorf("supplier_name exceeds 200 characters (%d)", len(name)))
	}
	if s.AnnualSpendUSD <= 0 {
		errs = append(errs, fmt.Errorf("annual_spend_usd must be positive, got %v", s.AnnualSpendUSD))
	}
	if s.OnTimeDeliveryPct < 0 || s.OnTimeDeliveryPct > 100 {
		errs = append(errs, fmt.Errorf("on_time_delivery_pct must be in [0,100], got %v", s.OnTimeDeliveryPct))
	}
	if s.ContractExpiryMonths < 0 {
		errs = append(errs, fmt.Errorf("contract_expiry_months must be >= 0, got %d", s.ContractExpiryMonths))
	}
	if strings.TrimSpace(s.Region) == "" {
		errs = append(errs, errors.New("region must not be empty"))
	}

	return errors.Join(errs...)
}

// ─── INSIGHT REQUEST ─────────────────────────────────────────────────────────

// InsightRequest is the input payload for one analysis. It is treated as
// immutable once Normalize + Validate have run; nothing outlives the
// request/response cycle that constructed it.
type InsightRequest struct {
	Category  string           `json:"category"`
	Suppliers []SupplierRecord `json:"suppliers"`
}

// Normalize applies ingestion-time coercions. Currently that is only the
// decimal-to-percentage rule for delivery rates. It runs exactly once, at
// the HTTP boundary, before Validate.
func (r *InsightRequest) Normalize() {
	for i := range r.Suppliers {
		r.Suppliers[i].OnTimeDeliveryPct = normalizeDeliveryPct(r.Suppliers[i].OnTimeDeliveryPct)
	}
}

// Validate checks all field constraints. A non-nil return is a
// *ValidationError wrapping every individual violation.
func (r *InsightRequest) Validate() error {
	var errs []error

	category := strings.TrimSpace(r.Category)
	if category == "" {
		errs = append(errs, errors.New("category must not be empty"))
	}
	if len(category) > 100 {
		errs = append(errs, fmt.Errorf("category exceeds 100 characters (%d)", len(category)))
	}
	if len(r.Suppliers) == 0 {
		errs = append(errs, errors.New("at least one supplier must be provided"))
	}
	for i := range r.Suppliers {
		if err := r.Suppliers[i].validate(); err != nil {
			errs = append(errs, fmt.Errorf("suppliers[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{err: errors.Join(errs...)}
	}
	return nil
}

// TotalSpend sums annual spend across all suppliers.
func (r *InsightRequest) TotalSpend() float64 {
	total := 0.0
	for _, s := range r.Suppliers {
		total += s.AnnualSpendUSD
	}
	return total
}

// SupplierCount returns the number of suppliers in the request.
func (r *InsightRequest) SupplierCount() int {
	return len(r.Suppliers)
}

// Regions returns the distinct supplier regions sorted alphabetically.
// Sorting makes prompt construction reproducible; nothing in the rule engine
// reads this.
func (r *InsightRequest) Regions() []string {
	seen := make(map[string]struct{}, len(r.Suppliers))
	regions := make([]string, 0, len(r.Suppliers))
	for _, s := range r.Suppliers {
		if _, ok := seen[s.Region]; ok {
			continue
		}
		seen[s.Region] = struct{}{}
		regions = append(regions, s.Region)
	}
	sort.Strings(regions)
	return regions
}

// SingleSourceCount returns how many suppliers are flagged single-source.
func (r *InsightRequest) SingleSourceCount() int {
	n := 0
	for _, s := range r.Suppliers {
		if s.SingleSourceDependency {
			n++
		}
	}
	return n
}

// SpendShare returns supplier spend as a percentage of total request spend.
func (r *InsightRequest) SpendShare(s SupplierRecord) float64 {
	total := r.TotalSpend()
	if total == 0 {
		return 0
	}
	return s.AnnualSpendUSD / total * 100
}

// ─── INSIGHT RESULT ──────────────────────────────────────────────────────────

// InsightResult is the output contract, produced identically by the external
// and fallback paths. The three list fields are never empty and never exceed
// ten entries; confidence is always within [0,1] at two decimals.
type InsightResult struct {
	Category                     string    `json:"category"`
	OverallRiskLevel             RiskLevel `json:"overall_risk_level"`
	KeyRisks                     []string  `json:"key_risks"`
	NegotiationLevers            []string  `json:"negotiation_levers"`
	RecommendedActionsNext90Days []string  `json:"recommended_actions_next_90_days"`
	ConfidenceScore              float64   `json:"confidence_score"`
}

// ─── VALIDATION ERROR ────────────────────────────────────────────────────────

// ValidationError marks malformed or out-of-range input. The HTTP layer maps
// it to a 400; it never reaches insight generation.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string { return "invalid request: " + e.err.Error() }
func (e *ValidationError) Unwrap() error { return e.err }
