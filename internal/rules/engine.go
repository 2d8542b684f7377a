// Package rules implements the deterministic rule-based insight generator
// used whenever the external analysis path is unavailable or fails. Like the
// model package it is dependency-free pure arithmetic: identical input always
// produces an identical result, with no I/O of any kind.
package rules

import (
	"fmt"

	"github.com/procurelens/supplier-insights-backend/internal/model"
)

// ─── THRESHOLDS ──────────────────────────────────────────────────────────────

const (
	// Per-supplier statement triggers.
	urgentExpiryMonths  = 3  // expiry <= 3 → urgent renewal risk + action
	renewalExpiryMonths = 6  // expiry <= 6 → renewal-talks action
	lowDeliveryPct      = 85 // delivery < 85 → delivery risk
	topDeliveryPct      = 95 // delivery >= 95 → performance lever
	volumeSharePct      = 30 // spend share >= 30 → volume lever

	// Overall level triggers.
	highSingleSourceShare = 40 // single-source AND share > 40 → High
	highDeliveryFloor     = 80 // delivery < 80 → High
	mediumDeliveryFloor   = 90 // delivery < 90 → Medium

	// maxEntries caps each output list. Collection order follows supplier
	// iteration order, so the first five triggered statements win.
	maxEntries = 5

	// confidenceScore is fixed for this path and never adjusted afterwards.
	confidenceScore = 0.65
)

// Default single-entry placeholders, substituted when a list would otherwise
// be empty. The output contract forbids empty lists on either path.
const (
	defaultRisk   = "No critical risks identified"
	defaultLever  = "Review contracts for opportunities"
	defaultAction = "Quarterly supplier review"
)

// ─── GENERATION ──────────────────────────────────────────────────────────────

// Generate produces a complete InsightResult from a validated request using
// only threshold comparisons over supplier fields. It is the entire fallback
// path: no network, no state, no randomness.
func Generate(req *model.InsightRequest) model.InsightResult {
	var risks, levers, actions []string

	for _, s := range req.Suppliers {
		share := req.SpendShare(s)

		if s.SingleSourceDependency {
			risks = append(risks, fmt.Sprintf("Single-source: %s ($%.1fM, %.0f%%)",
				s.SupplierName, s.AnnualSpendUSD/1e6, share))
		}

		if s.ContractExpiryMonths <= urgentExpiryMonths {
			risks = append(risks, fmt.Sprintf("Urgent: %s expires in %d months",
				s.SupplierName, s.ContractExpiryMonths))
			actions = append(actions, fmt.Sprintf("Renew contract with %s", s.SupplierName))
		} else if s.ContractExpiryMonths <= renewalExpiryMonths {
			actions = append(actions, fmt.Sprintf("Start renewal talks with %s", s.SupplierName))
		}

		if s.OnTimeDeliveryPct < lowDeliveryPct {
			risks = append(risks, fmt.Sprintf("Low delivery: %s at %.0f%%",
				s.SupplierName, s.OnTimeDeliveryPct))
		}

		if s.OnTimeDeliveryPct >= topDeliveryPct {
			levers = append(levers, fmt.Sprintf("Top performer: %s (%.0f%%)",
				s.SupplierName, s.OnTimeDeliveryPct))
		}

		if share >= volumeSharePct {
			levers = append(levers, fmt.Sprintf("Volume leverage: %s (%.0f%% spend)",
				s.SupplierName, share))
		}
	}

	return model.InsightResult{
		Category:                     req.Category,
		OverallRiskLevel:             overallLevel(req),
		KeyRisks:                     truncate(risks, defaultRisk),
		NegotiationLevers:            truncate(levers, defaultLever),
		RecommendedActionsNext90Days: truncate(actions, defaultAction),
		ConfidenceScore:              confidenceScore,
	}
}

// overallLevel classifies the whole request. Priority-ordered, first match
// wins: a single High trigger outranks any number of Medium triggers.
func overallLevel(req *model.InsightRequest) model.RiskLevel {
	for _, s := range req.Suppliers {
		if s.SingleSourceDependency && req.SpendShare(s) > highSingleSourceShare {
			return model.RiskHigh
		}
		if s.ContractExpiryMonths <= urgentExpiryMonths {
			return model.RiskHigh
		}
		if s.OnTimeDeliveryPct < highDeliveryFloor {
			return model.RiskHigh
		}
	}

	for _, s := range req.Suppliers {
		if s.ContractExpiryMonths <= renewalExpiryMonths {
			return model.RiskMedium
		}
		if s.OnTimeDeliveryPct < mediumDeliveryFloor {
			return model.RiskMedium
		}
	}

	return model.RiskLow
}

// truncate caps entries at maxEntries and substitutes the placeholder when
// the list is empty.
func truncate(entries []string, placeholder string) []string {
	if len(entries) == 0 {
		return []string{placeholder}
	}
	if len(entries) > maxEntries {
		entries = entries[:maxEntries]
	}
	return entries
}
