package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/procurelens/supplier-insights-backend/internal/model"
)

// systemPrompt pins down the output contract and the same risk thresholds the
// rule engine applies, so external and fallback results classify alike.
const systemPrompt = `You are an expert procurement analyst specializing in supplier risk assessment.

CRITICAL RULES:
1. Use ONLY the data provided - do not invent information
2. Be specific - include actual numbers, percentages, and supplier names
3. Focus on actionable insights

OUTPUT FORMAT - Respond with valid JSON only:
{
    "category": "string",
    "overall_risk_level": "Low | Medium | High",
    "key_risks": ["array of 2-5 risk statements"],
    "negotiation_levers": ["array of 2-5 leverage points"],
    "recommended_actions_next_90_days": ["array of 3-5 actions"],
    "confidence_score": "number 0.0 to 1.0"
}

RISK CRITERIA:
- HIGH: Single-source >40% spend OR contract expiring <=3 months OR delivery <80%
- MEDIUM: Contract expiring <=6 months OR delivery 80-90%
- LOW: Diversified suppliers with good performance

Respond ONLY with JSON, no markdown or extra text.`

// promptSupplier is the per-supplier row serialised into the data block.
// Field order here is the rendering order — json.Marshal preserves struct
// order, which keeps the prompt deterministic for a fixed supplier sequence.
type promptSupplier struct {
	SupplierName           string  `json:"supplier_name"`
	AnnualSpendUSD         float64 `json:"annual_spend_usd"`
	SpendSharePct          float64 `json:"spend_share_pct"`
	OnTimeDeliveryPct      float64 `json:"on_time_delivery_pct"`
	ContractExpiryMonths   int     `json:"contract_expiry_months"`
	SingleSourceDependency bool    `json:"single_source_dependency"`
	Region                 string  `json:"region"`
}

// buildUserPrompt renders the per-request data block: every supplier's raw
// fields plus its derived spend share, followed by an aggregate summary.
// Pure — the only inputs are the request fields, and regions are sorted.
func buildUserPrompt(req *model.InsightRequest) (string, error) {
	rows := make([]promptSupplier, len(req.Suppliers))
	for i, s := range req.Suppliers {
		rows[i] = promptSupplier{
			SupplierName:           s.SupplierName,
			AnnualSpendUSD:         s.AnnualSpendUSD,
			SpendSharePct:          math.Round(req.SpendShare(s)*10) / 10,
			OnTimeDeliveryPct:      s.OnTimeDeliveryPct,
			ContractExpiryMonths:   s.ContractExpiryMonths,
			SingleSourceDependency: s.SingleSourceDependency,
			Region:                 s.Region,
		}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ai: marshal supplier data: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze supplier data for %q:\n\n", req.Category)
	sb.Write(data)
	sb.WriteString("\n\nSUMMARY:\n")
	fmt.Fprintf(&sb, "- Total Spend: $%s\n", groupThousands(req.TotalSpend()))
	fmt.Fprintf(&sb, "- Suppliers: %d\n", req.SupplierCount())
	fmt.Fprintf(&sb, "- Regions: %s\n", strings.Join(req.Regions(), ", "))
	fmt.Fprintf(&sb, "- Single-Source: %d\n", req.SingleSourceCount())
	sb.WriteString("\nGenerate insights JSON.")

	return sb.String(), nil
}

// groupThousands renders v rounded to whole dollars with comma separators,
// e.g. 4200000 → "4,200,000".
func groupThousands(v float64) string {
	s := strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
		if len(s) > lead {
			sb.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		sb.WriteString(s[i : i+3])
		if i+3 < len(s) {
			sb.WriteByte(',')
		}
	}
	return sb.String()
}
