package normalize

import (
	"math"
	"strings"
)

// DefaultAnnualFeeThreshold is the bare amount above which a condo fee with no
// stated period is assumed to be annual. Monthly fees this high are rare, but
// this is a heuristic, so it stays configurable.
const DefaultAnnualFeeThreshold = 1200

// NormalizeFeeToMonthly turns whatever a page says about condo fees into a
// "$X / month" string. Classification order:
//  1. the text already names a monthly period -> returned unchanged;
//  2. the text names a yearly period and carries an amount -> divided by 12;
//  3. a bare amount at or above threshold -> assumed annual, divided by 12;
//  4. anything else -> trimmed text unchanged.
//
// The function is idempotent: its own output always lands in case 1 or 4.
func NormalizeFeeToMonthly(raw string, threshold float64) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return cleaned
	}
	if threshold <= 0 {
		threshold = DefaultAnnualFeeThreshold
	}

	lower := strings.ToLower(cleaned)
	if strings.Contains(lower, "month") || strings.Contains(lower, "mois") || strings.Contains(lower, "/mo") {
		return cleaned
	}

	amount := ToMoneyAmount(cleaned)

	yearly := strings.Contains(lower, "year") || strings.Contains(lower, "annual") ||
		strings.Contains(lower, "annuel") || strings.Contains(lower, "par an") ||
		strings.Contains(lower, "/an") || strings.Contains(lower, "/ an")
	if yearly && amount != nil {
		monthly := math.Round(*amount / 12)
		return FormatCurrency(&monthly) + " / month"
	}

	if amount != nil && *amount >= threshold {
		monthly := math.Round(*amount / 12)
		return FormatCurrency(&monthly) + " / month"
	}

	return cleaned
}
