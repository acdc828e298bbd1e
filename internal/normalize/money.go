// Package normalize holds the pure string-cleaning helpers shared by the site
// extractors: money amounts, condo-fee periods, area units and address
// validation. Everything here must stay deterministic and side-effect free.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.English)

// ToMoneyAmount strips everything but digits and periods from text and parses
// the remainder. Empty or placeholder strings yield nil, never zero — a
// missing price and a free listing are not the same thing.
func ToMoneyAmount(text string) *float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil
	}
	return &amount
}

// FormatCurrency renders an amount as a dollar string with grouped digits and
// no decimal places, e.g. 449000 -> "$449,000". Nil or negative input yields
// the unavailable sentinel.
func FormatCurrency(amount *float64) string {
	if amount == nil || *amount < 0 || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return "unavailable"
	}
	return currencyPrinter.Sprintf("$%.0f", math.Round(*amount))
}
