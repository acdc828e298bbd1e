package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// The text scan is the best-effort last resort: a regular-expression pass
// over page body text when every structured lookup came up empty. Its input
// is capped so a pathological page cannot make the scan unbounded, and its
// output should be trusted less than any structured source.
const (
	maxScannedNodes = 400
	maxScannedChars = 40000
)

var (
	condoFeeTextRe = regexp.MustCompile(
		`(?i)(?:condo(?:minium)?\s+fees?|frais\s+de\s+(?:condo|copropri\S+))\s*:?[^$\d]{0,60}(\$?\s*[\d][\d\s,.]*\$?)(\s*(?:/|per|par)\s*(?:month|mois|year|an(?:nee)?))?`)
	priceTextRe = regexp.MustCompile(`\$\s*\d{1,3}(?:[\s,]\d{3})+(?:\.\d{2})?`)
)

// boundedBodyText concatenates visible-ish text from at most maxScannedNodes
// leaf elements, truncated at maxScannedChars.
func boundedBodyText(doc *goquery.Document) string {
	var b strings.Builder
	count := 0
	doc.Find("body *").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if count >= maxScannedNodes || b.Len() >= maxScannedChars {
			return false
		}
		if sel.Children().Length() > 0 {
			return true // only leaves, parents would duplicate text
		}
		if goquery.NodeName(sel) == "script" || goquery.NodeName(sel) == "style" {
			return true
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return true
		}
		b.WriteString(text)
		b.WriteString("\n")
		count++
		return true
	})

	text := b.String()
	if len(text) > maxScannedChars {
		text = text[:maxScannedChars]
	}
	return text
}

// scanCondoFee looks for a "$X / month" style amount near a condo-fee phrase.
func scanCondoFee(text string) string {
	m := condoFeeTextRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	amount := strings.TrimSpace(m[1])
	period := strings.TrimSpace(m[2])
	if period != "" {
		return amount + " " + period
	}
	return amount
}

// scanPrice picks the first grouped dollar amount in the text. Listing prices
// always group thousands, which keeps phone numbers and civic numbers out.
func scanPrice(text string) string {
	return priceTextRe.FindString(text)
}
