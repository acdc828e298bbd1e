// Package extractor maps raw page data (HTML or structured payloads) into
// canonical listing records, one extractor per source site. Extraction is
// layered: specific selectors first, then label-driven lookup, then JSON-LD
// and meta tags, with a bounded text scan as the explicit last resort. For a
// given field the first non-empty result wins; partial results from different
// lookups are never merged.
package extractor

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/maincoong/cleophee-centrist-api/internal/normalize"
)

// labelPair is one label/value couple harvested from a characteristics
// widget, a definition list, or a structured payload.
type labelPair struct {
	label string
	value string
}

// pairSource describes where label/value couples live in a site's markup.
type pairSource struct {
	container string
	label     string
	value     string
}

// collectPairs walks every configured container and harvests its label/value
// couple. Empty couples are dropped.
func collectPairs(doc *goquery.Document, sources []pairSource) []labelPair {
	var pairs []labelPair
	for _, src := range sources {
		doc.Find(src.container).Each(func(_ int, sel *goquery.Selection) {
			label := strings.TrimSpace(sel.Find(src.label).First().Text())
			value := strings.TrimSpace(sel.Find(src.value).First().Text())
			if label != "" && value != "" {
				pairs = append(pairs, labelPair{label: label, value: value})
			}
		})
	}
	return pairs
}

// pairsFromMap adapts a structured-payload field map to the same lookup.
func pairsFromMap(fields map[string]string) []labelPair {
	pairs := make([]labelPair, 0, len(fields))
	for label, value := range fields {
		if strings.TrimSpace(value) != "" {
			pairs = append(pairs, labelPair{label: label, value: strings.TrimSpace(value)})
		}
	}
	return pairs
}

// foldLabel normalizes a label for comparison: case fold, accent strip,
// punctuation to spaces, collapsed whitespace. "Frais de copropriété :" and
// "frais de copropriete" compare equal.
func foldLabel(s string) string {
	folded := strings.ToLower(normalize.StripAccents(s))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstByLabels finds the value whose label matches one of the candidates.
// Exact match beats substring match; candidate order breaks ties.
func firstByLabels(pairs []labelPair, candidates ...string) string {
	if len(pairs) == 0 {
		return ""
	}

	folded := make([]string, len(pairs))
	for i, p := range pairs {
		folded[i] = foldLabel(p.label)
	}

	for _, cand := range candidates {
		want := foldLabel(cand)
		for i, have := range folded {
			if have == want {
				return pairs[i].value
			}
		}
	}
	for _, cand := range candidates {
		want := foldLabel(cand)
		for i, have := range folded {
			if strings.Contains(have, want) {
				return pairs[i].value
			}
		}
	}
	return ""
}

// firstNonEmpty runs the ordered rule list for one field and takes the first
// hit.
func firstNonEmpty(rules ...func() string) string {
	for _, rule := range rules {
		if v := strings.TrimSpace(rule()); v != "" {
			return v
		}
	}
	return ""
}
