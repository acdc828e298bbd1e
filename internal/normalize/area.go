package normalize

import (
	"regexp"
	"strings"
)

var sqftRe = regexp.MustCompile(`(?i)^([\d\s,.]+?)\s*(?:sq\.?\s*ft\.?|sqft|pi2|pc)$`)

// NormalizeArea rewrites "<number> sqft" style strings to the canonical
// "<number> ft²". Text that already carries ft² or m² (Centris prints both,
// the metric one in parentheses) passes through unchanged. Empty input yields
// an empty string.
func NormalizeArea(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ""
	}

	if strings.Contains(cleaned, "ft²") || strings.Contains(cleaned, "m²") {
		return cleaned
	}

	if m := sqftRe.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1]) + " ft²"
	}

	return cleaned
}
