package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// streetTokens are the street-type words a civic address is expected to
// contain. Both languages, since Centris and DuProprio serve Quebec.
var streetTokens = []string{
	"rue", "avenue", "av.", "boulevard", "boul", "chemin", "place", "allee",
	"montee", "rang", "croissant", "terrasse", "cours",
	"street", "st.", "road", "drive", "court", "lane", "crescent", "highway", "way",
}

// marketingPhrases are fragments that betray promotional copy leaking into an
// address field (page titles, listing blurbs).
var marketingPhrases = []string{
	"take a look", "for sale", "a vendre", "commission-free", "commission free",
	"sans commission", "dont miss", "opportunity", "stunning", "luxury living",
	"new listing", "visit", "welcome",
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes diacritics so "Sainte-Thérèse" compares equal to
// "sainte-therese". Falls back to the input when the transform fails.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// foldForMatch lowercases, strips accents and drops punctuation except the
// dots kept inside abbreviations like "st." and "av.".
func foldForMatch(s string) string {
	folded := strings.ToLower(StripAccents(s))
	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ',':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// LooksLikeRealAddress is a heuristic classifier separating a postal address
// from marketing copy. Scraped "address" fields are regularly polluted by page
// titles and promo blurbs; rejecting a bad match and falling back to the
// caller's hint beats displaying wrong data as if it were authoritative.
func LooksLikeRealAddress(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if strings.ContainsAny(trimmed, "!?") {
		return false
	}
	// Two or more sentence-ending periods reads as prose, not an address.
	if strings.Count(trimmed, ". ") >= 2 || strings.HasSuffix(trimmed, ".") && strings.Count(trimmed, ".") >= 2 {
		return false
	}
	if !strings.ContainsFunc(trimmed, unicode.IsDigit) {
		return false
	}
	if len(strings.Fields(trimmed)) > 20 {
		return false
	}

	folded := foldForMatch(trimmed)
	for _, phrase := range marketingPhrases {
		if strings.Contains(folded, phrase) {
			return false
		}
	}

	for _, token := range streetTokens {
		if containsWord(folded, token) {
			return true
		}
	}
	return false
}

// SanitizeAddressOrBlank returns the trimmed text when it passes the
// validator, otherwise an empty string. Callers then fall back to their
// address hint or the unavailable sentinel.
func SanitizeAddressOrBlank(text string) string {
	trimmed := strings.TrimSpace(text)
	if LooksLikeRealAddress(trimmed) {
		return trimmed
	}
	return ""
}

func containsWord(haystack, word string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || isBoundary(rune(haystack[start-1]))
		afterOK := end >= len(haystack) || isBoundary(rune(haystack[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
