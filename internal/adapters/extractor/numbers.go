package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	intRe   = regexp.MustCompile(`\d+`)
	floatRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// firstInt pulls the first non-negative integer out of a scraped string
// ("4 bedrooms" -> 4). Nil when there is none.
func firstInt(s string) *int {
	m := intRe.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// firstFloat pulls the first non-negative number, tolerating a decimal comma
// ("1,5" -> 1.5) since half-baths show up both ways.
func firstFloat(s string) *float64 {
	m := floatRe.FindString(s)
	if m == "" {
		return nil
	}
	if idx := strings.IndexByte(m, ','); idx > 0 && len(m)-idx-1 <= 2 {
		m = m[:idx] + "." + m[idx+1:]
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}
