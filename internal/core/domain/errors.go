package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned from use cases towards the REST layer.
var (
	ErrMissingURL      = errors.New("url parameter is required")
	ErrInvalidURL      = errors.New("invalid listing url")
	ErrUnsupportedSite = errors.New("unsupported listing site")

	// ErrBlocked marks a tier whose response was a bot-challenge page
	// (CAPTCHA, access denied). It is a normal tier failure, never a crash.
	ErrBlocked = errors.New("blocked or challenge page detected")

	// ErrWaiterTimeout is returned to a deduplicated caller that gave up
	// waiting on an extraction it did not itself initiate.
	ErrWaiterTimeout = errors.New("timed out waiting for in-flight extraction")
)

// TierAttempt records how far one strategy got, for diagnostics.
type TierAttempt struct {
	Tier TierName
	Err  error
}

// ExtractionError is the fatal outcome after every applicable tier was
// exhausted. It keeps the per-tier causes and, when a rendered page was
// reached, its final title/URL so redirects and block pages can be diagnosed.
type ExtractionError struct {
	URL       string
	Attempts  []TierAttempt
	PageTitle string
	PageURL   string
}

func (e *ExtractionError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Tier, a.Err))
	}
	msg := fmt.Sprintf("extraction failed for %s after %d tier(s) [%s]",
		e.URL, len(e.Attempts), strings.Join(parts, "; "))
	if e.PageTitle != "" || e.PageURL != "" {
		msg += fmt.Sprintf(" (last page: title=%q url=%q)", e.PageTitle, e.PageURL)
	}
	return msg
}

// Blocked reports whether every attempted tier failed on a challenge page.
func (e *ExtractionError) Blocked() bool {
	if len(e.Attempts) == 0 {
		return false
	}
	for _, a := range e.Attempts {
		if !errors.Is(a.Err, ErrBlocked) {
			return false
		}
	}
	return true
}
