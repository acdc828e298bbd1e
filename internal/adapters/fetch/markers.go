// Package fetch implements the three fetch tiers of the extraction pipeline:
// a plain HTTP GET, a full headless-browser render, and an in-page structured
// evaluation. Each tier is independently time-boxed and its failure is never
// fatal to the overall request.
package fetch

import (
	"strings"
)

// minHTMLLength is the smallest body we accept as a real listing page.
// Centris block pages and empty SPA shells come in well under this.
const minHTMLLength = 2048

// blockMarkers are case-insensitive substrings that identify a bot-challenge
// response substituted for the real page.
var blockMarkers = []string{
	"captcha",
	"access denied",
	"please enable javascript",
	"unusual traffic",
}

// IsBlockedHTML reports whether body looks like a challenge page rather than
// listing content.
func IsBlockedHTML(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// LooksLikeHTMLDocument is a cheap sanity check that the response body is an
// HTML document at all (and not JSON, an error string, or an empty shell).
func LooksLikeHTMLDocument(body string) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	lower := strings.ToLower(head)
	return strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html")
}
