package port

import (
	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
)

// SiteExtractorPort turns raw page data into a ListingRecord. Extractors are
// pure: they never fetch anything and do not care which tier produced the
// HTML.
type SiteExtractorPort interface {
	Site() domain.SourceSite

	// ExtractHTML parses a full serialized document.
	ExtractHTML(html string, sourceURL string) (*domain.ListingRecord, error)

	// ExtractPayload maps an in-page evaluation payload. Sites whose pages do
	// not need the structured tier return (nil, false).
	ExtractPayload(payload *domain.StructuredPayload, sourceURL string) (*domain.ListingRecord, bool)

	// SupportsStructured reports whether the structured tier applies to this
	// site at all.
	SupportsStructured() bool
}
