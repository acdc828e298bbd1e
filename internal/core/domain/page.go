package domain

// TierName identifies one fetch strategy of the extraction pipeline.
type TierName string

const (
	TierDirect     TierName = "direct"
	TierRendered   TierName = "rendered"
	TierStructured TierName = "structured"
)

// PageContent is what a fetch tier hands to the site extractor.
type PageContent struct {
	HTML     string
	Title    string
	FinalURL string
	Tier     TierName
}

// StructuredPayload is the output of the in-page evaluation tier: data pulled
// out of a live rendered page without serializing the whole DOM.
type StructuredPayload struct {
	JSONLD []string          `json:"jsonLd"`
	Meta   map[string]string `json:"meta"`
	Fields map[string]string `json:"fields"`
	Title  string            `json:"title"`
	URL    string            `json:"url"`
}
