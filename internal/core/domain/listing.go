package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// SourceSite identifies which listing site a URL belongs to.
type SourceSite string

const (
	SiteCentris   SourceSite = "centris"
	SiteDuProprio SourceSite = "duproprio"
)

// Unavailable is the sentinel stored in every string field for which no real
// value could be extracted. The front-end renders it as-is and never has to
// check for missing keys.
const Unavailable = "unavailable"

// ListingRecord is the canonical output of one extraction attempt. Every field
// is always present in the serialized form; numeric fields use JSON null as
// their sentinel, string fields use Unavailable.
type ListingRecord struct {
	SourceURL     string     `json:"sourceUrl"`
	SourceSite    SourceSite `json:"sourceSite"`
	Address       string     `json:"address"`
	Price         string     `json:"price"`
	BedroomCount  *int       `json:"bedroomCount"`
	BathroomCount *float64   `json:"bathroomCount"`
	FloorLevels   *int       `json:"floorLevels"`
	LivingArea    string     `json:"livingArea"`
	CondoFee      string     `json:"condoFee"`
	Contact       string     `json:"contact"`
}

// NewListingRecord returns a record with every string field pre-filled with
// the sentinel, so extractors only overwrite what they actually found.
func NewListingRecord(sourceURL string, site SourceSite) *ListingRecord {
	return &ListingRecord{
		SourceURL:  sourceURL,
		SourceSite: site,
		Address:    Unavailable,
		Price:      Unavailable,
		LivingArea: Unavailable,
		CondoFee:   Unavailable,
		Contact:    Unavailable,
	}
}

// LooksGood reports whether the record carries at least one real listing
// value. Records failing this predicate are neither cached nor accepted as a
// tier result; an address alone does not qualify because page titles often
// leak into that field.
func (r *ListingRecord) LooksGood() bool {
	if r == nil {
		return false
	}
	if r.Price != Unavailable && r.Price != "" {
		return true
	}
	if r.BedroomCount != nil || r.BathroomCount != nil {
		return true
	}
	if r.LivingArea != Unavailable && r.LivingArea != "" {
		return true
	}
	if r.CondoFee != Unavailable && r.CondoFee != "" {
		return true
	}
	return false
}

// DetectSite maps a listing URL to the site that owns it.
func DetectSite(rawURL string) (SourceSite, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case strings.HasSuffix(host, "centris.ca"):
		return SiteCentris, nil
	case strings.HasSuffix(host, "duproprio.com"):
		return SiteDuProprio, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedSite, host)
}
