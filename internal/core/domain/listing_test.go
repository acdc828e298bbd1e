package domain

import (
	"errors"
	"testing"
)

func TestDetectSite(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		site SourceSite
		err  error
	}{
		{"https://www.centris.ca/en/condo/123", SiteCentris, nil},
		{"https://centris.ca/fr/maison/9", SiteCentris, nil},
		{"https://duproprio.com/en/montreal/condo-1066711", SiteDuProprio, nil},
		{"https://www.duproprio.com/fr/maison", SiteDuProprio, nil},
		{"https://example.com/listing", "", ErrUnsupportedSite},
		{"not a url", "", ErrInvalidURL},
		{"ftp://centris.ca/x", "", ErrInvalidURL},
		{"", "", ErrInvalidURL},
	}

	for _, c := range cases {
		site, err := DetectSite(c.url)
		if c.err != nil {
			if !errors.Is(err, c.err) {
				t.Fatalf("DetectSite(%q) err = %v, want %v", c.url, err, c.err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("DetectSite(%q) returned error: %v", c.url, err)
		}
		if site != c.site {
			t.Fatalf("DetectSite(%q) = %q, want %q", c.url, site, c.site)
		}
	}
}

func TestLooksGood(t *testing.T) {
	t.Parallel()

	rec := NewListingRecord("https://www.centris.ca/en/condo/123", SiteCentris)
	if rec.LooksGood() {
		t.Fatal("all-sentinel record must not look good")
	}

	rec.Address = "500 Main Street"
	if rec.LooksGood() {
		t.Fatal("an address alone must not qualify; page titles leak into it")
	}

	rec.Price = "$449,000"
	if !rec.LooksGood() {
		t.Fatal("a real price qualifies")
	}

	withBeds := NewListingRecord("https://www.centris.ca/en/condo/123", SiteCentris)
	beds := 3
	withBeds.BedroomCount = &beds
	if !withBeds.LooksGood() {
		t.Fatal("a bedroom count qualifies")
	}

	var nilRec *ListingRecord
	if nilRec.LooksGood() {
		t.Fatal("nil record must not look good")
	}
}
