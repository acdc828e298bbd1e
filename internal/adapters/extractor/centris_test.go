package extractor

import (
	"testing"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/normalize"
)

const centrisFixture = `<!DOCTYPE html>
<html>
<head>
<meta itemprop="price" content="449000">
<script type="application/ld+json">
{"@type":"Product","offers":{"price":"449000"},"floorSize":{"value":"912 sqft"}}
</script>
</head>
<body>
<h2 itemprop="address">1234 Rue Sainte-Catherine E., apt. 503, Montréal</h2>
<div class="cac">2</div>
<div class="sdb">1</div>
<div class="carac-container">
  <div class="carac-title">Superficie nette</div>
  <div class="carac-value">912 pc</div>
</div>
<div class="carac-container">
  <div class="carac-title">Frais de condo</div>
  <div class="carac-value">3 600 $ / an</div>
</div>
<div class="carac-container">
  <div class="carac-title">Nombre d'étages</div>
  <div class="carac-value">10</div>
</div>
<div class="broker-info"><div class="broker-name">Jane Tremblay</div></div>
</body>
</html>`

func TestCentrisExtractHTML(t *testing.T) {
	t.Parallel()

	ext := NewCentrisExtractor(normalize.DefaultAnnualFeeThreshold)
	rec, err := ext.ExtractHTML(centrisFixture, "https://www.centris.ca/en/condo/123")
	if err != nil {
		t.Fatalf("ExtractHTML error: %v", err)
	}

	if rec.Price != "$449,000" {
		t.Fatalf("price = %q", rec.Price)
	}
	if rec.Address != "1234 Rue Sainte-Catherine E., apt. 503, Montréal" {
		t.Fatalf("address = %q", rec.Address)
	}
	if rec.BedroomCount == nil || *rec.BedroomCount != 2 {
		t.Fatalf("bedrooms = %v", rec.BedroomCount)
	}
	if rec.BathroomCount == nil || *rec.BathroomCount != 1 {
		t.Fatalf("bathrooms = %v", rec.BathroomCount)
	}
	if rec.FloorLevels == nil || *rec.FloorLevels != 10 {
		t.Fatalf("floors = %v", rec.FloorLevels)
	}
	if rec.LivingArea != "912 ft²" {
		t.Fatalf("area = %q", rec.LivingArea)
	}
	if rec.CondoFee != "$300 / month" {
		t.Fatalf("condo fee = %q", rec.CondoFee)
	}
	if rec.Contact != "Jane Tremblay" {
		t.Fatalf("contact = %q", rec.Contact)
	}
	if !rec.LooksGood() {
		t.Fatal("fully populated record should pass the quality bar")
	}
}

// A page without the characteristics widgets still yields a price through the
// JSON-LD fallback, and sentinels everywhere else.
func TestCentrisExtractHTMLFallsBackToJSONLD(t *testing.T) {
	t.Parallel()

	html := `<html><head><script type="application/ld+json">
	{"@type":"Product","offers":{"price":"515000"},"address":{"streetAddress":"77 Avenue du Parc"}}
	</script></head><body><p>listing detail</p></body></html>`

	ext := NewCentrisExtractor(normalize.DefaultAnnualFeeThreshold)
	rec, err := ext.ExtractHTML(html, "https://www.centris.ca/en/condo/77")
	if err != nil {
		t.Fatalf("ExtractHTML error: %v", err)
	}

	if rec.Price != "$515,000" {
		t.Fatalf("price = %q", rec.Price)
	}
	if rec.Address != "77 Avenue du Parc" {
		t.Fatalf("address = %q", rec.Address)
	}
	if rec.BedroomCount != nil {
		t.Fatalf("bedrooms should be absent, got %v", *rec.BedroomCount)
	}
	if rec.CondoFee != domain.Unavailable {
		t.Fatalf("condo fee = %q", rec.CondoFee)
	}
}

func TestCentrisExtractHTMLEmptyPage(t *testing.T) {
	t.Parallel()

	ext := NewCentrisExtractor(normalize.DefaultAnnualFeeThreshold)
	rec, err := ext.ExtractHTML("<html><body></body></html>", "https://www.centris.ca/en/condo/1")
	if err != nil {
		t.Fatalf("ExtractHTML error: %v", err)
	}
	if rec.LooksGood() {
		t.Fatal("empty page must not pass the quality bar")
	}
	if rec.Price != domain.Unavailable {
		t.Fatalf("price = %q", rec.Price)
	}
}

func TestCentrisExtractPayload(t *testing.T) {
	t.Parallel()

	payload := &domain.StructuredPayload{
		Fields: map[string]string{
			"price":                "449 000 $",
			"address":              "1234 Rue Sainte-Catherine E.",
			"bedrooms":             "2",
			"bathrooms":            "1",
			"Superficie habitable": "912 sqft",
			"Frais de condo":       "250 $ / mois",
			"contact":              "Jane Tremblay",
		},
		Title: "Condo for sale",
		URL:   "https://www.centris.ca/en/condo/123",
	}

	ext := NewCentrisExtractor(normalize.DefaultAnnualFeeThreshold)
	rec, ok := ext.ExtractPayload(payload, "https://www.centris.ca/en/condo/123")
	if !ok {
		t.Fatal("expected payload to be accepted")
	}

	if rec.Price != "$449,000" {
		t.Fatalf("price = %q", rec.Price)
	}
	if rec.Address != "1234 Rue Sainte-Catherine E." {
		t.Fatalf("address = %q", rec.Address)
	}
	if rec.BedroomCount == nil || *rec.BedroomCount != 2 {
		t.Fatalf("bedrooms = %v", rec.BedroomCount)
	}
	if rec.LivingArea != "912 ft²" {
		t.Fatalf("area = %q", rec.LivingArea)
	}
	if rec.CondoFee != "250 $ / mois" {
		t.Fatalf("condo fee = %q", rec.CondoFee)
	}
	if rec.Contact != "Jane Tremblay" {
		t.Fatalf("contact = %q", rec.Contact)
	}
}

func TestCentrisExtractPayloadNil(t *testing.T) {
	t.Parallel()

	ext := NewCentrisExtractor(normalize.DefaultAnnualFeeThreshold)
	if rec, ok := ext.ExtractPayload(nil, "https://www.centris.ca/en/condo/123"); ok || rec != nil {
		t.Fatal("nil payload must be rejected")
	}
}
