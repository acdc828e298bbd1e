package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/normalize"
)

// centrisPairSources are the characteristic widgets Centris renders its
// spec table into. The layout flips between redesigns, hence several
// container generations in the list.
var centrisPairSources = []pairSource{
	{container: ".carac-container", label: ".carac-title", value: ".carac-value"},
	{container: ".teaser-item", label: ".teaser-label", value: ".teaser-value"},
	{container: ".row.property-detail", label: "dt", value: "dd"},
}

// CentrisExtractor maps Centris detail pages into listing records. It does
// not fetch anything; HTML or payload comes from whichever tier succeeded.
type CentrisExtractor struct {
	annualFeeThreshold float64
}

func NewCentrisExtractor(annualFeeThreshold float64) *CentrisExtractor {
	return &CentrisExtractor{annualFeeThreshold: annualFeeThreshold}
}

func (e *CentrisExtractor) Site() domain.SourceSite {
	return domain.SiteCentris
}

// Centris pages are hydrated client side; the structured tier pays off there.
func (e *CentrisExtractor) SupportsStructured() bool { return true }

func (e *CentrisExtractor) ExtractHTML(html string, sourceURL string) (*domain.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("centris extractor: parse html: %w", err)
	}

	record := domain.NewListingRecord(sourceURL, domain.SiteCentris)

	pairs := collectPairs(doc, centrisPairSources)
	ld := decodeJSONLD(jsonLDBlocks(doc))
	bodyText := "" // filled lazily, the scan is the most expensive rule
	scanText := func() string {
		if bodyText == "" {
			bodyText = boundedBodyText(doc)
		}
		return bodyText
	}

	rawPrice := firstNonEmpty(
		func() string { return attrOr(doc, `meta[itemprop="price"]`, "content") },
		func() string { return doc.Find(`span[itemprop="price"]`).First().Text() },
		func() string { return doc.Find(".price-container .price, .price").First().Text() },
		func() string { return jsonLDString(ld, "offers", "price") },
		func() string { return scanPrice(scanText()) },
	)
	record.Price = normalize.FormatCurrency(normalize.ToMoneyAmount(rawPrice))

	record.Address = firstNonEmpty(
		func() string { return doc.Find(`h2[itemprop="address"]`).First().Text() },
		func() string { return doc.Find(".address, .property-address").First().Text() },
		func() string { return jsonLDString(ld, "address", "streetAddress") },
	)
	if record.Address == "" {
		record.Address = domain.Unavailable
	}

	record.BedroomCount = firstInt(firstNonEmpty(
		func() string { return doc.Find(".cac").First().Text() },
		func() string { return firstByLabels(pairs, "chambres", "bedrooms", "bedroom", "chambre") },
		func() string { return jsonLDString(ld, "numberOfRooms") },
	))

	record.BathroomCount = firstFloat(firstNonEmpty(
		func() string { return doc.Find(".sdb").First().Text() },
		func() string {
			return firstByLabels(pairs, "salles de bains", "bathrooms", "salle de bain", "bathroom")
		},
	))

	record.FloorLevels = firstInt(firstNonEmpty(
		func() string { return firstByLabels(pairs, "nombre d'étages", "storeys", "floors", "étages") },
	))

	rawArea := firstNonEmpty(
		func() string {
			return firstByLabels(pairs, "superficie habitable", "superficie nette", "living area", "net area")
		},
		func() string { return jsonLDString(ld, "floorSize", "value") },
	)
	if area := normalize.NormalizeArea(rawArea); area != "" {
		record.LivingArea = area
	}

	rawFee := firstNonEmpty(
		func() string {
			return firstByLabels(pairs, "frais de condo", "condo fees", "frais de copropriété", "condominium fees")
		},
		func() string { return scanCondoFee(scanText()) },
	)
	if fee := normalize.NormalizeFeeToMonthly(rawFee, e.annualFeeThreshold); fee != "" {
		record.CondoFee = fee
	}

	contact := firstNonEmpty(
		func() string { return doc.Find(".broker-info .broker-name").First().Text() },
		func() string { return doc.Find(`.broker-info [itemprop="name"]`).First().Text() },
		func() string { return firstByLabels(pairs, "courtier", "broker", "agence", "agency") },
	)
	if contact != "" {
		record.Contact = contact
	}

	return record, nil
}

// ExtractPayload maps the in-page evaluation result through the same ordered
// rules, with the payload's field map standing in for the widget walk.
func (e *CentrisExtractor) ExtractPayload(payload *domain.StructuredPayload, sourceURL string) (*domain.ListingRecord, bool) {
	if payload == nil {
		return nil, false
	}

	record := domain.NewListingRecord(sourceURL, domain.SiteCentris)

	pairs := pairsFromMap(payload.Fields)
	ld := decodeJSONLD(payload.JSONLD)

	rawPrice := firstNonEmpty(
		func() string { return payload.Fields["price"] },
		func() string { return payload.Meta["product:price:amount"] },
		func() string { return jsonLDString(ld, "offers", "price") },
	)
	record.Price = normalize.FormatCurrency(normalize.ToMoneyAmount(rawPrice))

	record.Address = firstNonEmpty(
		func() string { return payload.Fields["address"] },
		func() string { return jsonLDString(ld, "address", "streetAddress") },
		func() string { return payload.Meta["og:title"] },
	)
	if record.Address == "" {
		record.Address = domain.Unavailable
	}

	record.BedroomCount = firstInt(firstNonEmpty(
		func() string { return payload.Fields["bedrooms"] },
		func() string { return firstByLabels(pairs, "chambres", "bedrooms", "bedroom", "chambre") },
	))
	record.BathroomCount = firstFloat(firstNonEmpty(
		func() string { return payload.Fields["bathrooms"] },
		func() string {
			return firstByLabels(pairs, "salles de bains", "bathrooms", "salle de bain", "bathroom")
		},
	))
	record.FloorLevels = firstInt(firstByLabels(pairs, "nombre d'étages", "storeys", "floors"))

	rawArea := firstNonEmpty(
		func() string {
			return firstByLabels(pairs, "superficie habitable", "superficie nette", "living area", "net area")
		},
		func() string { return jsonLDString(ld, "floorSize", "value") },
	)
	if area := normalize.NormalizeArea(rawArea); area != "" {
		record.LivingArea = area
	}

	rawFee := firstByLabels(pairs, "frais de condo", "condo fees", "frais de copropriété", "condominium fees")
	if fee := normalize.NormalizeFeeToMonthly(rawFee, e.annualFeeThreshold); fee != "" {
		record.CondoFee = fee
	}

	if contact := payload.Fields["contact"]; strings.TrimSpace(contact) != "" {
		record.Contact = strings.TrimSpace(contact)
	}

	return record, true
}

// attrOr returns the attribute of the first matching node, or "".
func attrOr(doc *goquery.Document, selector, attr string) string {
	v, _ := doc.Find(selector).First().Attr(attr)
	return v
}
