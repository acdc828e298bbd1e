package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maincoong/cleophee-centrist-api/internal/core/domain"
	"github.com/maincoong/cleophee-centrist-api/internal/normalize"
)

var duproprioPairSources = []pairSource{
	{
		container: ".listing-main-characteristics__item",
		label:     ".listing-main-characteristics__label",
		value:     ".listing-main-characteristics__number",
	},
	{
		container: ".listing-list-characteristics__row",
		label:     ".listing-list-characteristics__label",
		value:     ".listing-list-characteristics__value",
	},
}

// DuProprioExtractor maps DuProprio detail pages. DuProprio serves mostly
// server-rendered markup, so the direct tier usually suffices and the
// structured in-page tier is skipped entirely for this site.
type DuProprioExtractor struct {
	annualFeeThreshold float64
}

func NewDuProprioExtractor(annualFeeThreshold float64) *DuProprioExtractor {
	return &DuProprioExtractor{annualFeeThreshold: annualFeeThreshold}
}

func (e *DuProprioExtractor) Site() domain.SourceSite {
	return domain.SiteDuProprio
}

func (e *DuProprioExtractor) SupportsStructured() bool { return false }

func (e *DuProprioExtractor) ExtractPayload(payload *domain.StructuredPayload, sourceURL string) (*domain.ListingRecord, bool) {
	return nil, false
}

func (e *DuProprioExtractor) ExtractHTML(html string, sourceURL string) (*domain.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("duproprio extractor: parse html: %w", err)
	}

	record := domain.NewListingRecord(sourceURL, domain.SiteDuProprio)

	pairs := collectPairs(doc, duproprioPairSources)
	ld := decodeJSONLD(jsonLDBlocks(doc))
	bodyText := ""
	scanText := func() string {
		if bodyText == "" {
			bodyText = boundedBodyText(doc)
		}
		return bodyText
	}

	rawPrice := firstNonEmpty(
		func() string { return doc.Find(".listing-price__amount, .listing-price").First().Text() },
		func() string { return jsonLDString(ld, "offers", "price") },
		func() string { return attrOr(doc, `meta[property="product:price:amount"]`, "content") },
		func() string { return scanPrice(scanText()) },
	)
	record.Price = normalize.FormatCurrency(normalize.ToMoneyAmount(rawPrice))

	record.Address = firstNonEmpty(
		func() string {
			return doc.Find(".listing-location__address, h1 .listing-location").First().Text()
		},
		func() string { return jsonLDString(ld, "address", "streetAddress") },
		func() string { return attrOr(doc, `meta[property="og:title"]`, "content") },
	)
	if record.Address == "" {
		record.Address = domain.Unavailable
	}

	record.BedroomCount = firstInt(firstNonEmpty(
		func() string { return firstByLabels(pairs, "bedrooms", "chambres", "bedroom", "chambre") },
		func() string { return jsonLDString(ld, "numberOfRooms") },
	))

	record.BathroomCount = firstFloat(firstNonEmpty(
		func() string {
			return firstByLabels(pairs, "bathrooms", "salles de bains", "bathroom", "salle de bain")
		},
	))

	record.FloorLevels = firstInt(firstByLabels(pairs, "levels", "number of levels", "nombre d'étages", "étages"))

	rawArea := firstNonEmpty(
		func() string { return firstByLabels(pairs, "living space area", "superficie habitable", "living area") },
		func() string { return jsonLDString(ld, "floorSize", "value") },
	)
	if area := normalize.NormalizeArea(rawArea); area != "" {
		record.LivingArea = area
	}

	rawFee := firstNonEmpty(
		func() string {
			return firstByLabels(pairs, "condo fees", "monthly condo fees", "frais de condo", "frais de copropriété")
		},
		func() string { return scanCondoFee(scanText()) },
	)
	if fee := normalize.NormalizeFeeToMonthly(rawFee, e.annualFeeThreshold); fee != "" {
		record.CondoFee = fee
	}

	contact := firstNonEmpty(
		func() string { return doc.Find(".listing-contact__phone, .seller-info__phone").First().Text() },
		func() string { return jsonLDString(ld, "seller", "telephone") },
	)
	if contact != "" {
		record.Contact = contact
	}

	return record, nil
}
