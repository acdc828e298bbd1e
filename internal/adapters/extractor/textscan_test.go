package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestScanCondoFee(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Condo fees: $250 / month including heating", "$250 / month"},
		{"Frais de condo de 285 $ par mois", "285 $ par mois"},
		{"Condominium fees $3,600 / year", "$3,600 / year"},
		{"no fees mentioned here", ""},
	}

	for _, c := range cases {
		if got := scanCondoFee(c.in); got != c.want {
			t.Fatalf("scanCondoFee(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestScanPrice(t *testing.T) {
	t.Parallel()

	text := "Call 514-555-0123 about this condo at $449,000 near the park"
	if got := scanPrice(text); got != "$449,000" {
		t.Fatalf("scanPrice = %q", got)
	}

	// ungrouped amounts look like phone or civic numbers, skip them
	if got := scanPrice("suite $500 per month parking"); got != "" {
		t.Fatalf("scanPrice matched ungrouped amount: %q", got)
	}
}

func TestBoundedBodyTextSkipsScripts(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<script>var price = "$1,000,000";</script>
	<p>Asking $449,000</p>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	text := boundedBodyText(doc)
	if strings.Contains(text, "$1,000,000") {
		t.Fatalf("script text leaked into scan input: %q", text)
	}
	if !strings.Contains(text, "Asking $449,000") {
		t.Fatalf("body text missing: %q", text)
	}
}

func TestFirstByLabels(t *testing.T) {
	t.Parallel()

	pairs := []labelPair{
		{label: "Frais de copropriété :", value: "285 $"},
		{label: "Chambres", value: "3"},
		{label: "Salles de bains", value: "2"},
	}

	if got := firstByLabels(pairs, "frais de copropriete"); got != "285 $" {
		t.Fatalf("accent-folded lookup = %q", got)
	}
	if got := firstByLabels(pairs, "chambres", "bedrooms"); got != "3" {
		t.Fatalf("exact lookup = %q", got)
	}
	// exact match on a later candidate beats a substring hit on an earlier one
	if got := firstByLabels(pairs, "salle de bain", "salles de bains"); got != "2" {
		t.Fatalf("lookup = %q", got)
	}
	if got := firstByLabels(pairs, "storeys"); got != "" {
		t.Fatalf("missing label should give empty, got %q", got)
	}
}

func TestFirstNumberHelpers(t *testing.T) {
	t.Parallel()

	if n := firstInt("4 bedrooms"); n == nil || *n != 4 {
		t.Fatalf("firstInt = %v", n)
	}
	if n := firstInt("none"); n != nil {
		t.Fatalf("firstInt(none) = %v", *n)
	}

	if f := firstFloat("1.5 bathrooms"); f == nil || *f != 1.5 {
		t.Fatalf("firstFloat = %v", f)
	}
	if f := firstFloat("1,5"); f == nil || *f != 1.5 {
		t.Fatalf("firstFloat decimal comma = %v", f)
	}
	if f := firstFloat("no number"); f != nil {
		t.Fatalf("firstFloat(no number) = %v", *f)
	}
}
