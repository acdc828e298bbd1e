package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLDBlocks returns the raw JSON-LD script bodies of a document.
func jsonLDBlocks(doc *goquery.Document) []string {
	var blocks []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	return blocks
}

// decodeJSONLD flattens every block into a list of objects, unwrapping
// top-level arrays and @graph containers. Malformed blocks are skipped, not
// fatal — sites ship broken JSON-LD all the time.
func decodeJSONLD(blocks []string) []map[string]interface{} {
	var objects []map[string]interface{}

	var add func(v interface{})
	add = func(v interface{}) {
		switch t := v.(type) {
		case map[string]interface{}:
			objects = append(objects, t)
			if graph, ok := t["@graph"]; ok {
				add(graph)
			}
		case []interface{}:
			for _, item := range t {
				add(item)
			}
		}
	}

	for _, block := range blocks {
		var v interface{}
		if err := json.Unmarshal([]byte(block), &v); err != nil {
			continue
		}
		add(v)
	}
	return objects
}

// jsonLDString walks a dotted path through decoded JSON-LD objects and
// returns the first string (or stringified number) found.
func jsonLDString(objects []map[string]interface{}, path ...string) string {
	for _, obj := range objects {
		if v := walkPath(obj, path); v != "" {
			return v
		}
	}
	return ""
}

func walkPath(obj map[string]interface{}, path []string) string {
	var current interface{} = obj
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			// Offers and similar containers may be arrays of one.
			if arr, isArr := current.([]interface{}); isArr && len(arr) > 0 {
				m, ok = arr[0].(map[string]interface{})
			}
			if !ok {
				return ""
			}
		}
		current = m[key]
		if current == nil {
			return ""
		}
	}
	return stringify(current)
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers decode as float64; render without exponent noise.
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
	return ""
}
