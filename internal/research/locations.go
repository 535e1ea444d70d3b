package research

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-research/internal/fetcher"
	"github.com/sells-group/prospect-research/pkg/ner"
)

var locationPaths = []string{"", "/about", "/about-us", "/contact", "/contact-us", "/locations"}

const maxLocationLen = 40

// usSynonyms maps country-level mentions onto one comparison key so that
// "USA", "U.S." and "United States" dedup against each other.
var usSynonyms = map[string]string{
	"usa":           "united states",
	"u.s.":          "united states",
	"u.s.a.":        "united states",
	"us":            "united states",
	"america":       "united states",
	"united states": "united states",
}

// genericLocations are entities too broad to identify where a company
// operates.
var genericLocations = map[string]bool{
	"united states": true,
	"earth":         true,
	"world":         true,
	"north america": true,
	"europe":        true,
	"asia":          true,
}

// ExtractLocations runs named-entity recognition over a site's
// contact-style pages and returns deduplicated place names.
func ExtractLocations(ctx context.Context, fetch fetcher.Client, entities ner.Client, domain string) ([]string, error) {
	base, _, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	var found []string
	for _, path := range locationPaths {
		out := fetch.Fetch(ctx, base+path, fetcher.Options{Retries: 1})
		if !out.OK() {
			continue
		}
		doc, err := parseDoc(out.Body)
		if err != nil {
			continue
		}
		text := visibleText(doc)
		if text == "" {
			continue
		}
		ents, err := entities.Entities(ctx, text)
		if err != nil {
			zap.L().Warn("entity recognition failed",
				zap.String("url", base+path),
				zap.Error(err))
			continue
		}
		for _, e := range ents {
			name := strings.TrimSpace(e.Text)
			if e.Label != ner.GPE || name == "" || len(name) > maxLocationLen {
				continue
			}
			found = append(found, name)
		}
	}
	return DedupLocations(found), nil
}

// locationKey normalizes a location for comparison only; display keeps the
// original casing and punctuation.
func locationKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.Trim(key, ".,")
	if canon, ok := usSynonyms[key]; ok {
		return canon
	}
	return key
}

// DedupLocations collapses case variants, drops generic regions, and
// removes names contained in a longer name from the same set
// ("California" when "Ontario, California" is present).
func DedupLocations(names []string) []string {
	seen := make(map[string]string, len(names))
	for _, name := range names {
		key := locationKey(name)
		if key == "" || genericLocations[key] {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = strings.TrimSpace(name)
		}
	}

	type entry struct{ key, display string }
	entries := make([]entry, 0, len(seen))
	for k, d := range seen {
		entries = append(entries, entry{k, d})
	}
	// Longest first so containment checks only look at already-kept names.
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].key) != len(entries[j].key) {
			return len(entries[i].key) > len(entries[j].key)
		}
		return entries[i].key < entries[j].key
	})

	var kept []entry
	for _, e := range entries {
		contained := false
		for _, k := range kept {
			if strings.Contains(k.key, e.key) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, e)
		}
	}

	out := make([]string, len(kept))
	for i, e := range kept {
		out[i] = e.display
	}
	sort.Strings(out)
	return out
}
