package extract

import (
	"recipecrawler/internal/recipe"
)

// Extractor turns a fetched page into recipe records. Implementations
// return zero records when the page has no recipe content; they never
// guess. pageURL is the final URL after redirects.
type Extractor interface {
	Extract(body []byte, pageURL string) ([]recipe.Record, error)
}

// ForSite selects the extractor for a site at crawler construction time.
// A few sites do not publish schema.org/Recipe markup and need a
// site-specific selector adapter; everything else gets the standard
// JSON-LD extractor.
func ForSite(siteURL string) Extractor {
	if p := profileFor(siteURL); p != nil {
		return &Adapter{profile: p}
	}
	return &Standard{}
}
