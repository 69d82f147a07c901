package crawler

import (
	"math/rand"
	"slices"
)

// Frontier is a per-site two-tier URL queue. The high tier holds URLs
// believed likely to contain recipes and is consumed last-in-first-out,
// so freshly discovered high-value links are explored before older ones.
// The low tier holds URLs of unknown value and is consumed by picking a
// uniformly random element, which keeps the crawl from tunneling into
// one corner of a site.
type Frontier struct {
	high []string
	low  []string
	rng  *rand.Rand
}

// NewFrontier creates an empty frontier. rng drives low-tier selection;
// injecting it keeps crawls reproducible under test.
func NewFrontier(rng *rand.Rand) *Frontier {
	return &Frontier{rng: rng}
}

// PushHigh adds a URL to the high tier unless the frontier already
// holds it.
func (f *Frontier) PushHigh(url string) bool {
	if f.contains(url) {
		return false
	}
	f.high = append(f.high, url)
	return true
}

// PushLow adds a URL to the low tier unless the frontier already
// holds it.
func (f *Frontier) PushLow(url string) bool {
	if f.contains(url) {
		return false
	}
	f.low = append(f.low, url)
	return true
}

// Pop removes and returns the next URL to visit: the most recently
// added high-tier URL, or a random low-tier URL when the high tier is
// empty. Returns ErrFrontierExhausted when both tiers are empty.
func (f *Frontier) Pop() (string, error) {
	if n := len(f.high); n > 0 {
		url := f.high[n-1]
		f.high = f.high[:n-1]
		return url, nil
	}
	if n := len(f.low); n > 0 {
		i := f.rng.Intn(n)
		url := f.low[i]
		f.low = append(f.low[:i], f.low[i+1:]...)
		return url, nil
	}
	return "", ErrFrontierExhausted
}

// Len returns the total number of queued URLs across both tiers.
func (f *Frontier) Len() int {
	return len(f.high) + len(f.low)
}

// HighLen returns the number of queued high-tier URLs.
func (f *Frontier) HighLen() int {
	return len(f.high)
}

// A URL lives in at most one tier, so membership is checked across both.
func (f *Frontier) contains(url string) bool {
	return slices.Contains(f.high, url) || slices.Contains(f.low, url)
}

// VisitedSet is the append-only set of URLs a crawler has fetched. It
// only ever grows; it backs both re-fetch and re-enqueue prevention.
type VisitedSet struct {
	urls map[string]struct{}
}

// NewVisitedSet creates an empty visited set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// Add records a URL as visited.
func (v *VisitedSet) Add(url string) {
	v.urls[url] = struct{}{}
}

// Contains reports whether the URL has been visited.
func (v *VisitedSet) Contains(url string) bool {
	_, ok := v.urls[url]
	return ok
}

// Len returns the number of visited URLs.
func (v *VisitedSet) Len() int {
	return len(v.urls)
}
