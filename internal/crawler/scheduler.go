package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"recipecrawler/internal/config"
	"recipecrawler/internal/extract"
	"recipecrawler/internal/recipe"
)

// Options configures a MultiCrawler.
type Options struct {
	// UserAgent identifies the crawler to servers and robots policies.
	UserAgent string
	// RequestTimeout bounds each page fetch.
	RequestTimeout time.Duration
	// StepDelay paces crawl steps; zero disables politeness pacing.
	StepDelay time.Duration
	// Rand drives low-tier frontier selection across all site crawlers.
	// Nil gets a time-seeded source.
	Rand *rand.Rand
	// MetricsCallback receives positive deltas for pages fetched, pages
	// failed, recipes collected, duplicates skipped and sites
	// exhausted. May be nil.
	MetricsCallback func(int, int, int, int, int)
}

// MultiCrawler directs multiple site crawlers. It round-robins single
// crawl steps across them until the recipe target is met or every
// crawler's frontier is exhausted. All rotation and counter state is
// touched only between steps, never during one; the scheduler is the
// single ordering authority.
type MultiCrawler struct {
	opts    Options
	limiter *rate.Limiter

	all      []*Crawler // registration order, retired included
	rotation []*Crawler
	retired  []*Crawler
	next     int

	numRecipes int
}

// NewMultiCrawler creates an empty scheduler.
func NewMultiCrawler(opts Options) *MultiCrawler {
	if opts.UserAgent == "" {
		opts.UserAgent = "RecipeCrawler"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m := &MultiCrawler{opts: opts}
	if opts.StepDelay > 0 {
		m.limiter = rate.NewLimiter(rate.Every(opts.StepDelay), 1)
	}
	return m
}

// Register builds a site crawler and adds it to the rotation. The
// extractor is selected here, from site identity. A robots policy
// failure surfaces as an error and the site is never activated.
func (m *MultiCrawler) Register(site config.Site) error {
	c, err := New(site, extract.ForSite(site.URL), m.opts.UserAgent,
		m.opts.RequestTimeout, m.opts.Rand, m.opts.MetricsCallback)
	if err != nil {
		return fmt.Errorf("register %s: %w", site.URL, err)
	}

	m.all = append(m.all, c)
	m.rotation = append(m.rotation, c)
	logrus.Infof("Registered crawler for %s", site.URL)
	return nil
}

// Run crawls until the recipe target is met or no active crawlers
// remain. The rotation-empty check short-circuits the target: with zero
// crawlers no progress is possible, so the run ends even mid-target.
// That also means a run registered with zero crawlers returns
// immediately.
func (m *MultiCrawler) Run(ctx context.Context, target int) error {
	logrus.Infof("Crawling for %d recipes across %d sites", target, len(m.rotation))

	for m.numRecipes < target {
		if len(m.rotation) == 0 {
			logrus.Infof("All sites exhausted with %d of %d recipes", m.numRecipes, target)
			return nil
		}

		if err := m.pace(ctx); err != nil {
			return err
		}

		c := m.rotation[m.next%len(m.rotation)]
		found, err := c.Step()
		switch {
		case errors.Is(err, ErrFrontierExhausted):
			logrus.Infof("Frontier exhausted, retiring crawler for %s", c.BaseURL())
			if !m.retire(c.BaseURL()) {
				return fmt.Errorf("%w: %s", ErrRotationCorrupt, c.BaseURL())
			}
			continue
		case err != nil:
			return fmt.Errorf("site %s: %w", c.BaseURL(), err)
		}

		m.numRecipes += found
		m.next = (m.next + 1) % len(m.rotation)
		logrus.Debugf("Collected %d of %d recipes", m.numRecipes, target)
	}

	logrus.Infof("Recipe target reached: %d", m.numRecipes)
	return nil
}

func (m *MultiCrawler) pace(ctx context.Context) error {
	if m.limiter == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return nil
	}
	return m.limiter.Wait(ctx)
}

// retire moves the crawler with the given base URL out of the active
// rotation. The rotation restarts at its first remaining member, the
// same observable order a rebuilt cycle gives. Returns false when no
// such crawler is active.
func (m *MultiCrawler) retire(baseURL string) bool {
	for i, c := range m.rotation {
		if c.BaseURL() == baseURL {
			m.rotation = append(m.rotation[:i], m.rotation[i+1:]...)
			m.retired = append(m.retired, c)
			m.next = 0
			if m.opts.MetricsCallback != nil {
				m.opts.MetricsCallback(0, 0, 0, 0, 1)
			}
			return true
		}
	}
	return false
}

// Results concatenates every ledger in site registration order,
// preserving per-site insertion order. Retired crawlers' recipes are
// included.
func (m *MultiCrawler) Results() []recipe.Record {
	var out []recipe.Record
	for _, c := range m.all {
		out = append(out, c.Ledger().Records()...)
	}
	return out
}

// Pages returns the HTML of every accepted recipe page, in the same
// order as Results.
func (m *MultiCrawler) Pages() []string {
	var out []string
	for _, c := range m.all {
		out = append(out, c.Ledger().Pages()...)
	}
	return out
}

// Crawlers returns every registered crawler in registration order,
// retired included. Read-only accessor for reporting.
func (m *MultiCrawler) Crawlers() []*Crawler {
	return m.all
}

// NumRecipes returns the global accepted-recipe count.
func (m *MultiCrawler) NumRecipes() int {
	return m.numRecipes
}

// Fetches sums page GET calls across all crawlers.
func (m *MultiCrawler) Fetches() int {
	var n int
	for _, c := range m.all {
		n += c.Fetches()
	}
	return n
}

// BytesDownloaded sums the approximate bytes fetched across all
// crawlers.
func (m *MultiCrawler) BytesDownloaded() int64 {
	var n int64
	for _, c := range m.all {
		n += c.BytesDownloaded()
	}
	return n
}
