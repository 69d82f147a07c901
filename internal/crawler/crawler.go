package crawler

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"recipecrawler/internal/config"
	"recipecrawler/internal/extract"
	"recipecrawler/internal/robots"
)

// Crawler handles one website. Each Step fetches a single page, harvests
// at most one recipe from it, and expands the frontier from the page's
// anchors. It owns its frontier, visited set, ledger and robots policy
// exclusively; nothing is shared between site crawlers.
type Crawler struct {
	site       config.Site
	baseURL    *url.URL
	license    string
	frontier   *Frontier
	visited    *VisitedSet
	ledger     *Ledger
	policy     *robots.Policy
	classifier *Classifier
	extractor  extract.Extractor
	collector  *colly.Collector
	agent      string

	fetches         int
	bytesDownloaded int64

	// Per-visit scratch, valid only for the duration of one Step. The
	// collector runs synchronously, so exactly one visit writes here at
	// a time.
	pageBody []byte
	pageURL  string
	pageLen  int64
	anchors  []string

	metricsCallback func(pagesFetched, pagesFailed, recipesCollected, duplicatesSkipped, sitesExhausted int)
}

// New creates a site crawler. It fetches the site's robots.txt
// immediately; failure to establish a robots policy is a hard error and
// the crawler must not be used. The extractor is chosen by the caller
// from site identity, once, not per page.
func New(site config.Site, extractor extract.Extractor, agent string, timeout time.Duration, rng *rand.Rand,
	metricsCallback func(int, int, int, int, int)) (*Crawler, error) {

	base, err := url.Parse(site.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid site URL %q: %w", site.URL, err)
	}

	policy, err := robots.Build(site.URL, &http.Client{Timeout: timeout}, agent)
	if err != nil {
		return nil, fmt.Errorf("robots policy for %s: %w", site.URL, err)
	}

	c := &Crawler{
		site:            site,
		baseURL:         base,
		license:         usableLicense(site.License),
		frontier:        NewFrontier(rng),
		visited:         NewVisitedSet(),
		ledger:          &Ledger{},
		policy:          policy,
		extractor:       extractor,
		agent:           agent,
		metricsCallback: metricsCallback,
	}
	c.classifier = NewClassifier(base, site.RecipeURL, c.visited, policy, agent)

	// start_url is the seed most likely to reach recipes quickly, such
	// as an index page. Without one the base URL seeds the crawl.
	if site.StartURL != "" {
		logrus.Debugf("Seeding %s with start URL %s", site.URL, site.StartURL)
		c.frontier.PushHigh(site.StartURL)
	} else {
		c.frontier.PushHigh(site.URL)
	}

	c.setupColly(timeout)
	return c, nil
}

// usableLicense keeps only absolute license URLs. Absent or
// "proprietary" licenses are never attached to records.
func usableLicense(license string) string {
	if license == "" || strings.EqualFold(license, "proprietary") {
		return ""
	}
	if !isAbsoluteURL(license) {
		return ""
	}
	return license
}

// setupColly configures the per-site collector. Robots enforcement and
// revisit bookkeeping live in the classifier and visited set, so both
// of colly's built-in mechanisms are switched off. Error-status bodies
// are parsed like any other page; the extractor simply finds nothing
// in them.
func (c *Crawler) setupColly(timeout time.Duration) {
	c.collector = colly.NewCollector(
		colly.UserAgent(c.agent),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.collector.SetRequestTimeout(timeout)

	c.collector.OnResponse(func(r *colly.Response) {
		c.pageBody = r.Body
		c.pageURL = r.Request.URL.String()
		c.pageLen = responseSize(r)
	})

	c.collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		c.anchors = append(c.anchors, e.Attr("href"))
	})
}

// responseSize prefers the declared Content-Length (the compressed
// size) and falls back to the decoded body length. The two are not
// reconciled; the byte counter is a documented approximation.
func responseSize(r *colly.Response) int64 {
	if cl := r.Headers.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			return n
		}
	}
	return int64(len(r.Body))
}

// Step crawls a single page and returns the number of recipes found on
// it (0 or 1). When both frontier tiers are empty it returns
// ErrFrontierExhausted and the crawler is done for good. Fetch failures
// propagate; there is no retry.
func (c *Crawler) Step() (int, error) {
	pageURL, err := c.frontier.Pop()
	if err != nil {
		return 0, err
	}

	c.visited.Add(pageURL)
	logrus.Debugf("Visiting %s", pageURL)

	c.pageBody, c.pageURL, c.pageLen, c.anchors = nil, "", 0, nil
	c.fetches++
	if err := c.collector.Visit(pageURL); err != nil {
		c.reportMetrics(0, 1, 0, 0)
		return 0, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	c.bytesDownloaded += c.pageLen

	found, err := c.harvest()
	if err != nil {
		return 0, err
	}

	c.mineAnchors()
	logrus.Debugf("%s frontier: %d high, %d low", c.baseURL.Host,
		c.frontier.HighLen(), c.frontier.Len()-c.frontier.HighLen())

	c.reportMetrics(1, 0, found, 0)
	return found, nil
}

// harvest runs the extractor over the fetched page and records the
// result in the ledger. Source URL and license are filled in only when
// the extractor left them absent.
func (c *Crawler) harvest() (int, error) {
	records, err := c.extractor.Extract(c.pageBody, c.pageURL)
	if err != nil {
		logrus.Warnf("Extraction failed on %s: %v", c.pageURL, err)
		return 0, nil
	}

	if len(records) == 0 {
		return 0, nil
	}
	if len(records) > 1 {
		return 0, fmt.Errorf("%w: %s yielded %d", ErrMultipleRecipes, c.pageURL, len(records))
	}

	rec := records[0]
	if rec.URL == "" {
		rec.URL = c.pageURL
	}
	if rec.License == "" && c.license != "" {
		rec.License = c.license
	}

	if !c.ledger.Add(rec, string(c.pageBody)) {
		logrus.Debugf("Skipping similar recipe %q from %s", rec.Name, rec.URL)
		c.reportMetrics(0, 0, 0, 1)
		return 0, nil
	}

	logrus.Infof("Recipe %d from %s: %q", c.ledger.Len(), c.baseURL.Host, rec.Name)
	return 1, nil
}

// mineAnchors classifies every anchor found on the fetched page and
// inserts the resolved URLs into the frontier per verdict.
func (c *Crawler) mineAnchors() {
	for _, href := range c.anchors {
		verdict := c.classifier.Rank(href)
		switch verdict.Decision {
		case High:
			c.frontier.PushHigh(verdict.URL)
		case Low:
			c.frontier.PushLow(verdict.URL)
		}
		// Rejected URLs are dropped; the reason is only interesting
		// when debugging classification.
	}
}

func (c *Crawler) reportMetrics(fetched, failed, recipes, duplicates int) {
	if c.metricsCallback != nil {
		c.metricsCallback(fetched, failed, recipes, duplicates, 0)
	}
}

// BaseURL returns the site's base URL as registered.
func (c *Crawler) BaseURL() string {
	return c.site.URL
}

// SiteTitle returns the site's display title.
func (c *Crawler) SiteTitle() string {
	return c.site.Title
}

// LicenseURL returns the validated license URL, or "" when the site's
// content carries no attachable license.
func (c *Crawler) LicenseURL() string {
	return c.license
}

// Ledger returns the crawler's accepted recipes.
func (c *Crawler) Ledger() *Ledger {
	return c.ledger
}

// Fetches returns the number of page GETs issued so far.
func (c *Crawler) Fetches() int {
	return c.fetches
}

// BytesDownloaded returns the approximate number of bytes fetched.
func (c *Crawler) BytesDownloaded() int64 {
	return c.bytesDownloaded
}
