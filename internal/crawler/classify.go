package crawler

import (
	"net/url"
	"strings"

	"recipecrawler/internal/robots"
)

// Decision is the classifier's verdict on a candidate link.
type Decision int

const (
	// Reject means the link must not be enqueued.
	Reject Decision = iota
	// Low means the link is of unknown value.
	Low
	// High means the link is likely to lead to recipe content.
	High
)

// Verdict carries a Decision plus the resolved absolute URL, which is
// what downstream logic enqueues (never the raw href). Reason is set
// only on rejection.
type Verdict struct {
	Decision Decision
	URL      string
	Reason   string
}

// Classifier scores candidate hrefs mined from a fetched page. It is
// pure given the crawler's current visited set and robots policy.
type Classifier struct {
	base         *url.URL
	recipePrefix string
	visited      *VisitedSet
	policy       *robots.Policy
	agent        string
}

// NewClassifier builds a classifier for one site. recipePrefix may be
// empty when the site has no known recipe path.
func NewClassifier(base *url.URL, recipePrefix string, visited *VisitedSet, policy *robots.Policy, agent string) *Classifier {
	return &Classifier{
		base:         base,
		recipePrefix: recipePrefix,
		visited:      visited,
		policy:       policy,
		agent:        agent,
	}
}

// Rank evaluates one href. Rules apply in order, first match wins:
// non-navigational hrefs and off-domain URLs are rejected, relative
// hrefs are resolved against the site base, visited and
// robots-disallowed URLs are rejected, and a configured recipe-path
// prefix promotes the remainder to High.
func (c *Classifier) Rank(href string) Verdict {
	if href == "" {
		return rejected(href, "not a usable link")
	}

	if strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") {
		return rejected(href, "non-navigational")
	}

	var resolved string
	if isAbsoluteURL(href) {
		if !c.sameDomain(href) {
			return rejected(href, "off-domain")
		}
		resolved = href
	} else {
		ref, err := url.Parse(href)
		if err != nil {
			return rejected(href, "not a usable link")
		}
		resolved = c.base.ResolveReference(ref).String()
	}

	if c.visited.Contains(resolved) {
		return rejected(resolved, "already visited")
	}

	if !c.policy.Allows(c.agent, resolved) {
		return rejected(resolved, "robots-disallowed")
	}

	if c.recipePrefix != "" && strings.HasPrefix(resolved, c.recipePrefix) {
		return Verdict{Decision: High, URL: resolved}
	}

	return Verdict{Decision: Low, URL: resolved}
}

func rejected(u, reason string) Verdict {
	return Verdict{Decision: Reject, URL: u, Reason: reason}
}

// sameDomain compares the candidate's authority against the site base,
// case-insensitively.
func (c *Classifier) sameDomain(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(c.base.Host, u.Host)
}

// isAbsoluteURL is a simplistic test for hrefs that already carry a
// scheme and authority.
func isAbsoluteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
