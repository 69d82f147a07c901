package robots

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// Policy answers fetch-permission queries for one site. It is built once,
// at site crawler construction, from the site's robots.txt.
type Policy struct {
	data *robotstxt.RobotsData
}

// Build fetches {base authority}/robots.txt and parses it into a Policy.
// A network or parse failure is returned to the caller; it is a hard
// per-site failure, never a silent allow-all.
func Build(siteBaseURL string, client *http.Client, userAgent string) (*Policy, error) {
	base, err := url.Parse(siteBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse site URL %q: %w", siteBaseURL, err)
	}

	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	logrus.Debugf("Reading robots.txt at %s", robotsURL)

	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", robotsURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", robotsURL, err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", robotsURL, err)
	}

	return &Policy{data: data}, nil
}

// Parse builds a Policy directly from robots.txt text. Rules are applied
// as if the file was served with status 200.
func Parse(body []byte) (*Policy, error) {
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return &Policy{data: data}, nil
}

// Allows reports whether the given agent may fetch rawURL under this
// site's robots rules. Unparseable URLs are not fetchable.
func (p *Policy) Allows(agent, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	group := p.data.FindGroup(agent)
	if group == nil {
		group = p.data.FindGroup("*")
		if group == nil {
			return true
		}
	}
	return group.Test(path)
}
