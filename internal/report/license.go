package report

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/markdown"
	"github.com/sirupsen/logrus"

	"recipecrawler/internal/recipe"
)

// Source is one crawled website's contribution to the license report:
// its identity, its license and the recipes taken from it.
type Source struct {
	Title   string
	SiteURL string
	License string
	Records []recipe.Record
}

// Generator writes the license report. Some licenses require
// attribution, so each recipe line carries its author when one is
// known.
type Generator struct {
	// Client fetches license pages to scrape their titles for link
	// text. Nil disables the fetch and licenses render as bare links.
	Client    *http.Client
	UserAgent string
	// OnBytes receives the size of each license page fetched, feeding
	// the run's approximate byte counter.
	OnBytes func(int64)
}

// Generate renders the report in markdown. Sources without recipes are
// skipped.
func (g *Generator) Generate(w io.Writer, sources []Source) error {
	md := markdown.NewMarkdown(w)

	for _, src := range sources {
		if len(src.Records) == 0 {
			continue
		}
		g.writeSource(md, src)
	}

	return md.Build()
}

func (g *Generator) writeSource(md *markdown.Markdown, src Source) {
	md.H2(src.Title)
	md.PlainText("")
	md.PlainTextf("Website URL: <%s>", src.SiteURL)

	if src.License != "" {
		if title := g.licenseTitle(src.License); title != "" {
			md.PlainTextf("License: [%s](%s)", title, src.License)
		} else {
			md.PlainTextf("License: <%s>", src.License)
		}
	}

	md.PlainText("Recipes:")

	records := make([]recipe.Record, len(src.Records))
	copy(records, src.Records)
	sort.Slice(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].URL < records[j].URL
	})

	items := make([]string, 0, len(records))
	for _, rec := range records {
		items = append(items, recipeLine(rec))
	}
	md.BulletList(items...)
	md.PlainText("")
}

func recipeLine(rec recipe.Record) string {
	line := fmt.Sprintf("[%s](%s)", rec.Name, rec.URL)
	if a := rec.Author; a != nil && a.Name != "" {
		if a.URL != "" && !a.IsPlain() {
			line += fmt.Sprintf(" by [%s](%s)", a.Name, a.URL)
		} else {
			line += " by " + a.Name
		}
	}
	return line
}

// licenseTitle downloads the license page and scrapes its <title> text
// for a readable link label. Any failure falls back to a bare link.
func (g *Generator) licenseTitle(licenseURL string) string {
	if g.Client == nil {
		return ""
	}

	req, err := http.NewRequest(http.MethodGet, licenseURL, nil)
	if err != nil {
		return ""
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		logrus.Warnf("Failed to fetch license page %s: %v", licenseURL, err)
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	if g.OnBytes != nil {
		if cl := resp.ContentLength; cl > 0 {
			g.OnBytes(cl)
		} else {
			g.OnBytes(int64(len(body)))
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(doc.Find("title").First().Text(), "\n", ""))
}
