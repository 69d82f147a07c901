package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"recipecrawler/internal/recipe"
)

// profile is a set of CSS selectors describing where one non-conforming
// website keeps its recipe parts.
type profile struct {
	host         string
	name         string
	ingredients  string
	instructions string
	totalTime    string
	image        string
	yield        string
}

// Sites whose pages carry no schema.org/Recipe markup. Check for
// standard markup before adding a profile here.
var profiles = []*profile{
	{
		host:         "myplate.gov",
		name:         "h1.mp-recipe-full__title",
		ingredients:  ".mp-recipe-full__ingredients li",
		instructions: ".mp-recipe-full__instructions ol li",
		totalTime:    ".mp-recipe-full__detail--time .mp-recipe-full__detail--data",
		image:        ".mp-recipe-full__image img",
		yield:        ".mp-recipe-full__detail--yield .mp-recipe-full__detail--data",
	},
	{
		host:         "healthyeating.nhlbi.nih.gov",
		name:         "div.recipe_detail h1",
		ingredients:  "div.ingredients_table div.ingredient_row",
		instructions: "div.directions p",
		totalTime:    "div.prep_time span.value",
		image:        "div.recipe_image img",
		yield:        "div.yields span.value",
	},
}

func profileFor(siteURL string) *profile {
	for _, p := range profiles {
		if strings.Contains(siteURL, p.host) {
			return p
		}
	}
	return nil
}

// Adapter scrapes recipe parts out of page markup for one flagged site
// and assembles them into a schema.org/Recipe record. The record
// independently carries @context/@type tags and the page URL, so its
// output is interchangeable with the standard extractor's.
type Adapter struct {
	profile *profile
}

// Extract returns at most one record. A page without the profile's
// ingredient markup is not a recipe page and yields nothing.
func (a *Adapter) Extract(body []byte, pageURL string) ([]recipe.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	ingredients := textList(doc, a.profile.ingredients)
	if len(ingredients) == 0 {
		return nil, nil
	}

	rec := recipe.Record{
		Context:      recipe.SchemaContext,
		Type:         recipe.SchemaType,
		Name:         textOf(doc, a.profile.name),
		Ingredients:  ingredients,
		Instructions: textList(doc, a.profile.instructions),
		URL:          pageURL,
	}

	if minutes := minutesOf(doc, a.profile.totalTime); minutes > 0 {
		rec.TotalTime = recipe.ISODuration(time.Duration(minutes) * time.Minute)
	}
	if img, ok := doc.Find(a.profile.image).First().Attr("src"); ok {
		rec.Image = img
	}
	rec.Yield = textOf(doc, a.profile.yield)

	return []recipe.Record{rec}, nil
}

func textOf(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func textList(doc *goquery.Document, selector string) []string {
	var out []string
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

var minutesPattern = regexp.MustCompile(`(\d+)`)

// minutesOf pulls a minute count out of free-form text like
// "Total time: 25 minutes".
func minutesOf(doc *goquery.Document, selector string) int {
	match := minutesPattern.FindString(textOf(doc, selector))
	if match == "" {
		return 0
	}
	minutes, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return minutes
}
