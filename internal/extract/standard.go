package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"recipecrawler/internal/recipe"
)

// Standard extracts schema.org/Recipe records embedded as JSON-LD in
// <script type="application/ld+json"> blocks. This covers the large
// majority of recipe websites.
type Standard struct{}

// Extract returns every Recipe node found on the page, in document order.
// Malformed JSON-LD blocks are skipped, not fatal; a page with no recipe
// markup yields an empty slice.
func (s *Standard) Extract(body []byte, pageURL string) ([]recipe.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var records []recipe.Record
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var node any
		if err := json.Unmarshal([]byte(sel.Text()), &node); err != nil {
			logrus.Debugf("Skipping malformed JSON-LD block on %s: %v", pageURL, err)
			return
		}
		for _, obj := range recipeNodes(node) {
			records = append(records, mapRecord(obj))
		}
	})

	return records, nil
}

// recipeNodes walks a decoded JSON-LD value and collects every object
// whose @type is (or includes) Recipe. Top-level arrays and @graph
// wrappers are both common in the wild.
func recipeNodes(node any) []map[string]any {
	var found []map[string]any

	switch v := node.(type) {
	case []any:
		for _, item := range v {
			found = append(found, recipeNodes(item)...)
		}
	case map[string]any:
		if isRecipeType(v["@type"]) {
			found = append(found, v)
		} else if graph, ok := v["@graph"]; ok {
			found = append(found, recipeNodes(graph)...)
		}
	}

	return found
}

func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == recipe.SchemaType
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == recipe.SchemaType {
				return true
			}
		}
	}
	return false
}

// mapRecord converts a raw JSON-LD Recipe object into a Record,
// tolerating the value-shape variance JSON-LD allows.
func mapRecord(obj map[string]any) recipe.Record {
	rec := recipe.Record{
		Context:      recipe.SchemaContext,
		Type:         recipe.SchemaType,
		Name:         asString(obj["name"]),
		Ingredients:  asStringList(obj["recipeIngredient"]),
		Instructions: instructionList(obj["recipeInstructions"]),
		TotalTime:    asString(obj["totalTime"]),
		Image:        imageURL(obj["image"]),
		Yield:        asString(obj["recipeYield"]),
		URL:          asString(obj["url"]),
		License:      asString(obj["license"]),
	}

	if raw, ok := obj["author"]; ok {
		if data, err := json.Marshal(firstOf(raw)); err == nil {
			var author recipe.Author
			if err := author.UnmarshalJSON(data); err == nil && author.Name != "" {
				rec.Author = &author
			}
		}
	}

	return rec
}

// instructionList flattens recipeInstructions, which may be a plain
// string, a list of strings, a list of HowToStep objects, or HowToSection
// wrappers around those.
func instructionList(v any) []string {
	switch val := v.(type) {
	case string:
		return splitLines(val)
	case []any:
		var steps []string
		for _, item := range val {
			switch step := item.(type) {
			case string:
				steps = append(steps, step)
			case map[string]any:
				if text := asString(step["text"]); text != "" {
					steps = append(steps, text)
				} else if sub, ok := step["itemListElement"]; ok {
					steps = append(steps, instructionList(sub)...)
				}
			}
		}
		return steps
	}
	return nil
}

func imageURL(v any) string {
	switch val := firstOf(v).(type) {
	case string:
		return val
	case map[string]any:
		return asString(val["url"])
	}
	return ""
}

// firstOf unwraps single-element usage of JSON-LD list values.
func firstOf(v any) any {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

func asString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
	case []any:
		return asString(firstOf(val))
	}
	return ""
}

func asStringList(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
