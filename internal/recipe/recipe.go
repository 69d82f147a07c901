package recipe

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// SchemaContext is the JSON-LD context attached to every record.
const SchemaContext = "https://schema.org"

// SchemaType is the JSON-LD type attached to every record.
const SchemaType = "Recipe"

// Record is one recipe in schema.org/Recipe form. Optional fields are
// empty/nil when the source page did not provide them.
type Record struct {
	Context      string   `json:"@context,omitempty"`
	Type         string   `json:"@type,omitempty"`
	Name         string   `json:"name,omitempty"`
	Ingredients  []string `json:"recipeIngredient,omitempty"`
	Instructions []string `json:"recipeInstructions,omitempty"`
	TotalTime    string   `json:"totalTime,omitempty"`
	Image        string   `json:"image,omitempty"`
	Yield        string   `json:"recipeYield,omitempty"`
	URL          string   `json:"url,omitempty"`
	License      string   `json:"license,omitempty"`
	Author       *Author  `json:"author,omitempty"`
}

// Similar reports whether two records describe the same recipe. Two records
// match if their source URLs are equal, or if name, instructions and
// ingredients are all equal. Near-duplicates reachable under different URLs
// with trivial text differences are not caught; this is an exact-match
// heuristic.
func (r Record) Similar(other Record) bool {
	if r.URL != "" && r.URL == other.URL {
		return true
	}
	return r.Name == other.Name &&
		slices.Equal(r.Instructions, other.Instructions) &&
		slices.Equal(r.Ingredients, other.Ingredients)
}

// Author identifies who published a recipe. Websites emit it either as a
// bare string or as a schema.org Person object, so both forms round-trip.
type Author struct {
	Name string
	URL  string
	// raw is true when the author was a bare string outside the
	// schema.org/Recipe spec (Food.com behaves this way).
	raw bool
}

// IsPlain reports whether the author was given as a bare string.
func (a *Author) IsPlain() bool {
	return a.raw
}

// UnmarshalJSON accepts either "author": "Jane" or
// "author": {"name": "Jane", "url": "..."}.
func (a *Author) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Name = s
		a.raw = true
		return nil
	}

	var obj struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("author is neither string nor object: %w", err)
	}
	a.Name = obj.Name
	a.URL = obj.URL
	return nil
}

// MarshalJSON writes the author back in the form it arrived in.
func (a *Author) MarshalJSON() ([]byte, error) {
	if a.raw {
		return json.Marshal(a.Name)
	}
	obj := struct {
		Type string `json:"@type,omitempty"`
		Name string `json:"name,omitempty"`
		URL  string `json:"url,omitempty"`
	}{Type: "Person", Name: a.Name, URL: a.URL}
	return json.Marshal(obj)
}

// ISODuration renders a duration as an ISO-8601 duration string, e.g.
// 75 minutes becomes "PT1H15M". Sub-minute precision is dropped.
func ISODuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	s := "PT"
	if h > 0 {
		s += fmt.Sprintf("%dH", h)
	}
	if m > 0 || h == 0 {
		s += fmt.Sprintf("%dM", m)
	}
	return s
}
