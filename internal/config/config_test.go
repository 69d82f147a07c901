package config

import (
	"os"
	"path/filepath"
	"testing"
)

const configFixture = `user_agent: RecipeCrawler
recipe_limit: 40
sites:
  - url: https://www.example.com/
    recipe_url: https://www.example.com/recipes/
    license: https://creativecommons.org/licenses/by-sa/3.0/
    title: Example Recipes
  - url: https://recipes.example.org/
    start_url: https://recipes.example.org/index
    license: proprietary
    title: Example Org
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "website_sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConfig(t, configFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Sites) != 2 {
		t.Fatalf("got %d sites, expected 2", len(cfg.Sites))
	}
	if cfg.RecipeLimit != 40 {
		t.Errorf("got recipe_limit=%d, expected 40", cfg.RecipeLimit)
	}
	if cfg.Sites[0].RecipeURL != "https://www.example.com/recipes/" {
		t.Errorf("got recipe_url=%q", cfg.Sites[0].RecipeURL)
	}
	if cfg.Sites[1].StartURL != "https://recipes.example.org/index" {
		t.Errorf("got start_url=%q", cfg.Sites[1].StartURL)
	}

	// Defaults fill in everything not specified.
	if cfg.RequestTimeoutMs != 5000 {
		t.Errorf("got request_timeout_ms=%d, expected default 5000", cfg.RequestTimeoutMs)
	}
	if cfg.OutputPath != "cookbook.json" {
		t.Errorf("got output_path=%q, expected default cookbook.json", cfg.OutputPath)
	}
	if cfg.MetricsPath != "metrics.json" {
		t.Errorf("got metrics_path=%q, expected default metrics.json", cfg.MetricsPath)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"no sites", "recipe_limit: 5\n"},
		{"missing site url", "sites:\n  - title: Broken\n"},
		{"relative site url", "sites:\n  - url: www.example.com\n"},
		{"timeout too small", "request_timeout_ms: 10\nsites:\n  - url: https://www.example.com/\n"},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestFilterSites(t *testing.T) {
	t.Parallel()

	t.Run("keeps matching sites only", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, configFixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg.FilterSites("EXAMPLE.ORG")
		if len(cfg.Sites) != 1 || cfg.Sites[0].URL != "https://recipes.example.org/" {
			t.Errorf("got %+v, expected only example.org", cfg.Sites)
		}
	})

	t.Run("empty filter keeps everything", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, configFixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg.FilterSites("")
		if len(cfg.Sites) != 2 {
			t.Errorf("got %d sites, expected 2", len(cfg.Sites))
		}
	})

	t.Run("no match empties the list", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, configFixture))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg.FilterSites("tacos.test")
		if len(cfg.Sites) != 0 {
			t.Errorf("got %d sites, expected 0", len(cfg.Sites))
		}
	})
}
