package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site describes one website to crawl. Immutable for the lifetime of a
// crawl.
type Site struct {
	// URL is the site's base URL; its authority anchors same-domain checks.
	URL string `yaml:"url"`
	// RecipeURL is an optional URL prefix marking high-value pages,
	// something like http://www.example.com/recipes/.
	RecipeURL string `yaml:"recipe_url"`
	// License is an absolute URL to the content license. Absent or
	// "proprietary" means no license is attached to records.
	License string `yaml:"license"`
	// StartURL optionally seeds the crawl somewhere other than URL,
	// such as a recipe index page.
	StartURL string `yaml:"start_url"`
	// Title is the website's display title, used in reports.
	Title string `yaml:"title"`
}

// Config holds all runtime configuration parameters plus the ordered
// website source list.
type Config struct {
	UserAgent        string `yaml:"user_agent"`
	RecipeLimit      int    `yaml:"recipe_limit"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
	StepDelayMs      int    `yaml:"step_delay_ms"`
	OutputPath       string `yaml:"output_path"`
	DBPath           string `yaml:"db_path"`
	MetricsPath      string `yaml:"metrics_path"`
	Sites            []Site `yaml:"sites"`
}

// LoadConfig reads and validates configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "RecipeCrawler"
	}
	if cfg.RecipeLimit == 0 {
		cfg.RecipeLimit = 20
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = 5000
	}
	if cfg.StepDelayMs == 0 {
		cfg.StepDelayMs = 1000
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "cookbook.json"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "cookbook.db"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "metrics.json"
	}
}

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	if len(cfg.Sites) == 0 {
		return fmt.Errorf("at least one site is required")
	}
	for i, site := range cfg.Sites {
		if site.URL == "" {
			return fmt.Errorf("sites[%d]: url is required", i)
		}
		if !strings.HasPrefix(site.URL, "http://") && !strings.HasPrefix(site.URL, "https://") {
			return fmt.Errorf("sites[%d]: url %q must be absolute", i, site.URL)
		}
	}
	if cfg.RecipeLimit < 1 {
		return fmt.Errorf("recipe_limit must be >= 1")
	}
	if cfg.RequestTimeoutMs < 1000 {
		return fmt.Errorf("request_timeout_ms must be >= 1000")
	}
	if cfg.StepDelayMs < 0 {
		return fmt.Errorf("step_delay_ms must be >= 0")
	}
	return nil
}

// FilterSites keeps only sites whose URL contains the given substring,
// case-insensitively. An empty substring keeps everything.
func (cfg *Config) FilterSites(substr string) {
	if substr == "" {
		return
	}
	needle := strings.ToLower(substr)
	kept := cfg.Sites[:0]
	for _, site := range cfg.Sites {
		if strings.Contains(strings.ToLower(site.URL), needle) {
			kept = append(kept, site)
		}
	}
	cfg.Sites = kept
}
