package storage

import "time"

// Run summarizes one crawl run.
type Run struct {
	RunID             int64
	StartedAt         time.Time
	FinishedAt        time.Time
	RecipesCollected  int
	PagesFetched      int
	BytesDownloaded   int64
	TerminationReason string
}

// RecipeRow is one archived recipe. Record holds the full
// schema.org/Recipe JSON.
type RecipeRow struct {
	RecipeID int64
	RunID    int64
	SiteURL  string
	URL      string
	Name     string
	Record   string
}

// Metrics tracks crawl statistics for export on exit
type Metrics struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	SitesRegistered   int       `json:"sites_registered"`
	SitesExhausted    int       `json:"sites_exhausted"`
	PagesFetched      int       `json:"pages_fetched"`
	PagesFailed       int       `json:"pages_failed"`
	RecipesCollected  int       `json:"recipes_collected"`
	DuplicatesSkipped int       `json:"duplicates_skipped"`
	BytesDownloaded   int64     `json:"bytes_downloaded"`
	TerminationReason string    `json:"termination_reason"`
}
