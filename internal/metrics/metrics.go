package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"recipecrawler/internal/storage"
)

// Tracker holds and manages crawl metrics
type Tracker struct {
	mu   sync.Mutex
	data storage.Metrics
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: storage.Metrics{
			StartTime: time.Now(),
		},
	}
}

// SetSitesRegistered records how many site crawlers entered the rotation.
func (t *Tracker) SetSitesRegistered(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.SitesRegistered = n
}

// Observe applies positive deltas from a crawl step. It matches the
// callback signature the scheduler and crawlers report through.
func (t *Tracker) Observe(pagesFetched, pagesFailed, recipesCollected, duplicatesSkipped, sitesExhausted int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.PagesFetched += pagesFetched
	t.data.PagesFailed += pagesFailed
	t.data.RecipesCollected += recipesCollected
	t.data.DuplicatesSkipped += duplicatesSkipped
	t.data.SitesExhausted += sitesExhausted
}

// AddBytes adds to the (approximate) downloaded-byte counter.
func (t *Tracker) AddBytes(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.BytesDownloaded += n
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() storage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Finalize metrics
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason

	// Marshal to JSON
	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress prints current metrics to console (for periodic updates)
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return fmt.Sprintf("Recipes: %d collected, %d duplicates skipped | Pages: %d fetched, %d failed | Sites: %d of %d exhausted",
		t.data.RecipesCollected,
		t.data.DuplicatesSkipped,
		t.data.PagesFetched,
		t.data.PagesFailed,
		t.data.SitesExhausted,
		t.data.SitesRegistered,
	)
}
