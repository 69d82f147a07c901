package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"recipecrawler/internal/recipe"
)

// Storage archives crawl runs and their accepted recipes in SQLite, so
// cookbooks from past runs stay queryable after the JSON output has
// been handed off.
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance, opening/creating the DB and initializing schema
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage := &Storage{db: db}

	// Initialize schema
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates tables and indices if they don't exist
func (s *Storage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		recipes_collected INTEGER DEFAULT 0,
		pages_fetched INTEGER DEFAULT 0,
		bytes_downloaded INTEGER DEFAULT 0,
		termination_reason TEXT
	);

	CREATE TABLE IF NOT EXISTS recipes (
		recipe_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		site_url TEXT NOT NULL,
		url TEXT NOT NULL,
		name TEXT,
		record TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id),
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_run ON recipes(run_id);
	CREATE INDEX IF NOT EXISTS idx_recipes_site ON recipes(site_url);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun inserts a run summary row and returns its run_id.
func (s *Storage) SaveRun(run Run) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (started_at, finished_at, recipes_collected, pages_fetched, bytes_downloaded, termination_reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.StartedAt, run.FinishedAt, run.RecipesCollected, run.PagesFetched, run.BytesDownloaded, run.TerminationReason)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve run_id: %w", err)
	}
	return runID, nil
}

// SaveRecipes archives one site's accepted records under a run. Records
// already archived for this run (same URL) are ignored.
func (s *Storage) SaveRecipes(runID int64, siteURL string, records []recipe.Record) error {
	stmt, err := s.db.Prepare(`
		INSERT OR IGNORE INTO recipes (run_id, site_url, url, name, record)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare recipe insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		blob, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal recipe %q: %w", rec.Name, err)
		}
		if _, err := stmt.Exec(runID, siteURL, rec.URL, rec.Name, string(blob)); err != nil {
			return fmt.Errorf("failed to insert recipe %q: %w", rec.Name, err)
		}
	}
	return nil
}

// RecipesForRun returns the archived recipes of a run in insertion
// order.
func (s *Storage) RecipesForRun(runID int64) ([]RecipeRow, error) {
	rows, err := s.db.Query(`
		SELECT recipe_id, run_id, site_url, url, name, record
		FROM recipes
		WHERE run_id = ?
		ORDER BY recipe_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var out []RecipeRow
	for rows.Next() {
		var row RecipeRow
		if err := rows.Scan(&row.RecipeID, &row.RunID, &row.SiteURL, &row.URL, &row.Name, &row.Record); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}
	return out, nil
}

// CountRecipes returns the total number of archived recipes across all
// runs.
func (s *Storage) CountRecipes() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM recipes").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
