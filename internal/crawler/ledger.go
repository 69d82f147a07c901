package crawler

import (
	"recipecrawler/internal/recipe"
)

// Ledger is the per-site collection of accepted recipes. Entries are
// appended in acceptance order and never removed or mutated. The raw
// HTML of each accepted page is kept alongside its record.
type Ledger struct {
	records []recipe.Record
	pages   []string
}

// Add appends a record unless a similar one is already present. Returns
// true when the record was accepted, false when it was judged a
// duplicate and discarded.
func (l *Ledger) Add(rec recipe.Record, pageHTML string) bool {
	if l.FindSimilar(rec) >= 0 {
		return false
	}
	l.records = append(l.records, rec)
	l.pages = append(l.pages, pageHTML)
	return true
}

// FindSimilar returns the index of the first entry similar to rec, or
// -1 when none matches.
func (l *Ledger) FindSimilar(rec recipe.Record) int {
	for i, existing := range l.records {
		if existing.Similar(rec) {
			return i
		}
	}
	return -1
}

// Records returns the accepted records in insertion order.
func (l *Ledger) Records() []recipe.Record {
	return l.records
}

// Pages returns the HTML of each accepted page, parallel to Records.
func (l *Ledger) Pages() []string {
	return l.pages
}

// Len returns the number of accepted records.
func (l *Ledger) Len() int {
	return len(l.records)
}
