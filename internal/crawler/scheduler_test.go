package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"recipecrawler/internal/config"
)

// fetchLog records which site served each page fetch, in order.
// robots.txt fetches are not part of the rotation and are skipped.
type fetchLog struct {
	mu   sync.Mutex
	tags []string
}

func (l *fetchLog) record(tag string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tags = append(l.tags, tag)
}

func (l *fetchLog) entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.tags...)
}

// newChainSite serves a base page linking into /recipes/p0, then a
// chain of pages each holding one unique recipe and a link onward. The
// recipe-path prefix keeps traversal on the deterministic high tier.
func newChainSite(t *testing.T, log *fetchLog, tag string, length int) config.Site {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.record(tag)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, recipePage("", "/recipes/p0"))
	})
	for i := 0; i < length; i++ {
		hrefs := []string{}
		if i+1 < length {
			hrefs = append(hrefs, fmt.Sprintf("/recipes/p%d", i+1))
		}
		page := recipePage(fmt.Sprintf("%s recipe %d", tag, i), hrefs...)
		mux.HandleFunc(fmt.Sprintf("/recipes/p%d", i), func(w http.ResponseWriter, r *http.Request) {
			log.record(tag)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, page)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return config.Site{
		URL:       srv.URL + "/",
		RecipeURL: srv.URL + "/recipes/",
		Title:     tag,
	}
}

// newSinglePageSite serves one recipe on its base page and links
// nowhere, so the crawler exhausts after one step.
func newSinglePageSite(t *testing.T, log *fetchLog, tag string) config.Site {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.record(tag)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, recipePage(tag+" special"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return config.Site{URL: srv.URL + "/", Title: tag}
}

func newTestScheduler(sums *metricsSums) *MultiCrawler {
	opts := Options{
		UserAgent:      "RecipeCrawler/test",
		RequestTimeout: 2 * time.Second,
	}
	if sums != nil {
		opts.MetricsCallback = sums.observe
	}
	return NewMultiCrawler(opts)
}

func TestSchedulerRoundRobinFairness(t *testing.T) {
	t.Parallel()

	var log fetchLog
	mc := newTestScheduler(nil)
	for _, tag := range []string{"alpha", "beta"} {
		if err := mc.Register(newChainSite(t, &log, tag, 4)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := mc.Run(context.Background(), 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Without exhaustion, steps must alternate in registration order.
	entries := log.entries()
	if len(entries) < 4 {
		t.Fatalf("got only %d fetches", len(entries))
	}
	for i, tag := range entries {
		expected := []string{"alpha", "beta"}[i%2]
		if tag != expected {
			t.Fatalf("fetch %d hit %q, expected %q (full order: %v)", i, tag, expected, entries)
		}
	}

	if mc.NumRecipes() != 4 {
		t.Errorf("got %d recipes, expected 4", mc.NumRecipes())
	}
}

func TestSchedulerStopsAtTargetWithoutDraining(t *testing.T) {
	t.Parallel()

	var log fetchLog
	mc := newTestScheduler(nil)
	if err := mc.Register(newChainSite(t, &log, "alpha", 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mc.Register(newChainSite(t, &log, "beta", 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mc.Run(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(mc.Results()); got != 2 {
		t.Errorf("got %d results, expected exactly the target", got)
	}
	// Frontiers still hold work; the run stopped on the counter check.
	for _, c := range mc.Crawlers() {
		if c.frontier.Len() == 0 {
			t.Errorf("crawler %s drained its frontier", c.SiteTitle())
		}
	}
}

func TestSchedulerExhaustionEndsRunBelowTarget(t *testing.T) {
	t.Parallel()

	var log fetchLog
	var sums metricsSums
	mc := newTestScheduler(&sums)
	for _, tag := range []string{"alpha", "beta", "gamma"} {
		if err := mc.Register(newSinglePageSite(t, &log, tag)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := mc.Run(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(mc.Results()); got != 3 {
		t.Errorf("got %d results, expected 3", got)
	}
	if sums.exhausted != 3 {
		t.Errorf("got %d exhausted sites in metrics, expected 3", sums.exhausted)
	}
	// A retired crawler never receives another step: each site saw
	// exactly one page fetch.
	if got := len(log.entries()); got != 3 {
		t.Errorf("got %d page fetches, expected 3: %v", got, log.entries())
	}
}

func TestSchedulerResultsPreserveRegistrationOrder(t *testing.T) {
	t.Parallel()

	var log fetchLog
	mc := newTestScheduler(nil)
	for _, tag := range []string{"alpha", "beta"} {
		if err := mc.Register(newSinglePageSite(t, &log, tag)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := mc.Run(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results := mc.Results()
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Name != "alpha special" || results[1].Name != "beta special" {
		t.Errorf("results out of registration order: %q, %q", results[0].Name, results[1].Name)
	}
	if pages := mc.Pages(); len(pages) != 2 {
		t.Errorf("got %d pages, expected HTML kept for both recipes", len(pages))
	}
}

func TestSchedulerZeroCrawlersReturnsImmediately(t *testing.T) {
	t.Parallel()

	mc := newTestScheduler(nil)
	if err := mc.Run(context.Background(), 5); err != nil {
		t.Errorf("got %v, expected nil for empty rotation", err)
	}
	if len(mc.Results()) != 0 {
		t.Error("expected no results")
	}
}

func TestSchedulerHonorsCancellation(t *testing.T) {
	t.Parallel()

	var log fetchLog
	mc := newTestScheduler(nil)
	if err := mc.Register(newChainSite(t, &log, "alpha", 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := mc.Run(ctx, 5); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestSchedulerAggregates(t *testing.T) {
	t.Parallel()

	var log fetchLog
	mc := newTestScheduler(nil)
	for _, tag := range []string{"alpha", "beta"} {
		if err := mc.Register(newSinglePageSite(t, &log, tag)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := mc.Run(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := mc.Fetches(); got != 2 {
		t.Errorf("got %d fetches, expected 2", got)
	}
	if mc.BytesDownloaded() <= 0 {
		t.Error("byte counter did not advance")
	}
}
