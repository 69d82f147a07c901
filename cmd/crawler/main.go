package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"recipecrawler/internal/config"
	"recipecrawler/internal/crawler"
	"recipecrawler/internal/metrics"
	"recipecrawler/internal/report"
	"recipecrawler/internal/storage"
	"recipecrawler/internal/version"
)

type options struct {
	Config  string `short:"c" long:"config" description:"Website sources YAML file" default:"website_sources.yaml"`
	Filter  string `short:"f" long:"filter" description:"Only crawl sites whose URL contains this substring"`
	Limit   int    `long:"limit" description:"Number of recipes to collect (overrides config)"`
	Output  string `short:"o" long:"output" description:"Cookbook JSON output file (overrides config)"`
	Debug   bool   `short:"d" long:"debug" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Print version and exit"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("recipecrawler v%s\n", version.Version)
		return
	}

	// Configure logging
	logrus.SetLevel(logrus.InfoLevel)
	if opts.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	logrus.Infof("Recipe crawler v%s starting...", version.Version)
	startTime := time.Now()

	// Load configuration
	cfg, err := config.LoadConfig(opts.Config)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if opts.Filter != "" {
		cfg.FilterSites(opts.Filter)
		logrus.Infof("Filtering source list on %q leaves %d sites", opts.Filter, len(cfg.Sites))
		if len(cfg.Sites) == 0 {
			logrus.Fatal("Site filter matched nothing; filter is too narrow")
		}
	}
	if opts.Limit > 0 {
		cfg.RecipeLimit = opts.Limit
	}

	outputPath, err := resolveOutputPath(opts.Output, cfg.OutputPath)
	if err != nil {
		logrus.Fatalf("Failed to resolve output file: %v", err)
	}

	logrus.Infof("Configuration loaded: %d sites, limit=%d, output=%s",
		len(cfg.Sites), cfg.RecipeLimit, outputPath)

	// Initialize storage
	store, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	logrus.Infof("Database initialized: %s", cfg.DBPath)

	// Initialize metrics tracker
	tracker := metrics.NewTracker()

	userAgent := fmt.Sprintf("%s/%s", cfg.UserAgent, version.Version)

	// Initialize scheduler and register sites
	mc := crawler.NewMultiCrawler(crawler.Options{
		UserAgent:       userAgent,
		RequestTimeout:  time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		StepDelay:       time.Duration(cfg.StepDelayMs) * time.Millisecond,
		MetricsCallback: tracker.Observe,
	})

	for _, site := range cfg.Sites {
		if err := mc.Register(site); err != nil {
			logrus.Fatalf("Failed to register site: %v", err)
		}
	}
	tracker.SetSitesRegistered(len(cfg.Sites))

	// Stop on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start progress logger
	stopProgress := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				logrus.Info(tracker.LogProgress())
			case <-stopProgress:
				return
			}
		}
	}()

	runErr := mc.Run(ctx, cfg.RecipeLimit)
	close(stopProgress)
	if runErr != nil && ctx.Err() == nil {
		logrus.Fatalf("Crawl failed: %v", runErr)
	}

	reason := "target_or_exhausted"
	if ctx.Err() != nil {
		logrus.Warn("Interrupted, saving partial results...")
		reason = "signal"
	}

	tracker.AddBytes(mc.BytesDownloaded())

	// Write the cookbook
	results := mc.Results()
	if err := writeCookbook(outputPath, results); err != nil {
		logrus.Fatalf("Failed to write cookbook: %v", err)
	}

	// Write the license report
	licensePath := licenseReportPath(outputPath)
	if err := writeLicenseReport(licensePath, mc, userAgent, tracker); err != nil {
		logrus.Errorf("Failed to write license report: %v", err)
	} else {
		logrus.Infof("Wrote files %q and %q", outputPath, licensePath)
	}

	// Archive the run
	runID, err := store.SaveRun(storage.Run{
		StartedAt:         startTime,
		FinishedAt:        time.Now(),
		RecipesCollected:  len(results),
		PagesFetched:      mc.Fetches(),
		BytesDownloaded:   mc.BytesDownloaded(),
		TerminationReason: reason,
	})
	if err != nil {
		logrus.Errorf("Failed to archive run: %v", err)
	} else {
		for _, c := range mc.Crawlers() {
			if err := store.SaveRecipes(runID, c.BaseURL(), c.Ledger().Records()); err != nil {
				logrus.Errorf("Failed to archive recipes for %s: %v", c.BaseURL(), err)
			}
		}
	}

	// Write metrics to file
	if err := tracker.WriteToFile(cfg.MetricsPath, reason); err != nil {
		logrus.Errorf("Failed to write metrics: %v", err)
	} else {
		logrus.Infof("Metrics written to %s", cfg.MetricsPath)
	}

	snapshot := tracker.GetSnapshot()
	logrus.Info("Final stats: " + tracker.LogProgress())
	logrus.Infof("Number of web pages downloaded: %d", mc.Fetches())
	logrus.Infof("Number of bytes downloaded: %.3f MiB (metric is not accurate)",
		float64(snapshot.BytesDownloaded)/(1<<20))
	logrus.Infof("Program runtime: %s", time.Since(startTime).Round(time.Second))
}

// resolveOutputPath picks the cookbook filename. An explicit path gets
// a .json suffix and must not clobber an existing file; the default
// path is auto-suffixed until it is unique.
func resolveOutputPath(explicit, fallback string) (string, error) {
	if explicit != "" {
		if !strings.HasSuffix(strings.ToLower(explicit), ".json") {
			explicit += ".json"
		}
		if _, err := os.Stat(explicit); err == nil {
			return "", fmt.Errorf("there is already a file named %q", explicit)
		}
		return explicit, nil
	}

	path := fallback
	stem := strings.TrimSuffix(fallback, ".json")
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		path = fmt.Sprintf("%s-%d.json", stem, i)
	}
}

func licenseReportPath(outputPath string) string {
	return "license-" + strings.TrimSuffix(outputPath, ".json") + ".md"
}

func writeCookbook(path string, results any) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal cookbook: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeLicenseReport(path string, mc *crawler.MultiCrawler, userAgent string, tracker *metrics.Tracker) error {
	var sources []report.Source
	for _, c := range mc.Crawlers() {
		sources = append(sources, report.Source{
			Title:   c.SiteTitle(),
			SiteURL: c.BaseURL(),
			License: c.LicenseURL(),
			Records: c.Ledger().Records(),
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	gen := &report.Generator{
		Client:    &http.Client{Timeout: 10 * time.Second},
		UserAgent: userAgent,
		OnBytes:   tracker.AddBytes,
	}
	return gen.Generate(file, sources)
}
