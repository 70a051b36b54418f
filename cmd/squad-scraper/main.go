package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"squad-scraper/pkg/assets"
	"squad-scraper/pkg/config"
	"squad-scraper/pkg/crawler"
	"squad-scraper/pkg/discover"
	"squad-scraper/pkg/fetch"
	"squad-scraper/pkg/models"
	"squad-scraper/pkg/output"
	"squad-scraper/pkg/profile"
	"squad-scraper/pkg/storage"
	"squad-scraper/pkg/utils"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "crawl":
		runCrawl(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list-sites":
		runListSites(os.Args[2:])
	case "version":
		fmt.Printf("squad-scraper %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`squad-scraper - Sports roster crawler

Usage:
  squad-scraper <command> [options]

Commands:
  crawl       Crawl a configured competition
  validate    Validate configuration file
  list-sites  List available site keys
  version     Show version info

Run 'squad-scraper <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// runCrawl handles the crawl subcommand
func runCrawl(args []string) {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	siteKey := fs.String("site", "", "Site key from config")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	noCache := fs.Bool("no-cache", false, "Wipe the response cache and fetch everything fresh")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: squad-scraper crawl [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  squad-scraper crawl -site premier_league\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *siteKey == "" {
		fmt.Fprintln(os.Stderr, "Error: -site is required")
		fs.Usage()
		os.Exit(1)
	}

	executeCrawl(*configFile, *siteKey, *logLevel, *noCache)
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	siteKey := fs.String("site", "", "Site key to validate (optional, validates all if empty)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: squad-scraper validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, *siteKey, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath, siteKey string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, appErr := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if appErr != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", appErr)
		return 1
	}

	keys := []string{siteKey}
	if siteKey == "" {
		keys = sortedSiteKeys(appCfg)
	}

	hasError := false
	for _, key := range keys {
		siteCfg, ok := appCfg.Sites[key]
		if !ok {
			fmt.Fprintf(stderr, "Error: site '%s' not found in config\n", key)
			return 1
		}
		siteWarnings, err := siteCfg.Validate()
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: [%s] %v\n", key, err)
			hasError = true
			continue
		}
		for _, w := range siteWarnings {
			fmt.Fprintf(stdout, "WARN: [%s] %s\n", key, w)
		}
		fmt.Fprintf(stdout, "OK: [%s]\n", key)
	}
	if hasError {
		return 1
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runListSites handles the list-sites subcommand
func runListSites(args []string) {
	fs := flag.NewFlagSet("list-sites", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: squad-scraper list-sites [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	appCfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sites in %s:\n\n", *configFile)
	for _, key := range sortedSiteKeys(appCfg) {
		site := appCfg.Sites[key]
		fmt.Printf("  %s\n", key)
		fmt.Printf("    Competition: %s\n", site.CompetitionURL)
		if site.TeamLimit > 0 {
			fmt.Printf("    Team limit: %d\n", site.TeamLimit)
		}
		fmt.Println()
	}
	os.Exit(0)
}

func sortedSiteKeys(appCfg *config.AppConfig) []string {
	keys := make([]string, 0, len(appCfg.Sites))
	for k := range appCfg.Sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}

	return log
}

func executeCrawl(configFile, siteKey, logLevelStr string, noCache bool) {
	log := setupLogger(logLevelStr)

	// --- Load Configuration ---
	log.Infof("Loading configuration from %s", configFile)
	appCfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	appWarnings, appErr := appCfg.Validate()
	for _, w := range appWarnings {
		log.Warn(w)
	}
	if appErr != nil {
		log.Fatalf("Config validation error: %v", appErr)
	}

	siteCfg, ok := appCfg.Sites[siteKey]
	if !ok {
		log.Fatalf("Error: Site key '%s' not found in config file '%s'", siteKey, configFile)
	}
	siteWarnings, siteErr := siteCfg.Validate()
	for _, w := range siteWarnings {
		log.Warnf("[%s] %s", siteKey, w)
	}
	if siteErr != nil {
		log.Fatalf("Site '%s' configuration error: %v", siteKey, siteErr)
	}

	log.Infof("Global Config: Delay:%v, RPS:%.1f, ImageWorkers:%d, CacheTTL:%v",
		appCfg.DefaultDelayPerHost, appCfg.RequestsPerSecond, appCfg.NumImageWorkers, appCfg.CacheTTL)
	log.Infof("Site Config for '%s': Competition:%s, TeamLimit:%d, EntityDelay:%v",
		siteKey, siteCfg.CompetitionURL, siteCfg.TeamLimit, siteCfg.EntityDelay)

	// ===========================================================
	// == Setup Global Context & Signal Handling ==
	// ===========================================================
	var crawlCtx context.Context
	var cancelCrawl context.CancelFunc

	if appCfg.GlobalCrawlTimeout > 0 {
		log.Infof("Setting global crawl timeout: %v", appCfg.GlobalCrawlTimeout)
		crawlCtx, cancelCrawl = context.WithTimeout(context.Background(), appCfg.GlobalCrawlTimeout)
	} else {
		crawlCtx, cancelCrawl = context.WithCancel(context.Background())
	}
	defer cancelCrawl()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancelCrawl()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	// ===========================================================
	// == Initialize Components ==
	// ===========================================================
	log.Info("Initializing components...")
	logEntry := log.WithField("site", siteKey)

	store, err := storage.NewBadgerStore(appCfg.StateDir, siteKey, appCfg.CacheTTL, noCache, logEntry)
	if err != nil {
		log.Fatalf("Failed to initialize state store: %v", err)
	}
	defer store.Close()

	go store.RunGC(crawlCtx, 5*time.Minute)

	userAgent := config.GetEffectiveUserAgent(siteCfg, *appCfg)
	hostDelay := config.GetEffectiveDelayPerHost(siteCfg, *appCfg)
	minImageSize := config.GetEffectiveMinImageSize(siteCfg, *appCfg)

	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, log)
	fetcher := fetch.NewFetcher(httpClient, appCfg, log)
	rateLimiter := fetch.NewRateLimiter(appCfg.DefaultDelayPerHost, logEntry)
	robots := fetch.NewRobotsHandler(fetcher, rateLimiter, userAgent, logEntry)
	loader := fetch.NewPageLoader(fetcher, rateLimiter, robots, store, userAgent, hostDelay, logEntry)

	outputDir := filepath.Join(appCfg.OutputBaseDir, utils.SanitizeFilename(siteKey))

	var imagePool *assets.Pool
	if !config.GetEffectiveSkipImages(siteCfg, *appCfg) {
		downloader := assets.NewDownloader(fetcher, rateLimiter, store, outputDir,
			siteCfg.BaseURL, userAgent, minImageSize, hostDelay, logEntry)
		imagePool = assets.NewPool(downloader, appCfg.NumImageWorkers, logEntry)
	}

	comps := crawler.Components{
		Loader:     loader,
		Discoverer: discover.NewDiscoverer(siteCfg.BaseURL, siteCfg.TeamLimit, siteCfg.MinTeamNameLength, siteCfg.MinPlayerNameLength, logEntry),
		Resolver:   profile.NewResolver(loader, logEntry),
		ImagePool:  imagePool,
	}

	// ===========================================================
	// == Run Crawl ==
	// ===========================================================
	c := crawler.New(appCfg, siteCfg, comps, logEntry)
	teams, players, summary, crawlErr := c.Run(crawlCtx)

	// ===========================================================
	// == Persist Results ==
	// ===========================================================
	writer := output.NewWriter(outputDir, logEntry)
	if len(teams) > 0 {
		if writeErr := writer.WritePlayers(teams, players); writeErr != nil {
			log.Errorf("Failed to write roster files: %v", writeErr)
		}
	}
	if writeErr := writer.WriteSummary(summary); writeErr != nil {
		log.Errorf("Failed to write summary: %v", writeErr)
	}

	printSummary(summary, log)

	// --- Exit ---
	if crawlErr != nil {
		if errors.Is(crawlErr, context.Canceled) {
			log.Warn("Crawl cancelled gracefully.")
			os.Exit(0)
		}
		if errors.Is(crawlErr, context.DeadlineExceeded) {
			log.Error("Crawl timed out (global timeout).")
			os.Exit(1)
		}
		log.Errorf("Crawl finished with error: %v", crawlErr)
		os.Exit(1)
	}

	log.Info("Crawl completed successfully.")
}

// printSummary reports the end-of-run counters to the console
func printSummary(summary *models.CrawlSummary, log *logrus.Logger) {
	log.Infof("Run %s finished in %v", summary.RunID, summary.Duration.Round(time.Millisecond))
	log.Infof("Teams: %d discovered, %d failed", summary.TeamsDiscovered, summary.TeamsFailed)
	log.Infof("Players: %d discovered, %d profiled, %d failed",
		summary.PlayersDiscovered, summary.PlayersProfiled, summary.PlayersFailed)
	log.Infof("Images: %d downloaded, %d missing", summary.ImagesDownloaded, summary.ImagesMissing)

	if len(summary.ErrorCounts) > 0 {
		categories := make([]string, 0, len(summary.ErrorCounts))
		for cat := range summary.ErrorCounts {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
		for _, cat := range categories {
			log.Infof("  %s: %d", cat, summary.ErrorCounts[cat])
		}
	}
}
