package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"catalog-scraper/analyzer"
	"catalog-scraper/config"
	"catalog-scraper/db"
	"catalog-scraper/diagnostics"
	"catalog-scraper/models"
	"catalog-scraper/navigator"
	"catalog-scraper/recorder"
	"catalog-scraper/runner"
	"catalog-scraper/sheets"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		url         = flag.String("url", "", "Catalog URL (overrides config)")
		engine      = flag.String("engine", "", "Browser engine: rod or chromedp (overrides config)")
		subjects    = flag.String("subjects", "", "Comma-separated subject codes (overrides config)")
		formats     = flag.String("format", "", "Comma-separated output formats: json,csv (overrides config)")
		outDir      = flag.String("out", "", "Output directory (overrides config)")
		headed      = flag.Bool("headed", false, "Run the browser with a visible window")
		analyzeURL  = flag.String("analyze", "", "Analyze a catalog page's structure instead of scraping")
		ingestPath  = flag.String("ingest", "", "Ingest a courses JSON file into PostgreSQL instead of scraping")
		spreadsheet = flag.String("spreadsheet", "", "Google Sheets spreadsheet ID or URL to export results to")
		credentials = flag.String("credentials", "", "Path to Google service account credentials JSON")
	)
	flag.Parse()

	if *analyzeURL != "" {
		runAnalyze(*analyzeURL)
		return
	}
	if *ingestPath != "" {
		runIngest(*ingestPath)
		return
	}

	cfg := loadConfig(*configPath)
	if *url != "" {
		cfg.Catalog.URL = *url
	}
	if *engine != "" {
		cfg.Scraper.Engine = *engine
	}
	if *subjects != "" {
		cfg.Catalog.Subjects = splitList(*subjects)
	}
	if *formats != "" {
		cfg.Output.Formats = splitList(*formats)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *headed {
		cfg.Scraper.Headless = false
	}

	if cfg.Catalog.URL == "" {
		log.Fatal("No catalog URL: pass -url or set catalog.url in the config")
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	runScrape(cfg, *spreadsheet, *credentials)
}

func loadConfig(path string) *config.Config {
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runScrape(cfg *config.Config, spreadsheet, credentials string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nav, err := newNavigator(cfg)
	if err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}
	defer nav.Close()

	diag := diagnostics.New(cfg.Output.ScreenshotDir, cfg.Output.LogFile)
	defer diag.Close()

	r := runner.New(cfg, nav, diag)
	summary, err := r.Run(ctx)
	if err != nil {
		log.Fatalf("Scrape failed: %v (completed %d subjects, %d records before failure)",
			err, summary.Completed, summary.Records)
	}

	log.Printf("Done: %d records, %d subjects completed, %d failed, %d skipped\n",
		summary.Records, summary.Completed, summary.Failed, summary.Skipped)
	if len(summary.FailedSubjects) > 0 {
		log.Printf("Failed subjects: %s\n", strings.Join(summary.FailedSubjects, ", "))
	}

	if spreadsheet != "" {
		exportToSheets(cfg, r, spreadsheet, credentials)
	}
}

func newNavigator(cfg *config.Config) (navigator.Navigator, error) {
	opts := navigator.Options{
		Headless:         cfg.Scraper.Headless,
		WaitTimeout:      cfg.WaitTimeout(),
		PollInterval:     cfg.PollInterval(),
		ResultsSelectors: cfg.Scraper.ResultsSelectors,
		NoResultsMarkers: cfg.Scraper.NoResultsMarkers,
	}
	switch cfg.Scraper.Engine {
	case "", "rod":
		return navigator.NewRodNavigator(opts)
	case "chromedp":
		return navigator.NewChromedpNavigator(opts)
	default:
		return nil, fmt.Errorf("unknown engine %q (want rod or chromedp)", cfg.Scraper.Engine)
	}
}

func exportToSheets(cfg *config.Config, r *runner.Runner, spreadsheet, credentials string) {
	writer, err := sheets.NewWriter(spreadsheet, credentials)
	if err != nil {
		log.Printf("Sheets export skipped: %v\n", err)
		return
	}
	sheetName := fmt.Sprintf("scrape %s", time.Now().Format("2006-01-02 15:04"))
	if err := writer.CreateSheetAndWriteCourses(sheetName, r.Records(), cfg.Catalog.URL); err != nil {
		log.Printf("Sheets export failed: %v\n", err)
	}
}

func runAnalyze(url string) {
	report, err := analyzer.Analyze(url)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	fmt.Print(report.Summary())

	data, err := json.MarshalIndent(report, "", "  ")
	if err == nil {
		if err := os.WriteFile("analysis.json", append(data, '\n'), 0644); err == nil {
			log.Println("Full report written to analysis.json")
		}
	}
}

func runIngest(path string) {
	records, err := recorder.LoadJSON(path)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", path, err)
	}

	database, err := db.NewDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	inserted, err := database.InsertCourses(records)
	if err != nil {
		log.Fatalf("Ingest failed after %d records: %v", inserted, err)
	}
	log.Printf("Ingested %d course records from %s\n", inserted, path)

	prefixes := prefixesFromRecords(records)
	if len(prefixes) > 0 {
		added, skipped, err := database.InsertPrefixes(prefixes, "", "", "ingest")
		if err != nil {
			log.Printf("Warning: prefix ingest failed: %v\n", err)
		} else {
			log.Printf("Ingested %d new prefixes (%d already known)\n", added, skipped)
		}
	}

	total, err := database.CourseCount()
	if err == nil {
		log.Printf("Database now holds %d course records\n", total)
	}
}

// prefixesFromRecords derives prefix codes from the course codes of ingested
// records, e.g. "MATH 151" -> "MATH".
func prefixesFromRecords(records []models.CourseRecord) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		fields := strings.Fields(r.CourseCode)
		if len(fields) > 0 && fields[0] != "" {
			seen[fields[0]] = true
		}
	}
	prefixes := make([]string, 0, len(seen))
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
