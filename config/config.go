package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full scraping run configuration.
type Config struct {
	Catalog struct {
		URL string `yaml:"url"`
		// Link text/href patterns identifying the institution sub-site on a
		// multi-tenant catalog host. Matched case-insensitively.
		SectionLinkPatterns []string `yaml:"section_link_patterns"`
		// Iframe names/ids to try in order. Catalogs vary in iframe naming,
		// the first frame present on the page wins.
		FrameCandidates []string `yaml:"frame_candidates"`
		Subjects        []string `yaml:"subjects"`
		Term            string   `yaml:"term"`
	} `yaml:"catalog"`
	Scraper struct {
		Engine             string   `yaml:"engine"` // "rod" or "chromedp"
		Headless           bool     `yaml:"headless"`
		WaitTimeoutSeconds int      `yaml:"wait_timeout_seconds"`
		PollIntervalMS     int      `yaml:"poll_interval_ms"`
		ResultsSelectors   []string `yaml:"results_selectors"`
		NoResultsMarkers   []string `yaml:"no_results_markers"`
	} `yaml:"scraper"`
	Output struct {
		Dir           string   `yaml:"dir"`
		Formats       []string `yaml:"formats"` // "json", "csv"
		PersistEvery  int      `yaml:"persist_every"`
		ScreenshotDir string   `yaml:"screenshot_dir"`
		LogFile       string   `yaml:"log_file"`
	} `yaml:"output"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with working defaults for
// PeopleSoft-style catalog hosts.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Catalog.SectionLinkPatterns = []string{"olympic college", "olympic", "olympic.edu"}
	cfg.Catalog.FrameCandidates = []string{"main_iframe", "content_frame", "TargetContent", "ptifrmtgtframe"}
	cfg.Scraper.Engine = "rod"
	cfg.Scraper.Headless = true
	cfg.Scraper.WaitTimeoutSeconds = 10
	cfg.Scraper.PollIntervalMS = 500
	cfg.Scraper.ResultsSelectors = []string{
		"tr[class*='course']", "div[class*='course']", ".course-row", "table tr",
	}
	cfg.Scraper.NoResultsMarkers = []string{
		"no results", "no classes found", "no courses found", "0 results", "your search returned no",
	}
	cfg.Output.Dir = "."
	cfg.Output.Formats = []string{"json", "csv"}
	cfg.Output.PersistEvery = 5
	cfg.Output.ScreenshotDir = "screenshots"
	cfg.Output.LogFile = "course_scraper.log"
	return cfg
}

// WaitTimeout returns the readiness-check timeout as a duration.
func (c *Config) WaitTimeout() time.Duration {
	if c.Scraper.WaitTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Scraper.WaitTimeoutSeconds) * time.Second
}

// PollInterval returns the readiness poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	if c.Scraper.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Scraper.PollIntervalMS) * time.Millisecond
}
