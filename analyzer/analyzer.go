// Package analyzer fetches a catalog page without a browser and reports its
// structure: forms, iframes, dropdowns, scripts. Useful for sizing up a new
// catalog host before pointing the scraper at it, and for spotting hosts that
// render entirely client-side (few elements, many scripts).
package analyzer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxSamples = 5

// Finding summarizes one element kind found on the page.
type Finding struct {
	Count   int      `json:"count"`
	Samples []string `json:"samples,omitempty"`
}

// Report is the result of analyzing one page.
type Report struct {
	URL           string             `json:"url"`
	StatusCode    int                `json:"status_code"`
	ContentLength int                `json:"content_length"`
	Findings      map[string]Finding `json:"findings"`
	TermCounts    map[string]int     `json:"term_counts"`
	AnalyzedAt    time.Time          `json:"analyzed_at"`
}

// keyTerms are domain words counted across the page body. High counts hint at
// where the course data lives even when the element structure is opaque.
var keyTerms = []string{"course", "class", "search", "browse", "catalog", "subject", "schedule"}

// Analyze fetches the URL and builds a structure report.
func Analyze(url string) (*Report, error) {
	report := &Report{
		URL:        url,
		Findings:   make(map[string]Finding),
		TermCounts: make(map[string]int),
		AnalyzedAt: time.Now().UTC(),
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
	)
	c.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      1 * time.Second,
	})
	c.SetRequestTimeout(30 * time.Second)

	record := func(kind, sample string) {
		f := report.Findings[kind]
		f.Count++
		sample = strings.TrimSpace(sample)
		if sample != "" && len(f.Samples) < maxSamples {
			if len(sample) > 120 {
				sample = sample[:120]
			}
			f.Samples = append(f.Samples, sample)
		}
		report.Findings[kind] = f
	}

	c.OnHTML("form", func(e *colly.HTMLElement) {
		record("forms", fmt.Sprintf("action=%s method=%s", e.Attr("action"), e.Attr("method")))
	})
	c.OnHTML("iframe", func(e *colly.HTMLElement) {
		record("iframes", fmt.Sprintf("name=%s id=%s src=%s", e.Attr("name"), e.Attr("id"), e.Attr("src")))
	})
	c.OnHTML("select", func(e *colly.HTMLElement) {
		record("selects", fmt.Sprintf("name=%s id=%s options=%d", e.Attr("name"), e.Attr("id"), e.DOM.Find("option").Length()))
	})
	c.OnHTML("script", func(e *colly.HTMLElement) {
		record("scripts", e.Attr("src"))
	})
	c.OnHTML("table", func(e *colly.HTMLElement) {
		record("tables", fmt.Sprintf("id=%s class=%s rows=%d", e.Attr("id"), e.Attr("class"), e.DOM.Find("tr").Length()))
	})
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		record("links", e.Text)
	})

	c.OnResponse(func(r *colly.Response) {
		report.StatusCode = r.StatusCode
		report.ContentLength = len(r.Body)
		body := strings.ToLower(string(r.Body))
		for _, term := range keyTerms {
			if n := strings.Count(body, term); n > 0 {
				report.TermCounts[term] = n
			}
		}
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			report.StatusCode = r.StatusCode
		}
		visitErr = err
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, visitErr)
	}

	return report, nil
}

// Summary renders the report as readable lines for the CLI.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", r.URL)
	fmt.Fprintf(&b, "Status: %d, %d bytes\n", r.StatusCode, r.ContentLength)

	kinds := make([]string, 0, len(r.Findings))
	for k := range r.Findings {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		f := r.Findings[k]
		fmt.Fprintf(&b, "%-10s %d\n", k+":", f.Count)
		for _, s := range f.Samples {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	terms := make([]string, 0, len(r.TermCounts))
	for t := range r.TermCounts {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	for _, t := range terms {
		fmt.Fprintf(&b, "term %-10s %d\n", t+":", r.TermCounts[t])
	}
	return b.String()
}
