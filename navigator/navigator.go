// Package navigator drives a browser session from a fresh page to a populated
// results view on iframe-heavy catalog sites. Two interchangeable
// implementations exist: RodNavigator (go-rod) and ChromedpNavigator
// (chromedp). The session state (current page, current frame context) is
// owned by exactly one Navigator instance and must not be shared.
package navigator

import (
	"time"

	"catalog-scraper/models"
)

// SearchOutcome distinguishes the two successful results of a search
// submission. A timeout is reported as an error, never as an outcome.
type SearchOutcome int

const (
	// OutcomeResults means a results container appeared in the view.
	OutcomeResults SearchOutcome = iota
	// OutcomeNoResults means the catalog showed an explicit "no results"
	// marker. This is a valid empty result, not a failure.
	OutcomeNoResults
)

func (o SearchOutcome) String() string {
	if o == OutcomeNoResults {
		return "no_results"
	}
	return "results"
}

// Navigator is the contract both browser engines implement.
type Navigator interface {
	// OpenCatalog loads the entry URL and waits for the page to reach a
	// ready state.
	OpenCatalog(url string) error

	// EnterCollegeSection locates and activates the institution sub-site
	// link by scanning page links against the given patterns.
	EnterCollegeSection(patterns []string) error

	// EnterContentFrame switches the session context into the first embedded
	// frame whose name or id matches one of the candidates, in order.
	// Returns the matched frame name.
	EnterContentFrame(candidates []string) (string, error)

	// Subjects reads the available subject/department dropdown options from
	// the current view.
	Subjects() ([]models.Subject, error)

	// SubmitSearch selects the subject/term controls, submits the form and
	// waits for one of: a results container, an explicit no-results marker,
	// or the timeout.
	SubmitSearch(criterion models.SearchCriterion) (SearchOutcome, error)

	// HTML returns the full markup of the current view (frame if entered,
	// page otherwise).
	HTML() (string, error)

	// Screenshot captures the current page as PNG.
	Screenshot() ([]byte, error)

	Close() error
}

// Options configures a Navigator instance.
type Options struct {
	Headless         bool
	WaitTimeout      time.Duration
	PollInterval     time.Duration
	ResultsSelectors []string
	NoResultsMarkers []string
}

func (o Options) withDefaults() Options {
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 10 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if len(o.ResultsSelectors) == 0 {
		o.ResultsSelectors = []string{"tr[class*='course']", "div[class*='course']", ".course-row", "table tr"}
	}
	if len(o.NoResultsMarkers) == 0 {
		o.NoResultsMarkers = []string{"no results", "no classes found", "no courses found"}
	}
	return o
}
