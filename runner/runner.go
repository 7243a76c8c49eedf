// Package runner orchestrates a full scrape session: open the catalog, enter
// the institution section and content frame, then loop search criteria
// through submit, extract and persist.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"catalog-scraper/config"
	"catalog-scraper/diagnostics"
	"catalog-scraper/models"
	"catalog-scraper/navigator"
	"catalog-scraper/parser"
	"catalog-scraper/recorder"
)

// Summary reports what a session accomplished. Skipped counts criteria never
// attempted because the session stopped early.
type Summary struct {
	Records        int
	Completed      int
	Failed         int
	Skipped        int
	FailedSubjects []string
}

// Runner runs one scrape session over one Navigator.
type Runner struct {
	cfg    *config.Config
	nav    navigator.Navigator
	parser *parser.Parser
	rec    *recorder.Recorder
	diag   *diagnostics.Diagnostics
}

// New wires a Runner. The Runner does not own the Navigator or Diagnostics;
// the caller closes them.
func New(cfg *config.Config, nav navigator.Navigator, diag *diagnostics.Diagnostics) *Runner {
	return &Runner{
		cfg:    cfg,
		nav:    nav,
		parser: parser.NewParser(),
		rec:    recorder.New(),
		diag:   diag,
	}
}

// Records exposes the accumulated records, mainly for export after Run.
func (r *Runner) Records() []models.CourseRecord {
	return r.rec.Records()
}

// Run executes the session. Per-criterion failures are recorded and skipped;
// only failures that invalidate the whole session (initial navigation, final
// persistence) return an error. A context cancellation stops cleanly between
// criteria after a final persist.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	if err := r.nav.OpenCatalog(r.cfg.Catalog.URL); err != nil {
		r.diag.Error("open catalog", err)
		r.diag.Checkpoint(r.nav, "fatal_error")
		return summary, err
	}
	r.diag.Checkpoint(r.nav, "page_loaded")

	// The section link and content frame are both optional page features:
	// single-tenant catalogs have no institution link and some render the
	// search form straight into the top document. Either miss degrades to
	// scraping the current view.
	if err := r.nav.EnterCollegeSection(r.cfg.Catalog.SectionLinkPatterns); err != nil {
		var notFound *navigator.ElementNotFoundError
		if !errors.As(err, &notFound) {
			r.diag.Error("enter section", err)
			r.diag.Checkpoint(r.nav, "fatal_error")
			return summary, err
		}
		r.diag.Event("Warning: no section link matched, staying on entry page")
	} else {
		r.diag.Checkpoint(r.nav, "section_entered")
	}

	if name, err := r.nav.EnterContentFrame(r.cfg.Catalog.FrameCandidates); err != nil {
		r.diag.Event("Warning: no content frame found, using top document: %v", err)
	} else {
		r.diag.Event("entered content frame %q", name)
		r.diag.Checkpoint(r.nav, "inside_iframe")
	}

	criteria := r.resolveCriteria()
	if len(criteria) == 0 {
		// No search surface at all. Extract whatever the current view shows.
		r.diag.Event("no search criteria available, scraping current view")
		if n, err := r.extractCurrent("current_view"); err != nil {
			r.diag.Error("extract current view", err)
		} else {
			r.diag.Event("extracted %d records from current view", n)
		}
	}

	attempted := 0
	for _, criterion := range criteria {
		if err := ctx.Err(); err != nil {
			r.diag.Event("cancellation requested, stopping before subject %s", criterion.Subject)
			break
		}
		attempted++

		n, err := r.scrapeSubject(criterion)
		if err != nil {
			var nav *navigator.NavigationError
			if errors.As(err, &nav) {
				// Session-level break: the browser left the catalog (expired
				// session, auth wall). Persist what we have and stop.
				r.diag.Error("session lost at subject "+criterion.Subject, err)
				summary.Failed++
				summary.FailedSubjects = append(summary.FailedSubjects, criterion.Subject)
				break
			}
			r.diag.Error("subject "+criterion.Subject, err)
			summary.Failed++
			summary.FailedSubjects = append(summary.FailedSubjects, criterion.Subject)
			continue
		}

		summary.Completed++
		r.diag.Event("subject %s: %d records", criterion.Subject, n)

		if r.cfg.Output.PersistEvery > 0 && summary.Completed%r.cfg.Output.PersistEvery == 0 {
			if err := r.persist(); err != nil {
				r.diag.Error("periodic persist", err)
			}
		}
	}

	r.diag.Checkpoint(r.nav, "scraping_complete")
	summary.Skipped = len(criteria) - attempted
	summary.Records = r.rec.Len()

	if err := r.persist(); err != nil {
		return summary, err
	}
	return summary, nil
}

// scrapeSubject submits one search and extracts its results. Returns the
// number of records added.
func (r *Runner) scrapeSubject(criterion models.SearchCriterion) (int, error) {
	outcome, err := r.nav.SubmitSearch(criterion)
	if err != nil {
		return 0, err
	}
	if outcome == navigator.OutcomeNoResults {
		r.diag.Event("subject %s: catalog reports no results", criterion.Subject)
		return 0, nil
	}
	return r.extractCurrent("search_results_" + sanitizeLabel(criterion.Subject))
}

// extractCurrent parses the current view and records the results, capturing a
// checkpoint screenshot. Unrecognized layouts get their page source dumped.
func (r *Runner) extractCurrent(label string) (int, error) {
	html, err := r.nav.HTML()
	if err != nil {
		return 0, err
	}
	records, err := r.parser.ParseHTML(html)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		r.diag.SavePageSource(html, label)
	}
	structured := 0
	for _, rec := range records {
		if rec.Structured() {
			structured++
		}
	}
	if len(records) > 0 && structured == 0 {
		// Every block degraded to raw text. Keep the source for tuning the
		// extraction patterns against this host's layout.
		r.diag.SavePageSource(html, label)
	}
	r.rec.Add(records...)
	r.diag.Checkpoint(r.nav, label)
	return len(records), nil
}

// resolveCriteria picks the subject list: explicit config first, then the
// subject dropdown, then prefix codes harvested from page links.
func (r *Runner) resolveCriteria() []models.SearchCriterion {
	subjects := r.cfg.Catalog.Subjects

	if len(subjects) == 0 {
		if discovered, err := r.nav.Subjects(); err == nil {
			for _, s := range discovered {
				subjects = append(subjects, s.Code)
			}
			r.diag.Event("discovered %d subjects from dropdown", len(discovered))
		} else {
			r.diag.Event("Warning: subject dropdown not readable: %v", err)
		}
	}

	if len(subjects) == 0 {
		if html, err := r.nav.HTML(); err == nil {
			subjects = parser.HarvestPrefixes(html)
			if len(subjects) > 0 {
				r.diag.Event("harvested %d prefix codes from page links", len(subjects))
			}
		}
	}

	criteria := make([]models.SearchCriterion, 0, len(subjects))
	for _, s := range subjects {
		criteria = append(criteria, models.SearchCriterion{
			Subject: s,
			Term:    r.cfg.Catalog.Term,
		})
	}
	return criteria
}

// persist writes every configured output format. The first failure aborts and
// is returned; an earlier successful format stays on disk.
func (r *Runner) persist() error {
	for _, format := range r.cfg.Output.Formats {
		var err error
		switch format {
		case "json":
			err = r.rec.PersistJSON(filepath.Join(r.cfg.Output.Dir, "courses.json"))
		case "csv":
			err = r.rec.PersistCSV(filepath.Join(r.cfg.Output.Dir, "courses.csv"))
		default:
			err = fmt.Errorf("unknown output format %q", format)
		}
		if err != nil {
			return err
		}
	}
	r.diag.Event("persisted %d records", r.rec.Len())
	return nil
}

// sanitizeLabel makes a subject code safe for file names.
func sanitizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
