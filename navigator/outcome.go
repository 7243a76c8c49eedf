package navigator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// viewState is the result of inspecting a results view during the
// post-submit readiness poll.
type viewState int

const (
	viewPending viewState = iota // neither results nor a no-results marker yet
	viewResults
	viewNoResults
)

// inspectView classifies the current markup. A no-results marker wins over a
// results selector match because catalogs often render an empty results table
// alongside the marker text.
func inspectView(html string, resultsSelectors, noResultsMarkers []string) viewState {
	lower := strings.ToLower(html)
	for _, marker := range noResultsMarkers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return viewNoResults
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return viewPending
	}
	for _, sel := range resultsSelectors {
		found := false
		doc.Find(sel).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if len(strings.TrimSpace(s.Text())) > 0 {
				found = true
				return false
			}
			return true
		})
		if found {
			return viewResults
		}
	}
	return viewPending
}

// frameInfo describes one iframe found on the page.
type frameInfo struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// pickFrame returns the index and matched name of the first candidate that is
// present on the page, trying candidates in order. Frame name takes priority
// over id when both are set.
func pickFrame(candidates []string, frames []frameInfo) (int, string, bool) {
	for _, want := range candidates {
		for i, f := range frames {
			if f.Name != "" && f.Name == want {
				return i, f.Name, true
			}
			if f.ID != "" && f.ID == want {
				return i, f.ID, true
			}
		}
	}
	return -1, "", false
}

// matchesAny reports whether any pattern occurs in any of the given strings,
// case-insensitively. Used for the institution link scan.
func matchesAny(patterns []string, values ...string) (string, bool) {
	for _, p := range patterns {
		lp := strings.ToLower(p)
		if lp == "" {
			continue
		}
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), lp) {
				return p, true
			}
		}
	}
	return "", false
}
