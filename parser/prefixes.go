package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var subjectParamRe = regexp.MustCompile(`subject=([A-Z&]+)`)

// HarvestPrefixes scans a catalog view for course prefix codes (short
// all-caps department abbreviations such as MATH or CS). Used as a discovery
// fallback when the catalog exposes prefixes as links instead of a dropdown.
func HarvestPrefixes(htmlContent string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if isLikelyPrefix(text) {
			seen[text] = true
		}
		if href, ok := s.Attr("href"); ok {
			if m := subjectParamRe.FindStringSubmatch(href); m != nil {
				seen[m[1]] = true
			}
		}
	})

	doc.Find("select option").Each(func(i int, s *goquery.Selection) {
		if v, ok := s.Attr("value"); ok && isLikelyPrefix(strings.TrimSpace(v)) {
			seen[strings.TrimSpace(v)] = true
			return
		}
		// Some catalogs put the code at the front of the option label,
		// e.g. "MATH - Mathematics".
		fields := strings.Fields(strings.TrimSpace(s.Text()))
		if len(fields) > 0 && isLikelyPrefix(fields[0]) {
			seen[fields[0]] = true
		}
	})

	prefixes := make([]string, 0, len(seen))
	for p := range seen {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

// isLikelyPrefix reports whether text looks like a course prefix code:
// 2-6 chars, all caps, letters with an optional ampersand (e.g. "ENGL&").
func isLikelyPrefix(text string) bool {
	if len(text) < 2 || len(text) > 6 {
		return false
	}
	for _, r := range text {
		if (r < 'A' || r > 'Z') && r != '&' {
			return false
		}
	}
	return strings.ContainsFunc(text, isLetter)
}
