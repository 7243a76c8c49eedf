package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"catalog-scraper/models"

	"github.com/PuerkitoBio/goquery"
)

// blockSelectors are tried in order until one yields listing blocks. Catalog
// hosts render results as table rows or as course divs depending on skin.
var blockSelectors = []string{
	"tr[class*='course'], div[class*='course'], .course-row, [id*='course']",
	"table tr",
	"li, p",
}

// minBlockLen filters out empty cells and decorative rows.
const minBlockLen = 10

var (
	codeRe          = regexp.MustCompile(`\b[A-Z]{2,4}&?\s?\d{3}[A-Z]?\b`)
	creditsLabelRe  = regexp.MustCompile(`(?i)\b(?:cr|credits?|units?)\s*[:.]\s*(\d+(?:\.\d+)?(?:\s*-\s*\d+(?:\.\d+)?)?)`)
	creditsSuffixRe = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?(?:\s*-\s*\d+(?:\.\d+)?)?)\s*(?:credits?|units?|cr\b)`)
	scheduleRe      = regexp.MustCompile(`\b((?:M|T|W|Th|F|Sa|Su|TTh|MWF?|MTWThF)+\s+\d{1,2}:\d{2}\s*(?:[APap]\.?[Mm]\.?)?\s*[-–]\s*\d{1,2}:\d{2}\s*(?:[APap]\.?[Mm]\.?)?)`)
	scheduleLabelRe = regexp.MustCompile(`(?i)\b(?:schedule|meets?|time)\s*[:.]\s*([^\n|—–]+)`)
	instrLabelRe    = regexp.MustCompile(`(?i)\binstructor\s*[:.]\s*([^\n|—–]+)`)
	instrNameRe     = regexp.MustCompile(`\b((?:Dr|Prof|Professor|Mr|Ms|Mrs)\.?\s+[A-Z][\p{L}'.-]+(?:\s+[A-Z][\p{L}'.-]+)?)`)
	locLabelRe      = regexp.MustCompile(`(?i)\b(?:location|room|rm|bldg)\s*[:.]\s*([^\n|—–]+)`)
	locInlineRe     = regexp.MustCompile(`(?i)\b((?:room|rm|bldg|building|hall)\s+[A-Za-z0-9.-]+|online|arranged)\b`)

	segmentSplitRe = regexp.MustCompile(`\s+[—–|]\s+|\s+-\s+|\t+|\n+`)
)

// matcher is one pattern attempt for a structured field. Matchers for a
// field are tried in order until one succeeds; new catalog layouts add a
// matcher without touching the extraction control flow.
type matcher struct {
	name    string
	attempt func(text string) (string, bool)
}

func regexMatcher(name string, re *regexp.Regexp, group int) matcher {
	return matcher{
		name: name,
		attempt: func(text string) (string, bool) {
			m := re.FindStringSubmatch(text)
			if m == nil || len(m) <= group {
				return "", false
			}
			v := strings.TrimSpace(m[group])
			return v, v != ""
		},
	}
}

// fieldChain binds an ordered matcher list to a CourseRecord field.
type fieldChain struct {
	matchers []matcher
	assign   func(rec *models.CourseRecord, value string)
}

// Parser extracts course records from results-view HTML.
type Parser struct {
	chains []fieldChain
}

// NewParser creates a Parser with the default matcher chains.
func NewParser() *Parser {
	return &Parser{
		chains: []fieldChain{
			{
				matchers: []matcher{regexMatcher("code", codeRe, 0)},
				assign:   func(rec *models.CourseRecord, v string) { rec.CourseCode = v },
			},
			{
				matchers: []matcher{
					regexMatcher("credits_label", creditsLabelRe, 1),
					regexMatcher("credits_suffix", creditsSuffixRe, 1),
				},
				assign: func(rec *models.CourseRecord, v string) { rec.Credits = v },
			},
			{
				matchers: []matcher{
					regexMatcher("schedule_daytime", scheduleRe, 1),
					regexMatcher("schedule_label", scheduleLabelRe, 1),
				},
				assign: func(rec *models.CourseRecord, v string) { rec.Schedule = v },
			},
			{
				matchers: []matcher{
					regexMatcher("instructor_label", instrLabelRe, 1),
					regexMatcher("instructor_name", instrNameRe, 1),
				},
				assign: func(rec *models.CourseRecord, v string) { rec.Instructor = v },
			},
			{
				matchers: []matcher{
					regexMatcher("location_label", locLabelRe, 1),
					regexMatcher("location_inline", locInlineRe, 1),
				},
				assign: func(rec *models.CourseRecord, v string) { rec.Location = v },
			},
		},
	}
}

// ParseHTML extracts course records from results-view HTML. Extraction never
// fails for a well-formed view: blocks where no structured field matches
// still produce a record carrying only the raw text.
func (p *Parser) ParseHTML(htmlContent string) ([]models.CourseRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var blocks []string
	for _, selector := range blockSelectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) >= minBlockLen {
				blocks = append(blocks, text)
			}
		})
		if len(blocks) > 0 {
			break
		}
	}

	records := make([]models.CourseRecord, 0, len(blocks))
	for _, block := range blocks {
		records = append(records, p.ExtractRecord(block))
	}
	return records, nil
}

// ExtractRecord runs the matcher chains over one listing block. RawText is
// always populated; everything else is best-effort.
func (p *Parser) ExtractRecord(text string) models.CourseRecord {
	rec := models.CourseRecord{
		RawText:     text,
		ExtractedAt: time.Now().UTC(),
	}

	for _, chain := range p.chains {
		for _, m := range chain.matchers {
			if v, ok := m.attempt(text); ok {
				chain.assign(&rec, v)
				break
			}
		}
	}

	// Title is positional, not pattern-based: the first segment after the
	// course code that no other matcher claims. Without a code there is no
	// anchor, so the record stays degraded rather than guessing a title.
	if rec.CourseCode != "" {
		rec.CourseTitle = pickTitle(text)
	}

	return rec
}

// pickTitle returns the first delimiter-separated segment that is not
// claimed by any structured pattern.
func pickTitle(text string) string {
	for _, seg := range segmentSplitRe.Split(text, -1) {
		seg = strings.TrimSpace(seg)
		if len(seg) < 3 || !strings.ContainsFunc(seg, isLetter) {
			continue
		}
		if codeRe.MatchString(seg) || creditsLabelRe.MatchString(seg) ||
			creditsSuffixRe.MatchString(seg) || scheduleRe.MatchString(seg) ||
			instrNameRe.MatchString(seg) || instrLabelRe.MatchString(seg) ||
			locLabelRe.MatchString(seg) || locInlineRe.MatchString(seg) {
			continue
		}
		return seg
	}
	return ""
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
