package models

import "time"

// CourseRecord represents one scraped course listing.
// RawText is always populated, even when none of the structured fields could
// be extracted, so downstream consumers can re-derive fields without
// re-scraping the catalog.
type CourseRecord struct {
	CourseCode  string    `json:"course_code"`
	CourseTitle string    `json:"course_title"`
	Credits     string    `json:"credits"` // catalogs format this inconsistently, kept as text
	Instructor  string    `json:"instructor"`
	Schedule    string    `json:"schedule"` // free-form, e.g. "MWF 10:00-11:00"
	Location    string    `json:"location"`
	RawText     string    `json:"raw_text"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Structured reports whether any field beyond RawText was extracted.
func (r CourseRecord) Structured() bool {
	return r.CourseCode != "" || r.CourseTitle != "" || r.Credits != "" ||
		r.Instructor != "" || r.Schedule != "" || r.Location != ""
}

// SearchCriterion drives one iteration of the search-and-extract loop.
type SearchCriterion struct {
	Subject string
	Term    string
}

// Subject is one entry of the catalog's subject/department dropdown.
type Subject struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
