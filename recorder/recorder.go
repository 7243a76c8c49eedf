// Package recorder owns the growing collection of scraped course records
// across a session and serializes it to durable formats.
package recorder

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"catalog-scraper/models"
)

// csvHeader fixes the column order for both CSV output and the JSON field
// ordering documented to consumers.
var csvHeader = []string{
	"course_code", "course_title", "credits", "instructor",
	"schedule", "location", "raw_text", "extracted_at",
}

// PersistenceError means the output could not be written. Nothing is left
// behind on disk when it is returned: writes are all-or-nothing.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Recorder accumulates course records in scrape order. Duplicate scrapes
// produce duplicate records by design; reconciliation is left to consumers.
type Recorder struct {
	records []models.CourseRecord
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Add appends records in order.
func (r *Recorder) Add(records ...models.CourseRecord) {
	r.records = append(r.records, records...)
}

// Len returns the number of accumulated records.
func (r *Recorder) Len() int {
	return len(r.records)
}

// Records returns the accumulated records in insertion order.
func (r *Recorder) Records() []models.CourseRecord {
	return r.records
}

// PersistJSON writes the full collection as a JSON array. The write is
// atomic: content goes to a temp file in the target directory first and is
// renamed into place, so a crash mid-write never leaves a partial file.
func (r *Recorder) PersistJSON(path string) error {
	records := r.records
	if records == nil {
		records = []models.CourseRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return writeAtomic(path, append(data, '\n'))
}

// PersistCSV writes the full collection as CSV with a fixed header row.
// Absent optional fields become empty cells. Atomic like PersistJSON.
func (r *Recorder) PersistCSV(path string) error {
	var buf []byte
	w := csv.NewWriter(writerFunc(func(p []byte) (int, error) {
		buf = append(buf, p...)
		return len(p), nil
	}))

	if err := w.Write(csvHeader); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	for _, rec := range r.records {
		row := []string{
			rec.CourseCode, rec.CourseTitle, rec.Credits, rec.Instructor,
			rec.Schedule, rec.Location, rec.RawText,
			rec.ExtractedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return &PersistenceError{Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return writeAtomic(path, buf)
}

// LoadJSON reads back a collection persisted with PersistJSON. Also used by
// the database ingest command.
func LoadJSON(path string) ([]models.CourseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []models.CourseRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".persist-*")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
