package recorder

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"catalog-scraper/models"
)

func sampleRecords() []models.CourseRecord {
	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return []models.CourseRecord{
		{
			CourseCode:  "CS 101",
			CourseTitle: "Intro to Computer Science",
			Credits:     "3",
			Instructor:  "Dr. Smith",
			Schedule:    "MWF 10:00-11:00",
			Location:    "Room 101",
			RawText:     "CS 101 — Intro to Computer Science — 3 credits",
			ExtractedAt: at,
		},
		{
			RawText:     "Some unparseable listing row",
			ExtractedAt: at,
		},
	}
}

func TestPersistJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courses.json")

	r := New()
	r.Add(sampleRecords()...)
	if err := r.PersistJSON(path); err != nil {
		t.Fatalf("PersistJSON: %v", err)
	}

	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("got %d records, want 2", len(loaded))
	}
	if loaded[0].CourseCode != "CS 101" {
		t.Errorf("CourseCode = %q, want CS 101", loaded[0].CourseCode)
	}
	if loaded[1].CourseCode != "" || loaded[1].RawText == "" {
		t.Errorf("degraded record not preserved: %+v", loaded[1])
	}
	if !loaded[0].ExtractedAt.Equal(r.Records()[0].ExtractedAt) {
		t.Errorf("ExtractedAt = %v, want %v", loaded[0].ExtractedAt, r.Records()[0].ExtractedAt)
	}
}

func TestPersistJSONDeterministic(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")

	r := New()
	r.Add(sampleRecords()...)
	if err := r.PersistJSON(first); err != nil {
		t.Fatalf("PersistJSON: %v", err)
	}
	if err := r.PersistJSON(second); err != nil {
		t.Fatalf("PersistJSON: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Error("persisting the same collection twice produced different bytes")
	}
}

func TestPersistJSONEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")

	if err := New().PersistJSON(path); err != nil {
		t.Fatalf("PersistJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "[]" {
		t.Errorf("empty collection serialized as %q, want []", got)
	}
}

func TestPersistCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "courses.csv")

	r := New()
	r.Add(sampleRecords()...)
	if err := r.PersistCSV(path); err != nil {
		t.Fatalf("PersistCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "course_code" || rows[0][7] != "extracted_at" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "CS 101" {
		t.Errorf("row 1 course_code = %q", rows[1][0])
	}
	if rows[1][7] != "2026-03-14T10:30:00Z" {
		t.Errorf("row 1 extracted_at = %q", rows[1][7])
	}
	// Degraded record: empty optional cells, raw text intact.
	for i := 0; i < 6; i++ {
		if rows[2][i] != "" {
			t.Errorf("row 2 col %d = %q, want empty", i, rows[2][i])
		}
	}
	if rows[2][6] == "" {
		t.Error("row 2 raw_text is empty")
	}
}

func TestPersistErrorLeavesNoPartialFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	path := filepath.Join(dir, "courses.json")

	r := New()
	r.Add(sampleRecords()...)
	err := r.PersistJSON(path)
	if err == nil {
		t.Fatal("expected an error writing into a missing directory")
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *PersistenceError", err)
	}
	if perr.Path != path {
		t.Errorf("PersistenceError.Path = %q, want %q", perr.Path, path)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("a partial file was left behind")
	}
}
