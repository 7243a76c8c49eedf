// Package sheets exports scraped course records to Google Sheets, one sheet
// tab per scrape session.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"catalog-scraper/models"
)

// Writer writes course records to a spreadsheet.
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
}

var spreadsheetURLRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ExtractSpreadsheetID accepts either a bare spreadsheet ID or a full
// spreadsheet URL and returns the ID.
func ExtractSpreadsheetID(input string) string {
	if m := spreadsheetURLRe.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return input
}

// NewWriter creates a Writer using service account credentials from the given
// file, or from the GOOGLE_SHEETS_CREDENTIALS environment variable when the
// path is empty.
func NewWriter(spreadsheetID, credentialsPath string) (*Writer, error) {
	var creds []byte
	var err error

	if credentialsPath != "" {
		creds, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else if env := os.Getenv("GOOGLE_SHEETS_CREDENTIALS"); env != "" {
		creds = []byte(env)
	} else {
		return nil, fmt.Errorf("no credentials: provide a credentials file or set GOOGLE_SHEETS_CREDENTIALS")
	}

	var credCheck struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(creds, &credCheck); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if credCheck.Type != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account key, got type %q", credCheck.Type)
	}

	service, err := sheets.NewService(context.Background(), option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: ExtractSpreadsheetID(spreadsheetID),
	}, nil
}

// sanitizeSheetName strips characters Sheets rejects in tab names and trims
// to the 100 char limit.
func sanitizeSheetName(name string) string {
	replacer := strings.NewReplacer("[", "", "]", "", "*", "", "?", "", ":", "", "/", "-", "\\", "-")
	name = strings.TrimSpace(replacer.Replace(name))
	if name == "" {
		name = "courses"
	}
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

// CreateSheetAndWriteCourses adds a new sheet tab and writes the records with
// a header row and a source annotation.
func (w *Writer) CreateSheetAndWriteCourses(sheetName string, records []models.CourseRecord, sourceURL string) error {
	sheetName = sanitizeSheetName(sheetName)

	addReq := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: sheetName},
				},
			},
		},
	}
	if _, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, addReq).Do(); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			log.Printf("Sheet %q already exists, overwriting its contents\n", sheetName)
		} else {
			return fmt.Errorf("failed to create sheet %q: %w", sheetName, err)
		}
	}

	values := [][]interface{}{
		{fmt.Sprintf("Scraped from %s at %s", sourceURL, time.Now().Format("2006-01-02 15:04"))},
		{"Course Code", "Title", "Credits", "Instructor", "Schedule", "Location", "Raw Text", "Extracted At"},
	}
	for _, r := range records {
		values = append(values, []interface{}{
			r.CourseCode, r.CourseTitle, r.Credits, r.Instructor,
			r.Schedule, r.Location, r.RawText, r.ExtractedAt.Format(time.RFC3339),
		})
	}

	valueRange := &sheets.ValueRange{Values: values}
	_, err := w.service.Spreadsheets.Values.Update(
		w.spreadsheetID,
		fmt.Sprintf("%s!A1", sheetName),
		valueRange,
	).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to write %d rows to sheet %q: %w", len(records), sheetName, err)
	}

	log.Printf("Wrote %d course records to sheet %q\n", len(records), sheetName)
	return nil
}
