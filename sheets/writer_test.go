package sheets

import "testing"

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{
			input: "https://docs.google.com/spreadsheets/d/1AbC-dEf_123/edit#gid=0",
			want:  "1AbC-dEf_123",
		},
		{
			input: "1AbC-dEf_123",
			want:  "1AbC-dEf_123",
		},
	}
	for _, tt := range tests {
		if got := ExtractSpreadsheetID(tt.input); got != tt.want {
			t.Errorf("ExtractSpreadsheetID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"scrape 2026-03-14", "scrape 2026-03-14"},
		{"results [CS/MATH]?", "results CS-MATH"},
		{"  ", "courses"},
	}
	for _, tt := range tests {
		if got := sanitizeSheetName(tt.input); got != tt.want {
			t.Errorf("sanitizeSheetName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewWriterRejectsNonServiceAccount(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", `{"type": "authorized_user"}`)
	if _, err := NewWriter("sheet-id", ""); err == nil {
		t.Error("expected rejection of non service account credentials")
	}
}

func TestNewWriterRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS", "")
	if _, err := NewWriter("sheet-id", ""); err == nil {
		t.Error("expected an error with no credentials available")
	}
}
