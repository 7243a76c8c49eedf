package analyzer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `<html><body>
	<form action="/search" method="post">
		<select name="subject" id="subject-select">
			<option value="CS">Computer Science</option>
			<option value="MATH">Mathematics</option>
		</select>
	</form>
	<iframe name="main_iframe" src="/content"></iframe>
	<table id="results"><tr><td>course listings appear here</td></tr></table>
	<a href="/catalog">Browse course catalog</a>
	<script src="/app.js"></script>
</body></html>`

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	report, err := Analyze(srv.URL)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if report.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", report.StatusCode)
	}
	if report.ContentLength == 0 {
		t.Error("ContentLength = 0")
	}

	wantCounts := map[string]int{
		"forms":   1,
		"iframes": 1,
		"selects": 1,
		"tables":  1,
		"links":   1,
		"scripts": 1,
	}
	for kind, want := range wantCounts {
		if got := report.Findings[kind].Count; got != want {
			t.Errorf("Findings[%s].Count = %d, want %d", kind, got, want)
		}
	}

	iframe := report.Findings["iframes"]
	if len(iframe.Samples) != 1 || !strings.Contains(iframe.Samples[0], "main_iframe") {
		t.Errorf("iframe samples = %v", iframe.Samples)
	}

	if report.TermCounts["course"] == 0 {
		t.Error(`TermCounts["course"] = 0`)
	}
	if report.TermCounts["subject"] == 0 {
		t.Error(`TermCounts["subject"] = 0`)
	}

	summary := report.Summary()
	for _, want := range []string{"forms:", "iframes:", srv.URL} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q", want)
		}
	}
}

func TestAnalyzeUnreachableHost(t *testing.T) {
	if _, err := Analyze("http://127.0.0.1:1/none"); err == nil {
		t.Error("expected an error for an unreachable host")
	}
}
