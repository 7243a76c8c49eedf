package parser

import (
	"reflect"
	"testing"
)

func TestHarvestPrefixes(t *testing.T) {
	html := `<html><body>
		<a href="/catalog?subject=MATH">MATH</a>
		<a href="/catalog?subject=ENGL">English</a>
		<a href="/about">About the college</a>
		<a href="#">CS</a>
		<select name="subject">
			<option value="">Select...</option>
			<option value="BIOL">BIOL - Biology</option>
			<option value="">CHEM - Chemistry</option>
		</select>
	</body></html>`

	got := HarvestPrefixes(html)
	want := []string{"BIOL", "CHEM", "CS", "ENGL", "MATH"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HarvestPrefixes = %v, want %v", got, want)
	}
}

func TestHarvestPrefixesEmpty(t *testing.T) {
	got := HarvestPrefixes("<html><body><a href='/x'>Home page</a></body></html>")
	if len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestIsLikelyPrefix(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"CS", true},
		{"MATH", true},
		{"ENGL&", true},
		{"A", false},
		{"TOOLONGX", false},
		{"Math", false},
		{"CS1", false},
		{"&&", false},
	}
	for _, tt := range tests {
		if got := isLikelyPrefix(tt.text); got != tt.want {
			t.Errorf("isLikelyPrefix(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
