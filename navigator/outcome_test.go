package navigator

import "testing"

func TestInspectView(t *testing.T) {
	resultsSelectors := []string{"tr[class*='course']", ".course-row"}
	noResultsMarkers := []string{"no classes found", "no results"}

	tests := []struct {
		name string
		html string
		want viewState
	}{
		{
			name: "results present",
			html: `<table><tr class="course-row"><td>CS 101 Intro</td></tr></table>`,
			want: viewResults,
		},
		{
			name: "no results marker",
			html: `<div>No classes found for your search.</div>`,
			want: viewNoResults,
		},
		{
			name: "marker wins over empty results table",
			html: `<div>no results</div><table><tr class="course-row"><td>header</td></tr></table>`,
			want: viewNoResults,
		},
		{
			name: "empty results container is still pending",
			html: `<table><tr class="course-row"><td>   </td></tr></table>`,
			want: viewPending,
		},
		{
			name: "unrelated markup",
			html: `<div>Loading...</div>`,
			want: viewPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inspectView(tt.html, resultsSelectors, noResultsMarkers)
			if got != tt.want {
				t.Errorf("inspectView = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPickFrame(t *testing.T) {
	candidates := []string{"main_iframe", "content_frame", "TargetContent"}

	tests := []struct {
		name      string
		frames    []frameInfo
		wantIdx   int
		wantName  string
		wantFound bool
	}{
		{
			name:      "first candidate present",
			frames:    []frameInfo{{Name: "main_iframe"}},
			wantIdx:   0,
			wantName:  "main_iframe",
			wantFound: true,
		},
		{
			name:      "falls through to later candidate",
			frames:    []frameInfo{{Name: "sidebar"}, {Name: "content_frame"}},
			wantIdx:   1,
			wantName:  "content_frame",
			wantFound: true,
		},
		{
			name:      "candidate order beats frame order",
			frames:    []frameInfo{{Name: "TargetContent"}, {Name: "main_iframe"}},
			wantIdx:   1,
			wantName:  "main_iframe",
			wantFound: true,
		},
		{
			name:      "matches by id when name is empty",
			frames:    []frameInfo{{ID: "content_frame"}},
			wantIdx:   0,
			wantName:  "content_frame",
			wantFound: true,
		},
		{
			name:   "no candidate present",
			frames: []frameInfo{{Name: "ads"}, {ID: "nav"}},
		},
		{
			name: "no frames at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, name, found := pickFrame(candidates, tt.frames)
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if !found {
				return
			}
			if idx != tt.wantIdx || name != tt.wantName {
				t.Errorf("pickFrame = (%d, %q), want (%d, %q)", idx, name, tt.wantIdx, tt.wantName)
			}
		})
	}
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"olympic college", "olympic.edu"}

	if _, ok := matchesAny(patterns, "Welcome to OLYMPIC COLLEGE", ""); !ok {
		t.Error("expected case-insensitive text match")
	}
	if _, ok := matchesAny(patterns, "link", "https://www.olympic.edu/catalog"); !ok {
		t.Error("expected href match")
	}
	if p, ok := matchesAny(patterns, "Peninsula College"); ok {
		t.Errorf("unexpected match %q", p)
	}
	if _, ok := matchesAny([]string{""}, "anything"); ok {
		t.Error("empty pattern must not match")
	}
}
