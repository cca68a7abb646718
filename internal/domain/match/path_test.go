package match_test

import (
	"testing"

	"github.com/sophialabs/mimicrab/internal/domain/match"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"exact", "/api/books", "/api/books", true},
		{"exact mismatch", "/api/books", "/api/movies", false},
		{"param", "/api/books/:id", "/api/books/42", true},
		{"param does not cross slash", "/api/books/:id", "/api/books/42/reviews", false},
		{"whole-segment wildcard prefix", "*/books", "/api/v1/books", true},
		{"whole-segment wildcard suffix", "/api/*", "/api/v1/anything", true},
		{"whole-segment wildcard in middle", "/static/*/main.js", "/static/v1/main.js", true},
		{"inline wildcard does not cross slash", "/static/file-*.js", "/static/file-a/b.js", false},
		{"inline wildcard matches within segment", "/static/file-*.js", "/static/file-abc.js", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := match.Matches(tc.pattern, tc.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tc.pattern, tc.path, got, tc.want)
			}
		})
	}
}

func TestNonEmptySegments(t *testing.T) {
	got := match.NonEmptySegments("/api//books/42/")
	want := []string{"api", "books", "42"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
