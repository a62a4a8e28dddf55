package domain_test

import (
	"strings"
	"testing"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
)

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    domain.RepoRef
		wantErr bool
	}{
		{"bare", "https://github.com/octocat/Hello-World", domain.RepoRef{Owner: "octocat", Name: "Hello-World"}, false},
		{"trailing slash", "https://github.com/octocat/Hello-World/", domain.RepoRef{Owner: "octocat", Name: "Hello-World"}, false},
		{"dot git", "https://github.com/octocat/Hello-World.git", domain.RepoRef{Owner: "octocat", Name: "Hello-World"}, false},
		{"dot git and slash", "https://github.com/octocat/Hello-World.git/", domain.RepoRef{Owner: "octocat", Name: "Hello-World"}, false},
		{"dotted name", "https://github.com/vercel/next.js", domain.RepoRef{Owner: "vercel", Name: "next.js"}, false},
		{"surrounding spaces", "  https://github.com/a/b  ", domain.RepoRef{Owner: "a", Name: "b"}, false},
		{"empty", "", domain.RepoRef{}, true},
		{"not a url", "not-a-url", domain.RepoRef{}, true},
		{"http scheme", "http://github.com/a/b", domain.RepoRef{}, true},
		{"other host", "https://gitlab.com/a/b", domain.RepoRef{}, true},
		{"owner only", "https://github.com/octocat", domain.RepoRef{}, true},
		{"deep path", "https://github.com/a/b/tree/main", domain.RepoRef{}, true},
		{"query string", "https://github.com/a/b?tab=readme", domain.RepoRef{}, true},
		{"owner leading dash", "https://github.com/-a/b", domain.RepoRef{}, true},
		{"dot dot name", "https://github.com/a/..", domain.RepoRef{}, true},
		{"too long", "https://github.com/a/" + strings.Repeat("b", domain.MaxRepositoryURLLength), domain.RepoRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseRepositoryURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRepositoryURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRepositoryURL(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestParseRepositoryURLIdempotent(t *testing.T) {
	ref, err := domain.ParseRepositoryURL("https://github.com/octocat/Hello-World.git/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	again, err := domain.ParseRepositoryURL(ref.URL())
	if err != nil {
		t.Fatalf("reparse canonical URL: %v", err)
	}
	if again != ref {
		t.Errorf("canonical URL round trip = %+v, want %+v", again, ref)
	}
	if ref.FullName() != "octocat/Hello-World" {
		t.Errorf("FullName() = %q", ref.FullName())
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, domain.LevelBeginner},
		{39, domain.LevelBeginner},
		{39.5, domain.LevelBeginner},
		{40, domain.LevelIntermediate},
		{69, domain.LevelIntermediate},
		{70, domain.LevelAdvanced},
		{72, domain.LevelAdvanced},
		{89, domain.LevelAdvanced},
		{90, domain.LevelExpert},
		{100, domain.LevelExpert},
		{-5, domain.LevelBeginner},
	}
	for _, tt := range tests {
		if got := domain.LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestIsLevelAndPriority(t *testing.T) {
	if !domain.IsLevel("Advanced") || domain.IsLevel("advanced") || domain.IsLevel("Gold") {
		t.Error("IsLevel must match the fixed, case-sensitive labels only")
	}
	if !domain.IsPriority("high") || domain.IsPriority("urgent") || domain.IsPriority("High") {
		t.Error("IsPriority must accept only high, medium and low")
	}
}
