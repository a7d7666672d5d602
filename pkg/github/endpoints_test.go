package github

import (
	"reflect"
	"strings"
	"testing"

	"prscraper/pkg/ratelimit"
)

func TestEndpointBuilders(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"repo", RepoEndpoint("django/django"), "repos/django/django"},
		{"pulls list", RepoPullsEndpoint("django/django"), "repos/django/django/pulls"},
		{"issues list", RepoIssuesEndpoint("django/django"), "repos/django/django/issues"},
		{"commits list", RepoCommitsEndpoint("django/django"), "repos/django/django/commits"},
		{"branches list", RepoBranchesEndpoint("django/django"), "repos/django/django/branches"},
		{"forks list", RepoForksEndpoint("django/django"), "repos/django/django/forks"},
		{"pull", PullEndpoint("django/django", 42), "repos/django/django/pulls/42"},
		{"pull commits", PullCommitsEndpoint("django/django", 42), "repos/django/django/pulls/42/commits"},
		{"pull files", PullFilesEndpoint("django/django", 42), "repos/django/django/pulls/42/files"},
		{"issue comments", IssueCommentsEndpoint("django/django", 42), "repos/django/django/issues/42/comments"},
		{"timeline", TimelineEndpoint("django/django", 42), "repos/django/django/issues/42/timeline"},
		{"commit", CommitEndpoint("django/django", "abc123"), "repos/django/django/commits/abc123"},
		{"user", UserEndpoint("octocat"), "users/octocat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.endpoint != tt.want {
				t.Errorf("got %q, want %q", tt.endpoint, tt.want)
			}
		})
	}
}

func TestSearchReposEndpointUsesSearchClass(t *testing.T) {
	endpoint := SearchReposEndpoint("python", "2024-01-01", "2024-01-31")
	if !strings.HasPrefix(endpoint, "search/repositories?q=") {
		t.Errorf("unexpected endpoint: %s", endpoint)
	}
	if got := NewRequest(endpoint).Class(); got != ratelimit.ClassSearch {
		t.Errorf("Class() = %v, want search", got)
	}
	if got := NewRequest(PullEndpoint("a/b", 1)).Class(); got != ratelimit.ClassStandard {
		t.Errorf("Class() = %v, want core", got)
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pandas-DEV/pandas", "github.com/pandas-dev/pandas"},
		{"http://github.com/django/django.git", "github.com/django/django"},
		{"https://github.com/Django/Django", "github.com/django/django"},
		{"github.com/rails/rails/", "github.com/rails/rails"},
		{"rails/rails.git.git", "github.com/rails/rails"},
		{"github.com/rails/rails", "github.com/rails/rails"},
	}

	for _, tt := range tests {
		if got := CanonicalURL(tt.in); got != tt.want {
			t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrimAPIRoot(t *testing.T) {
	abs := DefaultBaseURL + "repos/django/django/pulls?page=2"
	if got := TrimAPIRoot(abs); got != "repos/django/django/pulls?page=2" {
		t.Errorf("TrimAPIRoot(%q) = %q", abs, got)
	}
	// Relative endpoints pass through untouched
	if got := TrimAPIRoot("repos/a/b"); got != "repos/a/b" {
		t.Errorf("TrimAPIRoot on relative = %q", got)
	}
}

func TestReferencedNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"no refs", "just a plain comment", nil},
		{"hash form", "fixes #123", []string{"123"}},
		{"pull form", "see https://github.com/a/b/pull/45", []string{"45"}},
		{"issue form", "closes issues/9", []string{"9"}},
		{
			"mixed deduplicated and sorted",
			"ref #20, also pull/20, then #3 and issues/100",
			[]string{"100", "20", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReferencedNumbers(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReferencedNumbers(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
