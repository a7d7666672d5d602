package github

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint builders for the REST API. All endpoints are relative to the
// API root and carry no leading slash, matching the dispatcher contract.

// RepoEndpoint returns the endpoint for repository metadata.
func RepoEndpoint(repo string) string {
	return fmt.Sprintf("repos/%s", repo)
}

// RepoPullsEndpoint returns the endpoint listing a repository's pull requests.
func RepoPullsEndpoint(repo string) string {
	return fmt.Sprintf("repos/%s/pulls", repo)
}

// RepoIssuesEndpoint returns the endpoint listing a repository's issues.
func RepoIssuesEndpoint(repo string) string {
	return fmt.Sprintf("repos/%s/issues", repo)
}

// RepoCommitsEndpoint returns the endpoint listing a repository's commits.
func RepoCommitsEndpoint(repo string) string {
	return fmt.Sprintf("repos/%s/commits", repo)
}

// RepoBranchesEndpoint returns the endpoint listing a repository's branches.
func RepoBranchesEndpoint(repo string) string {
	return fmt.Sprintf("repos/%s/branches", repo)
}

// RepoForksEndpoint returns the endpoint listing a repository's forks.
func RepoForksEndpoint(repo string) string {
	return fmt.Sprintf("repos/%s/forks", repo)
}

// PullEndpoint returns the endpoint for one pull request.
func PullEndpoint(repo string, number int) string {
	return fmt.Sprintf("repos/%s/pulls/%d", repo, number)
}

// PullCommitsEndpoint returns the endpoint listing a pull request's commits.
func PullCommitsEndpoint(repo string, number int) string {
	return fmt.Sprintf("repos/%s/pulls/%d/commits", repo, number)
}

// PullFilesEndpoint returns the endpoint listing a pull request's changed files.
func PullFilesEndpoint(repo string, number int) string {
	return fmt.Sprintf("repos/%s/pulls/%d/files", repo, number)
}

// IssueCommentsEndpoint returns the endpoint listing comments on an issue
// or pull request.
func IssueCommentsEndpoint(repo string, number int) string {
	return fmt.Sprintf("repos/%s/issues/%d/comments", repo, number)
}

// TimelineEndpoint returns the endpoint for an issue or pull request timeline.
func TimelineEndpoint(repo string, number int) string {
	return fmt.Sprintf("repos/%s/issues/%d/timeline", repo, number)
}

// CommitEndpoint returns the endpoint for a single commit.
func CommitEndpoint(repo, sha string) string {
	return fmt.Sprintf("repos/%s/commits/%s", repo, sha)
}

// UserEndpoint returns the endpoint for a user's profile.
func UserEndpoint(login string) string {
	return fmt.Sprintf("users/%s", login)
}

// SearchReposEndpoint returns the search endpoint for repositories in a
// language created within a date range. Search endpoints draw from the
// search rate class.
func SearchReposEndpoint(language, createdFrom, createdTo string) string {
	q := fmt.Sprintf("language:%q created:%s..%s", language, createdFrom, createdTo)
	return "search/repositories?q=" + url.QueryEscape(q)
}

// CanonicalURL normalizes a project URL or owner/name pair:
// trailing .git is removed, the whole URL is lowercased (the API is
// case-insensitive, so this deduplicates), and "github.com" is prepended.
//
//	CanonicalURL("pandas-DEV/pandas")                    == "github.com/pandas-dev/pandas"
//	CanonicalURL("http://github.com/django/django.git")  == "github.com/django/django"
func CanonicalURL(projectURL string) string {
	u := strings.ToLower(projectURL)
	for _, prefix := range []string{"http://", "https://", "github.com"} {
		u = strings.TrimPrefix(u, prefix)
	}
	u = strings.TrimSuffix(u, "/")
	for strings.HasSuffix(u, ".git") {
		u = strings.TrimSuffix(u, ".git")
	}
	u = strings.TrimPrefix(u, "/")
	return "github.com/" + u
}

// TrimAPIRoot strips the absolute API root from a URL so it can be fed
// back through the dispatcher as a relative endpoint.
func TrimAPIRoot(rawURL string) string {
	return strings.TrimPrefix(rawURL, DefaultBaseURL)
}
