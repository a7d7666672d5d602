package github

import (
	"context"
	"encoding/json"

	errs "prscraper/pkg/errors"
	"prscraper/pkg/logger"
)

// Client wraps the dispatcher with typed fetchers for the endpoints the
// scraper consumes. Every method tolerates soft-empty responses by
// returning empty results, never an error.
type Client struct {
	dispatcher *Dispatcher
	logger     logger.Logger
}

// NewClient creates a typed API client over a dispatcher.
func NewClient(d *Dispatcher, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{dispatcher: d, logger: log}
}

// Dispatcher exposes the underlying dispatcher for raw requests.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Raw executes an arbitrary endpoint without reshaping.
func (c *Client) Raw(ctx context.Context, endpoint string, paginate bool) (*Result, error) {
	return c.dispatcher.Execute(ctx, NewRequest(endpoint), paginate)
}

// RepoIssues lists a repository's issues, skipping entries that are
// really pull requests.
func (c *Client) RepoIssues(ctx context.Context, repo string) ([]Issue, error) {
	req := NewRequest(RepoIssuesEndpoint(repo)).WithParam("state", "all")
	res, err := c.dispatcher.Execute(ctx, req, true)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, raw := range res.Items {
		issue, ok, err := parseIssue(raw)
		if err != nil {
			c.logger.WithError(err).Warn("skipping unparseable issue entry")
			continue
		}
		if ok {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// RepoPulls lists a repository's pull requests in flattened form.
func (c *Client) RepoPulls(ctx context.Context, repo string) ([]Pull, error) {
	req := NewRequest(RepoPullsEndpoint(repo)).WithParam("state", "all")
	res, err := c.dispatcher.Execute(ctx, req, true)
	if err != nil {
		return nil, err
	}

	var pulls []Pull
	for _, raw := range res.Items {
		pull, err := parsePull(raw)
		if err != nil {
			c.logger.WithError(err).Warn("skipping unparseable pull entry")
			continue
		}
		pulls = append(pulls, pull)
	}
	return pulls, nil
}

// RepoCommits lists a repository's commits in flattened form.
func (c *Client) RepoCommits(ctx context.Context, repo string) ([]Commit, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(RepoCommitsEndpoint(repo)), true)
	if err != nil {
		return nil, err
	}
	return c.parseCommits(res.Items), nil
}

// RepoBranches lists a repository's branches in flattened form.
func (c *Client) RepoBranches(ctx context.Context, repo string) ([]Branch, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(RepoBranchesEndpoint(repo)), true)
	if err != nil {
		return nil, err
	}

	var branches []Branch
	for _, raw := range res.Items {
		branch, err := parseBranch(raw)
		if err != nil {
			c.logger.WithError(err).Warn("skipping unparseable branch entry")
			continue
		}
		branches = append(branches, branch)
	}
	return branches, nil
}

// RepoForks lists a repository's forks in flattened form.
func (c *Client) RepoForks(ctx context.Context, repo string) ([]Fork, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(RepoForksEndpoint(repo)), true)
	if err != nil {
		return nil, err
	}

	var forks []Fork
	for _, raw := range res.Items {
		fork, err := parseFork(raw)
		if err != nil {
			c.logger.WithError(err).Warn("skipping unparseable fork entry")
			continue
		}
		forks = append(forks, fork)
	}
	return forks, nil
}

// PullCommits lists the commits of one pull request in flattened form.
func (c *Client) PullCommits(ctx context.Context, repo string, number int) ([]Commit, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(PullCommitsEndpoint(repo, number)), true)
	if err != nil {
		return nil, err
	}
	return c.parseCommits(res.Items), nil
}

func (c *Client) parseCommits(items []json.RawMessage) []Commit {
	var commits []Commit
	for _, raw := range items {
		commit, err := ParseCommit(raw)
		if err != nil {
			c.logger.WithError(err).Warn("skipping unparseable commit entry")
			continue
		}
		commits = append(commits, commit)
	}
	return commits
}

// IssueComments lists general comments on an issue or pull request. Review
// comments attached to code are a different endpoint.
func (c *Client) IssueComments(ctx context.Context, repo string, number int) ([]Comment, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(IssueCommentsEndpoint(repo, number)), true)
	if err != nil {
		return nil, err
	}

	var comments []Comment
	for _, raw := range res.Items {
		comment, err := parseComment(raw)
		if err != nil {
			c.logger.WithError(err).Warn("skipping unparseable comment entry")
			continue
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// Timeline lists the flattened timeline of an issue or pull request.
func (c *Client) Timeline(ctx context.Context, repo string, number int) ([]TimelineEvent, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(TimelineEndpoint(repo, number)), true)
	if err != nil {
		return nil, err
	}

	var events []TimelineEvent
	for _, raw := range res.Items {
		ev, err := parseTimelineEvent(raw)
		if err != nil {
			c.logger.WithError(err).Warn("skipping unparseable timeline entry")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// PullFiles lists the changed files of a pull request, patches included.
func (c *Client) PullFiles(ctx context.Context, repo string, number int) ([]ChangedFile, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(PullFilesEndpoint(repo, number)), true)
	if err != nil {
		return nil, err
	}

	var files []ChangedFile
	for _, raw := range res.Items {
		var file ChangedFile
		if err := json.Unmarshal(raw, &file); err != nil {
			c.logger.WithError(err).Warn("skipping unparseable file entry")
			continue
		}
		files = append(files, file)
	}
	return files, nil
}

// CommitFiles lists the files changed by a single commit.
func (c *Client) CommitFiles(ctx context.Context, repo, sha string) ([]ChangedFile, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(CommitEndpoint(repo, sha)), false)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Files []ChangedFile `json:"files"`
	}
	if err := res.Decode(&envelope); err != nil {
		return nil, err
	}
	return envelope.Files, nil
}

// Pull fetches one pull request's size counters and state.
func (c *Client) Pull(ctx context.Context, repo string, number int) (*PullDetail, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(PullEndpoint(repo, number)), false)
	if err != nil {
		return nil, err
	}
	if res.Outcome == OutcomeSoftEmpty {
		return nil, nil
	}

	var detail PullDetail
	if err := res.Decode(&detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// PullState returns the state string of one pull request.
func (c *Client) PullState(ctx context.Context, repo string, number int) (string, error) {
	detail, err := c.Pull(ctx, repo, number)
	if err != nil {
		return "", err
	}
	if detail == nil {
		return "", nil
	}
	return detail.State, nil
}

// RepoLastPush returns the pushed_at timestamp of a repository, or the
// empty string when the repository is gone.
func (c *Client) RepoLastPush(ctx context.Context, repo string) (string, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(RepoEndpoint(repo)), false)
	if err != nil {
		return "", err
	}
	if res.Outcome == OutcomeSoftEmpty {
		c.logger.WithField("repo", repo).Info("repository deleted")
		return "", nil
	}

	var envelope struct {
		PushedAt string `json:"pushed_at"`
	}
	if err := res.Decode(&envelope); err != nil {
		return "", err
	}
	return envelope.PushedAt, nil
}

// UserEmail returns the public email of a user, or the empty string when
// the account is gone or the email is private.
func (c *Client) UserEmail(ctx context.Context, login string) (string, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(UserEndpoint(login)), false)
	if err != nil {
		return "", err
	}
	if res.Outcome == OutcomeSoftEmpty {
		c.logger.WithField("login", login).Info("user deleted")
		return "", nil
	}

	var envelope struct {
		Email string `json:"email"`
	}
	if err := res.Decode(&envelope); err != nil {
		return "", err
	}
	return envelope.Email, nil
}

// SearchRepos searches repositories by language and creation date range.
// The raw search payload is returned; search results carry their own
// envelope the callers page through separately.
func (c *Client) SearchRepos(ctx context.Context, language, createdFrom, createdTo string) (json.RawMessage, error) {
	res, err := c.dispatcher.Execute(ctx, NewRequest(SearchReposEndpoint(language, createdFrom, createdTo)), false)
	if err != nil {
		return nil, err
	}
	if res.Outcome == OutcomeSoftEmpty {
		return nil, nil
	}
	if len(res.Body) == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "empty search response")
	}
	return json.RawMessage(res.Body), nil
}
