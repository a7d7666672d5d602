package scraper

import (
	"context"
	"errors"
	"fmt"

	"prscraper/pkg/config"
	"prscraper/pkg/diff"
	"prscraper/pkg/github"
	"prscraper/pkg/langdata"
	"prscraper/pkg/logger"
	"prscraper/pkg/storage"
)

// ErrNotLocal is returned when a caller demands local-only data and the
// blob is not on disk.
var ErrNotLocal = errors.New("artifact not found in local storage")

// Scraper is the cache-first layer over the API client. Every fetch lands
// in the blob store, and reads prefer disk over the network unless the
// caller forces a renew.
type Scraper struct {
	client     *github.Client
	store      *storage.Store
	fetcher    *diff.Fetcher
	parser     *diff.Parser
	classifier *langdata.Classifier
	cfg        *config.Config
	cache      *fileListCache
	logger     logger.Logger
}

// New creates a scraper over the given client and blob store.
func New(client *github.Client, store *storage.Store, cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	cache, err := newFileListCache(cfg.Storage.CacheSize, cfg.Storage.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create file list cache: %w", err)
	}

	parser := diff.NewParser(cfg.Diff.MaxHunkBytes, log)
	return &Scraper{
		client:     client,
		store:      store,
		fetcher:    diff.NewFetcher(parser, cfg.Retry.FetchRetries, cfg.GitHub.Timeout, log),
		parser:     parser,
		classifier: langdata.Default(),
		cfg:        cfg,
		cache:      cache,
		logger:     log,
	}, nil
}

// SetClassifier replaces the default language classifier, e.g. with one
// loaded from a data directory.
func (s *Scraper) SetClassifier(c *langdata.Classifier) {
	s.classifier = c
}

// PullList returns the repository's pull request list, fetching and merging
// into the stored list when renew is set or nothing is stored yet.
func (s *Scraper) PullList(ctx context.Context, repo string, renew bool) ([]github.Pull, error) {
	var cached []github.Pull
	err := s.store.ReadJSON(repo, "pull_list", &cached)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if err == nil && !renew {
		return cached, nil
	}

	s.logger.InfoWithFields("fetching pull list", map[string]interface{}{"repo": repo})
	fresh, fetchErr := s.client.RepoPulls(ctx, repo)
	if fetchErr != nil && len(fresh) == 0 {
		return cached, fetchErr
	}

	merged := storage.MergePulls(cached, fresh)
	if err := s.store.WriteJSON(repo, "pull_list", merged); err != nil {
		return merged, err
	}
	return merged, fetchErr
}

// IssueList returns the repository's issue list, cache first.
func (s *Scraper) IssueList(ctx context.Context, repo string, renew bool) ([]github.Issue, error) {
	var issues []github.Issue
	found, err := s.readCached(repo, "issue_list", &issues, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return issues, nil
	}

	issues, err = s.client.RepoIssues(ctx, repo)
	if err != nil {
		return issues, err
	}
	return issues, s.store.WriteJSON(repo, "issue_list", issues)
}

// CommitList returns the repository's commit list, cache first.
func (s *Scraper) CommitList(ctx context.Context, repo string, renew bool) ([]github.Commit, error) {
	var commits []github.Commit
	found, err := s.readCached(repo, "commit_list", &commits, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return commits, nil
	}

	commits, err = s.client.RepoCommits(ctx, repo)
	if err != nil {
		return commits, err
	}
	return commits, s.store.WriteJSON(repo, "commit_list", commits)
}

// BranchList returns the repository's branch list, cache first.
func (s *Scraper) BranchList(ctx context.Context, repo string, renew bool) ([]github.Branch, error) {
	var branches []github.Branch
	found, err := s.readCached(repo, "branch_list", &branches, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return branches, nil
	}

	branches, err = s.client.RepoBranches(ctx, repo)
	if err != nil {
		return branches, err
	}
	return branches, s.store.WriteJSON(repo, "branch_list", branches)
}

// ForkList returns the repository's fork list, cache first.
func (s *Scraper) ForkList(ctx context.Context, repo string, renew bool) ([]github.Fork, error) {
	var forks []github.Fork
	found, err := s.readCached(repo, "fork_list", &forks, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return forks, nil
	}

	forks, err = s.client.RepoForks(ctx, repo)
	if err != nil {
		return forks, err
	}
	return forks, s.store.WriteJSON(repo, "fork_list", forks)
}

// GetPR returns one pull request's detail record, cache first. A soft-empty
// response (deleted or inaccessible PR) yields a nil detail without error.
func (s *Scraper) GetPR(ctx context.Context, repo string, number int, renew bool) (*github.PullDetail, error) {
	name := fmt.Sprintf("pull_%d/api", number)

	var detail github.PullDetail
	found, err := s.readCached(repo, name, &detail, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return &detail, nil
	}

	fetched, err := s.client.Pull(ctx, repo, number)
	if err != nil || fetched == nil {
		return fetched, err
	}
	return fetched, s.store.WriteJSON(repo, name, fetched)
}

// PullCommits returns a pull request's commits, cache first.
func (s *Scraper) PullCommits(ctx context.Context, repo string, number int, renew bool) ([]github.Commit, error) {
	name := fmt.Sprintf("pull_%d/commits", number)

	var commits []github.Commit
	found, err := s.readCached(repo, name, &commits, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return commits, nil
	}

	commits, err = s.client.PullCommits(ctx, repo, number)
	if err != nil {
		return commits, err
	}
	return commits, s.store.WriteJSON(repo, name, commits)
}

// Timeline returns a pull request's or issue's timeline, cache first.
func (s *Scraper) Timeline(ctx context.Context, repo string, number int, renew bool) ([]github.TimelineEvent, error) {
	name := fmt.Sprintf("pull_%d/timeline", number)

	var events []github.TimelineEvent
	found, err := s.readCached(repo, name, &events, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return events, nil
	}

	events, err = s.client.Timeline(ctx, repo, number)
	if err != nil {
		return events, err
	}
	return events, s.store.WriteJSON(repo, name, events)
}

// FetchFileList builds a pull request's per-file diff statistics from the
// API file list. Entries above the per-file change limit or without a
// patch are skipped.
func (s *Scraper) FetchFileList(ctx context.Context, repo string, number int, renew bool) ([]diff.FileStats, error) {
	name := fmt.Sprintf("pull_%d/raw_diff", number)

	var files []diff.FileStats
	found, err := s.readCached(repo, name, &files, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return files, nil
	}

	changed, err := s.client.PullFiles(ctx, repo, number)
	if err != nil {
		return nil, err
	}

	files = make([]diff.FileStats, 0, len(changed))
	for _, f := range changed {
		if f.Changes > s.cfg.Diff.MaxFileChanges {
			s.logger.DebugWithFields("skipping file with too many changes", map[string]interface{}{
				"repo": repo, "number": number, "file": f.Filename, "changes": f.Changes,
			})
			continue
		}
		if f.Filename == "" || f.Patch == "" {
			continue
		}
		files = append(files, s.parser.Parse(f.Filename, f.Patch))
	}

	return files, s.store.WriteJSON(repo, name, files)
}

// FetchRawDiff downloads and parses the .diff rendering of a pull request,
// storing the result as the PR's raw_diff blob.
func (s *Scraper) FetchRawDiff(ctx context.Context, repo string, number int, url string) ([]diff.FileStats, error) {
	files, err := s.fetcher.FetchRawDiff(ctx, url)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("pull_%d/raw_diff", number)
	return files, s.store.WriteJSON(repo, name, files)
}

// FetchPRCodeInfo returns the code files changed by a pull request. It
// checks the memory cache, then the raw_diff blob, then the stored API file
// list, and only then the network. With mustLocal set a network fetch is an
// error instead.
func (s *Scraper) FetchPRCodeInfo(ctx context.Context, repo string, number int, mustLocal bool) ([]diff.FileStats, error) {
	key := fmt.Sprintf("%s#%d", repo, number)
	if files, ok := s.cache.Get(key); ok {
		return files, nil
	}

	var files []diff.FileStats
	err := s.store.ReadJSON(repo, fmt.Sprintf("pull_%d/raw_diff", number), &files)
	if errors.Is(err, storage.ErrNotFound) {
		files, err = s.fileListFromStoredChanges(repo, number)
	}
	if errors.Is(err, storage.ErrNotFound) {
		if mustLocal {
			return nil, ErrNotLocal
		}
		files, err = s.FetchFileList(ctx, repo, number, false)
	}
	if err != nil {
		return nil, err
	}

	codeFiles, err := s.FilterNonCodeFiles(repo, number, files)
	if err != nil {
		return nil, err
	}
	if len(codeFiles) > 0 {
		s.cache.Set(key, codeFiles)
	}
	return codeFiles, nil
}

// fileListFromStoredChanges rebuilds diff statistics from a stored API
// file list blob.
func (s *Scraper) fileListFromStoredChanges(repo string, number int) ([]diff.FileStats, error) {
	var changed []github.ChangedFile
	if err := s.store.ReadJSON(repo, fmt.Sprintf("pull_%d/pull_files", number), &changed); err != nil {
		return nil, err
	}

	files := make([]diff.FileStats, 0, len(changed))
	for _, f := range changed {
		if f.Filename == "" || f.Patch == "" {
			continue
		}
		files = append(files, s.parser.Parse(f.Filename, f.Patch))
	}
	return files, nil
}

// FilterNonCodeFiles drops prose, data and binary files from a file list.
// A pull request with more code files than the configured cap gets a
// toobig marker blob and an empty result.
func (s *Scraper) FilterNonCodeFiles(repo string, number int, files []diff.FileStats) ([]diff.FileStats, error) {
	var codeFiles []diff.FileStats
	for _, f := range files {
		if s.classifier.IsNonCode(f.Name) {
			continue
		}
		codeFiles = append(codeFiles, f)
		if len(codeFiles) > s.cfg.Diff.MaxCodeFiles {
			s.logger.WarnWithFields("pull request exceeds code file cap", map[string]interface{}{
				"repo": repo, "number": number, "cap": s.cfg.Diff.MaxCodeFiles,
			})
			name := fmt.Sprintf("pull_%d/toobig", number)
			if err := s.store.WriteJSON(repo, name, fmt.Sprintf("%dfile", s.cfg.Diff.MaxCodeFiles)); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}
	return codeFiles, nil
}

// CheckTooBig reports whether a pull request changed too many files or
// lines to be worth diff analysis. A detail record without the changed
// file count is refetched once.
func (s *Scraper) CheckTooBig(ctx context.Context, repo string, number int) (bool, error) {
	detail, err := s.GetPR(ctx, repo, number, false)
	if err != nil {
		return false, err
	}
	if detail != nil && detail.ChangedFiles == nil {
		detail, err = s.GetPR(ctx, repo, number, true)
		if err != nil {
			return false, err
		}
	}
	if detail == nil || detail.ChangedFiles == nil {
		return false, nil
	}

	if *detail.ChangedFiles > s.cfg.Diff.MaxChangedFiles {
		return true, nil
	}
	if detail.Additions >= s.cfg.Diff.MaxChangedLOC || detail.Deletions >= s.cfg.Diff.MaxChangedLOC {
		return true, nil
	}
	return false, nil
}

// ReferencedPulls collects the issue and PR numbers cited by a pull
// request's body and comments, cache first.
func (s *Scraper) ReferencedPulls(ctx context.Context, repo string, number int, body string, renew bool) ([]string, error) {
	name := fmt.Sprintf("pull_%d/refs", number)

	var refs []string
	found, err := s.readCached(repo, name, &refs, renew)
	if err != nil {
		return nil, err
	}
	if found {
		return refs, nil
	}

	comments, err := s.client.IssueComments(ctx, repo, number)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var result []string
	collect := func(text string) {
		for _, n := range github.ReferencedNumbers(text) {
			if !seen[n] {
				seen[n] = true
				result = append(result, n)
			}
		}
	}
	collect(body)
	for _, c := range comments {
		collect(c.Body)
	}

	return result, s.store.WriteJSON(repo, name, result)
}

// readCached loads a blob unless renew is set. The bool reports a usable hit.
func (s *Scraper) readCached(repo, name string, v interface{}, renew bool) (bool, error) {
	if renew {
		return false, nil
	}
	err := s.store.ReadJSON(repo, name, v)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}
