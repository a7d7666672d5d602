package github

import (
	"encoding/json"
	"strings"
)

// Flat records produced from API responses. The API's nested envelopes are
// reshaped here once so the rest of the program and the on-disk blobs deal
// in stable, flat structures.

// Commit is the flattened form of a commit envelope.
type Commit struct {
	SHA           string `json:"sha"`
	Author        string `json:"author"`
	AuthorName    string `json:"author_name"`
	AuthorEmail   string `json:"author_email"`
	AuthoredDate  string `json:"authored_date"`
	Message       string `json:"message"`
	CommittedDate string `json:"committed_date"`
	Parents       string `json:"parents"`
	Verified      bool   `json:"verified"`
}

// Issue is the flattened form of an issue entry.
type Issue struct {
	Author    string `json:"author"`
	Closed    bool   `json:"closed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	ClosedAt  string `json:"closed_at"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
}

// Pull is the flattened form of a pull request list entry.
type Pull struct {
	Number     int      `json:"id"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Labels     []string `json:"labels"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	ClosedAt   string   `json:"closed_at"`
	MergedAt   string   `json:"merged_at"`
	Author     string   `json:"author"`
	Head       string   `json:"head"`
	HeadBranch string   `json:"head_branch"`
	Base       string   `json:"base"`
	BaseBranch string   `json:"base_branch"`
}

// Comment is the flattened form of an issue or review comment.
type Comment struct {
	Body      string `json:"body"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ChangedFile is one entry of a pull request's or commit's file list.
type ChangedFile struct {
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	Additions   int    `json:"additions"`
	Deletions   int    `json:"deletions"`
	Changes     int    `json:"changes"`
	Patch       string `json:"patch,omitempty"`
	BlobURL     string `json:"blob_url,omitempty"`
	RawURL      string `json:"raw_url,omitempty"`
	ContentsURL string `json:"contents_url,omitempty"`
}

// TimelineEvent is the flattened form of one timeline entry. Every event
// kind maps onto the same record; fields not applicable to a kind stay empty.
type TimelineEvent struct {
	Event             string `json:"event"`
	Author            string `json:"author"`
	Email             string `json:"email"`
	AuthorType        string `json:"author_type"`
	AuthorAssociation string `json:"author_association"`
	CommitID          string `json:"commit_id"`
	CreatedAt         string `json:"created_at"`
	RefNumber         int    `json:"id,omitempty"`
	Repo              string `json:"repo"`
	Type              string `json:"type"`
	State             string `json:"state"`
	Label             string `json:"label"`
	Body              string `json:"body"`
}

// Branch is the flattened form of a branch list entry.
type Branch struct {
	Name      string `json:"name"`
	SHA       string `json:"sha"`
	Protected bool   `json:"protected"`
}

// Fork is the flattened form of a fork list entry.
type Fork struct {
	FullName  string `json:"full_name"`
	Owner     string `json:"owner"`
	CreatedAt string `json:"created_at"`
	PushedAt  string `json:"pushed_at"`
}

// PullDetail carries the size counters of a single pull request used for
// the too-big check.
type PullDetail struct {
	Number       int    `json:"number"`
	State        string `json:"state"`
	ChangedFiles *int   `json:"changed_files"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
}

// --- wire envelopes ---

type actor struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Type  string `json:"type"`
	Date  string `json:"date"`
}

type commitEnvelope struct {
	SHA    string `json:"sha"`
	Author *actor `json:"author"`
	Commit struct {
		Author    *actor `json:"author"`
		Committer *actor `json:"committer"`
		Message   string `json:"message"`
	} `json:"commit"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
	Verification *struct {
		Verified bool `json:"verified"`
	} `json:"verification"`
}

// ParseCommit flattens one raw commit object. Newlines in the message are
// replaced with commas so the record stays single-line in CSV-ish sinks.
func ParseCommit(raw json.RawMessage) (Commit, error) {
	var env commitEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Commit{}, err
	}

	c := Commit{
		SHA:     env.SHA,
		Message: strings.ReplaceAll(env.Commit.Message, "\n", ","),
	}
	if env.Author != nil {
		c.Author = env.Author.Login
	}
	if env.Commit.Author != nil {
		c.AuthorName = env.Commit.Author.Name
		c.AuthorEmail = env.Commit.Author.Email
		c.AuthoredDate = env.Commit.Author.Date
	}
	if env.Commit.Committer != nil {
		c.CommittedDate = env.Commit.Committer.Date
	}
	if env.Verification != nil {
		c.Verified = env.Verification.Verified
	}

	shas := make([]string, 0, len(env.Parents))
	for _, p := range env.Parents {
		shas = append(shas, p.SHA)
	}
	c.Parents = strings.Join(shas, "\n")

	return c, nil
}

type issueEnvelope struct {
	User        *actor           `json:"user"`
	State       string           `json:"state"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
	ClosedAt    string           `json:"closed_at"`
	Number      int              `json:"number"`
	Title       string           `json:"title"`
	PullRequest *json.RawMessage `json:"pull_request"`
}

// parseIssue flattens one raw issue object. The bool result is false for
// entries that are really pull requests; the issues listing includes both.
func parseIssue(raw json.RawMessage) (Issue, bool, error) {
	var env issueEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Issue{}, false, err
	}
	if env.PullRequest != nil {
		return Issue{}, false, nil
	}

	issue := Issue{
		Closed:    env.State != "open",
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		ClosedAt:  env.ClosedAt,
		Number:    env.Number,
		Title:     env.Title,
	}
	if env.User != nil {
		issue.Author = env.User.Login
	}
	return issue, true, nil
}

type repoRef struct {
	Repo *struct {
		FullName string `json:"full_name"`
	} `json:"repo"`
	Label string `json:"label"`
}

type pullEnvelope struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	ClosedAt  string `json:"closed_at"`
	MergedAt  string `json:"merged_at"`
	User      *actor `json:"user"`
	Labels    []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Head *repoRef `json:"head"`
	Base *repoRef `json:"base"`
}

// parsePull flattens one raw pull request list entry.
func parsePull(raw json.RawMessage) (Pull, error) {
	var env pullEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Pull{}, err
	}

	pull := Pull{
		Number:    env.Number,
		Title:     env.Title,
		Body:      env.Body,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		ClosedAt:  env.ClosedAt,
		MergedAt:  env.MergedAt,
	}
	if env.User != nil {
		pull.Author = env.User.Login
	}
	for _, l := range env.Labels {
		pull.Labels = append(pull.Labels, l.Name)
	}
	if env.Head != nil {
		pull.HeadBranch = env.Head.Label
		if env.Head.Repo != nil {
			pull.Head = env.Head.Repo.FullName
		}
	}
	if env.Base != nil {
		pull.BaseBranch = env.Base.Label
		if env.Base.Repo != nil {
			pull.Base = env.Base.Repo.FullName
		}
	}
	return pull, nil
}

type commentEnvelope struct {
	Body      string `json:"body"`
	User      *actor `json:"user"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func parseComment(raw json.RawMessage) (Comment, error) {
	var env commentEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Comment{}, err
	}
	comment := Comment{
		Body:      env.Body,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
	}
	if env.User != nil {
		comment.Author = env.User.Login
	}
	return comment, nil
}

type timelineEnvelope struct {
	Event             string `json:"event"`
	Actor             *actor `json:"actor"`
	User              *actor `json:"user"`
	Author            *actor `json:"author"`
	AuthorAssociation string `json:"author_association"`
	CommitID          string `json:"commit_id"`
	CreatedAt         string `json:"created_at"`
	SHA               string `json:"sha"`
	State             string `json:"state"`
	Body              string `json:"body"`
	Label             *struct {
		Name string `json:"name"`
	} `json:"label"`
	Source *struct {
		Issue *struct {
			Number      int              `json:"number"`
			State       string           `json:"state"`
			PullRequest *json.RawMessage `json:"pull_request"`
			Repository  *struct {
				FullName string `json:"full_name"`
			} `json:"repository"`
		} `json:"issue"`
	} `json:"source"`
}

// parseTimelineEvent flattens one raw timeline entry. Unknown event kinds
// keep their event name and timestamp so downstream counts stay honest.
func parseTimelineEvent(raw json.RawMessage) (TimelineEvent, error) {
	var env timelineEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return TimelineEvent{}, err
	}

	ev := TimelineEvent{
		Event:     env.Event,
		CreatedAt: env.CreatedAt,
	}

	actorLogin := func(a *actor) (login, typ string) {
		if a == nil {
			return "", ""
		}
		return a.Login, a.Type
	}

	switch env.Event {
	case "cross-referenced":
		ev.Author, ev.AuthorType = actorLogin(env.Actor)
		ev.Type = "issue"
		if env.Source != nil && env.Source.Issue != nil {
			issue := env.Source.Issue
			ev.RefNumber = issue.Number
			ev.State = issue.State
			if issue.Repository != nil {
				ev.Repo = issue.Repository.FullName
			}
			if issue.PullRequest != nil {
				ev.Type = "pull_request"
			}
		}
	case "referenced":
		ev.Author, ev.AuthorType = actorLogin(env.Actor)
		ev.CommitID = env.CommitID
		ev.Type = "commit"
	case "labeled":
		ev.Author, ev.AuthorType = actorLogin(env.Actor)
		ev.Type = "label"
		if env.Label != nil {
			ev.Label = env.Label.Name
		}
	case "committed":
		if env.Author != nil {
			ev.Author = env.Author.Name
			ev.Email = env.Author.Email
		}
		ev.CommitID = env.SHA
		ev.Type = "commit"
	case "reviewed":
		ev.Author, ev.AuthorType = actorLogin(env.User)
		ev.AuthorAssociation = env.AuthorAssociation
		ev.Type = "review"
		ev.State = env.State
	case "commented":
		ev.Author, ev.AuthorType = actorLogin(env.User)
		ev.AuthorAssociation = env.AuthorAssociation
		ev.Type = "comment"
		ev.Body = env.Body
	case "assigned":
		ev.Author, ev.AuthorType = actorLogin(env.Actor)
		ev.Type = "comment"
	case "closed":
		ev.Author, ev.AuthorType = actorLogin(env.Actor)
		ev.CommitID = env.CommitID
		ev.Type = "close"
	case "subscribed":
		ev.Author, ev.AuthorType = actorLogin(env.Actor)
		ev.CommitID = env.CommitID
		ev.Type = "subscribed"
	case "merged":
		ev.Author, ev.AuthorType = actorLogin(env.Actor)
		ev.CommitID = env.CommitID
		ev.Type = "merged"
	}

	return ev, nil
}

type branchEnvelope struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
	Protected bool `json:"protected"`
}

// parseBranch flattens one raw branch list entry.
func parseBranch(raw json.RawMessage) (Branch, error) {
	var env branchEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Branch{}, err
	}
	return Branch{
		Name:      env.Name,
		SHA:       env.Commit.SHA,
		Protected: env.Protected,
	}, nil
}

type forkEnvelope struct {
	FullName  string `json:"full_name"`
	Owner     *actor `json:"owner"`
	CreatedAt string `json:"created_at"`
	PushedAt  string `json:"pushed_at"`
}

// parseFork flattens one raw fork list entry.
func parseFork(raw json.RawMessage) (Fork, error) {
	var env forkEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Fork{}, err
	}
	f := Fork{
		FullName:  env.FullName,
		CreatedAt: env.CreatedAt,
		PushedAt:  env.PushedAt,
	}
	if env.Owner != nil {
		f.Owner = env.Owner.Login
	}
	return f, nil
}
