package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
	gogithub "github.com/google/go-github/v68/github"
	"github.com/sourcegraph/conc"
	"golang.org/x/oauth2"
)

const (
	recentCommitsPage = 30
	recentCommitsKept = 10
	primaryRetries    = 2
	userAgent         = "GitGrade-Analyzer"
)

// Config configures the GitHub fetcher.
type Config struct {
	Token        string        // optional bearer token
	BaseURL      string        // API root override, e.g. an httptest server
	RetryBackoff time.Duration // fixed wait between 403 retries on the primary call
	Timeout      time.Duration
}

// Fetcher implements port.RepoFetcher against the GitHub REST API.
type Fetcher struct {
	client  *gogithub.Client
	backoff time.Duration
}

// NewFetcher creates a fetcher. An empty token means anonymous access.
func NewFetcher(cfg Config) (*Fetcher, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = timeout
	}

	client := gogithub.NewClient(httpClient)
	client.UserAgent = userAgent
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
		client.BaseURL = base
	}

	return &Fetcher{client: client, backoff: cfg.RetryBackoff}, nil
}

// Fetch assembles a snapshot. Only the primary metadata call can fail the fetch;
// every enrichment call degrades to its zero value on error.
func (f *Fetcher) Fetch(ctx context.Context, ref domain.RepoRef) (*domain.RepositorySnapshot, error) {
	repo, err := f.getRepository(ctx, ref)
	if err != nil {
		return nil, err
	}

	snap := snapshotFromRepository(repo)
	f.enrich(ctx, ref, snap)
	return snap, nil
}

// getRepository fetches core metadata, retrying a 403 up to primaryRetries times.
func (f *Fetcher) getRepository(ctx context.Context, ref domain.RepoRef) (*gogithub.Repository, error) {
	var lastErr error
	for attempt := 0; attempt <= primaryRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying repository metadata", "repo", ref.FullName(), "attempt", attempt+1, "max", primaryRetries+1)
			if err := sleepWithContext(ctx, f.backoff); err != nil {
				return nil, fmt.Errorf("github metadata %s: %w: %v", ref.FullName(), port.ErrUpstream, err)
			}
		}

		repo, _, err := f.client.Repositories.Get(ctx, ref.Owner, ref.Name)
		if err == nil {
			return repo, nil
		}
		lastErr = err
		if statusOf(err) != http.StatusForbidden {
			break
		}
	}
	return nil, classify(ref, lastErr)
}

// classify maps a go-github error onto the port sentinels.
func classify(ref domain.RepoRef, err error) error {
	var rateErr *gogithub.RateLimitError
	var abuseErr *gogithub.AbuseRateLimitError
	var respErr *gogithub.ErrorResponse

	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return fmt.Errorf("github metadata %s: %w: %v", ref.FullName(), port.ErrRateLimited, err)
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("github metadata %s: %w", ref.FullName(), port.ErrNotFound)
		case http.StatusForbidden:
			if respErr.Response.Header.Get("X-RateLimit-Remaining") == "0" {
				return fmt.Errorf("github metadata %s: %w: %v", ref.FullName(), port.ErrRateLimited, err)
			}
			return fmt.Errorf("github metadata %s: %w: %v", ref.FullName(), port.ErrAccessDenied, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("github metadata %s: %w: %v", ref.FullName(), port.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("github metadata %s: %w: %v", ref.FullName(), port.ErrUpstream, err)
}

func statusOf(err error) int {
	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode
	}
	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}

func snapshotFromRepository(r *gogithub.Repository) *domain.RepositorySnapshot {
	language := r.GetLanguage()
	if language == "" {
		language = "Unknown"
	}
	snap := &domain.RepositorySnapshot{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Homepage:      r.GetHomepage(),
		DefaultBranch: r.GetDefaultBranch(),
		Language:      language,
		Topics:        r.Topics,
		Languages:     map[string]int{},
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Watchers:      r.GetSubscribersCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		CreatedAt:     r.GetCreatedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
		PushedAt:      r.GetPushedAt().Time,
		Archived:      r.GetArchived(),
		Fork:          r.GetFork(),
	}
	if snap.Watchers == 0 {
		snap.Watchers = r.GetWatchersCount()
	}
	if r.GetLicense() != nil {
		snap.Signals.HasLicense = true
	}
	return snap
}

// enrichment holds the per-call results of the fan-out. Each goroutine writes
// only its own fields.
type enrichment struct {
	languages    map[string]int
	readme       string
	hasReadme    bool
	commits      []domain.CommitSummary
	recentCount  int
	entries      []rootEntry
	releases     int
	openPulls    int
	closedIssues int
	contributors int
	branches     int
	topics       []string
	totalCommits int
}

func (f *Fetcher) enrich(ctx context.Context, ref domain.RepoRef, snap *domain.RepositorySnapshot) {
	var (
		e  enrichment
		wg conc.WaitGroup
	)
	owner, name := ref.Owner, ref.Name
	one := gogithub.ListOptions{PerPage: 1}

	wg.Go(func() {
		langs, _, err := f.client.Repositories.ListLanguages(ctx, owner, name)
		if degrade(ref, "languages", err) {
			return
		}
		e.languages = langs
	})
	wg.Go(func() {
		rc, _, err := f.client.Repositories.GetReadme(ctx, owner, name, nil)
		if degrade(ref, "readme", err) {
			return
		}
		e.hasReadme = true
		if text, err := decodeContent(rc); err == nil {
			e.readme = truncateRunes(text, ReadmeCharBudget)
		} else {
			slog.Warn("readme decode failed", "repo", ref.FullName(), "error", err)
		}
	})
	wg.Go(func() {
		commits, _, err := f.client.Repositories.ListCommits(ctx, owner, name, &gogithub.CommitsListOptions{
			ListOptions: gogithub.ListOptions{PerPage: recentCommitsPage},
		})
		if degrade(ref, "commits", err) {
			return
		}
		e.recentCount = len(commits)
		e.commits = summarizeCommits(commits, recentCommitsKept)
	})
	wg.Go(func() {
		_, dir, _, err := f.client.Repositories.GetContents(ctx, owner, name, "", nil)
		if degrade(ref, "contents", err) {
			return
		}
		e.entries = rootEntries(dir)
	})
	wg.Go(func() {
		rels, resp, err := f.client.Repositories.ListReleases(ctx, owner, name, &one)
		if degrade(ref, "releases", err) {
			return
		}
		e.releases = pageCount(resp, len(rels))
	})
	wg.Go(func() {
		prs, resp, err := f.client.PullRequests.List(ctx, owner, name, &gogithub.PullRequestListOptions{
			State:       "open",
			ListOptions: one,
		})
		if degrade(ref, "pulls", err) {
			return
		}
		e.openPulls = pageCount(resp, len(prs))
	})
	wg.Go(func() {
		issues, resp, err := f.client.Issues.ListByRepo(ctx, owner, name, &gogithub.IssueListByRepoOptions{
			State:       "closed",
			ListOptions: one,
		})
		if degrade(ref, "issues", err) {
			return
		}
		e.closedIssues = pageCount(resp, len(issues))
	})
	wg.Go(func() {
		contribs, resp, err := f.client.Repositories.ListContributors(ctx, owner, name, &gogithub.ListContributorsOptions{
			ListOptions: one,
		})
		if degrade(ref, "contributors", err) {
			return
		}
		e.contributors = pageCount(resp, len(contribs))
	})
	wg.Go(func() {
		branches, resp, err := f.client.Repositories.ListBranches(ctx, owner, name, &gogithub.BranchListOptions{
			ListOptions: one,
		})
		if degrade(ref, "branches", err) {
			return
		}
		e.branches = pageCount(resp, len(branches))
	})
	wg.Go(func() {
		topics, _, err := f.client.Repositories.ListAllTopics(ctx, owner, name)
		if degrade(ref, "topics", err) {
			return
		}
		e.topics = topics
	})
	wg.Go(func() {
		commits, resp, err := f.client.Repositories.ListCommits(ctx, owner, name, &gogithub.CommitsListOptions{
			ListOptions: one,
		})
		if degrade(ref, "commit count", err) {
			return
		}
		e.totalCommits = pageCount(resp, len(commits))
	})
	wg.Wait()

	if e.languages != nil {
		snap.Languages = e.languages
	}
	if len(e.topics) > 0 {
		snap.Topics = e.topics
	}
	if snap.Topics == nil {
		snap.Topics = []string{}
	}
	snap.ReadmeExcerpt = e.readme
	snap.RecentCommits = e.commits
	if snap.RecentCommits == nil {
		snap.RecentCommits = []domain.CommitSummary{}
	}
	snap.Releases = e.releases
	snap.OpenPulls = e.openPulls
	snap.ClosedIssues = e.closedIssues
	snap.Contributors = e.contributors
	snap.Branches = e.branches
	snap.TotalCommits = e.totalCommits
	if snap.TotalCommits == 0 {
		snap.TotalCommits = e.recentCount
	}

	snap.FileStructure = fileStructure(e.entries)
	applySignals(snap, e.entries, e.hasReadme)

	if hasEntry(e.entries, "package.json") {
		snap.Manifest = f.fetchManifest(ctx, ref)
	}
}

// fetchManifest reads and parses the root package.json. Failure yields nil.
func (f *Fetcher) fetchManifest(ctx context.Context, ref domain.RepoRef) *domain.PackageManifest {
	fc, _, _, err := f.client.Repositories.GetContents(ctx, ref.Owner, ref.Name, "package.json", nil)
	if degrade(ref, "package.json", err) || fc == nil {
		return nil
	}
	text, err := decodeContent(fc)
	if err != nil {
		slog.Warn("package.json decode failed", "repo", ref.FullName(), "error", err)
		return nil
	}
	m, err := parseManifest(text)
	if err != nil {
		slog.Warn("package.json parse failed", "repo", ref.FullName(), "error", err)
		return nil
	}
	return m
}

// degrade logs a failed enrichment call and reports whether it failed.
func degrade(ref domain.RepoRef, call string, err error) bool {
	if err == nil {
		return false
	}
	slog.Warn("github enrichment call failed", "repo", ref.FullName(), "call", call, "error", err)
	return true
}

// pageCount recovers a total from the last-page number of the Link header
// (requests use per_page=1), else falls back to the first page length.
func pageCount(resp *gogithub.Response, firstPageLen int) int {
	if resp != nil && resp.LastPage > 0 {
		return resp.LastPage
	}
	return firstPageLen
}

func summarizeCommits(commits []*gogithub.RepositoryCommit, limit int) []domain.CommitSummary {
	out := make([]domain.CommitSummary, 0, min(len(commits), limit))
	for _, c := range commits {
		if len(out) == limit {
			break
		}
		if c == nil {
			continue
		}
		commit := c.GetCommit()
		author := commit.GetAuthor().GetName()
		if author == "" {
			author = c.GetAuthor().GetLogin()
		}
		out = append(out, domain.CommitSummary{
			Message: firstLine(commit.GetMessage()),
			Date:    commit.GetCommitter().GetDate().Time,
			Author:  author,
		})
	}
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
