// Package github fetches issues and comments from the GitHub API behind a
// process-local TTL cache.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"

	"triage.app/assistant/common/logger"
	"triage.app/assistant/core/config"
	"triage.app/assistant/internal/model"
)

// requestTimeout bounds each outbound GitHub call.
const requestTimeout = 10 * time.Second

// Fetcher retrieves an issue and its comments as one bundle.
type Fetcher interface {
	GetBundle(ctx context.Context, owner, repo string, number int) (*model.IssueBundle, error)
}

type client struct {
	gh      *github.Client
	cache   *cache.Cache
	timeout time.Duration
}

// NewFetcher creates a Fetcher from configuration. The token is optional;
// without one, requests run unauthenticated at GitHub's lower rate limits.
func NewFetcher(cfg config.GitHubConfig) (Fetcher, error) {
	gh := github.NewClient(nil)
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		gh = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}

	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		gh.BaseURL = parsed
	}

	// Cleanup interval 0 disables the janitor: expired entries are only
	// dropped lazily on the next lookup for that key.
	return &client{
		gh:      gh,
		cache:   cache.New(cfg.CacheTTL, 0),
		timeout: requestTimeout,
	}, nil
}

// GetBundle returns the cached bundle when fresh, and otherwise fetches the
// issue and then its comments (two sequential calls), caches the result
// wholesale, and returns it.
func (c *client) GetBundle(ctx context.Context, owner, repo string, number int) (*model.IssueBundle, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "assistant.github.fetcher"})

	sc := logger.StartSpan(ctx, "github.get_bundle")
	defer sc.End()
	ctx = sc.Context()

	key := bundleKey(owner, repo, number)
	if cached, ok := c.cache.Get(key); ok {
		slog.DebugContext(ctx, "issue bundle cache hit", "key", key)
		return cached.(*model.IssueBundle), nil
	}

	issue, err := c.fetchIssue(ctx, owner, repo, number)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	comments, err := c.fetchComments(ctx, owner, repo, number)
	if err != nil {
		sc.RecordError(err)
		return nil, err
	}

	bundle := &model.IssueBundle{
		Issue:    issue,
		Comments: comments,
	}
	c.cache.Set(key, bundle, cache.DefaultExpiration)

	slog.InfoContext(ctx, "fetched issue bundle",
		"title", logger.Truncate(issue.Title, 120),
		"state", issue.State,
		"comment_count", len(comments))

	return bundle, nil
}

func (c *client) fetchIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	issue, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return model.Issue{}, fmt.Errorf("fetching issue %s/%s#%d: %w", owner, repo, number, mapError(err))
	}

	return toIssue(issue), nil
}

// fetchComments soft-fails on 404: an issue without a reachable comments
// endpoint yields an empty list, not an error.
func (c *client) fetchComments(ctx context.Context, owner, repo string, number int) ([]model.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	ghComments, _, err := c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, ErrIssueNotFound) {
			slog.DebugContext(ctx, "no comments endpoint for issue, using empty list")
			return []model.Comment{}, nil
		}
		return nil, fmt.Errorf("fetching comments for %s/%s#%d: %w", owner, repo, number, mapped)
	}

	comments := make([]model.Comment, 0, len(ghComments))
	for _, gc := range ghComments {
		comments = append(comments, model.Comment{
			Author: gc.GetUser().GetLogin(),
			Body:   gc.GetBody(),
		})
	}

	return comments, nil
}

func toIssue(gh *github.Issue) model.Issue {
	return model.Issue{
		Number:    gh.GetNumber(),
		Title:     gh.GetTitle(),
		Body:      gh.GetBody(),
		Author:    gh.GetUser().GetLogin(),
		State:     model.IssueState(gh.GetState()),
		CreatedAt: formatTime(gh.GetCreatedAt()),
		UpdatedAt: formatTime(gh.GetUpdatedAt()),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func bundleKey(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}
