package github

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/google/go-github/v56/github"
	"github.com/perbu/timeline-analyzer/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultPerPage = 100

type Client struct {
	client  *github.Client
	limiter *rate.Limiter
	perPage int
}

// NewClient builds an authenticated client. requestsPerSecond <= 0 falls
// back to one request per second.
func NewClient(token string, requestsPerSecond float64) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return newClient(github.NewClient(tc), requestsPerSecond)
}

func newClient(gh *github.Client, requestsPerSecond float64) *Client {
	limit := rate.Every(time.Second)
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		client:  gh,
		limiter: rate.NewLimiter(limit, 1),
		perPage: defaultPerPage,
	}
}

// WithBaseURL points the client at another API root, e.g. GitHub Enterprise.
func (c *Client) WithBaseURL(base string) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
		u.Path += "/"
	}
	c.client.BaseURL = u
	return c, nil
}

// SetPerPage overrides the page size used for every listing call.
func (c *Client) SetPerPage(n int) {
	if n > 0 && n <= 100 {
		c.perPage = n
	}
}

// RandomRepository picks a repository at random from one of the first 30
// result pages of query. It returns nil when the picked page was empty.
func (c *Client) RandomRepository(ctx context.Context, rng *rand.Rand, query string) (*models.Repository, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	opts := &github.SearchOptions{
		ListOptions: github.ListOptions{
			Page:    rng.Intn(30) + 1,
			PerPage: 30,
		},
	}
	result, _, err := c.client.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories: %w", err)
	}
	if len(result.Repositories) == 0 {
		return nil, nil
	}

	return convertRepository(result.Repositories[rng.Intn(len(result.Repositories))]), nil
}

// ListClosedIssues pages through every closed issue of the repository.
// Pull requests are included; the issues endpoint returns both.
func (c *Client) ListClosedIssues(ctx context.Context, owner, repo string) ([]*models.Issue, error) {
	var allIssues []*models.Issue

	opts := &github.IssueListByRepoOptions{
		State:     "closed",
		Sort:      "created",
		Direction: "asc",
		ListOptions: github.ListOptions{
			PerPage: c.perPage,
		},
	}

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		issues, resp, err := c.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}

		for _, issue := range issues {
			allIssues = append(allIssues, convertIssue(issue))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allIssues, nil
}

// GetTimeline returns the raw timeline events of an issue, oldest first.
// Events are kept as raw JSON since their shape differs per event kind.
func (c *Client) GetTimeline(ctx context.Context, owner, repo string, number int) ([]json.RawMessage, error) {
	allEvents := []json.RawMessage{}
	page := 1

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		u := fmt.Sprintf("repos/%s/%s/issues/%d/timeline?per_page=%d&page=%d",
			url.PathEscape(owner), url.PathEscape(repo), number, c.perPage, page)
		req, err := c.client.NewRequest("GET", u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build timeline request: %w", err)
		}

		var events []json.RawMessage
		resp, err := c.client.Do(ctx, req, &events)
		if err != nil {
			return nil, fmt.Errorf("failed to get timeline for issue %d: %w", number, err)
		}
		allEvents = append(allEvents, events...)

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	return allEvents, nil
}

func convertIssue(issue *github.Issue) *models.Issue {
	modelIssue := &models.Issue{
		Number:            issue.GetNumber(),
		Title:             issue.GetTitle(),
		State:             issue.GetState(),
		StateReason:       issue.GetStateReason(),
		HTMLURL:           issue.GetHTMLURL(),
		NodeID:            issue.GetNodeID(),
		User:              convertUser(issue.GetUser()),
		AuthorAssociation: issue.GetAuthorAssociation(),
		Comments:          issue.GetComments(),
		CreatedAt:         issue.GetCreatedAt().Time,
		PullRequest:       issue.IsPullRequest(),
	}

	if issue.ClosedAt != nil {
		t := issue.ClosedAt.Time
		modelIssue.ClosedAt = &t
	}

	return modelIssue
}

func convertRepository(r *github.Repository) *models.Repository {
	return &models.Repository{
		Owner:    r.GetOwner().GetLogin(),
		Name:     r.GetName(),
		FullName: r.GetFullName(),
		HTMLURL:  r.GetHTMLURL(),
		Language: r.GetLanguage(),
		Stars:    r.GetStargazersCount(),
	}
}

func convertUser(user *github.User) models.User {
	return models.User{
		Login: user.GetLogin(),
		ID:    user.GetID(),
		Type:  user.GetType(),
	}
}
