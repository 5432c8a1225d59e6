package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v57/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/repoatlas/repoatlas/internal/model"
)

const (
	defaultGraphQLEndpoint = "https://api.github.com/graphql"

	// defaultPageSize is GitHub's maximum page size; fewer round trips
	// matter more than smaller responses for pagination-heavy walks.
	defaultPageSize = 100

	// ownerTypeCacheSize bounds the owner-type memo. Owner types never
	// change for a login, so entries are valid for the process lifetime.
	ownerTypeCacheSize = 256
)

// Client aggregates repository metadata from GitHub's GraphQL endpoint
// and its REST tree-listing endpoint. All operations are safe for
// concurrent use; the client holds no per-request state.
type Client struct {
	rest       *gogithub.Client
	gql        *githubv4.Client
	http       *http.Client
	graphqlURL string
	pageSize   int
	retrier    *AbuseRetrier
	ownerTypes *lru.Cache[string, model.OwnerType]
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize overrides the page size used for cursor pagination.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithRetrier replaces the abuse backoff policy.
func WithRetrier(r *AbuseRetrier) Option {
	return func(c *Client) {
		if r != nil {
			c.retrier = r
		}
	}
}

// WithBaseURLs points the client at a GitHub Enterprise installation (or
// a test server). restURL and uploadURL follow go-github's enterprise
// conventions; graphqlURL is the full GraphQL endpoint.
func WithBaseURLs(restURL, uploadURL, graphqlURL string) Option {
	return func(c *Client) {
		if restURL != "" {
			rest, err := c.rest.WithEnterpriseURLs(restURL, uploadURL)
			if err == nil {
				c.rest = rest
			}
		}
		if graphqlURL != "" {
			c.graphqlURL = graphqlURL
			c.gql = githubv4.NewEnterpriseClient(graphqlURL, c.http)
		}
	}
}

// NewClient builds an authenticated client from a personal access token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided: set the GITHUB_TOKEN environment variable")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = 30 * time.Second

	ownerTypes, err := lru.New[string, model.OwnerType](ownerTypeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build owner-type cache: %w", err)
	}

	c := &Client{
		rest:       gogithub.NewClient(hc),
		gql:        githubv4.NewClient(hc),
		http:       hc,
		graphqlURL: defaultGraphQLEndpoint,
		pageSize:   defaultPageSize,
		retrier:    NewAbuseRetrier(),
		ownerTypes: ownerTypes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PageSize returns the page size the client paginates with.
func (c *Client) PageSize() int {
	return c.pageSize
}

// query runs one githubv4 query through the abuse guard.
func (c *Client) query(ctx context.Context, q any, variables map[string]any) error {
	return c.retrier.Do(ctx, func() error {
		return c.gql.Query(ctx, q, variables)
	})
}

// pageInfo is the shared cursor shape every paged connection carries.
type pageInfo struct {
	EndCursor   githubv4.String
	HasNextPage githubv4.Boolean
}

// gqlCursor maps our empty-string "first page" convention onto the null
// `after` argument the API expects.
func gqlCursor(cursor string) *githubv4.String {
	if cursor == "" {
		return (*githubv4.String)(nil)
	}
	s := githubv4.String(cursor)
	return &s
}
