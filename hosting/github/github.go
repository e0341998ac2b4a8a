// Package github implements the hosting provider for the
// GitHub REST API.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	gh "github.com/google/go-github/v68/github"

	"github.com/Nemo-docs/autodocs/hosting"
)

// Config holds the settings needed to create a GitHub
// provider.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or
	// installation token used for authentication.
	AccessToken string
	// APIBaseURL overrides the REST endpoint, for
	// GitHub Enterprise instances. Leave empty for
	// github.com.
	APIBaseURL string
}

// Provider talks to the GitHub REST API.
//
// Pattern: Strategy -- implements hosting.Provider.
type Provider struct {
	client     *gh.Client
	owner      string
	repo       string
	tokenClass string
}

// NewProvider validates cfg and returns a Provider ready
// to use. Requests authenticate with the scheme matching
// the token shape and wait out secondary rate limits.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	rl, err := github_ratelimit.NewRateLimitWaiter(
		&authTransport{
			token: cfg.AccessToken,
			base:  http.DefaultTransport,
		},
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: rate limit waiter: %w", errCtx, err,
		)
	}

	client := gh.NewClient(
		&http.Client{Transport: rl},
	)

	if cfg.APIBaseURL != "" {
		bu, parseErr := url.Parse(
			strings.TrimSuffix(cfg.APIBaseURL, "/") +
				"/",
		)
		if parseErr != nil {
			return nil, fmt.Errorf(
				"%s: base url: %w", errCtx, parseErr,
			)
		}

		client.BaseURL = bu
	}

	return &Provider{
		client:     client,
		owner:      cfg.RepoOwner,
		repo:       cfg.Repo,
		tokenClass: string(SchemeFor(cfg.AccessToken)),
	}, nil
}

// DefaultBranch resolves the repository's default branch
// from its metadata.
func (p *Provider) DefaultBranch(
	ctx context.Context,
) (string, error) {
	rep, resp, err := p.client.Repositories.Get(
		ctx, p.owner, p.repo,
	)
	if err != nil {
		return "", p.apiError(
			"resolving default branch", resp, err,
		)
	}

	branch := rep.GetDefaultBranch()
	if branch == "" {
		return "", fmt.Errorf(
			"resolving default branch: repository "+
				"%s/%s reports none",
			p.owner, p.repo,
		)
	}

	return branch, nil
}

// Validate confirms the token can read the repository
// before any mutation. A repository read is used instead
// of the /user endpoint because installation tokens
// cannot call the latter.
func (p *Provider) Validate(ctx context.Context) error {
	_, resp, err := p.client.Repositories.Get(
		ctx, p.owner, p.repo,
	)
	if err != nil {
		return p.apiError(
			"validating credentials", resp, err,
		)
	}

	scopes := ""
	if resp != nil {
		scopes = resp.Header.Get("X-OAuth-Scopes")
	}

	slog.Debug(
		"credentials validated",
		"token_class", p.tokenClass,
		"scopes", scopes,
	)

	return nil
}

// FindOpenPullRequest returns the open pull request for
// the head/base pair, or nil when none exists.
func (p *Provider) FindOpenPullRequest(
	ctx context.Context,
	head string,
	base string,
) (*hosting.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State: "open",
		Head:  p.owner + ":" + head,
		Base:  base,
		ListOptions: gh.ListOptions{
			PerPage: 1,
		},
	}

	prs, resp, err := p.client.PullRequests.List(
		ctx, p.owner, p.repo, opts,
	)
	if err != nil {
		return nil, p.apiError(
			"listing pull requests", resp, err,
		)
	}

	if len(prs) == 0 {
		return nil, nil
	}

	return toPullRequest(prs[0]), nil
}

// CreatePullRequest opens a new pull request from head
// into base.
func (p *Provider) CreatePullRequest(
	ctx context.Context,
	head string,
	base string,
	title string,
	body string,
) (*hosting.PullRequest, error) {
	np := &gh.NewPullRequest{
		Title: &title,
		Head:  &head,
		Base:  &base,
		Body:  &body,
	}

	pr, resp, err := p.client.PullRequests.Create(
		ctx, p.owner, p.repo, np,
	)
	if err != nil {
		return nil, p.apiError(
			"creating pull request", resp, err,
		)
	}

	return toPullRequest(pr), nil
}

// apiError wraps a failed API call into a classified
// hosting.APIError with the response diagnostics.
func (p *Provider) apiError(
	op string,
	resp *gh.Response,
	err error,
) error {
	status := 0
	scopes := ""

	if resp != nil {
		status = resp.StatusCode
		scopes = resp.Header.Get("X-OAuth-Scopes")
	}

	return &hosting.APIError{
		Class:      hosting.Classify(status),
		StatusCode: status,
		TokenClass: p.tokenClass,
		Scopes:     scopes,
		Op:         op,
		Err:        err,
	}
}

// toPullRequest converts the API representation to the
// platform-neutral record.
func toPullRequest(
	pr *gh.PullRequest,
) *hosting.PullRequest {
	return &hosting.PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Head:   pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
	}
}
