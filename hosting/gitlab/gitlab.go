// Package gitlab implements the hosting provider for the
// GitLab API. Pull requests map to merge requests.
package gitlab

import (
	"context"
	"fmt"
	"log/slog"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/Nemo-docs/autodocs/hosting"
)

// tokenClass is the credential class reported in error
// diagnostics. GitLab uses a single scheme.
const tokenClass = "private-token"

// Config holds the settings needed to create a GitLab
// provider.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path
	// (e.g. "org/project").
	Repo string
	// AccessToken is a personal or project access
	// token used for authentication.
	AccessToken string
}

// Provider talks to the GitLab API.
//
// Pattern: Strategy -- implements hosting.Provider.
type Provider struct {
	client *gl.Client
	repo   string
}

// NewProvider validates cfg and returns a Provider ready
// to use.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client: client,
		repo:   cfg.Repo,
	}, nil
}

// DefaultBranch resolves the project's default branch
// from its metadata.
func (p *Provider) DefaultBranch(
	ctx context.Context,
) (string, error) {
	proj, resp, err := p.client.Projects.GetProject(
		p.repo, nil, gl.WithContext(ctx),
	)
	if err != nil {
		return "", apiError(
			"resolving default branch", resp, err,
		)
	}

	if proj.DefaultBranch == "" {
		return "", fmt.Errorf(
			"resolving default branch: project %s "+
				"reports none",
			p.repo,
		)
	}

	return proj.DefaultBranch, nil
}

// Validate confirms the token is usable before any
// mutation.
func (p *Provider) Validate(ctx context.Context) error {
	user, resp, err := p.client.Users.CurrentUser(
		gl.WithContext(ctx),
	)
	if err != nil {
		return apiError(
			"validating credentials", resp, err,
		)
	}

	slog.Debug(
		"credentials validated",
		"user", user.Username,
	)

	return nil
}

// FindOpenPullRequest returns the open merge request for
// the source/target pair, or nil when none exists.
func (p *Provider) FindOpenPullRequest(
	ctx context.Context,
	head string,
	base string,
) (*hosting.PullRequest, error) {
	opts := &gl.ListProjectMergeRequestsOptions{
		State:        gl.Ptr("opened"),
		SourceBranch: gl.Ptr(head),
		TargetBranch: gl.Ptr(base),
	}

	mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(
		p.repo, opts, gl.WithContext(ctx),
	)
	if err != nil {
		return nil, apiError(
			"listing merge requests", resp, err,
		)
	}

	if len(mrs) == 0 {
		return nil, nil
	}

	mr := mrs[0]

	return &hosting.PullRequest{
		Number: mr.IID,
		Title:  mr.Title,
		URL:    mr.WebURL,
		Head:   mr.SourceBranch,
		Base:   mr.TargetBranch,
	}, nil
}

// CreatePullRequest opens a new merge request from head
// into base.
func (p *Provider) CreatePullRequest(
	ctx context.Context,
	head string,
	base string,
	title string,
	body string,
) (*hosting.PullRequest, error) {
	opts := &gl.CreateMergeRequestOptions{
		Title:        &title,
		Description:  &body,
		SourceBranch: &head,
		TargetBranch: &base,
	}

	mr, resp, err := p.client.MergeRequests.CreateMergeRequest(
		p.repo, opts, gl.WithContext(ctx),
	)
	if err != nil {
		return nil, apiError(
			"creating merge request", resp, err,
		)
	}

	return &hosting.PullRequest{
		Number: mr.IID,
		Title:  mr.Title,
		URL:    mr.WebURL,
		Head:   mr.SourceBranch,
		Base:   mr.TargetBranch,
	}, nil
}

// apiError wraps a failed API call into a classified
// hosting.APIError.
func apiError(
	op string,
	resp *gl.Response,
	err error,
) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	return &hosting.APIError{
		Class:      hosting.Classify(status),
		StatusCode: status,
		TokenClass: tokenClass,
		Op:         op,
		Err:        err,
	}
}
