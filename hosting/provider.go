package hosting

import (
	"context"
	"fmt"
	"log/slog"
)

// PullRequest describes an open or freshly created pull
// request. Values are transient; nothing is persisted
// beyond the run.
type PullRequest struct {
	// Number is the platform identifier (PR number or
	// MR IID).
	Number int
	// Title is the pull request title.
	Title string
	// URL is the web URL of the pull request.
	URL string
	// Head is the source branch name.
	Head string
	// Base is the target branch name.
	Base string
}

// Provider abstracts the git hosting platform API.
//
// Pattern: Strategy -- swap hosting platform without
// changing pipeline logic.
type Provider interface {
	// DefaultBranch resolves the repository's primary
	// integration branch.
	DefaultBranch(ctx context.Context) (string, error)

	// Validate confirms the credential is usable before
	// any mutation is attempted.
	Validate(ctx context.Context) error

	// FindOpenPullRequest returns the open pull request
	// for the head/base pair, or nil when none exists.
	// Head branches are unique per repository here, so
	// at most one match is returned.
	FindOpenPullRequest(
		ctx context.Context,
		head string,
		base string,
	) (*PullRequest, error)

	// CreatePullRequest opens a new pull request.
	CreatePullRequest(
		ctx context.Context,
		head string,
		base string,
		title string,
		body string,
	) (*PullRequest, error)
}

// EnsurePullRequest returns the open pull request for the
// head/base pair, creating one when none exists. An
// already-open pull request is returned unchanged with no
// additional creation or edit call. The second return
// value reports whether a new pull request was created.
func EnsurePullRequest(
	ctx context.Context,
	p Provider,
	head string,
	base string,
	title string,
	body string,
) (*PullRequest, bool, error) {
	const errCtx = "ensuring pull request"

	existing, err := p.FindOpenPullRequest(
		ctx, head, base,
	)
	if err != nil {
		return nil, false, fmt.Errorf(
			"%s: find: %w", errCtx, err,
		)
	}

	if existing != nil {
		slog.Info(
			"reusing existing pull request",
			"number", existing.Number,
			"url", existing.URL,
		)

		return existing, false, nil
	}

	created, err := p.CreatePullRequest(
		ctx, head, base, title, body,
	)
	if err != nil {
		return nil, false, fmt.Errorf(
			"%s: create: %w", errCtx, err,
		)
	}

	slog.Info(
		"created pull request",
		"number", created.Number,
		"url", created.URL,
	)

	return created, true, nil
}
