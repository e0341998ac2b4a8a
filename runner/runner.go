// Package runner orchestrates a single update run: count
// files, write the count file, commit the change on the
// update branch, push it, and ensure a pull request
// exists. The sequence is linear; each stage's failure
// aborts the rest of the run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasttemplate"

	"github.com/Nemo-docs/autodocs/counter"
	"github.com/Nemo-docs/autodocs/hosting"
)

// GitClient is the subset of local git operations the
// pipeline needs. Implemented by git.Repo; substituted
// by fakes in tests.
type GitClient interface {
	IsRepo() bool
	Init(
		authedURL string,
		cleanURL string,
		defaultBranch string,
	) error
	EnsureBranch(branch string, base string) error
	HasChanges() (bool, error)
	CommitAll(
		message string,
		authorName string,
		authorEmail string,
	) error
	Push(
		branch string,
		authedURL string,
		cleanURL string,
	) error
}

// Config holds all settings and collaborators for one
// pipeline run. Use a Config struct instead of many
// arguments.
type Config struct {
	// Workspace is the checkout root.
	Workspace string

	// Repository is the owner/name pair, used in
	// message templates.
	Repository string

	// WorkBranch is the fixed update branch name.
	WorkBranch string

	// DefaultBranch skips the remote lookup when set.
	DefaultBranch string

	// CountFile is the tracked count file name.
	CountFile string

	// ExcludedDirs are directory names skipped while
	// counting.
	ExcludedDirs []string

	// CommitMessage, PRTitle and PRBody are message
	// templates with {{count}}, {{branch}} and
	// {{repo}} variables.
	CommitMessage string
	PRTitle       string
	PRBody        string

	// Actor and AuthorEmail form the commit identity.
	Actor       string
	AuthorEmail string

	// AuthedRemoteURL embeds the token; CleanRemoteURL
	// does not. The authed form is only ever configured
	// for the duration of a fetch or push.
	AuthedRemoteURL string
	CleanRemoteURL  string

	// SummaryFile is an optional path for the JSON run
	// summary.
	SummaryFile string

	// DryRun skips push and pull request creation.
	DryRun bool

	// Git performs the local version-control
	// operations.
	Git GitClient

	// Provider performs the hosting API operations.
	Provider hosting.Provider
}

// Summary is the machine-readable result of a run.
type Summary struct {
	Count             int    `json:"count"`
	Changed           bool   `json:"changed"`
	Branch            string `json:"branch,omitempty"`
	PullRequestNumber int    `json:"pull_request_number,omitempty"`
	PullRequestURL    string `json:"pull_request_url,omitempty"`
}

// Run executes the full pipeline: count, write, commit,
// push, and pull request. A run where the count file did
// not change exits successfully without touching git
// history or the remote.
func Run(ctx context.Context, cfg Config) error {
	const errCtx = "running file count update"

	defaultBranch := cfg.DefaultBranch

	resolveBase := func() (string, error) {
		if defaultBranch != "" {
			return defaultBranch, nil
		}

		b, err := cfg.Provider.DefaultBranch(ctx)
		if err != nil {
			return "", err
		}

		slog.Info(
			"resolved default branch", "branch", b,
		)

		defaultBranch = b

		return b, nil
	}

	// Bootstrap the workspace when it is not a checkout
	// yet (container runs without a prior clone).
	if !cfg.Git.IsRepo() {
		base, err := resolveBase()
		if err != nil {
			return fmt.Errorf(
				"%s: resolve default branch: %w",
				errCtx, err,
			)
		}

		slog.Info(
			"initialising workspace repository",
			"dir", cfg.Workspace,
		)

		if err := cfg.Git.Init(
			cfg.AuthedRemoteURL,
			cfg.CleanRemoteURL,
			base,
		); err != nil {
			return fmt.Errorf(
				"%s: init workspace: %w", errCtx, err,
			)
		}
	}

	count, err := counter.Count(
		cfg.Workspace, cfg.ExcludedDirs,
	)
	if err != nil {
		return fmt.Errorf(
			"%s: count files: %w", errCtx, err,
		)
	}

	path, _, err := counter.WriteCountFile(
		cfg.Workspace, count, cfg.CountFile,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"wrote file count",
		"count", count,
		"file", path,
	)

	changed, err := cfg.Git.HasChanges()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if !changed {
		slog.Info(
			"file count unchanged, nothing to do",
			"count", count,
		)

		return writeSummary(cfg.SummaryFile, Summary{
			Count:   count,
			Changed: false,
		})
	}

	base, err := resolveBase()
	if err != nil {
		return fmt.Errorf(
			"%s: resolve default branch: %w",
			errCtx, err,
		)
	}

	if err := cfg.Provider.Validate(ctx); err != nil {
		return fmt.Errorf(
			"%s: validate credentials: %w",
			errCtx, err,
		)
	}

	if err := cfg.Git.EnsureBranch(
		cfg.WorkBranch, base,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	vars := map[string]any{
		"count":  strconv.Itoa(count),
		"branch": cfg.WorkBranch,
		"repo":   cfg.Repository,
	}

	if err := cfg.Git.CommitAll(
		render(cfg.CommitMessage, vars),
		cfg.Actor,
		cfg.AuthorEmail,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.DryRun {
		slog.Info(
			"dry run: skipping push and pull request",
			"branch", cfg.WorkBranch,
		)

		return writeSummary(cfg.SummaryFile, Summary{
			Count:   count,
			Changed: true,
			Branch:  cfg.WorkBranch,
		})
	}

	if err := cfg.Git.Push(
		cfg.WorkBranch,
		cfg.AuthedRemoteURL,
		cfg.CleanRemoteURL,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	pr, _, err := hosting.EnsurePullRequest(
		ctx,
		cfg.Provider,
		cfg.WorkBranch,
		base,
		cfg.PRTitle,
		render(cfg.PRBody, vars),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return writeSummary(cfg.SummaryFile, Summary{
		Count:             count,
		Changed:           true,
		Branch:            cfg.WorkBranch,
		PullRequestNumber: pr.Number,
		PullRequestURL:    pr.URL,
	})
}

// render substitutes {{var}} placeholders in a message
// template.
func render(tpl string, vars map[string]any) string {
	return fasttemplate.New(
		tpl, "{{", "}}",
	).ExecuteString(vars)
}

// writeSummary marshals the run summary to path. Disabled
// when path is empty.
func writeSummary(path string, s Summary) error {
	const errCtx = "writing run summary"

	if path == "" {
		return nil
	}

	buf, err := json.Marshal(&s)
	if err != nil {
		return fmt.Errorf(
			"%s: marshal: %w", errCtx, err,
		)
	}

	buf = append(buf, '\n')

	//nolint:gosec // operator-provided artifact path
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
