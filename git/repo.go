package git

import (
	"fmt"
	"strings"

	"github.com/Nemo-docs/autodocs/exec"
)

// Repo is a local checkout of a git repository.
type Repo struct {
	// Dir is the filesystem location of the checkout.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
}

// New returns a Repo operating on dir with the
// conventional "origin" remote.
func New(dir string) *Repo {
	return &Repo{
		Dir:        dir,
		RemoteName: "origin",
	}
}

// IsRepo reports whether Dir is inside a git work tree.
func (r *Repo) IsRepo() bool {
	_, err := exec.Ex(
		r.Dir, "git",
		"rev-parse", "--is-inside-work-tree",
	)

	return err == nil
}

// Init bootstraps a repository in Dir from the remote
// default branch: init, remote add, shallow fetch, and
// checkout. The token-bearing URL is only configured for
// the duration of the fetch; the remote is left pointing
// at cleanURL.
func (r *Repo) Init(
	authedURL string,
	cleanURL string,
	defaultBranch string,
) error {
	const errCtx = "initialising repository"

	steps := [][]string{
		{"init"},
		{"remote", "add", r.RemoteName, authedURL},
		{
			"fetch", "--depth=1",
			r.RemoteName, defaultBranch,
		},
		{
			"checkout", "-B", defaultBranch,
			r.RemoteName + "/" + defaultBranch,
		},
		{"remote", "set-url", r.RemoteName, cleanURL},
	}

	for _, args := range steps {
		if _, err := exec.Ex(
			r.Dir, "git", args...,
		); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return nil
}

// EnsureBranch creates or resets branch from the current
// tip of base on the remote and makes it the current
// checkout. Re-running targets the same branch, so the
// update branch never diverges structurally from history.
func (r *Repo) EnsureBranch(
	branch string,
	base string,
) error {
	const errCtx = "ensuring branch"

	if _, err := exec.Ex(
		r.Dir, "git",
		"fetch", r.RemoteName, base,
	); err != nil {
		return fmt.Errorf(
			"%s: fetch %s: %w", errCtx, base, err,
		)
	}

	if _, err := exec.Ex(
		r.Dir, "git",
		"checkout", "-B", branch,
		r.RemoteName+"/"+base,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// HasChanges reports whether the working tree differs
// from the last commit, untracked files included.
func (r *Repo) HasChanges() (bool, error) {
	const errCtx = "checking for changes"

	out, err := exec.Ex(
		r.Dir, "git", "status", "--porcelain",
	)
	if err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages every change and commits with the
// given identity. Fails when nothing is staged; callers
// check HasChanges first.
func (r *Repo) CommitAll(
	message string,
	authorName string,
	authorEmail string,
) error {
	const errCtx = "committing changes"

	if _, err := exec.Ex(
		r.Dir, "git", "add", "-A",
	); err != nil {
		return fmt.Errorf("%s: stage: %w", errCtx, err)
	}

	if _, err := exec.Ex(
		r.Dir, "git",
		"-c", "user.name="+authorName,
		"-c", "user.email="+authorEmail,
		"commit", "-m", message,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Push pushes branch upstream with --force-with-lease so
// a remote that advanced unexpectedly rejects the push
// instead of being clobbered. The token-bearing URL is
// configured only for the duration of the push and the
// remote is restored to cleanURL afterwards.
func (r *Repo) Push(
	branch string,
	authedURL string,
	cleanURL string,
) (retErr error) {
	const errCtx = "pushing branch"

	if _, err := exec.Ex(
		r.Dir, "git",
		"remote", "set-url", r.RemoteName, authedURL,
	); err != nil {
		return fmt.Errorf(
			"%s: set remote: %w", errCtx, err,
		)
	}

	defer func() {
		_, err := exec.Ex(
			r.Dir, "git",
			"remote", "set-url", r.RemoteName, cleanURL,
		)
		if err != nil && retErr == nil {
			retErr = fmt.Errorf(
				"%s: restore remote: %w", errCtx, err,
			)
		}
	}()

	if _, err := exec.Ex(
		r.Dir, "git",
		"push", "-u", r.RemoteName, branch,
		"--force-with-lease",
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
