// Package hosting defines the strategy interface for the
// remote hosting platform API: default branch resolution,
// credential validation, and pull request lookup and
// creation.
//
// Implementations exist for GitHub and GitLab in
// sub-packages. EnsurePullRequest is the idempotent
// find-then-create helper used by the pipeline, and
// APIError carries the diagnostic context operators need
// to tell a bad token apart from missing repository
// permissions.
package hosting
