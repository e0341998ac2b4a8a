// Package git wraps the local git operations the update
// pipeline needs: repository detection and bootstrap,
// update-branch creation from the default branch tip,
// change detection, committing, and authenticated pushes.
//
// All operations shell out to the git binary through the
// exec package. Failures surface the captured combined
// output; there is no retry and no rollback of local
// commits already made.
package git
