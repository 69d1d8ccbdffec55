// Package gitctx reads the staged change-set from a git repository.
//
// [Staged] shells out to `git diff --cached --diff-filter=d`, drops sections
// matching exclude globs, and counts added and removed lines so the hook can
// skip deletion-only commits. [RepoRoot] and [HookPath] locate the
// repository and its hooks directory.
package gitctx
