package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DiffOptions controls how the staged diff is gathered.
type DiffOptions struct {
	// Dir is the directory git runs in. Empty means the process working
	// directory.
	Dir          string
	ContextLines int
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff  string
	Files []string
	// Added and Deleted count "+" and "-" body lines, file headers excluded.
	Added   int
	Deleted int
	Root    string
}

// Empty reports whether there is nothing to review.
func (r DiffResult) Empty() bool {
	return strings.TrimSpace(r.Diff) == ""
}

// DeletionOnly reports whether the change only removes lines.
func (r DiffResult) DeletionOnly() bool {
	return r.Added == 0 && r.Deleted > 0
}

// Staged returns the diff of index vs HEAD. Deleted files are left out
// (--diff-filter=d); there is nothing in them to review.
func Staged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	root, err := RepoRoot(ctx, opts.Dir)
	if err != nil {
		return DiffResult{}, err
	}

	args := []string{"diff", "--cached", "--diff-filter=d"}
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	diff, err := gitOutput(ctx, opts.Dir, args...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return buildResult(diff, root, opts), nil
}

// RepoRoot returns the top-level directory of the repository containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return filepath.Clean(strings.TrimSpace(root)), nil
}

// HookPath returns the absolute path of the named hook, honouring
// core.hooksPath and worktrees.
func HookPath(ctx context.Context, dir, name string) (string, error) {
	out, err := gitOutput(ctx, dir, "rev-parse", "--git-path", "hooks/"+name)
	if err != nil {
		return "", fmt.Errorf("locating %s hook: %w", name, err)
	}
	p := strings.TrimSpace(out)
	if !filepath.IsAbs(p) {
		base := dir
		if base == "" {
			base = "."
		}
		abs, err := filepath.Abs(filepath.Join(base, p))
		if err != nil {
			return "", err
		}
		p = abs
	}
	return p, nil
}

func buildResult(diff, root string, opts DiffOptions) DiffResult {
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
	}
	added, deleted := CountLines(diff)
	return DiffResult{
		Diff:    diff,
		Files:   extractFiles(diff),
		Added:   added,
		Deleted: deleted,
		Root:    root,
	}
}

// CountLines counts added and removed body lines in a unified diff.
func CountLines(diff string) (added, deleted int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "), strings.HasPrefix(line, "--- "):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			deleted++
		}
	}
	return added, deleted
}

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			f := strings.TrimPrefix(line, "+++ b/")
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	sections := splitDiffSections(diff)
	var kept []string
	for _, section := range sections {
		path := extractPathFromSection(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitDiffSections(diff string) []string {
	var sections []string
	lines := strings.Split(strings.TrimSuffix(diff, "\n"), "\n")
	var current strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func extractPathFromSection(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
	}
	return ""
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
