package gitctx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractFiles(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/util.go b/util.go
--- a/util.go
+++ b/util.go
@@ -5,3 +5,4 @@
+func helper() {}
`
	files := extractFiles(diff)
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0] != "main.go" {
		t.Errorf("files[0] = %q, want %q", files[0], "main.go")
	}
	if files[1] != "util.go" {
		t.Errorf("files[1] = %q, want %q", files[1], "util.go")
	}
}

func TestExtractFiles_Dedup(t *testing.T) {
	diff := `+++ b/main.go
+++ b/main.go
`
	files := extractFiles(diff)
	if len(files) != 1 {
		t.Errorf("got %d files, want 1 (should dedup)", len(files))
	}
}

func TestCountLines(t *testing.T) {
	diff := `diff --git a/a.js b/a.js
--- a/a.js
+++ b/a.js
@@ -1,3 +1,3 @@
 keep
-old
-older
+new
`
	added, deleted := CountLines(diff)
	if added != 1 || deleted != 2 {
		t.Errorf("CountLines = (%d, %d), want (1, 2)", added, deleted)
	}
}

func TestDiffResult_Predicates(t *testing.T) {
	tests := []struct {
		name         string
		r            DiffResult
		empty        bool
		deletionOnly bool
	}{
		{"empty", DiffResult{Diff: " \n"}, true, false},
		{"only deletions", DiffResult{Diff: "-x", Deleted: 1}, false, true},
		{"mixed", DiffResult{Diff: "+y\n-x", Added: 1, Deleted: 1}, false, false},
		{"only additions", DiffResult{Diff: "+y", Added: 1}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
			if got := tt.r.DeletionOnly(); got != tt.deletionOnly {
				t.Errorf("DeletionOnly() = %v, want %v", got, tt.deletionOnly)
			}
		})
	}
}

func TestFilterExcluded(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
+import "fmt"
diff --git a/vendor/lib.go b/vendor/lib.go
--- a/vendor/lib.go
+++ b/vendor/lib.go
@@ -1,3 +1,4 @@
+package lib
`
	result := filterExcluded(diff, []string{"vendor/**"})
	if strings.Contains(result, "vendor/lib.go") {
		t.Error("vendor/lib.go should be excluded")
	}
	if !strings.Contains(result, "main.go") {
		t.Error("main.go should be kept")
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		path     string
		patterns []string
		want     bool
	}{
		{"vendor/lib.go", []string{"vendor/**"}, true},
		{"main.go", []string{"vendor/**"}, false},
		{"foo.gen.go", []string{"**/*.gen.go"}, true},
		{"pkg/foo.gen.go", []string{"**/*.gen.go"}, true},
		{"dist/bundle.js", []string{"**/dist/**"}, true},
		{"main.go", []string{"*.go"}, true},
		{"main.go", nil, false},
	}
	for _, tt := range tests {
		got := MatchesAny(tt.path, tt.patterns)
		if got != tt.want {
			t.Errorf("MatchesAny(%q, %v) = %v, want %v", tt.path, tt.patterns, got, tt.want)
		}
	}
}

func TestSplitDiffSections(t *testing.T) {
	diff := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,3 +1,4 @@
+line1
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -1,3 +1,4 @@
+line2
`
	sections := splitDiffSections(diff)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if strings.Join(sections, "") != diff {
		t.Error("sections should rejoin to the original diff")
	}
}

func TestExtractPathFromSection_NoPath(t *testing.T) {
	section := "diff --git a/main.go b/main.go\nsome other content\n"
	if path := extractPathFromSection(section); path != "" {
		t.Errorf("extractPathFromSection = %q, want empty", path)
	}
}

// setupTestRepo creates a temp git repo with one commit.
func setupTestRepo(t *testing.T) (string, func(args ...string)) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")
	os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "old.go"), []byte("package main\n\nfunc old() {}\n"), 0o644)
	os.MkdirAll(filepath.Join(dir, "vendor"), 0o755)
	os.WriteFile(filepath.Join(dir, "vendor", "lib.go"), []byte("package vendor\n"), 0o644)
	run("git", "add", "-A")
	run("git", "commit", "-m", "init")

	return dir, run
}

func TestStaged(t *testing.T) {
	dir, run := setupTestRepo(t)
	os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() { println(1) }\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "vendor", "lib.go"), []byte("package vendor\n\nvar X = 1\n"), 0o644)
	run("git", "rm", "-q", "old.go")
	run("git", "add", "-A")

	res, err := Staged(context.Background(), DiffOptions{Dir: dir, Exclude: []string{"vendor/**"}})
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "main.go" {
		t.Errorf("Files = %v, want [main.go]", res.Files)
	}
	if strings.Contains(res.Diff, "old.go") {
		t.Error("deleted files should be filtered out")
	}
	if res.Added != 1 || res.Deleted != 1 {
		t.Errorf("Added/Deleted = %d/%d, want 1/1", res.Added, res.Deleted)
	}
	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(res.Root)
	if gotRoot != wantRoot {
		t.Errorf("Root = %q, want %q", res.Root, dir)
	}
}

func TestStaged_OnlyFileDeletionIsEmpty(t *testing.T) {
	dir, run := setupTestRepo(t)
	run("git", "rm", "-q", "old.go")

	res, err := Staged(context.Background(), DiffOptions{Dir: dir})
	if err != nil {
		t.Fatalf("Staged error: %v", err)
	}
	if !res.Empty() {
		t.Errorf("expected empty diff, got %q", res.Diff)
	}
}

func TestStaged_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())
	_, err := Staged(context.Background(), DiffOptions{Dir: t.TempDir()})
	if err == nil {
		t.Error("expected error outside a repository")
	}
}

func TestHookPath(t *testing.T) {
	dir, _ := setupTestRepo(t)
	p, err := HookPath(context.Background(), dir, "pre-commit")
	if err != nil {
		t.Fatalf("HookPath error: %v", err)
	}
	if !filepath.IsAbs(p) {
		t.Errorf("HookPath should be absolute, got %q", p)
	}
	if !strings.HasSuffix(filepath.ToSlash(p), ".git/hooks/pre-commit") {
		t.Errorf("HookPath = %q", p)
	}
}
