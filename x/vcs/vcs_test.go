package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goplus/pkgrecipe/x/pack"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{
		"-c", "user.name=test",
		"-c", "user.email=test@example.com",
		"-c", "protocol.file.allow=always",
		"-c", "init.defaultBranch=main",
		"-c", "commit.gpgsign=false",
	}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

// newRepo creates a repository holding files and returns its path.
func newRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	gitCmd(t, dir, "init")
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	gitCmd(t, dir, "add", "-A")
	gitCmd(t, dir, "commit", "-m", "init")
	return dir
}

// nestedRepo returns a main repository with a sub-module that has a
// sub-module of its own, plus the path of the middle repository.
func nestedRepo(t *testing.T) (main, middle string) {
	t.Helper()
	inner := newRepo(t, map[string]string{"inner.h": "// inner\n"})
	middle = newRepo(t, map[string]string{"src/locks.h": "// locks\n"})
	gitCmd(t, middle, "submodule", "add", inner, "third_party/inner")
	gitCmd(t, middle, "commit", "-m", "add inner")
	main = newRepo(t, map[string]string{"CMakeLists.txt": "project(x)\n"})
	gitCmd(t, main, "submodule", "add", middle, "deps/middle")
	gitCmd(t, main, "commit", "-m", "add middle")
	return main, middle
}

func testVCS() VCS {
	return NewGitVCS(WithConfig("protocol.file.allow", "always"))
}

func TestGitCloneRecursive(t *testing.T) {
	requireGit(t)
	remote, _ := nestedRepo(t)
	dir := filepath.Join(t.TempDir(), "src")

	if err := testVCS().Clone(context.Background(), remote, "", dir); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	for _, f := range []string{
		"CMakeLists.txt",
		"deps/middle/src/locks.h",
		"deps/middle/third_party/inner/inner.h",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
}

func TestGitCloneMissingSubmodule(t *testing.T) {
	requireGit(t)
	remote, middle := nestedRepo(t)
	if err := os.RemoveAll(middle); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "src")

	err := testVCS().Clone(context.Background(), remote, "", dir)
	if !errors.Is(err, ErrSubmodule) {
		t.Fatalf("Clone error = %v, want ErrSubmodule", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("partial tree left at %s", dir)
	}
}

func TestGitCloneNotFound(t *testing.T) {
	requireGit(t)
	remote := filepath.Join(t.TempDir(), "missing")
	dir := filepath.Join(t.TempDir(), "src")

	err := testVCS().Clone(context.Background(), remote, "", dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Clone error = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("partial tree left at %s", dir)
	}
}

func TestGitCloneNonEmptyDir(t *testing.T) {
	requireGit(t)
	remote := newRepo(t, map[string]string{"a.h": "a"})
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep")
	if err := os.WriteFile(keep, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := testVCS().Clone(context.Background(), remote, "", dir); err == nil {
		t.Fatal("Clone into non-empty dir succeeded")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("existing content removed: %v", err)
	}
}

func TestGitTagsAndCloneAtTag(t *testing.T) {
	requireGit(t)
	remote := newRepo(t, map[string]string{"version.h": "1.0"})
	gitCmd(t, remote, "tag", "v1.0")
	if err := os.WriteFile(filepath.Join(remote, "version.h"), []byte("2.0"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, remote, "commit", "-am", "bump")

	g := testVCS()
	ctx := context.Background()
	tags, err := g.Tags(ctx, remote)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	if !slices.Equal(tags, []string{"v1.0"}) {
		t.Fatalf("Tags = %v", tags)
	}
	ref, ok := ResolveRef(tags, "1.0")
	if !ok {
		t.Fatal("ResolveRef found no tag")
	}
	dir := filepath.Join(t.TempDir(), "src")
	if err := g.Clone(ctx, remote, ref, dir); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "version.h"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1.0" {
		t.Errorf("version.h = %q, want tagged content", data)
	}

	head, err := g.Latest(ctx, remote)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(head) != 40 {
		t.Errorf("Latest = %q, want a commit hash", head)
	}
}

func TestGitClonesAreIdentical(t *testing.T) {
	requireGit(t)
	remote, _ := nestedRepo(t)
	g := testVCS()
	ctx := context.Background()
	a := filepath.Join(t.TempDir(), "a")
	b := filepath.Join(t.TempDir(), "b")
	if err := g.Clone(ctx, remote, "", a); err != nil {
		t.Fatal(err)
	}
	if err := g.Clone(ctx, remote, "", b); err != nil {
		t.Fatal(err)
	}
	diff, err := pack.Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(diff) != 0 {
		t.Errorf("clones differ: %v", diff)
	}
}
