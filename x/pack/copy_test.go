package pack

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	entries, err := Manifest(root)
	if err != nil {
		t.Fatal(err)
	}
	var ret []string
	for _, e := range entries {
		ret = append(ret, e.Path)
	}
	return ret
}

func TestCopyHeaderScenario(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"src/foo.h":      "foo",
		"src/bar.tcc":    "bar",
		"src/bar.cpp":    "impl",
		"CMakeLists.txt": "project(x)",
	})
	rep, err := Copy(src, dst,
		Rule{Pattern: "*.h", Dst: "include", Src: "src"},
		Rule{Pattern: "*.tcc", Dst: "include", Src: "src"},
	)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	want := []string{"include/bar.tcc", "include/foo.h"}
	if got := listTree(t, dst); !slices.Equal(got, want) {
		t.Errorf("layout = %v, want %v", got, want)
	}
	if rep.Copied != 2 || rep.Unchanged != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestCopyKeepsSubPaths(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"src/concurrent-utils/locks.h":            "a",
		"src/concurrent-utils/concurrent-queue.h": "b",
		"src/concurrent-utils/detail/impl.h":      "c",
		"src/concurrent-utils/detail/impl.cc":     "d",
	})
	if _, err := Copy(src, dst, Rule{Pattern: "*.h", Dst: "include", Src: "src"}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"include/concurrent-utils/concurrent-queue.h",
		"include/concurrent-utils/detail/impl.h",
		"include/concurrent-utils/locks.h",
	}
	if got := listTree(t, dst); !slices.Equal(got, want) {
		t.Errorf("layout = %v, want %v", got, want)
	}
}

func TestCopyFlatten(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"a/b/c.h": "c"})
	if _, err := Copy(src, dst, Rule{Pattern: "*.h", Dst: "include", Flatten: true}); err != nil {
		t.Fatal(err)
	}
	if got := listTree(t, dst); !slices.Equal(got, []string{"include/c.h"}) {
		t.Errorf("layout = %v", got)
	}
}

func TestCopyIdempotent(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{
		"src/concurrent-utils/locks.h": "locks",
		"src/concurrent-utils/q.tcc":   "q",
	})
	rules := []Rule{
		{Pattern: "concurrent-utils/*.h", Dst: "include", Src: "src"},
		{Pattern: "concurrent-utils/*.tcc", Dst: "include", Src: "src"},
	}
	if _, err := Copy(src, dst, rules...); err != nil {
		t.Fatal(err)
	}
	first := filepath.Join(t.TempDir(), ManifestFileName)
	if _, err := WriteManifest(dst, first); err != nil {
		t.Fatal(err)
	}

	rep, err := Copy(src, dst, rules...)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Copied != 0 || rep.Unchanged != 2 {
		t.Errorf("second run report = %+v", rep)
	}
	second := filepath.Join(t.TempDir(), ManifestFileName)
	if _, err := WriteManifest(dst, second); err != nil {
		t.Fatal(err)
	}
	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if !bytes.Equal(a, b) {
		t.Errorf("manifests differ:\n%s\n%s", a, b)
	}

	// A fresh layout from the same tree is identical too.
	fresh := t.TempDir()
	if _, err := Copy(src, fresh, rules...); err != nil {
		t.Fatal(err)
	}
	diff, err := Diff(dst, fresh)
	if err != nil {
		t.Fatal(err)
	}
	if len(diff) != 0 {
		t.Errorf("Diff = %v", diff)
	}
}

func TestCopyZeroMatch(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeTree(t, src, map[string]string{"a.cpp": "x"})
	rep, err := Copy(src, dst,
		Rule{Pattern: "*.h", Dst: "include"},
		Rule{Pattern: "*.h", Dst: "include", Src: "missing"},
	)
	if err != nil {
		t.Fatalf("zero-match copy failed: %v", err)
	}
	if !rep.Empty() || len(rep.Rules) != 2 {
		t.Errorf("report = %+v", rep)
	}
}

func TestCopyRejectsUnsafePaths(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	for _, r := range []Rule{
		{Pattern: "*", Src: "../outside"},
		{Pattern: "*", Dst: "../outside"},
		{Pattern: "*", Src: "/etc"},
	} {
		if _, err := Copy(src, dst, r); !errors.Is(err, ErrUnsafePath) {
			t.Errorf("Copy(%v) error = %v, want ErrUnsafePath", r, err)
		}
	}
}

func TestPlanLaterRuleWins(t *testing.T) {
	fsys := srcFS()
	ops, _, err := Plan(fsys,
		Rule{Pattern: "concurrent-utils/locks.h", Dst: "include", Flatten: true},
		Rule{Pattern: "concurrent-helper/locks.h", Dst: "include", Flatten: true},
	)
	if err != nil {
		t.Fatal(err)
	}
	want := []Op{{From: "concurrent-helper/locks.h", To: "include/locks.h", Base: "."}}
	if !slices.Equal(ops, want) {
		t.Errorf("Plan = %v, want %v", ops, want)
	}
}

func TestCopySymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	src, dst, outside := filepath.Join(root, "src"), t.TempDir(), filepath.Join(root, "outside")
	writeTree(t, src, map[string]string{
		"include/locks.h":       "locks",
		"include/detail/impl.h": "impl",
	})
	writeTree(t, outside, map[string]string{"secret.h": "secret"})
	links := map[string]string{
		"include/dir.h":    "detail",
		"include/alias.h":  "locks.h",
		"include/secret.h": filepath.Join(outside, "secret.h"),
		"include/gone.h":   "missing.h",
	}
	for name, target := range links {
		if err := os.Symlink(target, filepath.Join(src, filepath.FromSlash(name))); err != nil {
			t.Fatal(err)
		}
	}

	rep, err := Copy(src, dst, Rule{Pattern: "*.h", Src: "include", Dst: "include"})
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	want := []string{"include/alias.h", "include/detail/impl.h", "include/locks.h"}
	if got := listTree(t, dst); !slices.Equal(got, want) {
		t.Errorf("layout = %v, want %v", got, want)
	}
	if rep.Skipped != 1 || rep.Copied != 3 {
		t.Errorf("report = %+v", rep)
	}
	data, err := os.ReadFile(filepath.Join(dst, "include", "alias.h"))
	if err != nil || string(data) != "locks" {
		t.Errorf("alias.h = %q, %v", data, err)
	}
}
