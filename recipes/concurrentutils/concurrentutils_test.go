package concurrentutils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goplus/pkgrecipe/recipe"
	"github.com/goplus/pkgrecipe/x/pack"
	"github.com/goplus/pkgrecipe/x/vcs"
)

// upstream mirrors the layout of the concurrent-utils repository.
var upstream = map[string]string{
	"CMakeLists.txt":                          "cmake_minimum_required(VERSION 3.5)\n",
	"src/concurrent-utils/locks.h":            "#pragma once\n",
	"src/concurrent-utils/concurrent-queue.h": "#pragma once\n",
	"src/concurrent-utils/queue-impl.tcc":     "// impl\n",
	"src/concurrent-helper/locks.h":           "#pragma once\n",
	"src/tests/benchmark.h":                   "#pragma once\n",
	"src/tests/mock-types.h":                  "#pragma once\n",
	"src/tests/test-ordered-lock.cc":          "int main() {}\n",
	"src/tests/test-concurrent-queue.cc":      "int main() {}\n",
}

type fakeVCS struct {
	tags    []string
	tagsErr error
	refs    []string
}

func (f *fakeVCS) Clone(ctx context.Context, remote, ref, dir string) error {
	f.refs = append(f.refs, ref)
	for name, content := range upstream {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	return f.tags, f.tagsErr
}

func (f *fakeVCS) Latest(ctx context.Context, remote string) (string, error) {
	return "master", nil
}

func newContext(t *testing.T, v vcs.VCS) *recipe.Context {
	t.Helper()
	root := t.TempDir()
	return &recipe.Context{
		Descriptor: Descriptor(),
		Settings:   recipe.HostSettings(),
		SourceDir:  filepath.Join(root, "source"),
		BuildDir:   filepath.Join(root, "build"),
		PackageDir: filepath.Join(root, "package"),
		VCS:        v,
	}
}

func TestRegistered(t *testing.T) {
	r, ok := recipe.Lookup("concurrent-utils")
	if !ok {
		t.Fatal("concurrent-utils is not registered")
	}
	if d := r.Descriptor(); d.Version != "1.0" || d.License != "MIT" || !slices.Equal(d.Generators, []string{"cmake"}) {
		t.Errorf("descriptor = %+v", d)
	}
}

func TestSourceAndPackage(t *testing.T) {
	r := New()
	v := &fakeVCS{}
	c := newContext(t, v)
	ctx := context.Background()

	if err := r.Source(ctx, c); err != nil {
		t.Fatalf("Source: %v", err)
	}
	if len(v.refs) != 1 || v.refs[0] != "" {
		t.Errorf("clone refs = %q, want the default branch", v.refs)
	}
	if _, err := os.Stat(filepath.Join(c.SourceDir, Folder, "CMakeLists.txt")); err != nil {
		t.Fatalf("checkout not under %s: %v", Folder, err)
	}

	if err := r.Package(ctx, c); err != nil {
		t.Fatalf("Package: %v", err)
	}
	entries, err := pack.Manifest(c.PackageDir)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Path)
	}
	want := []string{
		"include/concurrent-utils/concurrent-queue.h",
		"include/concurrent-utils/locks.h",
		"include/concurrent-utils/queue-impl.tcc",
	}
	if !slices.Equal(got, want) {
		t.Errorf("package = %v, want %v", got, want)
	}

	// Packaging again leaves the layout unchanged.
	before, _ := pack.Digest(c.PackageDir)
	if err := r.Package(ctx, c); err != nil {
		t.Fatal(err)
	}
	if after, _ := pack.Digest(c.PackageDir); after != before {
		t.Errorf("digest changed: %s -> %s", before, after)
	}
}

func TestSourceAtVersionTag(t *testing.T) {
	v := &fakeVCS{tags: []string{"v0.9", "v1.0", "v1.1"}}
	if err := New().Source(context.Background(), newContext(t, v)); err != nil {
		t.Fatal(err)
	}
	if v.refs[0] != "v1.0" {
		t.Errorf("ref = %q, want v1.0", v.refs[0])
	}
}

func TestSourceFailureIsAcquisition(t *testing.T) {
	v := &fakeVCS{tagsErr: vcs.ErrAuth}
	err := New().Source(context.Background(), newContext(t, v))
	if !errors.Is(err, recipe.ErrAcquisition) || !errors.Is(err, vcs.ErrAuth) {
		t.Fatalf("Source = %v, want ErrAcquisition wrapping ErrAuth", err)
	}
}

func TestHeaderOnlyIdentity(t *testing.T) {
	r := New()
	d := r.Descriptor()
	m := recipe.SettingsMatrix(&d)
	want := r.PackageID(recipe.NewInfo(&d, recipe.Settings{}))
	for _, s := range m.Settings(recipe.Settings{}) {
		if got := r.PackageID(recipe.NewInfo(&d, s)); got != want {
			t.Fatalf("PackageID(%s) = %s, want %s", s, got, want)
		}
	}
}

func TestPackageInfo(t *testing.T) {
	info := New().PackageInfo()
	if !slices.Equal(info.Libs, []string{"concurrent-utils"}) {
		t.Errorf("Libs = %v", info.Libs)
	}
	if !slices.Equal(info.IncludeDirs, []string{"include"}) {
		t.Errorf("IncludeDirs = %v", info.IncludeDirs)
	}
	if !info.Frozen() {
		t.Error("metadata not frozen after export")
	}
}
