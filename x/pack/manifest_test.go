package pack

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDiff(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeTree(t, a, map[string]string{"same.h": "s", "changed.h": "1", "gone.h": "g"})
	writeTree(t, b, map[string]string{"same.h": "s", "changed.h": "2", "new.h": "n"})

	got, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"~ changed.h", "- gone.h", "+ new.h"}
	if !slices.Equal(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
}

func TestWriteManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"include/b.h": "b", "include/a.h": "a", ".git/HEAD": "x"})
	out := filepath.Join(dir, ManifestFileName)
	digest, err := WriteManifest(dir, out)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Digest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if digest != again {
		t.Errorf("digest changed after writing manifest into the tree: %s != %s", digest, again)
	}
	entries, err := ReadManifest(out)
	if err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	if !slices.Equal(paths, []string{"include/a.h", "include/b.h"}) {
		t.Errorf("manifest paths = %v", paths)
	}
	data, _ := os.ReadFile(out)
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Errorf("manifest = %q", data)
	}
}
