// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pack

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ManifestFileName is the name WriteManifest gives the manifest.
const ManifestFileName = "manifest.txt"

// Entry is one file of a tree manifest.
type Entry struct {
	Path string
	Sum  string
	Mode fs.FileMode
}

// Manifest lists every file under dir with its SHA-256, sorted by path.
// ".git" entries and a top-level manifest file are ignored.
func Manifest(dir string) ([]Entry, error) {
	var ret []Entry
	fsys := os.DirFS(dir)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || p == ManifestFileName {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Readlink(filepath.Join(dir, filepath.FromSlash(p)))
			if err != nil {
				return err
			}
			sum := sha256.Sum256([]byte(target))
			ret = append(ret, Entry{Path: p, Sum: hex.EncodeToString(sum[:]), Mode: fs.ModeSymlink})
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		info, err := fs.Stat(fsys, p)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		ret = append(ret, Entry{Path: p, Sum: hex.EncodeToString(sum[:]), Mode: info.Mode().Perm()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(ret, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
	return ret, nil
}

// Format renders entries in sha256sum format. The output has no timestamps,
// so identical trees give identical bytes.
func Format(entries []Entry) []byte {
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s  %s\n", e.Sum, e.Path)
	}
	return []byte(sb.String())
}

// WriteManifest writes the manifest of dir to out and returns its digest.
func WriteManifest(dir, out string) (string, error) {
	entries, err := Manifest(dir)
	if err != nil {
		return "", err
	}
	data := Format(entries)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Digest returns the SHA-256 of the manifest of dir.
func Digest(dir string) (string, error) {
	entries, err := Manifest(dir)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(Format(entries))
	return hex.EncodeToString(sum[:]), nil
}

// Diff compares the trees a and b. Each difference is reported as
// "+ path" (only in b), "- path" (only in a) or "~ path" (content or
// mode differs). An empty result means the trees are identical.
func Diff(a, b string) ([]string, error) {
	ea, err := Manifest(a)
	if err != nil {
		return nil, err
	}
	eb, err := Manifest(b)
	if err != nil {
		return nil, err
	}
	inA := make(map[string]Entry, len(ea))
	for _, e := range ea {
		inA[e.Path] = e
	}
	var diff []string
	for _, e := range eb {
		old, ok := inA[e.Path]
		switch {
		case !ok:
			diff = append(diff, "+ "+e.Path)
		case old.Sum != e.Sum || old.Mode != e.Mode:
			diff = append(diff, "~ "+e.Path)
		}
		delete(inA, e.Path)
	}
	for p := range inA {
		diff = append(diff, "- "+p)
	}
	slices.SortFunc(diff, func(x, y string) int { return strings.Compare(x[2:], y[2:]) })
	return diff, nil
}

// ReadManifest parses a manifest written by WriteManifest.
func ReadManifest(file string) ([]Entry, error) {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, err
	}
	var ret []Entry
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		sum, p, ok := strings.Cut(line, "  ")
		if !ok {
			return nil, fmt.Errorf("%s: malformed line %q", file, line)
		}
		ret = append(ret, Entry{Path: p, Sum: sum})
	}
	return ret, nil
}
