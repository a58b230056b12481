// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache stores packaged recipes keyed by package identity.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/goplus/pkgrecipe/internal/lockedfile"
	"github.com/goplus/pkgrecipe/recipe"
	"github.com/goplus/pkgrecipe/x/generator"
	"github.com/goplus/pkgrecipe/x/gnu"
	"github.com/goplus/pkgrecipe/x/pack"
	"github.com/qiniu/x/log"
)

// Cache directory layout:
//
//	root/
//	  <name>/<version>/<id>/
//	    .lock            # per-key inter-process lock
//	    .cache.json      # entry metadata, written last
//	    manifest.txt     # sha256 of every packaged file
//	    metadata.json    # consumer metadata
//	    <name>.pc        # pkg-config file, prefix is package/
//	    package/         # install layout
const (
	cacheFile    = ".cache.json"
	lockFile     = ".lock"
	metadataFile = "metadata.json"
	packageDir   = "package"
)

// Entry describes one cached package.
type Entry struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	ID        recipe.PackageID  `json:"id"`
	Settings  recipe.Settings   `json:"settings"`
	CppInfo   *recipe.CppInfo   `json:"cpp_info"`
	Manifest  string            `json:"manifest"`
	BuildTime time.Time         `json:"build_time"`
	Extra     map[string]string `json:"extra,omitempty"`

	dir string
}

// Ref returns the name@version of the entry.
func (e *Entry) Ref() recipe.Ref {
	return recipe.Ref{Name: e.Name, Version: e.Version}
}

// Dir returns the entry directory.
func (e *Entry) Dir() string { return e.dir }

// PackageDir returns the install layout of the entry.
func (e *Entry) PackageDir() string { return filepath.Join(e.dir, packageDir) }

// MetadataFile returns the consumer metadata file of the entry.
func (e *Entry) MetadataFile() string { return filepath.Join(e.dir, metadataFile) }

// PkgConfigFile returns the pkg-config file of the entry.
func (e *Entry) PkgConfigFile() string { return filepath.Join(e.dir, e.Name+".pc") }

// ManifestFile returns the manifest of the entry.
func (e *Entry) ManifestFile() string { return filepath.Join(e.dir, pack.ManifestFileName) }

// Cache is a package cache rooted at a directory. A Cache is safe for
// concurrent use by multiple goroutines and processes as long as writers
// hold the per-key lock.
type Cache struct {
	root string
}

// New returns a cache rooted at root.
func New(root string) *Cache {
	return &Cache{root: root}
}

// Root returns the cache root directory.
func (c *Cache) Root() string { return c.root }

// Dir returns the entry directory for ref and id.
func (c *Cache) Dir(ref recipe.Ref, id recipe.PackageID) (string, error) {
	escaped, err := ref.EscapePath()
	if err != nil {
		return "", err
	}
	if id == "" || strings.ContainsAny(string(id), `/\.`) {
		return "", fmt.Errorf("invalid package id %q", id)
	}
	return filepath.Join(c.root, escaped, string(id)), nil
}

// Lock acquires the inter-process lock of the entry for ref and id.
func (c *Cache) Lock(ref recipe.Ref, id recipe.PackageID) (unlock func(), err error) {
	dir, err := c.Dir(ref, id)
	if err != nil {
		return nil, err
	}
	return lockedfile.MutexAt(filepath.Join(dir, lockFile)).Lock()
}

// Lookup returns the committed entry for ref and id. A miss returns an
// error matching fs.ErrNotExist.
func (c *Cache) Lookup(ref recipe.Ref, id recipe.PackageID) (*Entry, error) {
	dir, err := c.Dir(ref, id)
	if err != nil {
		return nil, err
	}
	return load(dir)
}

func load(dir string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, cacheFile), err)
	}
	e.dir = dir
	if _, err := os.Stat(e.PackageDir()); err != nil {
		return nil, err
	}
	return &e, nil
}

// Commit moves the install layout at staging into the cache as e and
// writes its manifest and consumer metadata. The caller must hold the
// entry lock. The entry becomes visible to Lookup only when Commit
// succeeds.
func (c *Cache) Commit(e *Entry, staging string) error {
	dir, err := c.Dir(e.Ref(), e.ID)
	if err != nil {
		return err
	}
	e.dir = dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	os.Remove(filepath.Join(dir, cacheFile))
	dst := e.PackageDir()
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	if err := os.Rename(staging, dst); err != nil {
		// staging may live on another file system.
		log.Debugf("cache: rename %s: %v, copying", staging, err)
		if err := os.CopyFS(dst, os.DirFS(staging)); err != nil {
			return err
		}
	}

	digest, err := pack.WriteManifest(dst, e.ManifestFile())
	if err != nil {
		return err
	}
	e.Manifest = digest
	if e.CppInfo == nil {
		e.CppInfo = recipe.NewCppInfo()
	}
	if err := writeMetadata(e); err != nil {
		return err
	}
	if e.BuildTime.IsZero() {
		e.BuildTime = time.Now()
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, cacheFile), data)
}

func writeMetadata(e *Entry) error {
	meta := map[string]*recipe.CppInfo{e.Name: e.CppInfo}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(e.MetadataFile(), append(data, '\n'), 0o644); err != nil {
		return err
	}
	f, err := os.Create(e.PkgConfigFile())
	if err != nil {
		return err
	}
	err = generator.WritePkgConfig(f, generator.PkgConfig{
		Name:    e.Name,
		Version: e.Version,
		Prefix:  e.PackageDir(),
		Info:    e.CppInfo,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeFileAtomic(name string, data []byte) error {
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, name)
}

// List returns all committed entries sorted by name, version and id.
// Versions compare in version order, so 1.10 sorts after 1.9.
func (c *Cache) List() ([]*Entry, error) {
	matches, err := filepath.Glob(filepath.Join(c.root, "*", "*", "*", cacheFile))
	if err != nil {
		return nil, err
	}
	var ret []*Entry
	for _, m := range matches {
		e, err := load(filepath.Dir(m))
		if err != nil {
			log.Warnf("cache: skip %s: %v", filepath.Dir(m), err)
			continue
		}
		ret = append(ret, e)
	}
	slices.SortFunc(ret, func(a, b *Entry) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		if n := gnu.Compare(a.Version, b.Version); n != 0 {
			return n
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
	return ret, nil
}

// Find returns the entries for ref. An empty ref.Version matches every
// version.
func (c *Cache) Find(ref recipe.Ref) ([]*Entry, error) {
	all, err := c.List()
	if err != nil {
		return nil, err
	}
	var ret []*Entry
	for _, e := range all {
		if e.Name == ref.Name && (ref.Version == "" || e.Version == ref.Version) {
			ret = append(ret, e)
		}
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%s: %w", ref, fs.ErrNotExist)
	}
	return ret, nil
}

// Remove deletes the entry for ref and id under its lock.
func (c *Cache) Remove(ref recipe.Ref, id recipe.PackageID) error {
	dir, err := c.Dir(ref, id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s %s: %w", ref, id.Short(), fs.ErrNotExist)
	}
	unlock, err := c.Lock(ref, id)
	if err != nil {
		return err
	}
	defer unlock()
	if err := os.Remove(filepath.Join(dir, cacheFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for _, name := range []string{packageDir, metadataFile, pack.ManifestFileName, ref.Name + ".pc"} {
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}
