// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package manifest loads declarative recipes from TOML files.
//
// A recipe file looks like:
//
//	[package]
//	name = "concurrent-utils"
//	version = "1.0"
//	settings = ["os", "compiler", "build_type", "arch"]
//	generators = ["cmake"]
//
//	[source]
//	url = "https://github.com/max-plutonium/concurrent-utils.git"
//	folder = "concurrent-utils"
//
//	[build]
//	system = "cmake"
//	source_folder = "concurrent-utils"
//
//	[[copy]]
//	pattern = "*.h"
//	dst = "include"
//	src = "concurrent-utils/src"
//
//	[info]
//	header_only = true
//	libs = ["concurrent-utils"]
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/goplus/pkgrecipe/recipe"
	"github.com/goplus/pkgrecipe/x/autotools"
	"github.com/goplus/pkgrecipe/x/cmake"
	"github.com/goplus/pkgrecipe/x/pack"
)

// Ext is the extension of recipe files.
const Ext = ".toml"

// File is the decoded form of a recipe file.
type File struct {
	Package recipe.Descriptor `toml:"package"`
	Source  Source            `toml:"source"`
	Build   Build             `toml:"build"`
	Copy    []Copy            `toml:"copy"`
	Info    Info              `toml:"info"`
}

// Source describes where sources come from. An empty URL skips the
// source stage.
type Source struct {
	URL string `toml:"url"`
	// Ref pins a branch or tag. Empty resolves the package version
	// against the remote tags.
	Ref    string `toml:"ref"`
	Folder string `toml:"folder"`
}

// Build describes the build stage.
type Build struct {
	// System is "cmake", "autotools", or "none" / empty to skip the
	// build stage.
	System       string            `toml:"system"`
	SourceFolder string            `toml:"source_folder"`
	Defines      map[string]string `toml:"defines"`
	// Args are appended to the configure step.
	Args []string `toml:"args"`
	// Install runs the install step into the package directory.
	Install bool `toml:"install"`
}

// Copy is a packaging rule. From selects the tree it reads, "source"
// (default) or "build".
type Copy struct {
	Pattern  string   `toml:"pattern"`
	Dst      string   `toml:"dst"`
	Src      string   `toml:"src"`
	Excludes []string `toml:"excludes"`
	Flatten  bool     `toml:"flatten"`
	From     string   `toml:"from"`
}

// Info describes identity and consumer metadata.
type Info struct {
	HeaderOnly bool     `toml:"header_only"`
	Discard    []string `toml:"discard"`
	Libs       []string `toml:"libs"`
	Defines    []string `toml:"defines"`
}

// Load reads the recipe file at path.
func Load(path string) (*recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// IsFile reports whether arg names a recipe file rather than a
// registered recipe.
func IsFile(arg string) bool {
	return strings.HasSuffix(arg, Ext) || strings.ContainsRune(arg, filepath.Separator)
}

// Parse decodes a recipe file. Unknown keys are rejected.
func Parse(data []byte) (*recipe.Recipe, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrInvalidDescriptor, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", recipe.ErrInvalidDescriptor, strings.Join(keys, ", "))
	}
	return f.Recipe()
}

// Recipe builds the recipe described by f.
func (f *File) Recipe() (*recipe.Recipe, error) {
	if err := f.Package.Validate(); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", recipe.ErrInvalidDescriptor, err)
	}
	r := recipe.New(f.Package)

	if src := f.Source; src.URL != "" {
		r.OnSource(func(ctx context.Context, c *recipe.Context) error {
			if src.Ref == "" {
				return c.Fetch(ctx, src.URL, src.Folder)
			}
			return c.Clone(ctx, src.URL, src.Ref, src.Ref, src.Folder)
		})
	}

	switch b := f.Build; b.System {
	case "cmake":
		r.OnBuild(func(ctx context.Context, c *recipe.Context) error {
			cm, err := cmake.ForRecipe(c, b.SourceFolder)
			if err != nil {
				return err
			}
			for k, v := range b.Defines {
				cm.Define(k, v)
			}
			if err := cm.Configure(ctx, b.Args...); err != nil {
				return err
			}
			if err := cm.Build(ctx); err != nil {
				return err
			}
			if b.Install {
				return cm.Install(ctx)
			}
			return nil
		})
	case "autotools":
		r.OnBuild(func(ctx context.Context, c *recipe.Context) error {
			at, err := autotools.ForRecipe(c, b.SourceFolder)
			if err != nil {
				return err
			}
			for k, v := range b.Defines {
				at.Env(k, v)
			}
			if err := at.Configure(ctx, b.Args...); err != nil {
				return err
			}
			if err := at.Build(ctx); err != nil {
				return err
			}
			if b.Install {
				return at.Install(ctx)
			}
			return nil
		})
	}

	info := f.Info
	r.OnPackageID(func(id *recipe.Info) {
		if info.HeaderOnly {
			id.HeaderOnly()
			return
		}
		id.Discard(info.Discard...)
	})

	if len(f.Copy) > 0 {
		var fromSource, fromBuild []pack.Rule
		for _, cp := range f.Copy {
			rule := pack.Rule{Pattern: cp.Pattern, Dst: cp.Dst, Src: cp.Src, Excludes: cp.Excludes, Flatten: cp.Flatten}
			if cp.From == "build" {
				fromBuild = append(fromBuild, rule)
			} else {
				fromSource = append(fromSource, rule)
			}
		}
		r.OnPackage(func(ctx context.Context, c *recipe.Context) error {
			if err := c.Copy(fromSource...); err != nil {
				return err
			}
			return c.CopyBuild(fromBuild...)
		})
	}

	r.OnPackageInfo(func(ci *recipe.CppInfo) {
		if len(info.Libs) > 0 {
			ci.SetLibs(info.Libs...)
		}
		ci.AddDefines(info.Defines...)
	})
	return r, nil
}

func (f *File) validate() error {
	switch f.Build.System {
	case "", "none", "cmake", "autotools":
	default:
		return fmt.Errorf("unknown build system %q", f.Build.System)
	}
	for i, cp := range f.Copy {
		if cp.Pattern == "" {
			return fmt.Errorf("copy[%d]: empty pattern", i)
		}
		if _, err := pack.MatchString(cp.Pattern, ""); err != nil {
			return fmt.Errorf("copy[%d]: %w", i, err)
		}
		switch cp.From {
		case "", "source", "build":
		default:
			return fmt.Errorf("copy[%d]: from must be source or build, got %q", i, cp.From)
		}
	}
	for _, axis := range f.Info.Discard {
		if !f.Package.HasSetting(axis) {
			return fmt.Errorf("info.discard: %q is not a declared setting", axis)
		}
	}
	return nil
}
