// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recipe defines the lifecycle contract of a package recipe: a
// descriptor plus five stage hooks invoked by the host in a fixed order
// (source, build, package id, package, package info).
package recipe

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goplus/pkgrecipe/x/pack"
	"github.com/goplus/pkgrecipe/x/vcs"
	"github.com/qiniu/x/log"
)

// -----------------------------------------------------------------------------

// Recipe is a descriptor together with its stage hooks. Hooks that are not
// set are no-ops.
type Recipe struct {
	desc Descriptor

	fOnSource      func(ctx context.Context, c *Context) error
	fOnBuild       func(ctx context.Context, c *Context) error
	fOnPackageID   func(info *Info)
	fOnPackage     func(ctx context.Context, c *Context) error
	fOnPackageInfo func(info *CppInfo)
}

// New returns a recipe for desc. It panics if desc is invalid, since
// recipes are declared at init time.
func New(desc Descriptor) *Recipe {
	if err := desc.Validate(); err != nil {
		panic(err)
	}
	return &Recipe{desc: desc}
}

// Descriptor returns a copy of the recipe descriptor.
func (r *Recipe) Descriptor() Descriptor {
	d := r.desc
	d.Settings = append([]string(nil), r.desc.Settings...)
	d.Generators = append([]string(nil), r.desc.Generators...)
	return d
}

// OnSource sets the source acquisition hook. It must leave a complete
// source tree in c.SourceDir or fail.
func (r *Recipe) OnSource(f func(ctx context.Context, c *Context) error) { r.fOnSource = f }

// OnBuild sets the build hook.
func (r *Recipe) OnBuild(f func(ctx context.Context, c *Context) error) { r.fOnBuild = f }

// OnPackageID sets the identity hook. It may only narrow info and must
// not perform I/O.
func (r *Recipe) OnPackageID(f func(info *Info)) { r.fOnPackageID = f }

// OnPackage sets the packaging hook.
func (r *Recipe) OnPackage(f func(ctx context.Context, c *Context) error) { r.fOnPackage = f }

// OnPackageInfo sets the consumer metadata hook.
func (r *Recipe) OnPackageInfo(f func(info *CppInfo)) { r.fOnPackageInfo = f }

// Source invokes the source hook.
func (r *Recipe) Source(ctx context.Context, c *Context) error {
	if r.fOnSource == nil {
		return nil
	}
	return r.fOnSource(ctx, c)
}

// Build invokes the build hook.
func (r *Recipe) Build(ctx context.Context, c *Context) error {
	if r.fOnBuild == nil {
		return nil
	}
	return r.fOnBuild(ctx, c)
}

// PackageID invokes the identity hook on info and returns the resulting key.
func (r *Recipe) PackageID(info *Info) PackageID {
	if r.fOnPackageID != nil {
		r.fOnPackageID(info)
	}
	return info.ID()
}

// Package invokes the packaging hook.
func (r *Recipe) Package(ctx context.Context, c *Context) error {
	if r.fOnPackage == nil {
		return nil
	}
	return r.fOnPackage(ctx, c)
}

// PackageInfo invokes the metadata hook on a fresh CppInfo and freezes it.
func (r *Recipe) PackageInfo() *CppInfo {
	info := NewCppInfo()
	if r.fOnPackageInfo != nil {
		r.fOnPackageInfo(info)
	}
	info.Freeze()
	return info
}

// -----------------------------------------------------------------------------

// Context is what a stage hook sees of the host: the descriptor, the
// settings of this instance and the directories it owns.
type Context struct {
	Descriptor Descriptor
	Settings   Settings

	SourceDir  string
	BuildDir   string
	PackageDir string

	Stdout io.Writer
	Stderr io.Writer

	// VCS fetches sources. Git is used when nil.
	VCS vcs.VCS

	// Revision is the tag, branch or commit the source stage fetched.
	// The host records it with the cached package.
	Revision string
}

// Git returns the source provider of the context.
func (c *Context) Git() vcs.VCS {
	if c.VCS == nil {
		c.VCS = vcs.NewGitVCS(vcs.WithProgress(c.stderr()))
	}
	return c.VCS
}

// Fetch resolves the descriptor version against the tags of remote and
// clones the result into <SourceDir>/<folder>. Without a matching tag the
// default branch is cloned and its head commit becomes the Revision.
func (c *Context) Fetch(ctx context.Context, remote, folder string) error {
	g := c.Git()
	tags, err := g.Tags(ctx, remote)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	ref, ok := vcs.ResolveRef(tags, c.Descriptor.Version)
	revision := ref
	if !ok {
		if revision, err = g.Latest(ctx, remote); err != nil {
			return fmt.Errorf("%w: %w", ErrAcquisition, err)
		}
		log.Warnf("%s: no tag for version %s, using default branch at %s", remote, c.Descriptor.Version, revision)
	}
	return c.Clone(ctx, remote, ref, revision, folder)
}

// Clone clones ref of remote into <SourceDir>/<folder> and records
// revision as the fetched Revision.
func (c *Context) Clone(ctx context.Context, remote, ref, revision, folder string) error {
	if err := c.Git().Clone(ctx, remote, ref, filepath.Join(c.SourceDir, folder)); err != nil {
		return fmt.Errorf("%w: %w", ErrAcquisition, err)
	}
	c.Revision = revision
	return nil
}

// Copy copies files matching rules from SourceDir into PackageDir.
func (c *Context) Copy(rules ...pack.Rule) error {
	return c.copyFrom(c.SourceDir, rules)
}

// CopyBuild copies files matching rules from BuildDir into PackageDir.
func (c *Context) CopyBuild(rules ...pack.Rule) error {
	return c.copyFrom(c.BuildDir, rules)
}

func (c *Context) copyFrom(root string, rules []pack.Rule) error {
	if _, err := pack.Copy(root, c.PackageDir, rules...); err != nil {
		return fmt.Errorf("%w: %w", ErrPackaging, err)
	}
	return nil
}

// Output returns the writers subprocesses should stream to.
func (c *Context) Output() (stdout, stderr io.Writer) {
	return c.stdout(), c.stderr()
}

func (c *Context) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

func (c *Context) stderr() io.Writer {
	if c.Stderr == nil {
		return os.Stderr
	}
	return c.Stderr
}
