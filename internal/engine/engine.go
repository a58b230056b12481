// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package engine drives recipe instances through the lifecycle
// source, build, package id, package and package info, and commits the
// result to the package cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/qiniu/x/log"
	"golang.org/x/sync/errgroup"

	"github.com/goplus/pkgrecipe/internal/cache"
	"github.com/goplus/pkgrecipe/internal/metrics"
	"github.com/goplus/pkgrecipe/recipe"
	"github.com/goplus/pkgrecipe/x/pack"
	"github.com/goplus/pkgrecipe/x/vcs"
)

// Options configures an Engine.
type Options struct {
	Cache        *cache.Cache
	WorkspaceDir string

	// VCS is handed to every recipe context. Recipes fall back to the git
	// binary when nil.
	VCS vcs.VCS

	Stdout io.Writer
	Stderr io.Writer

	// AllowEmptyPackage accepts a package stage that copies nothing.
	AllowEmptyPackage bool

	// KeepWorkspace leaves the per-run source and build trees on disk.
	KeepWorkspace bool

	// Jobs bounds the instances RunAll runs at once. Zero means the
	// number of CPUs.
	Jobs int

	Metrics *metrics.Metrics
}

// Engine runs recipe instances against one cache.
type Engine struct {
	opts Options
}

// New returns an engine. Cache and WorkspaceDir are required.
func New(opts Options) (*Engine, error) {
	if opts.Cache == nil {
		return nil, errors.New("engine: no cache")
	}
	if opts.WorkspaceDir == "" {
		return nil, errors.New("engine: no workspace directory")
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &Engine{opts: opts}, nil
}

// Result is the outcome of one instance.
type Result struct {
	Ref   recipe.Ref
	ID    recipe.PackageID
	RunID string

	// Entry is the committed cache entry.
	Entry *cache.Entry

	// Cached reports that the entry existed and no hook ran.
	Cached bool

	Transitions []Transition
}

// Instance is one recipe under one settings combination. An instance
// runs at most once.
type Instance struct {
	e        *Engine
	recipe   *recipe.Recipe
	settings recipe.Settings
	runID    string

	state       State
	transitions []Transition
}

// Instance returns a new instance of r under s.
func (e *Engine) Instance(r *recipe.Recipe, s recipe.Settings) *Instance {
	return &Instance{e: e, recipe: r, settings: s, runID: uuid.NewString()}
}

// RunID returns the identifier of the instance workspace.
func (inst *Instance) RunID() string { return inst.runID }

// State returns the current lifecycle state.
func (inst *Instance) State() State { return inst.state }

// Transitions returns the stages completed so far.
func (inst *Instance) Transitions() []Transition {
	return append([]Transition(nil), inst.transitions...)
}

// Run drives the instance to Exported. The identity key is computed first
// and the cache consulted, so a hit returns without running any stage. A
// stage failure moves the instance to Failed and returns a *StageError.
// Host failures (lock, workspace, commit) also leave it Failed.
func (inst *Instance) Run(ctx context.Context) (*Result, error) {
	if inst.state != Uninitialized {
		return nil, fmt.Errorf("%w: run from %s", ErrInvalidTransition, inst.state)
	}
	opts := &inst.e.opts
	desc := inst.recipe.Descriptor()
	ref := desc.Ref()
	id := inst.recipe.PackageID(recipe.NewInfo(&desc, inst.settings))
	res := &Result{Ref: ref, ID: id, RunID: inst.runID}

	if e, err := opts.Cache.Lookup(ref, id); err == nil {
		log.Infof("%s: cache hit %s [%s]", ref, id.Short(), inst.settings)
		opts.Metrics.CacheHit()
		inst.state = Exported
		res.Entry, res.Cached = e, true
		return res, nil
	}

	unlock, err := opts.Cache.Lock(ref, id)
	if err != nil {
		inst.state = Failed
		return nil, err
	}
	defer unlock()

	// Double-check cache after acquiring lock (another instance may have built it)
	if e, err := opts.Cache.Lookup(ref, id); err == nil {
		log.Infof("%s: built concurrently as %s", ref, id.Short())
		opts.Metrics.CacheHit()
		inst.state = Exported
		res.Entry, res.Cached = e, true
		return res, nil
	}
	opts.Metrics.CacheMiss()

	c, cleanup, err := inst.workspace(&desc)
	if err != nil {
		inst.state = Failed
		return nil, err
	}
	defer cleanup()
	log.Infof("%s: building %s [%s] in %s", ref, id.Short(), inst.settings, filepath.Dir(c.SourceDir))

	var info *recipe.CppInfo
	stages := map[Stage]func() error{
		StageSource: func() error { return inst.recipe.Source(ctx, c) },
		StageBuild:  func() error { return inst.recipe.Build(ctx, c) },
		StagePackageID: func() error {
			if got := inst.recipe.PackageID(recipe.NewInfo(&desc, inst.settings)); got != id {
				return fmt.Errorf("package id changed from %s to %s", id.Short(), got.Short())
			}
			return nil
		},
		StagePackage: func() error {
			if err := inst.recipe.Package(ctx, c); err != nil {
				return err
			}
			return inst.checkLayout(c.PackageDir)
		},
		StagePackageInfo: func() error {
			info = inst.recipe.PackageInfo()
			return nil
		},
	}
	for _, stage := range Stages {
		if err := inst.advance(ctx, stage, stages[stage]); err != nil {
			res.Transitions = inst.Transitions()
			return res, err
		}
	}

	entry := &cache.Entry{
		Name:     ref.Name,
		Version:  ref.Version,
		ID:       id,
		Settings: inst.settings,
		CppInfo:  info,
		Extra:    map[string]string{"run_id": inst.runID},
	}
	if c.Revision != "" {
		entry.Extra["revision"] = c.Revision
	}
	if err := opts.Cache.Commit(entry, c.PackageDir); err != nil {
		inst.state = Failed
		res.Transitions = inst.Transitions()
		return res, fmt.Errorf("committing %s %s: %w", ref, id.Short(), err)
	}
	log.Infof("%s: committed %s", ref, entry.Dir())
	res.Entry = entry
	res.Transitions = inst.Transitions()
	return res, nil
}

// advance runs one stage and records the transition.
func (inst *Instance) advance(ctx context.Context, stage Stage, fn func() error) error {
	if inst.state != stage.from() {
		return &StageError{Stage: stage, Err: fmt.Errorf("%w: %s from %s", ErrInvalidTransition, stage, inst.state)}
	}
	if err := ctx.Err(); err != nil {
		inst.state = Failed
		return &StageError{Stage: stage, Err: err}
	}
	log.Debugf("%s: %s", inst.recipe.Descriptor().Ref(), stage)
	start := time.Now()
	err := call(fn)
	d := time.Since(start)
	inst.e.opts.Metrics.ObserveStage(stage.String(), d, err)
	if err != nil {
		inst.state = Failed
		log.Errorf("%s: %s failed: %v", inst.recipe.Descriptor().Ref(), stage, err)
		return &StageError{Stage: stage, Err: err}
	}
	t := Transition{From: inst.state, To: stage.to(), Stage: stage, Duration: d}
	inst.transitions = append(inst.transitions, t)
	inst.state = t.To
	log.Debugf("%s: %s", inst.recipe.Descriptor().Ref(), t)
	return nil
}

func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (inst *Instance) checkLayout(dir string) error {
	entries, err := pack.Manifest(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", recipe.ErrPackaging, err)
	}
	inst.e.opts.Metrics.PackagedFiles(len(entries))
	if len(entries) == 0 {
		if inst.e.opts.AllowEmptyPackage {
			log.Warnf("%s: install layout is empty", inst.recipe.Descriptor().Ref())
			return nil
		}
		return ErrEmptyPackage
	}
	return nil
}

// workspace creates <WorkspaceDir>/<run id>/{source,build,package}.
func (inst *Instance) workspace(desc *recipe.Descriptor) (*recipe.Context, func(), error) {
	opts := &inst.e.opts
	root := filepath.Join(opts.WorkspaceDir, inst.runID)
	c := &recipe.Context{
		Descriptor: *desc,
		Settings:   inst.settings,
		SourceDir:  filepath.Join(root, "source"),
		BuildDir:   filepath.Join(root, "build"),
		PackageDir: filepath.Join(root, "package"),
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
		VCS:        opts.VCS,
	}
	for _, dir := range []string{c.SourceDir, c.BuildDir, c.PackageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			os.RemoveAll(root)
			return nil, nil, err
		}
	}
	cleanup := func() {
		if opts.KeepWorkspace {
			log.Infof("workspace kept at %s", root)
			return
		}
		if err := os.RemoveAll(root); err != nil {
			log.Warnf("removing workspace %s: %v", root, err)
		}
	}
	return c, cleanup, nil
}

// RunAll runs independent instances concurrently, at most Jobs at a time.
// A failing instance does not stop the others; the returned error joins
// every failure and results holds nil for failed instances.
func (e *Engine) RunAll(ctx context.Context, insts []*Instance) ([]*Result, error) {
	results := make([]*Result, len(insts))
	errs := make([]error, len(insts))

	var g errgroup.Group
	g.SetLimit(e.opts.Jobs)
	for i, inst := range insts {
		g.Go(func() error {
			res, err := inst.Run(ctx)
			if err != nil {
				errs[i] = fmt.Errorf("%s [%s]: %w", inst.recipe.Descriptor().Ref(), inst.settings, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()
	return results, errors.Join(errs...)
}
