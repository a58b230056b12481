// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/qiniu/x/log"
)

// goGitVCS implements VCS in pure Go, without a git executable.
type goGitVCS struct {
	*options
}

// NewGoGitVCS creates a VCS backed by go-git.
func NewGoGitVCS(opts ...Option) VCS {
	return &goGitVCS{options: newOptions(opts)}
}

func (g *goGitVCS) Clone(ctx context.Context, remote, ref, dir string) (err error) {
	if err := checkEmpty(dir); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	co := &git.CloneOptions{
		URL:      remote,
		Depth:    g.depth,
		Progress: g.progress,
	}
	if ref != "" {
		name, err := g.resolve(ctx, remote, ref)
		if err != nil {
			return fmt.Errorf("clone %s: %w", remote, err)
		}
		co.ReferenceName = name
		co.SingleBranch = true
	}
	log.Debugf("go-git clone %s@%s into %s", remote, ref, dir)
	repo, err := git.PlainCloneContext(ctx, dir, false, co)
	if err != nil {
		return fmt.Errorf("clone %s: %w", remote, classifyGoGit(err))
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("clone %s: %w", remote, err)
	}
	subs, err := wt.Submodules()
	if err != nil {
		return fmt.Errorf("clone %s: %w: %w", remote, ErrSubmodule, err)
	}
	err = subs.UpdateContext(ctx, &git.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w: %w", remote, ErrSubmodule, err)
	}
	return verifyWorktree(wt, "")
}

// verifyWorktree walks the sub-modules of wt recursively and fails on the
// first one whose checkout does not match the recorded commit.
func verifyWorktree(wt *git.Worktree, prefix string) error {
	subs, err := wt.Submodules()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIncompleteTree, err)
	}
	for _, sm := range subs {
		st, err := sm.Status()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIncompleteTree, path.Join(prefix, sm.Config().Path), err)
		}
		p := path.Join(prefix, st.Path)
		if st.Current.IsZero() || !st.IsClean() {
			return fmt.Errorf("%w: submodule %s not checked out", ErrIncompleteTree, p)
		}
		r, err := sm.Repository()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIncompleteTree, p, err)
		}
		sub, err := r.Worktree()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrIncompleteTree, p, err)
		}
		if err := verifyWorktree(sub, p); err != nil {
			return err
		}
	}
	return nil
}

// resolve maps a short tag or branch name to its full reference name.
func (g *goGitVCS) resolve(ctx context.Context, remote, ref string) (plumbing.ReferenceName, error) {
	refs, err := g.list(ctx, remote)
	if err != nil {
		return "", err
	}
	for _, want := range []plumbing.ReferenceName{
		plumbing.NewTagReferenceName(ref),
		plumbing.NewBranchReferenceName(ref),
	} {
		for _, r := range refs {
			if r.Name() == want {
				return want, nil
			}
		}
	}
	return "", fmt.Errorf("%w: ref %s", ErrNotFound, ref)
}

func (g *goGitVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	refs, err := g.list(ctx, remote)
	if err != nil {
		return nil, fmt.Errorf("list remote tags: %w", err)
	}
	var tags []string
	for _, r := range refs {
		if r.Name().IsTag() {
			tags = append(tags, r.Name().Short())
		}
	}
	return tags, nil
}

func (g *goGitVCS) Latest(ctx context.Context, remote string) (string, error) {
	refs, err := g.list(ctx, remote)
	if err != nil {
		return "", fmt.Errorf("get remote HEAD: %w", err)
	}
	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, r := range refs {
		byName[r.Name()] = r
	}
	head, ok := byName[plumbing.HEAD]
	for i := 0; ok && head.Type() == plumbing.SymbolicReference && i < 8; i++ {
		head, ok = byName[head.Target()]
	}
	if !ok || head.Type() != plumbing.HashReference {
		return "", fmt.Errorf("no HEAD found in remote %s", remote)
	}
	return head.Hash().String(), nil
}

func (g *goGitVCS) list(ctx context.Context, remote string) ([]*plumbing.Reference, error) {
	r := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{remote},
	})
	refs, err := r.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, classifyGoGit(err)
	}
	return refs, nil
}

func classifyGoGit(err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return fmt.Errorf("%w: %w", ErrAuth, err)
	case errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, git.ErrRepositoryNotExists),
		strings.Contains(err.Error(), "not found"):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
