// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vcs materializes complete source trees from git remotes,
// including every nested sub-module.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// VCS defines the interface for version control operations.
type VCS interface {
	// Clone materializes remote at ref into dir, including all sub-modules
	// recursively. An empty ref means the default branch. dir must not
	// exist or be empty. On failure dir is removed, so a partial tree is
	// never left behind.
	Clone(ctx context.Context, remote, ref, dir string) error

	// Tags returns all tags from the remote repository.
	Tags(ctx context.Context, remote string) ([]string, error)

	// Latest returns the latest commit hash (HEAD) from the remote repository.
	// Returns error if no commits exist.
	Latest(ctx context.Context, remote string) (string, error)
}

var (
	// ErrAuth reports that the remote rejected or required credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrNotFound reports a missing repository or ref.
	ErrNotFound = errors.New("not found")

	// ErrSubmodule reports a sub-module that could not be fetched, such as
	// a renamed or deleted sub-module repository.
	ErrSubmodule = errors.New("submodule update failed")

	// ErrIncompleteTree reports a checkout with uninitialized or
	// mismatched sub-modules.
	ErrIncompleteTree = errors.New("incomplete source tree")
)

type options struct {
	git      string
	config   []string
	depth    int
	progress io.Writer
}

// Option configures a VCS backend.
type Option func(*options)

// WithGitPath sets a custom git executable path. Only the exec backend
// uses it.
func WithGitPath(path string) Option {
	return func(o *options) {
		o.git = path
	}
}

// WithConfig passes "-c key=value" to every git invocation.
func WithConfig(key, value string) Option {
	return func(o *options) {
		o.config = append(o.config, key+"="+value)
	}
}

// WithDepth limits the history fetched for the top-level repository.
// Zero fetches the full history.
func WithDepth(depth int) Option {
	return func(o *options) {
		o.depth = depth
	}
}

// WithProgress streams transfer progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

func newOptions(opts []Option) *options {
	o := &options{git: "git"}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// checkEmpty fails if dir exists and has entries. Clone removes dir on
// failure, so it must never start from a directory it does not own.
func checkEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("clone destination %s is not empty", dir)
	}
	return nil
}
