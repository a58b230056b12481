// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/qiniu/x/log"
)

// gitVCS implements VCS by running the git binary.
type gitVCS struct {
	*options
}

// NewGitVCS creates a VCS backed by the git executable.
func NewGitVCS(opts ...Option) VCS {
	return &gitVCS{options: newOptions(opts)}
}

func (g *gitVCS) Clone(ctx context.Context, remote, ref, dir string) (err error) {
	if err := checkEmpty(dir); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()
	args := []string{"clone"}
	if g.depth > 0 {
		args = append(args, "--depth", strconv.Itoa(g.depth), "--shallow-submodules")
	}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, "--", remote, dir)
	log.Debugf("git clone %s@%s into %s", remote, ref, dir)
	if err := g.run(ctx, "", args...); err != nil {
		return fmt.Errorf("clone %s: %w", remote, classify(err))
	}
	if err := g.run(ctx, dir, "submodule", "update", "--init", "--checkout", "--recursive"); err != nil {
		return fmt.Errorf("clone %s: %w: %w", remote, ErrSubmodule, err)
	}
	return g.verify(ctx, dir)
}

// verify checks that every sub-module, recursively, is initialized and
// checked out at the recorded commit.
func (g *gitVCS) verify(ctx context.Context, dir string) error {
	out, err := g.output(ctx, dir, "submodule", "status", "--recursive")
	if err != nil {
		return fmt.Errorf("submodule status: %w", err)
	}
	var bad []string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if line == "" {
			continue
		}
		// format: <flag><sha> <path> (<describe>)
		switch line[0] {
		case '-', '+', 'U':
			fields := strings.Fields(line[1:])
			if len(fields) > 1 {
				bad = append(bad, fields[1])
			}
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: submodules not checked out: %s", ErrIncompleteTree, strings.Join(bad, ", "))
	}
	return nil
}

func (g *gitVCS) Tags(ctx context.Context, remote string) ([]string, error) {
	output, err := g.output(ctx, "", "ls-remote", "--tags", "--refs", remote)
	if err != nil {
		return nil, fmt.Errorf("list remote tags: %w", classify(err))
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}

	var tags []string
	for _, line := range strings.Split(output, "\n") {
		// format: <hash>\trefs/tags/<tag>
		parts := strings.Split(line, "\t")
		if len(parts) == 2 {
			tags = append(tags, strings.TrimPrefix(parts[1], "refs/tags/"))
		}
	}
	return tags, nil
}

func (g *gitVCS) Latest(ctx context.Context, remote string) (string, error) {
	output, err := g.output(ctx, "", "ls-remote", remote, "HEAD")
	if err != nil {
		return "", fmt.Errorf("get remote HEAD: %w", classify(err))
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return "", fmt.Errorf("no HEAD found in remote %s", remote)
	}

	// format: <hash>\tHEAD
	hash, _, _ := strings.Cut(output, "\t")
	return hash, nil
}

func (g *gitVCS) run(ctx context.Context, dir string, args ...string) error {
	_, err := g.exec(ctx, dir, g.progress, args...)
	return err
}

func (g *gitVCS) output(ctx context.Context, dir string, args ...string) (string, error) {
	return g.exec(ctx, dir, nil, args...)
}

// exec runs git and returns its stdout. On failure the error carries git's
// own diagnostics verbatim; stderr is also mirrored to progress if set.
func (g *gitVCS) exec(ctx context.Context, dir string, progress io.Writer, args ...string) (string, error) {
	full := make([]string, 0, len(args)+2*len(g.config))
	for _, c := range g.config {
		full = append(full, "-c", c)
	}
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, g.git, full...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if progress != nil {
		cmd.Stderr = io.MultiWriter(&stderr, progress)
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

var (
	authHints = []string{
		"authentication failed",
		"could not read username",
		"could not read password",
		"permission denied (publickey)",
		"terminal prompts disabled",
		"http basic: access denied",
	}
	notFoundHints = []string{
		"repository not found",
		"does not appear to be a git repository",
		"does not exist",
		"not found in upstream",
		"remote branch",
	}
)

// classify tags a git failure with ErrAuth or ErrNotFound when its
// diagnostics say so.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	for _, h := range authHints {
		if strings.Contains(msg, h) {
			return fmt.Errorf("%w: %w", ErrAuth, err)
		}
	}
	for _, h := range notFoundHints {
		if strings.Contains(msg, h) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
	}
	return err
}
