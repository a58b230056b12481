// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pack

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"
)

// ErrUnsafePath reports a rule directory that is absolute or escapes its
// root.
var ErrUnsafePath = errors.New("unsafe path")

// Rule selects files under Src by Pattern and places them under Dst.
// Relative sub-paths below Src are kept unless Flatten is set.
type Rule struct {
	Pattern  string
	Dst      string
	Src      string
	Excludes []string
	Flatten  bool
}

func (r Rule) String() string {
	return fmt.Sprintf("%s from %q to %q", r.Pattern, r.Src, r.Dst)
}

// Op is a single planned copy, as slash paths relative to the source and
// destination roots. Base is the source directory of the rule.
type Op struct {
	From string
	To   string
	Base string
}

// RuleReport lists what one rule selected.
type RuleReport struct {
	Rule  Rule
	Files []string
}

// Report summarizes a Copy. Skipped counts selected symlinks that resolve
// outside the source directory of their rule.
type Report struct {
	Rules     []RuleReport
	Copied    int
	Unchanged int
	Skipped   int
}

// Empty reports whether no rule matched anything.
func (r *Report) Empty() bool {
	for _, rr := range r.Rules {
		if len(rr.Files) > 0 {
			return false
		}
	}
	return true
}

// Plan resolves rules against fsys in order. A later rule targeting the
// same destination replaces an earlier one. Plan performs no writes.
func Plan(fsys fs.FS, rules ...Rule) ([]Op, []RuleReport, error) {
	var ops []Op
	index := make(map[string]int)
	reports := make([]RuleReport, 0, len(rules))
	for _, r := range rules {
		src, err := cleanRel(r.Src)
		if err != nil {
			return nil, nil, err
		}
		dst, err := cleanRel(r.Dst)
		if err != nil {
			return nil, nil, err
		}
		sub, err := fs.Sub(fsys, src)
		if err != nil {
			return nil, nil, err
		}
		files, err := Match(sub, r.Pattern, r.Excludes...)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %s: %w", r, err)
		}
		reports = append(reports, RuleReport{Rule: r, Files: files})
		for _, f := range files {
			to := f
			if r.Flatten {
				to = path.Base(f)
			}
			op := Op{From: path.Join(src, f), To: path.Join(dst, to), Base: src}
			if i, ok := index[op.To]; ok {
				ops[i] = op
				continue
			}
			index[op.To] = len(ops)
			ops = append(ops, op)
		}
	}
	return ops, reports, nil
}

// Copy copies the files selected by rules from srcRoot into dstRoot. Files
// whose destination already holds the same bytes and mode are left alone,
// so running Copy twice over an unchanged tree yields an identical layout.
// A rule matching nothing is not an error.
func Copy(srcRoot, dstRoot string, rules ...Rule) (*Report, error) {
	ops, reports, err := Plan(os.DirFS(srcRoot), rules...)
	if err != nil {
		return nil, err
	}
	rep := &Report{Rules: reports}
	for _, rr := range reports {
		if len(rr.Files) == 0 {
			log.Warnf("pack: %s matched no files", rr.Rule)
		}
	}
	for _, op := range ops {
		from := filepath.Join(srcRoot, filepath.FromSlash(op.From))
		inside, err := within(filepath.Join(srcRoot, filepath.FromSlash(op.Base)), from)
		if err != nil {
			return rep, err
		}
		if !inside {
			log.Warnf("pack: skipping %s, link leaves %s", op.From, op.Base)
			rep.Skipped++
			continue
		}
		changed, err := copyFile(from, filepath.Join(dstRoot, filepath.FromSlash(op.To)))
		if err != nil {
			return rep, err
		}
		if changed {
			rep.Copied++
		} else {
			rep.Unchanged++
		}
	}
	log.Debugf("pack: %d copied, %d unchanged into %s", rep.Copied, rep.Unchanged, dstRoot)
	return rep, nil
}

func copyFile(from, to string) (changed bool, err error) {
	info, err := os.Stat(from)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(from)
	if err != nil {
		return false, err
	}
	mode := info.Mode().Perm()
	if cur, err := os.Stat(to); err == nil && cur.Mode().IsRegular() && cur.Mode().Perm() == mode {
		old, err := os.ReadFile(to)
		if err == nil && bytes.Equal(old, data) {
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(to, data, mode); err != nil {
		return false, err
	}
	// WriteFile keeps the mode of an existing file.
	return true, os.Chmod(to, mode)
}

// within reports whether p, after resolving symlinks, lies under base.
// Paths that are not symlinks are always within.
func within(base, p string) (bool, error) {
	fi, err := os.Lstat(p)
	if err != nil {
		return false, err
	}
	if fi.Mode()&fs.ModeSymlink == 0 {
		return true, nil
	}
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return false, err
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(realBase, resolved)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

func cleanRel(p string) (string, error) {
	if p == "" {
		return ".", nil
	}
	p = path.Clean(filepath.ToSlash(p))
	if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") || filepath.IsAbs(p) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, p)
	}
	return p, nil
}
