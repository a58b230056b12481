// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pack selects files from a source tree by glob pattern and copies
// them into an install layout.
//
// Patterns use fnmatch semantics over slash-separated paths relative to the
// rule's source directory: '*' matches any sequence including '/', '?'
// matches one character and '[...]' a character class ('[!...]' negates).
// So "*.h" selects headers at any depth.
package pack

import (
	"errors"
	"io/fs"
	"regexp"
	"slices"
	"strings"
)

// Match returns the sorted slash paths of the files in fsys that match
// pattern and none of excludes. Directories named ".git" are skipped, as
// are symlinks that are dangling or point to anything but a regular file.
// Match performs no writes.
func Match(fsys fs.FS, pattern string, excludes ...string) ([]string, error) {
	re, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	ex := make([]*regexp.Regexp, 0, len(excludes))
	for _, e := range excludes {
		r, err := compile(e)
		if err != nil {
			return nil, err
		}
		ex = append(ex, r)
	}

	var ret []string
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !(d.Type().IsRegular() || d.Type()&fs.ModeSymlink != 0) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// Only links to regular files are selected.
			if fi, err := fs.Stat(fsys, p); err != nil || !fi.Mode().IsRegular() {
				return nil
			}
		}
		if !re.MatchString(p) {
			return nil
		}
		for _, r := range ex {
			if r.MatchString(p) {
				return nil
			}
		}
		ret = append(ret, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(ret)
	return ret, nil
}

// MatchString reports whether name matches the fnmatch pattern.
func MatchString(pattern, name string) (bool, error) {
	re, err := compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(name), nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(translate(pattern))
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// translate converts an fnmatch pattern into an anchored regular
// expression. An unterminated '[' is taken literally.
func translate(pat string) string {
	var sb strings.Builder
	sb.WriteString(`(?s)^`)
	for i := 0; i < len(pat); i++ {
		c := pat[i]
		switch c {
		case '*':
			sb.WriteString(`.*`)
		case '?':
			sb.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(pat) && pat[j] == '!' {
				j++
			}
			if j < len(pat) && pat[j] == ']' {
				j++
			}
			for j < len(pat) && pat[j] != ']' {
				j++
			}
			if j >= len(pat) {
				sb.WriteString(`\[`)
				continue
			}
			class := pat[i+1 : j]
			i = j
			neg := strings.HasPrefix(class, "!")
			if neg {
				class = class[1:]
			}
			class = strings.ReplaceAll(class, `\`, `\\`)
			sb.WriteString("[")
			if neg {
				sb.WriteString("^")
			} else if strings.HasPrefix(class, "^") {
				sb.WriteString(`\`)
			}
			sb.WriteString(class)
			sb.WriteString("]")
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString(`$`)
	return sb.String()
}

// PatternError reports a pattern that cannot be compiled.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "bad pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error { return e.Err }
