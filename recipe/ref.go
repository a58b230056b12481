// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/module"
)

// Ref identifies a recipe by name and version.
type Ref struct {
	Name    string
	Version string
}

// ParseRef parses "name@version" or "name". The version is split at the
// last '@'.
func ParseRef(s string) (Ref, error) {
	if s == "" {
		return Ref{}, fmt.Errorf("empty recipe reference")
	}
	name, version := s, ""
	i := strings.LastIndex(s, "@")
	if i >= 0 {
		name, version = s[:i], s[i+1:]
	}
	if name == "" {
		return Ref{}, fmt.Errorf("invalid recipe reference %q: missing name", s)
	}
	if i >= 0 && version == "" {
		return Ref{}, fmt.Errorf("invalid recipe reference %q: missing version", s)
	}
	return Ref{Name: name, Version: version}, nil
}

func (r Ref) String() string {
	if r.Version == "" {
		return r.Name
	}
	return r.Name + "@" + r.Version
}

// EscapePath returns the local path fragment "<name>/<version>" of r.
// Upper-case letters are escaped as in the Go module cache, so refs that
// differ only in case do not collide on case-insensitive file systems.
func (r Ref) EscapePath() (string, error) {
	name, err := module.EscapePath(r.Name)
	if err != nil {
		return "", err
	}
	version, err := module.EscapeVersion(r.Version)
	if err != nil {
		return "", fmt.Errorf("%s: %w", r, err)
	}
	return filepath.Localize(name + "/" + version)
}
