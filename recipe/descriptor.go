// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import (
	"fmt"
	"regexp"
	"slices"

	"golang.org/x/mod/semver"
)

// Settings axes a descriptor may declare.
const (
	AxisOS              = "os"
	AxisCompiler        = "compiler"
	AxisCompilerVersion = "compiler.version"
	AxisBuildType       = "build_type"
	AxisArch            = "arch"
)

var knownAxes = []string{AxisOS, AxisCompiler, AxisCompilerVersion, AxisBuildType, AxisArch}

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._+-]*$`)

// Descriptor holds the static identity attributes of a recipe.
// A Descriptor is treated as immutable once Validate succeeds.
type Descriptor struct {
	Name        string   `json:"name" toml:"name"`
	Version     string   `json:"version" toml:"version"`
	License     string   `json:"license,omitempty" toml:"license"`
	Author      string   `json:"author,omitempty" toml:"author"`
	URL         string   `json:"url,omitempty" toml:"url"`
	Description string   `json:"description,omitempty" toml:"description"`
	Settings    []string `json:"settings,omitempty" toml:"settings"`
	Generators  []string `json:"generators,omitempty" toml:"generators"`
}

// Validate checks the descriptor fields. The version must be a valid
// semantic version once prefixed with "v", so "1.0" and "2.3.1" are both
// accepted.
func (d *Descriptor) Validate() error {
	if !namePattern.MatchString(d.Name) {
		return fmt.Errorf("%w: bad name %q", ErrInvalidDescriptor, d.Name)
	}
	if !semver.IsValid(canonicalVersion(d.Version)) {
		return fmt.Errorf("%w: %s: bad version %q", ErrInvalidDescriptor, d.Name, d.Version)
	}
	for _, axis := range d.Settings {
		if !slices.Contains(knownAxes, axis) {
			return fmt.Errorf("%w: %s: unknown settings axis %q", ErrInvalidDescriptor, d.Name, axis)
		}
	}
	return nil
}

// Ref returns the name@version reference of the descriptor.
func (d Descriptor) Ref() Ref {
	return Ref{Name: d.Name, Version: d.Version}
}

// HasSetting reports whether axis is declared build-relevant.
func (d *Descriptor) HasSetting(axis string) bool {
	return slices.Contains(d.Settings, axis)
}

func canonicalVersion(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}
