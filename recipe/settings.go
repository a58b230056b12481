// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import (
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"
	"unicode"
)

// Settings is one point in the environment axes space.
type Settings struct {
	OS              string `json:"os,omitempty" yaml:"os,omitempty"`
	Compiler        string `json:"compiler,omitempty" yaml:"compiler,omitempty"`
	CompilerVersion string `json:"compiler.version,omitempty" yaml:"compiler_version,omitempty"`
	BuildType       string `json:"build_type,omitempty" yaml:"build_type,omitempty"`
	Arch            string `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// Known values per axis. They bound Matrix enumeration only; Set accepts
// any value so hosts can pass settings this package does not know about.
var axisValues = map[string][]string{
	AxisOS:        {"Linux", "Macos", "Windows"},
	AxisCompiler:  {"apple-clang", "clang", "gcc", "msvc"},
	AxisBuildType: {"Debug", "Release", "RelWithDebInfo", "MinSizeRel"},
	AxisArch:      {"x86", "x86_64", "armv8"},
}

// HostSettings returns the settings describing the running host with a
// Release build type.
func HostSettings() Settings {
	s := Settings{BuildType: "Release"}
	switch runtime.GOOS {
	case "linux":
		s.OS, s.Compiler = "Linux", "gcc"
	case "darwin":
		s.OS, s.Compiler = "Macos", "apple-clang"
	case "windows":
		s.OS, s.Compiler = "Windows", "msvc"
	default:
		s.OS = runtime.GOOS
	}
	switch runtime.GOARCH {
	case "amd64":
		s.Arch = "x86_64"
	case "arm64":
		s.Arch = "armv8"
	case "386":
		s.Arch = "x86"
	default:
		s.Arch = runtime.GOARCH
	}
	return s
}

// Get returns the value of axis.
func (s *Settings) Get(axis string) string {
	switch axis {
	case AxisOS:
		return s.OS
	case AxisCompiler:
		return s.Compiler
	case AxisCompilerVersion:
		return s.CompilerVersion
	case AxisBuildType:
		return s.BuildType
	case AxisArch:
		return s.Arch
	}
	return ""
}

// Set assigns value to axis. Values must be printable.
func (s *Settings) Set(axis, value string) error {
	if i := strings.IndexFunc(value, unicode.IsControl); i >= 0 {
		return fmt.Errorf("settings %s: control character %q in value", axis, value[i])
	}
	switch axis {
	case AxisOS:
		s.OS = value
	case AxisCompiler:
		s.Compiler = value
	case AxisCompilerVersion:
		s.CompilerVersion = value
	case AxisBuildType:
		s.BuildType = value
	case AxisArch:
		s.Arch = value
	default:
		return fmt.Errorf("unknown settings axis %q", axis)
	}
	return nil
}

// Values returns the non-empty values of the given axes.
func (s Settings) Values(axes []string) map[string]string {
	ret := make(map[string]string, len(axes))
	for _, axis := range axes {
		if v := s.Get(axis); v != "" {
			ret[axis] = v
		}
	}
	return ret
}

// String formats s as sorted "key=value" pairs separated by spaces.
func (s Settings) String() string {
	vals := s.Values(knownAxes)
	keys := slices.Sorted(maps.Keys(vals))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + vals[k]
	}
	return strings.Join(parts, " ")
}

// ParseSettings applies "key=value" assignments on top of base.
func ParseSettings(base Settings, assigns []string) (Settings, error) {
	for _, a := range assigns {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return base, fmt.Errorf("invalid setting %q: want key=value", a)
		}
		if err := base.Set(strings.TrimSpace(k), strings.TrimSpace(v)); err != nil {
			return base, err
		}
	}
	return base, nil
}

// SettingsMatrix returns the matrix spanned by the declared axes of d.
// Axes without a known value list are left out.
func SettingsMatrix(d *Descriptor) Matrix {
	m := Matrix{Require: make(map[string][]string)}
	for _, axis := range d.Settings {
		if vals, ok := axisValues[axis]; ok {
			m.Require[axis] = slices.Clone(vals)
		}
	}
	return m
}
