// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmake

import (
	"fmt"
	"slices"

	"github.com/goplus/pkgrecipe/recipe"
)

var buildTypes = []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}

// compilers maps a compiler setting to its C and C++ drivers. An empty
// pair leaves the choice to CMake.
var compilers = map[string][2]string{
	"gcc":         {"gcc", "g++"},
	"clang":       {"clang", "clang++"},
	"apple-clang": {"", ""},
	"msvc":        {"", ""},
}

var (
	osxArchs = map[string]string{"x86_64": "x86_64", "armv8": "arm64"}
	msvcArch = map[string]string{"x86": "Win32", "x86_64": "x64", "armv8": "ARM64"}
)

// FromSettings maps recipe settings onto CMake options. It rejects
// combinations that cannot be configured before anything runs.
func (c *CMake) FromSettings(s recipe.Settings) error {
	if s.BuildType != "" {
		if !slices.Contains(buildTypes, s.BuildType) {
			return fmt.Errorf("%w: build_type=%s", ErrUnsupportedSettings, s.BuildType)
		}
		c.BuildType(s.BuildType)
	}

	if s.Compiler != "" {
		drivers, ok := compilers[s.Compiler]
		if !ok {
			return fmt.Errorf("%w: compiler=%s", ErrUnsupportedSettings, s.Compiler)
		}
		switch {
		case s.Compiler == "msvc" && s.OS != "" && s.OS != "Windows":
			return fmt.Errorf("%w: compiler=msvc requires os=Windows, got os=%s", ErrUnsupportedSettings, s.OS)
		case s.Compiler == "apple-clang" && s.OS != "" && s.OS != "Macos":
			return fmt.Errorf("%w: compiler=apple-clang requires os=Macos, got os=%s", ErrUnsupportedSettings, s.OS)
		}
		if cc, cxx := drivers[0], drivers[1]; cc != "" {
			if v := s.CompilerVersion; v != "" {
				cc, cxx = cc+"-"+v, cxx+"-"+v
			}
			c.Define("CMAKE_C_COMPILER", cc)
			c.Define("CMAKE_CXX_COMPILER", cxx)
		}
	}

	if s.Arch != "" {
		switch s.OS {
		case "Macos":
			a, ok := osxArchs[s.Arch]
			if !ok {
				return fmt.Errorf("%w: arch=%s on Macos", ErrUnsupportedSettings, s.Arch)
			}
			c.Define("CMAKE_OSX_ARCHITECTURES", a)
		case "Windows":
			if s.Compiler == "msvc" || s.Compiler == "" {
				a, ok := msvcArch[s.Arch]
				if !ok {
					return fmt.Errorf("%w: arch=%s with msvc", ErrUnsupportedSettings, s.Arch)
				}
				c.platform = a
			}
		default:
			if s.Arch == "x86" && hostArch() == "x86_64" {
				c.Define("CMAKE_C_FLAGS", "-m32")
				c.Define("CMAKE_CXX_FLAGS", "-m32")
			}
		}
	}

	c.targetOS = s.OS
	return nil
}
