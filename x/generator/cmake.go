// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/pkgrecipe/recipe"
)

// CMakeFileName is written by the cmake generator.
const CMakeFileName = "pkgrecipebuildinfo.cmake"

var axes = []string{
	recipe.AxisOS, recipe.AxisCompiler, recipe.AxisCompilerVersion, recipe.AxisBuildType, recipe.AxisArch,
}

type cmakeGenerator struct{}

func (cmakeGenerator) Name() string { return "cmake" }

func (cmakeGenerator) Generate(dir string, in *Input) ([]string, error) {
	var sb strings.Builder
	sb.WriteString("# Generated by pkgrecipe. Do not edit.\n\n")
	set(&sb, "PKGRECIPE_PACKAGE_NAME", in.Name)
	set(&sb, "PKGRECIPE_PACKAGE_VERSION", in.Version)
	vals := in.Settings.Values(axes)
	for _, axis := range axes {
		if v, ok := vals[axis]; ok {
			set(&sb, "PKGRECIPE_SETTINGS_"+cmakeName(axis), v)
		}
	}

	if in.Prefix != "" {
		set(&sb, "PKGRECIPE_INSTALL_PREFIX", filepath.ToSlash(in.Prefix))
	}
	sb.WriteString(basicSetup)

	file := filepath.Join(dir, CMakeFileName)
	if err := os.WriteFile(file, []byte(sb.String()), 0o644); err != nil {
		return nil, err
	}
	return []string{file}, nil
}

const basicSetup = `
macro(pkgrecipe_basic_setup)
    if(PKGRECIPE_SETTINGS_BUILD_TYPE AND NOT CMAKE_BUILD_TYPE)
        set(CMAKE_BUILD_TYPE ${PKGRECIPE_SETTINGS_BUILD_TYPE})
    endif()
    if(PKGRECIPE_INSTALL_PREFIX AND CMAKE_INSTALL_PREFIX_INITIALIZED_TO_DEFAULT)
        set(CMAKE_INSTALL_PREFIX ${PKGRECIPE_INSTALL_PREFIX})
    endif()
endmacro()
`

func set(sb *strings.Builder, name string, values ...string) {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	if len(quoted) == 0 {
		quoted = []string{`""`}
	}
	fmt.Fprintf(sb, "set(%s %s)\n", name, strings.Join(quoted, " "))
}

func cmakeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, s)
}
