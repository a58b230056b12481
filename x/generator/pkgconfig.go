// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package generator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/pkgrecipe/recipe"
)

type pkgConfigGenerator struct{}

func (pkgConfigGenerator) Name() string { return "pkg_config" }

// Generate writes <name>.pc for the package being built, pointing at its
// install prefix with the default include and lib directories.
func (pkgConfigGenerator) Generate(dir string, in *Input) ([]string, error) {
	file := filepath.Join(dir, in.Name+".pc")
	f, err := os.Create(file)
	if err != nil {
		return nil, err
	}
	err = WritePkgConfig(f, PkgConfig{Name: in.Name, Version: in.Version, Prefix: in.Prefix, Info: recipe.NewCppInfo()})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return []string{file}, nil
}

// PkgConfig describes one .pc file.
type PkgConfig struct {
	Name        string
	Version     string
	Description string
	Prefix      string
	Info        *recipe.CppInfo
}

// WritePkgConfig writes a pkg-config file for a package installed at
// p.Prefix.
func WritePkgConfig(w io.Writer, p PkgConfig) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "prefix=%s\n\n", filepath.ToSlash(p.Prefix))
	fmt.Fprintf(&sb, "Name: %s\n", p.Name)
	desc := p.Description
	if desc == "" {
		desc = p.Name
	}
	fmt.Fprintf(&sb, "Description: %s\n", desc)
	fmt.Fprintf(&sb, "Version: %s\n", p.Version)

	var libs []string
	for _, d := range p.Info.LibDirs {
		libs = append(libs, "-L${prefix}/"+filepath.ToSlash(d))
	}
	for _, l := range p.Info.Libs {
		libs = append(libs, "-l"+l)
	}
	if len(p.Info.Libs) > 0 {
		fmt.Fprintf(&sb, "Libs: %s\n", strings.Join(libs, " "))
	}

	var cflags []string
	for _, d := range p.Info.IncludeDirs {
		cflags = append(cflags, "-I${prefix}/"+filepath.ToSlash(d))
	}
	for _, d := range p.Info.Defines {
		cflags = append(cflags, "-D"+d)
	}
	cflags = append(cflags, p.Info.CXXFlags...)
	fmt.Fprintf(&sb, "Cflags: %s\n", strings.Join(cflags, " "))

	_, err := io.WriteString(w, sb.String())
	return err
}
