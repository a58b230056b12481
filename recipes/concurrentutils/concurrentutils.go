// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package concurrentutils is the recipe of the header-only
// concurrent-utils C++ library. Importing it registers the recipe.
package concurrentutils

import (
	"context"

	"github.com/goplus/pkgrecipe/recipe"
	"github.com/goplus/pkgrecipe/x/cmake"
	"github.com/goplus/pkgrecipe/x/pack"
)

const (
	// Remote is the repository the sources are cloned from.
	Remote = "https://github.com/max-plutonium/concurrent-utils.git"

	// Folder is the checkout directory inside the source tree.
	Folder = "concurrent-utils"
)

// Descriptor returns the descriptor of the recipe.
func Descriptor() recipe.Descriptor {
	return recipe.Descriptor{
		Name:        "concurrent-utils",
		Version:     "1.0",
		License:     "MIT",
		Author:      "Max Plutonium",
		URL:         "https://github.com/max-plutonium/concurrent-utils",
		Description: "Utils for concurrent programming",
		Settings:    []string{recipe.AxisOS, recipe.AxisCompiler, recipe.AxisBuildType, recipe.AxisArch},
		Generators:  []string{"cmake"},
	}
}

// Rules are the packaging rules: public headers and template
// implementations under src/concurrent-utils go to include/.
var Rules = []pack.Rule{
	{Pattern: "concurrent-utils/*.h", Dst: "include", Src: "concurrent-utils/src"},
	{Pattern: "concurrent-utils/*.tcc", Dst: "include", Src: "concurrent-utils/src"},
}

// New returns the recipe.
func New() *recipe.Recipe {
	r := recipe.New(Descriptor())

	r.OnSource(func(ctx context.Context, c *recipe.Context) error {
		return c.Fetch(ctx, Remote, Folder)
	})

	// The library is header-only; the build compiles its tests, which
	// checks the headers against the selected toolchain.
	r.OnBuild(func(ctx context.Context, c *recipe.Context) error {
		cm, err := cmake.ForRecipe(c, Folder)
		if err != nil {
			return err
		}
		if err := cm.Configure(ctx); err != nil {
			return err
		}
		return cm.Build(ctx)
	})

	r.OnPackageID(func(info *recipe.Info) {
		info.HeaderOnly()
	})

	r.OnPackage(func(ctx context.Context, c *recipe.Context) error {
		return c.Copy(Rules...)
	})

	r.OnPackageInfo(func(info *recipe.CppInfo) {
		info.SetLibs("concurrent-utils")
	})
	return r
}

func init() {
	recipe.Register(New())
}
