// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package generator writes the build-system helper files named by a
// recipe's generator directives.
package generator

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/goplus/pkgrecipe/recipe"
)

// Input is what every generator renders.
type Input struct {
	Name     string
	Version  string
	Settings recipe.Settings
	// Prefix is the directory the package is installed into.
	Prefix string
}

// Generator renders one helper file into a build directory.
type Generator interface {
	// Name is the directive that selects the generator.
	Name() string
	// Generate writes the generator output into dir and returns the
	// paths it wrote.
	Generate(dir string, in *Input) ([]string, error)
}

var generators = map[string]Generator{
	"cmake":      cmakeGenerator{},
	"json":       jsonGenerator{},
	"pkg_config": pkgConfigGenerator{},
}

// Lookup returns the generator for directive.
func Lookup(directive string) (Generator, bool) {
	g, ok := generators[directive]
	return g, ok
}

// Names returns the known directives.
func Names() []string {
	return slices.Sorted(maps.Keys(generators))
}

// Emit runs the generators named by directives, in order, into dir. An
// unknown directive is a configuration error and nothing is written.
func Emit(dir string, directives []string, in *Input) ([]string, error) {
	gens := make([]Generator, 0, len(directives))
	for _, d := range directives {
		g, ok := Lookup(d)
		if !ok {
			return nil, fmt.Errorf("%w: unknown generator %q", recipe.ErrConfiguration, d)
		}
		gens = append(gens, g)
	}
	if len(gens) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, g := range gens {
		files, err := g.Generate(dir, in)
		if err != nil {
			return written, fmt.Errorf("generator %s: %w", g.Name(), err)
		}
		written = append(written, files...)
	}
	return written, nil
}
