// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package autotools wraps the classic configure/make/make-install workflow.
package autotools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/goplus/pkgrecipe/recipe"
	"github.com/qiniu/x/log"
)

// AutoTools drives Autotools-style builds.
type AutoTools struct {
	sourceDir  string
	buildDir   string
	installDir string
	make       string
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

// New returns a ready-to-use AutoTools.
func New(sourceDir, buildDir, installDir string) *AutoTools {
	return &AutoTools{
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		make:       "make",
		env:        make(map[string]string),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// Source overrides the source directory.
func (a *AutoTools) Source(dir string) { a.sourceDir = dir }

// Make overrides the make executable.
func (a *AutoTools) Make(path string) { a.make = path }

// SetOutput redirects the tool output. Nil writers discard.
func (a *AutoTools) SetOutput(stdout, stderr io.Writer) {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	a.stdout, a.stderr = stdout, stderr
}

// Env sets key=value for every command spawned later. The process
// environment is left alone.
func (a *AutoTools) Env(key, value string) {
	a.env[key] = value
}

// Environ returns the variables set through Env and Use, as KEY=VALUE.
func (a *AutoTools) Environ() []string {
	keys := make([]string, 0, len(a.env))
	for k := range a.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ret := make([]string, len(keys))
	for i, k := range keys {
		ret[i] = k + "=" + a.env[k]
	}
	return ret
}

// Use makes headers, libraries and pkg-config files of a dependency
// installed at root visible to this build.
func (a *AutoTools) Use(root string) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("use %s: %w", root, err)
	}
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	if isDir(pkgconfigDir) {
		a.prependPath("PKG_CONFIG_PATH", pkgconfigDir)
	}
	if runtime.GOOS == "windows" {
		if isDir(includeDir) {
			a.prependPath("INCLUDE", includeDir)
		}
		if isDir(libDir) {
			a.prependPath("LIB", libDir)
		}
		return nil
	}
	if isDir(includeDir) {
		a.appendFlag("CPPFLAGS", "-I"+includeDir)
	}
	if isDir(libDir) {
		a.appendFlag("LDFLAGS", "-L"+libDir)
	}
	return nil
}

// Configure runs <sourceDir>/configure inside the build directory.
// --prefix is prepended when installDir is set. Extra flags follow it.
func (a *AutoTools) Configure(ctx context.Context, args ...string) error {
	dir := a.workDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ExitError{Step: "configure", Err: err}
	}
	exe := filepath.Join(a.sourceDir, "configure")
	if dir == "." && a.sourceDir == "" {
		exe = "./configure"
	}
	flags := make([]string, 0, 1+len(args))
	if a.installDir != "" {
		flags = append(flags, "--prefix="+a.installDir)
	}
	return a.run(ctx, "configure", exe, append(flags, args...))
}

// Build runs make with optional extra arguments.
func (a *AutoTools) Build(ctx context.Context, args ...string) error {
	return a.run(ctx, "build", a.make, args)
}

// Install runs "make install" with optional extra arguments appended.
func (a *AutoTools) Install(ctx context.Context, args ...string) error {
	return a.run(ctx, "install", a.make, append([]string{"install"}, args...))
}

// OutputDir returns installDir if set, otherwise buildDir.
func (a *AutoTools) OutputDir() string {
	if a.installDir != "" {
		return a.installDir
	}
	return a.buildDir
}

func (a *AutoTools) workDir() string {
	if a.buildDir == "" {
		return "."
	}
	return a.buildDir
}

func (a *AutoTools) run(ctx context.Context, step, name string, args []string) error {
	log.Debugf("autotools %s: %s %s", step, name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = a.workDir()
	cmd.Stdout = a.stdout
	cmd.Stderr = a.stderr
	if len(a.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), a.env)
	}
	if err := cmd.Run(); err != nil {
		return &ExitError{Step: step, Err: err}
	}
	return nil
}

// mergeEnv returns base with every key in overrides replaced or appended.
func mergeEnv(base []string, overrides map[string]string) []string {
	ret := make([]string, len(base), len(base)+len(overrides))
	copy(ret, base)
	idx := make(map[string]int, len(ret))
	for i, kv := range ret {
		if k, _, ok := strings.Cut(kv, "="); ok {
			idx[k] = i
		}
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if i, ok := idx[k]; ok {
			ret[i] = k + "=" + overrides[k]
		} else {
			ret = append(ret, k+"="+overrides[k])
		}
	}
	return ret
}

// prependPath prepends value to a PATH-style variable of the build
// environment, starting from the process value.
func (a *AutoTools) prependPath(key, value string) {
	cur, ok := a.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		value += string(os.PathListSeparator) + cur
	}
	a.env[key] = value
}

// appendFlag appends a space-separated flag to a variable of the build
// environment.
func (a *AutoTools) appendFlag(key, flag string) {
	cur, ok := a.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		flag = cur + " " + flag
	}
	a.env[key] = flag
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

// -----------------------------------------------------------------------------

// ExitError reports a failed configure or make step.
type ExitError struct {
	Step string
	Err  error
}

func (e *ExitError) Error() string {
	return "autotools " + e.Step + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Is classifies configure failures as configuration errors and make
// failures as build errors.
func (e *ExitError) Is(target error) bool {
	switch target {
	case recipe.ErrConfiguration:
		return e.Step == "configure"
	case recipe.ErrBuild:
		return e.Step == "build" || e.Step == "install"
	}
	return false
}

// ExitCode returns the exit status of the tool, or -1 if it did not run.
func (e *ExitError) ExitCode() int {
	var ee *exec.ExitError
	if errors.As(e.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// -----------------------------------------------------------------------------

// ForRecipe returns an AutoTools for the source folder sourceFolder of
// the recipe context. The install prefix is the package directory.
// Settings that autotools cannot express are reported as configuration
// errors.
func ForRecipe(c *recipe.Context, sourceFolder string) (*AutoTools, error) {
	a := New(filepath.Join(c.SourceDir, sourceFolder), c.BuildDir, c.PackageDir)
	a.SetOutput(c.Output())
	s := c.Settings
	if s.Compiler == "msvc" {
		return nil, fmt.Errorf("%w: autotools cannot drive compiler=msvc", recipe.ErrConfiguration)
	}
	if drivers, ok := compilers[s.Compiler]; ok {
		cc, cxx := drivers[0], drivers[1]
		if v := s.CompilerVersion; v != "" {
			cc, cxx = cc+"-"+v, cxx+"-"+v
		}
		a.Env("CC", cc)
		a.Env("CXX", cxx)
	}
	switch s.BuildType {
	case "", "Release", "MinSizeRel", "RelWithDebInfo":
	case "Debug":
		a.appendFlag("CFLAGS", "-g -O0")
		a.appendFlag("CXXFLAGS", "-g -O0")
	default:
		return nil, fmt.Errorf("%w: build_type=%s", recipe.ErrConfiguration, s.BuildType)
	}
	return a, nil
}

var compilers = map[string][2]string{
	"gcc":   {"gcc", "g++"},
	"clang": {"clang", "clang++"},
}
