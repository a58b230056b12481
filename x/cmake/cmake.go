// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmake wraps the cmake configure/build/install workflow.
package cmake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/pkgrecipe/recipe"
	"github.com/goplus/pkgrecipe/x/generator"
	"github.com/qiniu/x/log"
)

// ErrUnsupportedSettings reports a settings combination that cannot be
// configured on this host.
var ErrUnsupportedSettings = fmt.Errorf("%w: unsupported settings", recipe.ErrConfiguration)

type defineValue struct {
	value    string
	typeName string
}

// CMake drives CMake-based builds.
type CMake struct {
	program    string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	platform   string
	buildType  string
	toolchain  string
	targetOS   string
	defines    map[string]defineValue
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

// New returns a ready-to-use CMake.
func New(sourceDir, buildDir, installDir string) *CMake {
	return &CMake{
		program:    "cmake",
		sourceDir:  sourceDir,
		buildDir:   buildDir,
		installDir: installDir,
		defines:    make(map[string]defineValue),
		env:        make(map[string]string),
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// Program overrides the cmake executable.
func (c *CMake) Program(path string) { c.program = path }

// Source overrides the source directory.
func (c *CMake) Source(dir string) { c.sourceDir = dir }

// SetOutput redirects the driver output. Nil writers discard.
func (c *CMake) SetOutput(stdout, stderr io.Writer) {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	c.stdout, c.stderr = stdout, stderr
}

// Generator sets the CMake generator (e.g. "Ninja", "Unix Makefiles").
func (c *CMake) Generator(name string) { c.generator = name }

// BuildType sets CMAKE_BUILD_TYPE (e.g. "Release", "Debug").
func (c *CMake) BuildType(name string) { c.buildType = name }

// Toolchain sets CMAKE_TOOLCHAIN_FILE.
func (c *CMake) Toolchain(path string) { c.toolchain = path }

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
}

// DefineBool adds a -D<key>:BOOL=ON/OFF definition.
func (c *CMake) DefineBool(key string, value bool) {
	v := "OFF"
	if value {
		v = "ON"
	}
	c.defines[key] = defineValue{value: v, typeName: "BOOL"}
}

// Use makes headers, libraries and pkg-config files of a dependency
// installed at root visible to this build. Only the environment of the
// processes started by c is changed.
func (c *CMake) Use(root string) {
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	if isDir(pkgconfigDir) {
		c.prependPath("PKG_CONFIG_PATH", pkgconfigDir)
	}
	c.prependPath("CMAKE_PREFIX_PATH", root)
	if isDir(includeDir) {
		c.prependPath("CMAKE_INCLUDE_PATH", includeDir)
	}
	if isDir(libDir) {
		c.prependPath("CMAKE_LIBRARY_PATH", libDir)
	}
}

// Env returns the environment entries Use has added, as KEY=VALUE.
func (c *CMake) Env() []string {
	keys := make([]string, 0, len(c.env))
	for k := range c.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ret := make([]string, len(keys))
	for i, k := range keys {
		ret[i] = k + "=" + c.env[k]
	}
	return ret
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
// Extra args are appended at the end.
func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if c.targetOS != "" && c.targetOS != hostOS() && c.toolchain == "" {
		return fmt.Errorf("%w: building for %s on %s requires a toolchain file", ErrUnsupportedSettings, c.targetOS, hostOS())
	}
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return &ExitError{Step: "configure", Err: err}
	}
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.platform != "" {
		cmakeArgs = append(cmakeArgs, "-A", c.platform)
	}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, "configure", cmakeArgs)
}

// Build runs "cmake --build <build>" with optional extra arguments.
func (c *CMake) Build(ctx context.Context, args ...string) error {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, "build", cmakeArgs)
}

// Install runs "cmake --install <build>" with optional extra arguments.
func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmakeArgs := []string{"--install", c.buildDir}
	if c.installDir != "" {
		cmakeArgs = append(cmakeArgs, "--prefix", c.installDir)
	}
	if c.buildType != "" {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, "install", cmakeArgs)
}

// OutputDir returns installDir if set, otherwise buildDir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) run(ctx context.Context, step string, args []string) error {
	log.Debugf("cmake %s: %s %s", step, c.program, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, c.program, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.Env()...)
	}
	if err := cmd.Run(); err != nil {
		return &ExitError{Step: step, Err: err}
	}
	return nil
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		d := c.defines[k]
		args = append(args, "-D"+k+":"+d.typeName+"="+d.value)
	}
	return args
}

// prependPath prepends value to a PATH-style variable of the build
// environment, starting from the process value.
func (c *CMake) prependPath(key, value string) {
	cur, ok := c.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		value += string(os.PathListSeparator) + cur
	}
	c.env[key] = value
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

// -----------------------------------------------------------------------------

// ExitError reports a failed cmake step. The driver's diagnostics have
// already been streamed to the configured output unmodified.
type ExitError struct {
	Step string
	Err  error
}

func (e *ExitError) Error() string {
	return "cmake " + e.Step + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Is classifies configure failures as configuration errors and build or
// install failures as build errors.
func (e *ExitError) Is(target error) bool {
	switch target {
	case recipe.ErrConfiguration:
		return e.Step == "configure"
	case recipe.ErrBuild:
		return e.Step == "build" || e.Step == "install"
	}
	return false
}

// ExitCode returns the exit status of the driver, or -1 if it did not run.
func (e *ExitError) ExitCode() int {
	var ee *exec.ExitError
	if errors.As(e.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// -----------------------------------------------------------------------------

// ForRecipe returns a CMake for the source folder sourceFolder of the
// recipe context, with settings applied and generator directives emitted
// into the build directory. The install prefix is the package directory.
func ForRecipe(c *recipe.Context, sourceFolder string) (*CMake, error) {
	cm := New(filepath.Join(c.SourceDir, sourceFolder), c.BuildDir, c.PackageDir)
	cm.SetOutput(c.Output())
	if err := cm.FromSettings(c.Settings); err != nil {
		return nil, err
	}
	in := &generator.Input{
		Name:     c.Descriptor.Name,
		Version:  c.Descriptor.Version,
		Settings: c.Settings,
		Prefix:   c.PackageDir,
	}
	files, err := generator.Emit(c.BuildDir, c.Descriptor.Generators, in)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if filepath.Base(f) == generator.CMakeFileName {
			cm.Define("CMAKE_PROJECT_INCLUDE", filepath.ToSlash(f))
		}
	}
	return cm, nil
}

func hostOS() string {
	return recipe.HostSettings().OS
}

func hostArch() string {
	return recipe.HostSettings().Arch
}
