package autotools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goplus/pkgrecipe/recipe"
)

func TestUseSetsEnv(t *testing.T) {
	root := t.TempDir()
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")
	for _, d := range []string{includeDir, libDir, pkgconfigDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	for _, key := range []string{"PKG_CONFIG_PATH", "INCLUDE", "LIB", "CPPFLAGS", "LDFLAGS"} {
		t.Setenv(key, "")
	}

	a := New("", "", "")
	if err := a.Use(root); err != nil {
		t.Fatalf("Use: %v", err)
	}

	want := map[string]string{"PKG_CONFIG_PATH": pkgconfigDir}
	if runtime.GOOS == "windows" {
		want["INCLUDE"] = includeDir
		want["LIB"] = libDir
	} else {
		want["CPPFLAGS"] = "-I" + includeDir
		want["LDFLAGS"] = "-L" + libDir
	}
	for key, v := range want {
		if got := a.env[key]; got != v {
			t.Errorf("%s = %q, want %q", key, got, v)
		}
	}
	if got := os.Getenv("CPPFLAGS"); got != "" {
		t.Errorf("process env changed: CPPFLAGS = %q", got)
	}
}

func TestUseNotFound(t *testing.T) {
	a := New("", "", "")
	if err := a.Use(filepath.Join(t.TempDir(), "no-such")); err == nil {
		t.Fatal("expected error for missing dependency dir")
	}
}

func TestOutputDir(t *testing.T) {
	if got := New("", "build", "").OutputDir(); got != "build" {
		t.Errorf("OutputDir = %q, want %q", got, "build")
	}
	if got := New("", "build", "inst").OutputDir(); got != "inst" {
		t.Errorf("OutputDir = %q, want %q", got, "inst")
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"A=1", "B=2", "C=3"}
	got := mergeEnv(base, map[string]string{"B": "X", "D": "4"})

	if base[1] != "B=2" {
		t.Errorf("base modified: %v", base)
	}
	if strings.Join(got, " ") != "A=1 B=X C=3 D=4" {
		t.Errorf("mergeEnv = %v", got)
	}
}

func TestForRecipe(t *testing.T) {
	c := &recipe.Context{
		Settings:   recipe.Settings{Compiler: "clang", CompilerVersion: "17", BuildType: "Debug"},
		SourceDir:  "src",
		BuildDir:   "build",
		PackageDir: "pkg",
	}
	a, err := ForRecipe(c, "concurrent-utils")
	if err != nil {
		t.Fatalf("ForRecipe: %v", err)
	}
	if a.sourceDir != filepath.Join("src", "concurrent-utils") || a.OutputDir() != "pkg" {
		t.Errorf("dirs = %q, %q", a.sourceDir, a.OutputDir())
	}
	if a.env["CXX"] != "clang++-17" || !strings.Contains(a.env["CXXFLAGS"], "-O0") {
		t.Errorf("env = %v", a.Environ())
	}

	for _, s := range []recipe.Settings{{Compiler: "msvc"}, {BuildType: "Fast"}} {
		c.Settings = s
		if _, err := ForRecipe(c, ""); !errors.Is(err, recipe.ErrConfiguration) {
			t.Errorf("ForRecipe(%+v) = %v, want ErrConfiguration", s, err)
		}
	}
}

func TestExitErrorClassification(t *testing.T) {
	a := New(t.TempDir(), filepath.Join(t.TempDir(), "build"), "")
	a.SetOutput(nil, nil)
	a.Make(filepath.Join(t.TempDir(), "no-such-make"))
	ctx := context.Background()

	err := a.Configure(ctx)
	var ee *ExitError
	if !errors.As(err, &ee) || ee.Step != "configure" {
		t.Fatalf("Configure = %v, want *ExitError", err)
	}
	if !errors.Is(err, recipe.ErrConfiguration) || errors.Is(err, recipe.ErrBuild) {
		t.Errorf("configure failure misclassified: %v", err)
	}
	if ee.ExitCode() != -1 {
		t.Errorf("ExitCode = %d, want -1", ee.ExitCode())
	}
	if err := a.Build(ctx); !errors.Is(err, recipe.ErrBuild) {
		t.Errorf("build failure misclassified: %v", err)
	}
	if err := a.Install(ctx); !errors.Is(err, recipe.ErrBuild) {
		t.Errorf("install failure misclassified: %v", err)
	}
}

func TestConfigureBuildInstallE2E(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("configure scripts need a POSIX shell")
	}
	for _, bin := range []string{"sh", "make"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found in PATH", bin)
		}
	}

	tmp := t.TempDir()
	installDir := filepath.Join(tmp, "install")
	buildDir := filepath.Join(tmp, "build")
	absSource, err := filepath.Abs(filepath.Join("testdata", "project"))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	a := New(absSource, buildDir, installDir)
	a.SetOutput(&out, &out)
	a.Env("CUSTOM", "VAL")

	ctx := context.Background()
	if err := a.Configure(ctx, "--enable-foo"); err != nil {
		t.Fatalf("Configure: %v\n%s", err, out.String())
	}
	if err := a.Build(ctx); err != nil {
		t.Fatalf("Build: %v\n%s", err, out.String())
	}
	if err := a.Install(ctx); err != nil {
		t.Fatalf("Install: %v\n%s", err, out.String())
	}

	data, err := os.ReadFile(filepath.Join(buildDir, "config.log"))
	if err != nil {
		t.Fatalf("read config.log: %v", err)
	}
	for _, want := range []string{"CUSTOM=VAL", "PREFIX=" + installDir, "ARGS=--enable-foo"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config.log missing %q:\n%s", want, data)
		}
	}
	if _, err := os.Stat(filepath.Join(installDir, "include", "dummy.h")); err != nil {
		t.Errorf("missing installed header: %v", err)
	}
}
