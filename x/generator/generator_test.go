package generator

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/pkgrecipe/recipe"
)

func testInput() *Input {
	return &Input{
		Name:     "concurrent-utils",
		Version:  "1.0",
		Settings: recipe.Settings{OS: "Linux", Compiler: "gcc", CompilerVersion: "13", BuildType: "Release", Arch: "x86_64"},
		Prefix:   "/work/run/package",
	}
}

func TestEmitCMake(t *testing.T) {
	dir := t.TempDir()
	files, err := Emit(dir, []string{"cmake"}, testInput())
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != CMakeFileName {
		t.Fatalf("files = %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		`set(PKGRECIPE_PACKAGE_NAME "concurrent-utils")`,
		`set(PKGRECIPE_SETTINGS_BUILD_TYPE "Release")`,
		`set(PKGRECIPE_SETTINGS_COMPILER_VERSION "13")`,
		`set(PKGRECIPE_INSTALL_PREFIX "/work/run/package")`,
		"macro(pkgrecipe_basic_setup)",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %q in:\n%s", want, content)
		}
	}
}

func TestEmitJSON(t *testing.T) {
	dir := t.TempDir()
	if _, err := Emit(dir, []string{"json"}, testInput()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, JSONFileName))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Name     string            `json:"name"`
		Settings map[string]string `json:"settings"`
		Prefix   string            `json:"prefix"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "concurrent-utils" || got.Settings["arch"] != "x86_64" {
		t.Errorf("build info = %+v", got)
	}
	if got.Prefix != "/work/run/package" {
		t.Errorf("prefix = %q", got.Prefix)
	}
}

func TestEmitPkgConfig(t *testing.T) {
	dir := t.TempDir()
	files, err := Emit(dir, []string{"pkg_config"}, testInput())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "concurrent-utils.pc" {
		t.Fatalf("files = %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "Libs:") {
		t.Errorf("header-only build info lists libs:\n%s", data)
	}
	for _, want := range []string{
		"prefix=/work/run/package",
		"Name: concurrent-utils",
		"Version: 1.0",
		"Cflags: -I${prefix}/include",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("missing %q in:\n%s", want, data)
		}
	}
}

func TestEmitUnknownDirective(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	_, err := Emit(dir, []string{"cmake", "visual_studio"}, testInput())
	if !errors.Is(err, recipe.ErrConfiguration) {
		t.Fatalf("Emit error = %v, want ErrConfiguration", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("output written despite unknown directive")
	}
}

func TestEmitNoDirectives(t *testing.T) {
	files, err := Emit(t.TempDir(), nil, testInput())
	if err != nil || files != nil {
		t.Errorf("Emit(nil) = %v, %v", files, err)
	}
}

func TestWritePkgConfigLibs(t *testing.T) {
	info := recipe.NewCppInfo()
	info.SetLibs("concurrent-utils")
	info.AddDefines("CU_STATIC")
	var sb strings.Builder
	if err := WritePkgConfig(&sb, PkgConfig{Name: "concurrent-utils", Version: "1.0", Prefix: "/cache/cu", Info: info}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Libs: -L${prefix}/lib -lconcurrent-utils",
		"Cflags: -I${prefix}/include -DCU_STATIC",
	} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("missing %q in:\n%s", want, sb.String())
		}
	}
}
