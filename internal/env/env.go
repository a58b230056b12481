// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the working directory when set.
const HomeEnv = "PKGRECIPE_HOME"

// WorkDir returns the root of all host state, <UserCacheDir>/.pkgrecipe
// unless PKGRECIPE_HOME is set.
func WorkDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return filepath.Abs(dir)
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".pkgrecipe"), nil
}

// CacheDir returns the default package cache directory.
func CacheDir() (string, error) {
	return subDir("cache")
}

// WorkspaceDir returns the default directory for per-run workspaces.
func WorkspaceDir() (string, error) {
	return subDir("workspace")
}

// ConfigFile returns the default config file path.
func ConfigFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pkgrecipe", "config.yaml"), nil
}

func subDir(name string) (string, error) {
	dir, err := WorkDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
