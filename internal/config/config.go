// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the host configuration file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qiniu/x/log"
	"gopkg.in/yaml.v3"

	"github.com/goplus/pkgrecipe/internal/env"
	"github.com/goplus/pkgrecipe/x/vcs"
)

// Git backends.
const (
	GitExec  = "exec"
	GitGoGit = "go-git"
)

// Config is the host configuration.
type Config struct {
	CacheDir          string   `yaml:"cache_dir"`
	WorkspaceDir      string   `yaml:"workspace_dir"`
	GitBackend        string   `yaml:"git_backend"`
	GitPath           string   `yaml:"git_path,omitempty"`
	Jobs              int      `yaml:"jobs"`
	AllowEmptyPackage bool     `yaml:"allow_empty_package"`
	KeepWorkspace     bool     `yaml:"keep_workspace"`
	LogLevel          string   `yaml:"log_level"`
	MetricsFile       string   `yaml:"metrics_file,omitempty"`
	Registry          Registry `yaml:"registry"`
}

// Registry configures OCI publishing.
type Registry struct {
	PlainHTTP   bool `yaml:"plain_http"`
	InsecureTLS bool `yaml:"insecure_tls"`
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	cacheDir, err := env.CacheDir()
	if err != nil {
		return nil, err
	}
	workspaceDir, err := env.WorkspaceDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		CacheDir:     cacheDir,
		WorkspaceDir: workspaceDir,
		GitBackend:   GitExec,
		LogLevel:     "info",
	}, nil
}

// Load reads the configuration at path, or at env.ConfigFile when path is
// empty. Fields missing from the file keep their defaults; a missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = env.ConfigFile(); err != nil {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.GitBackend {
	case "", GitExec, GitGoGit:
	default:
		return fmt.Errorf("unknown git_backend %q, want %s or %s", c.GitBackend, GitExec, GitGoGit)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	return nil
}

// VCS returns the configured source provider. Progress goes to w.
func (c *Config) VCS(w io.Writer) vcs.VCS {
	opts := []vcs.Option{vcs.WithProgress(w)}
	if c.GitPath != "" {
		opts = append(opts, vcs.WithGitPath(c.GitPath))
	}
	if c.GitBackend == GitGoGit {
		return vcs.NewGoGitVCS(opts...)
	}
	return vcs.NewGitVCS(opts...)
}

var levels = map[string]int{
	"debug": log.Ldebug,
	"info":  log.Linfo,
	"warn":  log.Lwarn,
	"error": log.Lerror,
}

// ParseLevel maps a level name to a log output level. Empty means info.
func ParseLevel(name string) (int, error) {
	if name == "" {
		return log.Linfo, nil
	}
	lvl, ok := levels[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown log_level %q", name)
	}
	return lvl, nil
}
