// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSONFileName is written by the json generator.
const JSONFileName = "pkgrecipebuildinfo.json"

type jsonGenerator struct{}

func (jsonGenerator) Name() string { return "json" }

type jsonBuildInfo struct {
	Name     string            `json:"name"`
	Version  string            `json:"version"`
	Settings map[string]string `json:"settings"`
	Prefix   string            `json:"prefix,omitempty"`
}

func (jsonGenerator) Generate(dir string, in *Input) ([]string, error) {
	bi := jsonBuildInfo{
		Name:     in.Name,
		Version:  in.Version,
		Settings: in.Settings.Values(axes),
		Prefix:   filepath.ToSlash(in.Prefix),
	}
	data, err := json.MarshalIndent(bi, "", "  ")
	if err != nil {
		return nil, err
	}
	file := filepath.Join(dir, JSONFileName)
	if err := os.WriteFile(file, append(data, '\n'), 0o644); err != nil {
		return nil, err
	}
	return []string{file}, nil
}
