// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"maps"
	"slices"
	"strings"
)

// PackageID is the binary-compatibility identity of a package. Two builds
// with the same PackageID are interchangeable in the cache.
type PackageID string

// Short returns the first 12 hex digits of id.
func (id PackageID) Short() string {
	if len(id) <= 12 {
		return string(id)
	}
	return string(id[:12])
}

// Info is the identity-relevant view of one recipe instance. The package
// identity hook may narrow it; ID derives the key from what is left.
type Info struct {
	Name     string
	Version  string
	Settings map[string]string
}

// NewInfo returns the Info of d built with s. Only the axes declared in
// d.Settings are copied.
func NewInfo(d *Descriptor, s Settings) *Info {
	return &Info{
		Name:     d.Name,
		Version:  d.Version,
		Settings: s.Values(d.Settings),
	}
}

// HeaderOnly drops every settings axis from the identity, so all
// environment variants map to a single key per name and version.
func (i *Info) HeaderOnly() {
	clear(i.Settings)
}

// Discard drops the given settings axes from the identity.
func (i *Info) Discard(axes ...string) {
	for _, a := range axes {
		delete(i.Settings, a)
	}
}

// ID computes the package identity key. It is a pure function of the
// remaining fields. Every field is length-prefixed, so no value can forge
// the boundary of another.
func (i *Info) ID() PackageID {
	h := sha256.New()
	writeField(h, "name", i.Name)
	writeField(h, "version", i.Version)
	for _, k := range slices.Sorted(maps.Keys(i.Settings)) {
		writeField(h, "settings."+k, i.Settings[k])
	}
	return PackageID(hex.EncodeToString(h.Sum(nil)))
}

func writeField(h hash.Hash, key, value string) {
	var buf [binary.MaxVarintLen64]byte
	for _, s := range []string{key, value} {
		h.Write(buf[:binary.PutUvarint(buf[:], uint64(len(s)))])
		h.Write([]byte(s))
	}
}

// String returns the canonical text hashed by ID.
func (i *Info) String() string {
	var sb strings.Builder
	sb.WriteString(i.Name + "@" + i.Version)
	for _, k := range slices.Sorted(maps.Keys(i.Settings)) {
		sb.WriteString(" " + k + "=" + i.Settings[k])
	}
	return sb.String()
}

// CppInfo is the consumer metadata of a C/C++ package.
type CppInfo struct {
	Libs        []string `json:"libs"`
	IncludeDirs []string `json:"include_dirs"`
	LibDirs     []string `json:"lib_dirs"`
	Defines     []string `json:"defines,omitempty"`
	CXXFlags    []string `json:"cxxflags,omitempty"`

	frozen bool
}

// NewCppInfo returns metadata with the default include and lib roots.
func NewCppInfo() *CppInfo {
	return &CppInfo{
		IncludeDirs: []string{"include"},
		LibDirs:     []string{"lib"},
	}
}

// Freeze marks the metadata as exported. Later setters panic.
func (c *CppInfo) Freeze() { c.frozen = true }

// Frozen reports whether Freeze was called.
func (c *CppInfo) Frozen() bool { return c.frozen }

// SetLibs sets the libraries consumers link against.
func (c *CppInfo) SetLibs(libs ...string) {
	c.mustMutable()
	c.Libs = slices.Clone(libs)
}

// AddDefines appends preprocessor definitions for consumers.
func (c *CppInfo) AddDefines(defs ...string) {
	c.mustMutable()
	c.Defines = append(c.Defines, defs...)
}

// Clone returns an unfrozen deep copy of c.
func (c *CppInfo) Clone() *CppInfo {
	return &CppInfo{
		Libs:        slices.Clone(c.Libs),
		IncludeDirs: slices.Clone(c.IncludeDirs),
		LibDirs:     slices.Clone(c.LibDirs),
		Defines:     slices.Clone(c.Defines),
		CXXFlags:    slices.Clone(c.CXXFlags),
	}
}

func (c *CppInfo) mustMutable() {
	if c.frozen {
		panic("recipe: consumer metadata modified after export")
	}
}
