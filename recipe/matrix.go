// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import (
	"maps"
	"slices"
	"strings"
)

// Matrix maps each settings axis to the values a recipe can be built
// for.
type Matrix struct {
	Require map[string][]string
}

// Combinations returns every point of the matrix as the values of its
// axes, in sorted axis order, joined with "-".
func (m *Matrix) Combinations() []string {
	pts := points(m.Require)
	ret := make([]string, 0, len(pts))
	for _, p := range pts {
		vals := make([]string, 0, len(p))
		for _, k := range slices.Sorted(maps.Keys(p)) {
			vals = append(vals, p[k])
		}
		ret = append(ret, strings.Join(vals, "-"))
	}
	if len(ret) == 0 {
		return nil
	}
	return ret
}

// CombinationCount returns the number of points of the matrix without
// enumerating them. An empty matrix has none.
func (m *Matrix) CombinationCount() int {
	if len(m.Require) == 0 {
		return 0
	}
	n := 1
	for _, v := range m.Require {
		n *= len(v)
	}
	return n
}

// Settings expands the matrix into concrete settings, each starting from
// base. The order matches Combinations.
func (m *Matrix) Settings(base Settings) []Settings {
	pts := points(m.Require)
	ret := make([]Settings, 0, len(pts))
	for _, p := range pts {
		s := base
		for k, v := range p {
			s.Set(k, v)
		}
		ret = append(ret, s)
	}
	return ret
}

// points enumerates the cartesian product of kvs with keys in sorted order.
func points(kvs map[string][]string) []map[string]string {
	if len(kvs) == 0 {
		return nil
	}
	ret := []map[string]string{{}}
	for _, k := range slices.Sorted(maps.Keys(kvs)) {
		next := make([]map[string]string, 0, len(ret)*len(kvs[k]))
		for _, prev := range ret {
			for _, v := range kvs[k] {
				p := maps.Clone(prev)
				p[k] = v
				next = append(next, p)
			}
		}
		ret = next
	}
	return ret
}
