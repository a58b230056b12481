// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import (
	"maps"
	"slices"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Recipe)
)

// Register makes r available by name. It panics if a recipe with the
// same name is already registered.
func Register(r *Recipe) {
	registryMu.Lock()
	defer registryMu.Unlock()
	name := r.desc.Name
	if _, dup := registry[name]; dup {
		panic("recipe: Register called twice for " + name)
	}
	registry[name] = r
}

// Lookup returns the recipe registered under name.
func Lookup(name string) (*Recipe, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r, ok
}

// Names returns the sorted names of all registered recipes.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}
