// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command pkgrecipe runs package recipes and manages the package cache.
package main

import (
	"github.com/goplus/pkgrecipe/cmd/pkgrecipe/internal"

	_ "github.com/goplus/pkgrecipe/recipes/concurrentutils"
)

func main() {
	internal.Execute()
}
