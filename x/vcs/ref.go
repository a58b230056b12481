// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcs

import (
	"strings"
	"unicode"
)

// ResolveRef picks the tag that names version. An exact match wins, then
// "v"+version, then a tag made of a word prefix, a separator and version
// (such as "release-1.0" or "rel_1.0"). A prefix carrying digits or ending
// in '.' names another release ("v2.1.0", "2024-1.0") and never matches.
// ok is false when nothing matches; callers then clone the default branch.
func ResolveRef(tags []string, version string) (ref string, ok bool) {
	if version == "" {
		return "", false
	}
	for _, want := range []string{version, "v" + version} {
		for _, t := range tags {
			if t == want {
				return t, true
			}
		}
	}
	for _, t := range tags {
		prefix, found := strings.CutSuffix(t, version)
		if !found || len(prefix) < 2 {
			continue
		}
		sep := rune(prefix[len(prefix)-1])
		if sep == '.' || unicode.IsLetter(sep) || unicode.IsDigit(sep) {
			continue
		}
		if strings.ContainsFunc(prefix, unicode.IsDigit) {
			continue
		}
		return t, true
	}
	return "", false
}
