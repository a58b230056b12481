package internal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/internal/cache"
	"github.com/goplus/pkgrecipe/internal/engine"
	"github.com/goplus/pkgrecipe/internal/metrics"
	"github.com/goplus/pkgrecipe/recipe"
	"github.com/goplus/pkgrecipe/recipe/manifest"
)

// loadRecipe resolves arg as a recipe file or a registered recipe name.
func loadRecipe(arg string) (*recipe.Recipe, error) {
	if manifest.IsFile(arg) {
		return manifest.Load(arg)
	}
	if r, ok := recipe.Lookup(arg); ok {
		return r, nil
	}
	return nil, fmt.Errorf("unknown recipe %q (known: %s)", arg, strings.Join(recipe.Names(), ", "))
}

// parseSettings applies key=value assignments to the host settings.
func parseSettings(assigns []string) (recipe.Settings, error) {
	return recipe.ParseSettings(recipe.HostSettings(), assigns)
}

// buildOutput returns where build tools write: the terminal when
// verbose, nowhere otherwise.
func buildOutput(cmd *cobra.Command) (stdout, stderr io.Writer) {
	if !verbose {
		return io.Discard, io.Discard
	}
	return cmd.OutOrStdout(), cmd.ErrOrStderr()
}

func openCache() *cache.Cache {
	return cache.New(cfg.CacheDir)
}

func newEngine(cmd *cobra.Command, m *metrics.Metrics) (*engine.Engine, error) {
	stdout, stderr := buildOutput(cmd)
	return engine.New(engine.Options{
		Cache:             openCache(),
		WorkspaceDir:      cfg.WorkspaceDir,
		VCS:               cfg.VCS(stderr),
		Stdout:            stdout,
		Stderr:            stderr,
		AllowEmptyPackage: cfg.AllowEmptyPackage,
		KeepWorkspace:     cfg.KeepWorkspace,
		Jobs:              cfg.Jobs,
		Metrics:           m,
	})
}

// findEntry returns the single cache entry of ref whose id starts with
// idPrefix.
func findEntry(c *cache.Cache, arg, idPrefix string) (*cache.Entry, error) {
	ref, err := recipe.ParseRef(arg)
	if err != nil {
		return nil, err
	}
	entries, err := c.Find(ref)
	if err != nil {
		return nil, err
	}
	var matched []*cache.Entry
	for _, e := range entries {
		if strings.HasPrefix(string(e.ID), idPrefix) {
			matched = append(matched, e)
		}
	}
	switch len(matched) {
	case 0:
		return nil, fmt.Errorf("%s: no package with id %s: %w", ref, idPrefix, os.ErrNotExist)
	case 1:
		return matched[0], nil
	}
	var ids []string
	for _, e := range matched {
		ids = append(ids, e.Version+" "+e.ID.Short())
	}
	return nil, fmt.Errorf("%s matches %d packages, select one with --id: %s", ref, len(matched), strings.Join(ids, ", "))
}

// descriptorOf returns the descriptor of the recipe that produced e, or a
// minimal one when that recipe is not registered.
func descriptorOf(e *cache.Entry) recipe.Descriptor {
	if r, ok := recipe.Lookup(e.Name); ok {
		if d := r.Descriptor(); d.Version == e.Version {
			return d
		}
	}
	return recipe.Descriptor{Name: e.Name, Version: e.Version}
}
