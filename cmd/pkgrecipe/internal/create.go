package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/internal/engine"
	"github.com/goplus/pkgrecipe/internal/metrics"
	"github.com/goplus/pkgrecipe/recipe"
)

var (
	createSettings []string
	createAll      bool
)

var createCmd = &cobra.Command{
	Use:   "create <recipe|file.toml>",
	Short: "Run a recipe and store the package in the cache",
	Long: `Create runs the source, build, package id, package and package info stages
of a recipe for the host settings, overridden with -s key=value, and commits
the install layout to the package cache. A package already cached under the
same identity is reused without running any stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringArrayVarP(&createSettings, "setting", "s", nil, "Override a setting, e.g. -s build_type=Debug")
	createCmd.Flags().BoolVar(&createAll, "all", false, "Run every combination of the declared settings")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(args[0])
	if err != nil {
		return err
	}
	s, err := parseSettings(createSettings)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
		defer func() {
			if err := m.WriteFile(cfg.MetricsFile); err != nil {
				log.Warnf("writing metrics: %v", err)
			}
		}()
	}
	e, err := newEngine(cmd, m)
	if err != nil {
		return err
	}

	settings := []recipe.Settings{s}
	if createAll {
		d := r.Descriptor()
		mx := recipe.SettingsMatrix(&d)
		settings = mx.Settings(s)
	}
	insts := make([]*engine.Instance, len(settings))
	for i, s := range settings {
		insts[i] = e.Instance(r, s)
	}

	ctx := context.Background()
	results, err := e.RunAll(ctx, insts)
	for _, res := range results {
		if res != nil {
			printResult(cmd, res)
		}
	}
	return err
}

func printResult(cmd *cobra.Command, res *engine.Result) {
	out := cmd.OutOrStdout()
	status := "built"
	if res.Cached {
		status = "cached"
	}
	fmt.Fprintf(out, "%s %s %s %s\n", res.Ref, res.ID.Short(), status, res.Entry.PackageDir())
	if verbose {
		for _, t := range res.Transitions {
			fmt.Fprintf(out, "  %s\n", t)
		}
		fmt.Fprintf(out, "  built at %s\n", res.Entry.BuildTime.Format(time.RFC3339))
	}
}
