package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/internal/publish"
)

var (
	publishID     string
	publishLayout bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <name[@version]> <oci://registry/repository[:tag] | layout-dir[:tag]>",
	Short: "Push a cached package to an OCI registry",
	Long: `Publish pushes the install layout of a cached package as an OCI artifact.
The tag defaults to <version>-<short package id>. With --layout the target
is a local OCI image layout directory instead of a registry.`,
	Args: cobra.ExactArgs(2),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishID, "id", "", "Package id prefix, when several packages match")
	publishCmd.Flags().BoolVar(&publishLayout, "layout", false, "Write to a local OCI image layout directory")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	e, err := findEntry(openCache(), args[0], publishID)
	if err != nil {
		return err
	}
	opts := publish.Options{
		Dir:         e.PackageDir(),
		Name:        e.Name,
		Annotations: publish.Annotations(descriptorOf(e), e.ID, e.BuildTime),
		PlainHTTP:   cfg.Registry.PlainHTTP,
		InsecureTLS: cfg.Registry.InsecureTLS,
	}
	defaultTag := publish.DefaultTag(e.Version, e.ID)
	ctx := context.Background()

	var res *publish.Result
	if publishLayout {
		dir, tag := splitLayoutTarget(args[1])
		if tag == "" {
			tag = defaultTag
		}
		res, err = publish.PushLayout(ctx, dir, tag, opts)
	} else {
		var t *publish.Target
		if t, err = publish.ParseTarget(args[1]); err != nil {
			return err
		}
		if t.Tag == "" {
			t.Tag = defaultTag
		}
		res, err = publish.Push(ctx, t, opts)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s@%s\n", res.Reference, res.Digest)
	return nil
}

// splitLayoutTarget splits "dir[:tag]". A colon followed by a path
// separator, as in C:\out, is part of the directory.
func splitLayoutTarget(s string) (dir, tag string) {
	i := strings.LastIndex(s, ":")
	if i < 0 || strings.ContainsAny(s[i+1:], `/\`) {
		return s, ""
	}
	return s[:i], s[i+1:]
}
