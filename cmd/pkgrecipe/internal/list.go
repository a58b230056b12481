package internal

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/recipe"
)

var listCmd = &cobra.Command{
	Use:   "list [name[@version]]",
	Short: "List cached packages",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	c := openCache()
	entries, err := c.List()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		ref, err := recipe.ParseRef(args[0])
		if err != nil {
			return err
		}
		if entries, err = c.Find(ref); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tID\tBUILT\tSETTINGS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Ref(), e.ID.Short(), e.BuildTime.Format(time.DateTime), e.Settings)
	}
	return w.Flush()
}
