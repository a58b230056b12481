package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeID string

var removeCmd = &cobra.Command{
	Use:     "remove <name[@version]>",
	Aliases: []string{"rm"},
	Short:   "Remove a package from the cache",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	removeCmd.Flags().StringVar(&removeID, "id", "", "Package id prefix, when several packages match")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	c := openCache()
	e, err := findEntry(c, args[0], removeID)
	if err != nil {
		return err
	}
	if err := c.Remove(e.Ref(), e.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", e.Ref(), e.ID.Short())
	return nil
}
