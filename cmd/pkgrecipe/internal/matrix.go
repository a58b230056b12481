package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/recipe"
)

var matrixIDs bool

var matrixCmd = &cobra.Command{
	Use:   "matrix <recipe|file.toml>",
	Short: "List the settings combinations of a recipe",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatrix,
}

func init() {
	matrixCmd.Flags().BoolVar(&matrixIDs, "ids", false, "Print the identity key of each combination")
	rootCmd.AddCommand(matrixCmd)
}

func runMatrix(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(args[0])
	if err != nil {
		return err
	}
	d := r.Descriptor()
	m := recipe.SettingsMatrix(&d)
	out := cmd.OutOrStdout()

	if !matrixIDs {
		for _, c := range m.Combinations() {
			fmt.Fprintln(out, c)
		}
		return nil
	}
	ids := make(map[recipe.PackageID]bool)
	for _, s := range m.Settings(recipe.Settings{}) {
		id := r.PackageID(recipe.NewInfo(&d, s))
		ids[id] = true
		fmt.Fprintf(out, "%s %s\n", id.Short(), s)
	}
	fmt.Fprintf(out, "%d combinations, %d distinct packages\n", m.CombinationCount(), len(ids))
	return nil
}
