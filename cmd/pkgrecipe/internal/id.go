package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/recipe"
)

var idSettings []string

var idCmd = &cobra.Command{
	Use:   "id <recipe|file.toml>",
	Short: "Print the package identity key",
	Long: `Id prints the package identity key a recipe yields for the host settings,
overridden with -s key=value. Nothing is fetched or built.`,
	Args: cobra.ExactArgs(1),
	RunE: runID,
}

func init() {
	idCmd.Flags().StringArrayVarP(&idSettings, "setting", "s", nil, "Override a setting, e.g. -s os=Windows")
	rootCmd.AddCommand(idCmd)
}

func runID(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(args[0])
	if err != nil {
		return err
	}
	s, err := parseSettings(idSettings)
	if err != nil {
		return err
	}
	d := r.Descriptor()
	info := recipe.NewInfo(&d, s)
	id := r.PackageID(info)
	fmt.Fprintln(cmd.OutOrStdout(), id)
	if verbose {
		fmt.Fprint(cmd.OutOrStdout(), info)
	}
	return nil
}
