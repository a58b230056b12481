package internal

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/recipe"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <recipe|file.toml>",
	Short: "Print the descriptor of a recipe",
	Long: `Inspect prints the descriptor of a recipe together with the settings of
this host and the consumer metadata the recipe exports. Nothing is fetched
or built.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	r, err := loadRecipe(args[0])
	if err != nil {
		return err
	}
	d := r.Descriptor()
	host := recipe.HostSettings()
	data, err := json.MarshalIndent(struct {
		Descriptor recipe.Descriptor `json:"descriptor"`
		Host       map[string]string `json:"host_settings"`
		ID         recipe.PackageID  `json:"package_id"`
		CppInfo    *recipe.CppInfo   `json:"cpp_info"`
	}{d, host.Values(d.Settings), r.PackageID(recipe.NewInfo(&d, host)), r.PackageInfo()}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
