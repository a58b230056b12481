package internal

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	infoID     string
	infoFormat string
)

var infoCmd = &cobra.Command{
	Use:   "info <name[@version]>",
	Short: "Print the consumer metadata of a cached package",
	Long: `Info prints what consumers need to use a cached package: its include and
library directories and the libraries to link, as JSON or as pkg-config.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&infoID, "id", "", "Package id prefix, when several packages match")
	infoCmd.Flags().StringVarP(&infoFormat, "format", "f", "json", "Output format: json or pkg-config")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	e, err := findEntry(openCache(), args[0], infoID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch infoFormat {
	case "json":
		data, err := json.MarshalIndent(struct {
			Name       string `json:"name"`
			Version    string `json:"version"`
			ID         string `json:"id"`
			PackageDir string `json:"package_dir"`
			CppInfo    any    `json:"cpp_info"`
		}{e.Name, e.Version, string(e.ID), e.PackageDir(), e.CppInfo}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	case "pkg-config":
		data, err := os.ReadFile(e.PkgConfigFile())
		if err != nil {
			return err
		}
		out.Write(data)
	default:
		return fmt.Errorf("unknown format %q, want json or pkg-config", infoFormat)
	}
	return nil
}
