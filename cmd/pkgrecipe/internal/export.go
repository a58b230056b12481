package internal

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/internal/archive"
)

var (
	exportOutput string
	exportID     string
)

var exportCmd = &cobra.Command{
	Use:   "export <name[@version]> -o <output>",
	Short: "Export a cached package as a directory or archive",
	Long: `Export writes the install layout of a cached package to the output path.
The format follows the extension: .tar.zst, .tar.xz, .tar, .zip, or a
directory otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (directory, .zip, .tar, .tar.zst or .tar.xz)")
	exportCmd.Flags().StringVar(&exportID, "id", "", "Package id prefix, when several packages match")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportOutput == "" {
		return errors.New("missing output path, use -o")
	}
	e, err := findEntry(openCache(), args[0], exportID)
	if err != nil {
		return err
	}
	dest, err := filepath.Abs(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	if err := archive.Write(e.PackageDir(), dest); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s (%s)\n", e.Ref(), e.ID.Short(), dest, archive.FormatOf(dest))
	return nil
}
