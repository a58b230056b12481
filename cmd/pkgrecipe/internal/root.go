package internal

import (
	"fmt"
	"os"

	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"

	"github.com/goplus/pkgrecipe/internal/config"
)

var (
	configFile string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pkgrecipe",
	Short: "pkgrecipe runs package recipes",
	Long: `pkgrecipe fetches, builds, identifies and packages third-party libraries
described by recipes, and keeps the results in a local package cache.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default is <user config dir>/pkgrecipe/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output, including build tool output")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	lvl, err := config.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		lvl = log.Ldebug
	}
	log.SetOutputLevel(lvl)
	cfg = c
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pkgrecipe:", err)
		os.Exit(1)
	}
}
