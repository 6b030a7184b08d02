// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/framepeek/internal/config"
	// Register built-in capturers and reporters.
	_ "firestige.xyz/framepeek/plugins"
)

const defaultConfigFile = "/etc/framepeek/config.yml"

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "framepeek",
	Short: "framepeek - inspect captured ethernet frames",
	Long: `framepeek decodes captured ethernet frames into structured records.

Each frame yields its link-layer fields, the IPv4 header when present and
the transport ports of first fragments. Damaged inner layers are reported
next to the fields that could be read instead of failing the frame.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile,
		"config file path")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(hexCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig loads path. A missing default config file falls back to
// built-in defaults; a missing explicit file is an error.
func loadConfig(path string) (*config.GlobalConfig, error) {
	if path == defaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Load("")
		}
	}
	return config.Load(path)
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
