package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"firestige.xyz/framepeek/internal/config"
	"firestige.xyz/framepeek/internal/filter"
	"firestige.xyz/framepeek/pkg/plugin"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load and validate the configuration file without decoding anything.

The capture filter is compiled and every configured reporter is
initialized with its options, so errors a decode run would hit at
startup are reported here.

Examples:
  framepeek validate
  framepeek validate -c ./framepeek.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(configFile, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
			os.Exit(1)
		}
	},
}

func runValidate(path string, out io.Writer) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	if _, err := filter.Compile(cfg.Decode.Filter, cfg.Decode.SnapLen); err != nil {
		return fmt.Errorf("decode.filter: %w", err)
	}
	if err := validateReporters(cfg); err != nil {
		return err
	}

	expr := cfg.Decode.Filter
	if expr == "" {
		expr = "<none>"
	}
	fmt.Fprintf(out, "VALID: output=%s filter=%s preview.max_bytes=%d log.level=%s\n",
		cfg.Decode.Output,
		expr,
		cfg.Preview.MaxBytes,
		cfg.Log.Level,
	)
	return nil
}

// validateReporters runs Init on a fresh instance of every reporter named
// under reporters. Init does not open outputs, so nothing is left behind.
func validateReporters(cfg *config.GlobalConfig) error {
	names := make([]string, 0, len(cfg.Reporters))
	for name := range cfg.Reporters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		factory, err := plugin.GetReporterFactory(name)
		if err != nil {
			return fmt.Errorf("reporters.%s: %w", name, err)
		}
		if err := factory().Init(cfg.ReporterOptions(name)); err != nil {
			return fmt.Errorf("reporters.%s: %w", name, err)
		}
	}
	return nil
}
