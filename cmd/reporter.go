package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"firestige.xyz/framepeek/internal/config"
	"firestige.xyz/framepeek/pkg/plugin"
	"firestige.xyz/framepeek/plugins/reporter/console"
	"firestige.xyz/framepeek/plugins/reporter/protobuf"
)

// startReporter builds, configures and starts the reporter for an output
// format. Configured reporter options apply first; the format flag wins.
func startReporter(ctx context.Context, cfg *config.GlobalConfig, output string, out io.Writer) (plugin.Reporter, error) {
	output = strings.ToLower(output)
	if !config.ValidOutput(output) {
		return nil, fmt.Errorf("unknown output format %q (must be text/json/yaml/protobuf)", output)
	}

	name := console.Name
	if output == "protobuf" {
		name = protobuf.Name
	}

	factory, err := plugin.GetReporterFactory(name)
	if err != nil {
		return nil, err
	}
	reporter := factory()
	if setter, ok := reporter.(plugin.OutputSetter); ok && out != nil {
		setter.SetOutput(out)
	}

	opts := make(map[string]any)
	for k, v := range cfg.ReporterOptions(name) {
		opts[k] = v
	}
	if _, ok := opts["preview_bytes"]; !ok {
		opts["preview_bytes"] = cfg.Preview.MaxBytes
	}
	if name == console.Name {
		opts["format"] = output
	}

	if err := reporter.Init(opts); err != nil {
		return nil, fmt.Errorf("failed to init reporter %s: %w", name, err)
	}
	if err := reporter.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start reporter %s: %w", name, err)
	}
	return reporter, nil
}
