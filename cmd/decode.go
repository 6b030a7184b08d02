package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/framepeek/internal/config"
	"firestige.xyz/framepeek/internal/core/decoder"
	"firestige.xyz/framepeek/internal/filter"
	"firestige.xyz/framepeek/internal/log"
	"firestige.xyz/framepeek/internal/metrics"
	"firestige.xyz/framepeek/internal/pipeline"
	"firestige.xyz/framepeek/internal/preview"
	"firestige.xyz/framepeek/internal/source/file"
	"firestige.xyz/framepeek/pkg/plugin"
)

type decodeOptions struct {
	readFile string
	filter   string
	output   string
	limit    uint64
	// metricsAddr enables the Prometheus endpoint when set.
	metricsAddr string
}

var decodeOpts decodeOptions

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode every frame of a capture file",
	Long: `Decode every frame of a pcap or pcapng capture file.

Examples:
  framepeek decode -r dump.pcap                      # Text records on stdout
  framepeek decode -r dump.pcap -f "udp port 53"     # Only DNS traffic
  framepeek decode -r dump.pcapng -o json -n 10      # First 10 frames as JSON lines
  framepeek decode -r dump.pcap -o protobuf > out.pb # Length-delimited protobuf`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configFile)
		if err != nil {
			exitWithError("failed to load config", err)
		}
		if err := log.Init(cfg.Log); err != nil {
			exitWithError("failed to init logger", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := runDecode(ctx, cfg, decodeOpts, os.Stdout); err != nil {
			exitWithError("decode failed", err)
		}
	},
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeOpts.readFile, "read", "r", "", "capture file to read (required)")
	decodeCmd.Flags().StringVarP(&decodeOpts.filter, "filter", "f", "", "BPF filter expression (overrides decode.filter)")
	decodeCmd.Flags().StringVarP(&decodeOpts.output, "output", "o", "", "output format: text, json, yaml or protobuf (overrides decode.output)")
	decodeCmd.Flags().Uint64VarP(&decodeOpts.limit, "limit", "n", 0, "stop after this many frames (0 = all)")
	decodeCmd.Flags().StringVar(&decodeOpts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while decoding")
	decodeCmd.MarkFlagRequired("read")
}

// runDecode streams the capture file through the pipeline into out.
func runDecode(ctx context.Context, cfg *config.GlobalConfig, opts decodeOptions, out io.Writer) (pipeline.Stats, error) {
	output := cfg.Decode.Output
	if opts.output != "" {
		output = opts.output
	}
	expr := cfg.Decode.Filter
	if opts.filter != "" {
		expr = opts.filter
	}

	bpf, err := filter.Compile(expr, cfg.Decode.SnapLen)
	if err != nil {
		return pipeline.Stats{}, err
	}

	factory, err := plugin.GetCapturerFactory(file.Name)
	if err != nil {
		return pipeline.Stats{}, err
	}
	capturer := factory()
	if err := capturer.Init(map[string]any{"path": opts.readFile}); err != nil {
		return pipeline.Stats{}, err
	}

	reporter, err := startReporter(ctx, cfg, output, out)
	if err != nil {
		return pipeline.Stats{}, err
	}

	p := pipeline.NewBuilder().
		WithCapturer(capturer).
		WithDecoder(decoder.NewFrameDecoder()).
		WithFilter(bpf).
		WithPreview(preview.Formatter{MaxBytes: cfg.Preview.MaxBytes}).
		WithReporters(reporter).
		WithBufferSize(cfg.Decode.BufferSize).
		WithLimit(opts.limit).
		Build()

	if srv := metricsServer(cfg, opts, p, capturer); srv != nil {
		if err := srv.Start(ctx); err != nil {
			reporter.Stop(context.Background())
			return pipeline.Stats{}, err
		}
		defer srv.Stop(context.Background())
	}

	runErr := p.Run(ctx)
	if err := reporter.Stop(context.Background()); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop reporter: %w", err)
	}

	stats := p.Stats()
	captureStats := capturer.Stats()
	slog.Debug("decode finished",
		"file", opts.readFile,
		"frames", captureStats.PacketsReceived,
		"skipped", captureStats.PacketsSkipped,
		"reported", stats.Reported)
	return stats, runErr
}

// metricsServer returns nil unless metrics are enabled by config or flag.
func metricsServer(cfg *config.GlobalConfig, opts decodeOptions, p *pipeline.Pipeline, c plugin.Capturer) *metrics.Server {
	addr := cfg.Metrics.Addr
	if opts.metricsAddr != "" {
		addr = opts.metricsAddr
	} else if !cfg.Metrics.Enabled {
		return nil
	}
	collector := metrics.NewPipelineCollector(p.Stats, c.Stats)
	return metrics.NewServer(addr, cfg.Metrics.Path, collector)
}
