package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/framepeek/internal/config"
	"firestige.xyz/framepeek/internal/core"
	"firestige.xyz/framepeek/internal/core/decoder"
	"firestige.xyz/framepeek/internal/preview"
	"firestige.xyz/framepeek/pkg/plugin"
)

var hexOutput string

var hexCmd = &cobra.Command{
	Use:   "hex HEXSTRING...",
	Short: "Decode one frame given as hex",
	Long: `Decode one frame given as hex digits on the command line.

Whitespace, colons and dashes between bytes are ignored, as is a leading 0x.

Examples:
  framepeek hex "ff ff ff ff ff ff 00 11 22 33 44 55 08 06"
  framepeek hex -o json 001122334455:66778899aabb:0800:4500...`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configFile)
		if err != nil {
			exitWithError("failed to load config", err)
		}
		if err := runHex(cmd.Context(), cfg, strings.Join(args, " "), hexOutput, os.Stdout); err != nil {
			exitWithError("hex decode failed", err)
		}
	},
}

func init() {
	hexCmd.Flags().StringVarP(&hexOutput, "output", "o", "", "output format: text, json, yaml or protobuf")
}

// parseHex accepts hex bytes with optional separators.
func parseHex(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':', '-':
			return -1
		}
		return r
	}, input)

	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

// runHex decodes a single frame and reports it to out.
func runHex(ctx context.Context, cfg *config.GlobalConfig, input, output string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := parseHex(input)
	if err != nil {
		return err
	}
	if output == "" {
		output = cfg.Decode.Output
	}

	reporter, err := startReporter(ctx, cfg, output, out)
	if err != nil {
		return err
	}

	raw := core.RawPacket{
		Data:       data,
		Timestamp:  time.Now(),
		CaptureLen: uint32(len(data)),
		OrigLen:    uint32(len(data)),
		Index:      1,
	}
	fields, decodeErr := decoder.NewFrameDecoder().Decode(raw)
	rec := &core.OutputRecord{
		Index:      raw.Index,
		Timestamp:  raw.Timestamp,
		CaptureLen: raw.CaptureLen,
		OrigLen:    raw.OrigLen,
		Fields:     fields,
		Err:        decodeErr,
		Preview:    preview.Formatter{MaxBytes: cfg.Preview.MaxBytes}.Hex(data),
	}

	return reportAndStop(ctx, reporter, rec)
}

// reportAndStop delivers rec and stops the reporter whether or not the
// report succeeded. A report error wins over a stop error.
func reportAndStop(ctx context.Context, reporter plugin.Reporter, rec *core.OutputRecord) (err error) {
	defer func() {
		if serr := reporter.Stop(ctx); err == nil {
			err = serr
		}
	}()
	return reporter.Report(ctx, rec)
}
