// Package console implements the stdout reporter.
// Records are written as text, JSON lines or a YAML document stream.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"firestige.xyz/framepeek/internal/core"
	"firestige.xyz/framepeek/internal/preview"
	"firestige.xyz/framepeek/internal/report"
	"firestige.xyz/framepeek/pkg/plugin"
)

const Name = "console"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ConsoleReporter prints records for humans and scripts.
type ConsoleReporter struct {
	format        string
	preview       preview.Formatter
	mu            sync.Mutex
	out           *bufio.Writer
	reportedCount atomic.Uint64
}

// Config represents console reporter configuration.
type Config struct {
	Format string `mapstructure:"format"` // text, json or yaml; default text
	// PreviewBytes bounds the hex rendering of byte fields; 0 uses the default.
	PreviewBytes int `mapstructure:"preview_bytes"`
}

// NewConsoleReporter creates a reporter writing to stdout.
func NewConsoleReporter() plugin.Reporter {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a reporter writing to w.
func NewWithWriter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{
		format: FormatText,
		out:    bufio.NewWriter(w),
	}
}

// SetOutput redirects the reporter. Pending output is discarded.
func (r *ConsoleReporter) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = bufio.NewWriter(w)
}

// Name returns the plugin name.
func (r *ConsoleReporter) Name() string {
	return Name
}

// Init initializes the reporter with configuration.
func (r *ConsoleReporter) Init(config map[string]any) error {
	if config == nil {
		return nil
	}

	var cfg Config
	if err := mapstructure.Decode(config, &cfg); err != nil {
		return fmt.Errorf("%w: console reporter: %v", core.ErrPluginInitFailed, err)
	}

	if cfg.Format != "" {
		format := strings.ToLower(cfg.Format)
		switch format {
		case FormatText, FormatJSON, FormatYAML:
			r.format = format
		default:
			return fmt.Errorf("%w: invalid format %q, must be text, json or yaml", core.ErrPluginInitFailed, cfg.Format)
		}
	}
	if cfg.PreviewBytes < 0 {
		return fmt.Errorf("%w: preview_bytes %d must not be negative", core.ErrPluginInitFailed, cfg.PreviewBytes)
	}
	r.preview = preview.Formatter{MaxBytes: cfg.PreviewBytes}
	return nil
}

// Start starts the reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	slog.Debug("console reporter started", "format", r.format)
	return nil
}

// Stop flushes pending output.
func (r *ConsoleReporter) Stop(ctx context.Context) error {
	slog.Debug("console reporter stopped", "total_reported", r.reportedCount.Load())
	return r.Flush(ctx)
}

// Report writes one record.
func (r *ConsoleReporter) Report(ctx context.Context, rec *core.OutputRecord) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	switch r.format {
	case FormatJSON:
		err = r.reportJSON(rec)
	case FormatYAML:
		err = r.reportYAML(rec)
	default:
		err = r.reportText(rec)
	}
	if err != nil {
		return err
	}
	r.reportedCount.Add(1)
	return nil
}

// Flush writes buffered output.
func (r *ConsoleReporter) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.Flush()
}

func (r *ConsoleReporter) reportJSON(rec *core.OutputRecord) error {
	data, err := json.Marshal(report.Document(rec, r.preview))
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}
	data = append(data, '\n')
	_, err = r.out.Write(data)
	return err
}

func (r *ConsoleReporter) reportYAML(rec *core.OutputRecord) error {
	data, err := yaml.Marshal(report.Document(rec, r.preview))
	if err != nil {
		return fmt.Errorf("yaml marshal failed: %w", err)
	}
	if _, err := r.out.WriteString("---\n"); err != nil {
		return err
	}
	_, err = r.out.Write(data)
	return err
}

// reportText writes a header line, one line per record level and the preview.
func (r *ConsoleReporter) reportText(rec *core.OutputRecord) error {
	fmt.Fprintf(r.out, "#%d %s caplen=%d len=%d\n",
		rec.Index,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.CaptureLen,
		rec.OrigLen,
	)
	if rec.Err != nil {
		fmt.Fprintf(r.out, "  error: %v\n", rec.Err)
	}
	if rec.Fields != nil {
		r.writeFields("", rec.Fields)
	}
	if rec.Preview != "" {
		fmt.Fprintf(r.out, "  preview: %s\n", rec.Preview)
	}
	_, err := fmt.Fprintln(r.out)
	return err
}

// writeFields prints the scalar fields of rec on one line, then recurses
// into nested records with a dotted prefix.
func (r *ConsoleReporter) writeFields(prefix string, rec core.Record) {
	var nested []string
	scalars := make([]string, 0, len(rec))
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		switch v.Kind() {
		case core.KindRecord:
			nested = append(nested, k)
		case core.KindBytes:
			b, _ := v.Bytes()
			scalars = append(scalars, fmt.Sprintf("%s=[%s]", k, r.preview.Hex(b)))
		case core.KindString:
			s, _ := v.Str()
			if strings.ContainsAny(s, " \t\"") {
				s = fmt.Sprintf("%q", s)
			}
			scalars = append(scalars, k+"="+s)
		default:
			scalars = append(scalars, k+"="+v.String())
		}
	}

	if prefix == "" {
		fmt.Fprintf(r.out, "  %s\n", strings.Join(scalars, " "))
	} else {
		fmt.Fprintf(r.out, "  %s: %s\n", prefix, strings.Join(scalars, " "))
	}

	for _, k := range nested {
		sub, _ := rec.Sub(k)
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		r.writeFields(name, sub)
	}
}
