// Package protobuf implements a reporter emitting length-delimited
// google.protobuf.Struct messages, one per record.
package protobuf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"

	"firestige.xyz/framepeek/internal/core"
	"firestige.xyz/framepeek/internal/preview"
	"firestige.xyz/framepeek/internal/report"
	"firestige.xyz/framepeek/pkg/plugin"
)

const Name = "protobuf"

// Config represents protobuf reporter configuration.
type Config struct {
	// Path of the output file; empty writes to stdout.
	Path         string `mapstructure:"path"`
	PreviewBytes int    `mapstructure:"preview_bytes"`
}

// Reporter writes varint length-prefixed Struct messages.
type Reporter struct {
	path    string
	preview preview.Formatter

	mu     sync.Mutex
	sink   io.Writer
	file   *os.File
	out    *bufio.Writer
	count  atomic.Uint64
	errors atomic.Uint64
}

// NewProtobufReporter creates a reporter writing to stdout unless a path
// is configured.
func NewProtobufReporter() plugin.Reporter {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a reporter writing to w.
func NewWithWriter(w io.Writer) *Reporter {
	return &Reporter{sink: w}
}

// SetOutput sets the stream used when no path is configured.
func (r *Reporter) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = w
}

// Name returns the plugin name.
func (r *Reporter) Name() string {
	return Name
}

// Init initializes the reporter with configuration.
func (r *Reporter) Init(config map[string]any) error {
	var cfg Config
	if err := mapstructure.Decode(config, &cfg); err != nil {
		return fmt.Errorf("%w: protobuf reporter: %v", core.ErrPluginInitFailed, err)
	}
	if cfg.PreviewBytes < 0 {
		return fmt.Errorf("%w: preview_bytes %d must not be negative", core.ErrPluginInitFailed, cfg.PreviewBytes)
	}
	r.path = cfg.Path
	r.preview = preview.Formatter{MaxBytes: cfg.PreviewBytes}
	return nil
}

// Start opens the output file when a path is configured.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path != "" {
		f, err := os.Create(r.path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		r.file = f
		r.sink = f
	}
	r.out = bufio.NewWriter(r.sink)
	slog.Debug("protobuf reporter started", "path", r.path)
	return nil
}

// Stop flushes and closes the output file.
func (r *Reporter) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.out != nil {
		err = r.out.Flush()
	}
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
		r.file = nil
	}
	slog.Debug("protobuf reporter stopped",
		"total_reported", r.count.Load(),
		"errors", r.errors.Load())
	return err
}

// Report encodes one record.
func (r *Reporter) Report(ctx context.Context, rec *core.OutputRecord) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}

	msg, err := structpb.NewStruct(report.Document(rec, r.preview))
	if err != nil {
		r.errors.Add(1)
		return fmt.Errorf("failed to build struct for record %d: %w", rec.Index, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return fmt.Errorf("protobuf reporter not started")
	}
	if _, err := protodelim.MarshalTo(r.out, msg); err != nil {
		r.errors.Add(1)
		return fmt.Errorf("failed to write record %d: %w", rec.Index, err)
	}
	r.count.Add(1)
	return nil
}

// Flush writes buffered messages.
func (r *Reporter) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out == nil {
		return nil
	}
	return r.out.Flush()
}
