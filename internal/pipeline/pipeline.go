// Package pipeline runs captured frames through filter, decoder and reporters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"firestige.xyz/framepeek/internal/core"
	"firestige.xyz/framepeek/internal/core/decoder"
	"firestige.xyz/framepeek/internal/filter"
	"firestige.xyz/framepeek/internal/preview"
	"firestige.xyz/framepeek/pkg/plugin"
)

const defaultBufferSize = 1024

// Pipeline is a single-threaded frame processing chain fed by one capturer.
type Pipeline struct {
	capturer  plugin.Capturer
	decoder   decoder.Decoder
	filter    *filter.Filter
	preview   preview.Formatter
	reporters []plugin.Reporter
	limit     uint64
	metrics   *Metrics

	rawPacketChan chan core.RawPacket
}

// Config contains pipeline configuration.
type Config struct {
	Capturer  plugin.Capturer
	Decoder   decoder.Decoder
	Filter    *filter.Filter // nil passes every frame
	Preview   preview.Formatter
	Reporters []plugin.Reporter
	// BufferSize is the raw packet channel capacity.
	BufferSize int
	// Limit stops the pipeline after this many reported frames; 0 means no limit.
	Limit uint64
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Decoder == nil {
		cfg.Decoder = decoder.NewFrameDecoder()
	}

	return &Pipeline{
		capturer:      cfg.Capturer,
		decoder:       cfg.Decoder,
		filter:        cfg.Filter,
		preview:       cfg.Preview,
		reporters:     cfg.Reporters,
		limit:         cfg.Limit,
		metrics:       NewMetrics(),
		rawPacketChan: make(chan core.RawPacket, cfg.BufferSize),
	}
}

// Run starts the capturer and processes frames until the capture ends,
// the limit is reached or ctx is cancelled. Reporters are flushed before
// Run returns.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.capturer == nil {
		return errors.New("pipeline has no capturer")
	}
	if err := p.capturer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start capturer %s: %w", p.capturer.Name(), err)
	}
	slog.Info("pipeline starting", "capturer", p.capturer.Name(), "filter", p.filter.Expr())

	captureCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg         sync.WaitGroup
		captureErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		captureErr = p.captureLoop(captureCtx)
	}()

	p.processLoop(captureCtx, cancel)
	wg.Wait()

	if err := p.capturer.Stop(context.Background()); err != nil {
		slog.Error("capturer stop failed", "capturer", p.capturer.Name(), "error", err)
	}
	p.flush()

	stats := p.Stats()
	slog.Info("pipeline stopped",
		"received", stats.Received,
		"filtered", stats.Filtered,
		"decoded", stats.Decoded,
		"decode_errors", stats.DecodeErrors,
		"reported", stats.Reported)
	return captureErr
}

// captureLoop reads frames from the capturer into the processing channel.
func (p *Pipeline) captureLoop(ctx context.Context) error {
	defer close(p.rawPacketChan)

	err := p.capturer.Capture(ctx, p.rawPacketChan)
	if err != nil && ctx.Err() != nil {
		// Cancelled by limit or caller.
		return nil
	}
	if err != nil {
		slog.Error("capture failed", "capturer", p.capturer.Name(), "error", err)
		return fmt.Errorf("capture failed: %w", err)
	}
	return nil
}

// processLoop is the main processing loop.
func (p *Pipeline) processLoop(ctx context.Context, cancel context.CancelFunc) {
	var passed uint64
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return

		case raw, ok := <-p.rawPacketChan:
			if !ok {
				return
			}

			p.metrics.Received.Add(1)
			if !p.processPacket(ctx, raw) {
				continue
			}
			passed++
			if p.limit > 0 && passed >= p.limit {
				slog.Debug("frame limit reached", "limit", p.limit)
				cancel()
				p.drain()
				return
			}
		}
	}
}

// drain discards buffered frames until the capturer observes cancellation
// and closes the channel.
func (p *Pipeline) drain() {
	for range p.rawPacketChan {
	}
}

// processPacket filters, decodes and reports one frame. It returns false
// when the filter rejected the frame.
func (p *Pipeline) processPacket(ctx context.Context, raw core.RawPacket) bool {
	if !p.filter.Match(raw.Data) {
		p.metrics.Filtered.Add(1)
		return false
	}

	record, err := p.decoder.Decode(raw)
	if err != nil {
		p.metrics.DecodeErrors.Add(1)
		slog.Debug("frame decode failed", "index", raw.Index, "error", err)
	} else {
		p.metrics.Decoded.Add(1)
	}

	output := core.OutputRecord{
		Index:      raw.Index,
		Timestamp:  raw.Timestamp,
		CaptureLen: raw.CaptureLen,
		OrigLen:    raw.OrigLen,
		Fields:     record,
		Err:        err,
		Preview:    p.preview.Hex(raw.Data),
	}

	reported := true
	for _, reporter := range p.reporters {
		if err := reporter.Report(ctx, &output); err != nil {
			reported = false
			p.metrics.ReportErrors.Add(1)
			slog.Error("reporter failed", "reporter", reporter.Name(), "error", err)
		}
	}
	if reported {
		p.metrics.Reported.Add(1)
	}
	return true
}

func (p *Pipeline) flush() {
	for _, reporter := range p.reporters {
		if err := reporter.Flush(context.Background()); err != nil {
			slog.Error("reporter flush failed", "reporter", reporter.Name(), "error", err)
		}
	}
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	return p.metrics.Snapshot()
}
