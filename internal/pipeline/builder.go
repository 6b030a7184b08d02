package pipeline

import (
	"firestige.xyz/framepeek/internal/core/decoder"
	"firestige.xyz/framepeek/internal/filter"
	"firestige.xyz/framepeek/internal/preview"
	"firestige.xyz/framepeek/pkg/plugin"
)

// Builder provides a fluent interface for building pipelines.
type Builder struct {
	config Config
}

// NewBuilder creates a new pipeline builder.
func NewBuilder() *Builder {
	return &Builder{
		config: Config{
			BufferSize: defaultBufferSize,
		},
	}
}

// WithCapturer sets the frame source.
func (b *Builder) WithCapturer(c plugin.Capturer) *Builder {
	b.config.Capturer = c
	return b
}

// WithDecoder sets the frame decoder.
func (b *Builder) WithDecoder(d decoder.Decoder) *Builder {
	b.config.Decoder = d
	return b
}

// WithFilter sets the BPF filter.
func (b *Builder) WithFilter(f *filter.Filter) *Builder {
	b.config.Filter = f
	return b
}

// WithPreview sets the hex preview formatter.
func (b *Builder) WithPreview(f preview.Formatter) *Builder {
	b.config.Preview = f
	return b
}

// WithReporters sets the reporter chain.
func (b *Builder) WithReporters(reporters ...plugin.Reporter) *Builder {
	b.config.Reporters = reporters
	return b
}

// WithBufferSize sets the raw packet channel buffer size.
func (b *Builder) WithBufferSize(size int) *Builder {
	b.config.BufferSize = size
	return b
}

// WithLimit stops the pipeline after n frames.
func (b *Builder) WithLimit(n uint64) *Builder {
	b.config.Limit = n
	return b
}

// Build creates the pipeline.
func (b *Builder) Build() *Pipeline {
	return New(b.config)
}
