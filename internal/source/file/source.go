// Package file implements a capturer reading pcap and pcapng files.
package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/mitchellh/mapstructure"

	"firestige.xyz/framepeek/internal/core"
	"firestige.xyz/framepeek/pkg/plugin"
)

const Name = "file"

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

// Config represents file capturer configuration.
type Config struct {
	Path string `mapstructure:"path"`
}

// Capturer replays frames from a capture file.
type Capturer struct {
	path     string
	received atomic.Uint64
	skipped  atomic.Uint64
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// NewCapturer creates an unconfigured file capturer.
func NewCapturer() plugin.Capturer {
	return &Capturer{}
}

// Name returns the plugin name.
func (c *Capturer) Name() string {
	return Name
}

// Init initializes the capturer with configuration.
func (c *Capturer) Init(cfg map[string]any) error {
	var fc Config
	if err := mapstructure.Decode(cfg, &fc); err != nil {
		return fmt.Errorf("%w: file capturer: %v", core.ErrPluginInitFailed, err)
	}
	if fc.Path == "" {
		return fmt.Errorf("%w: file capturer: path is required", core.ErrPluginInitFailed)
	}
	c.path = fc.Path
	return nil
}

// Start checks that the capture file is readable.
func (c *Capturer) Start(ctx context.Context) error {
	if _, err := os.Stat(c.path); err != nil {
		return fmt.Errorf("capture file %s: %w", c.path, err)
	}
	return nil
}

// Stop is a no-op; Capture releases the file when it returns.
func (c *Capturer) Stop(ctx context.Context) error {
	return nil
}

// Stats returns capture statistics.
func (c *Capturer) Stats() plugin.CaptureStats {
	return plugin.CaptureStats{
		PacketsReceived: c.received.Load(),
		PacketsSkipped:  c.skipped.Load(),
	}
}

// Capture reads every frame of the file into output.
func (c *Capturer) Capture(ctx context.Context, output chan<- core.RawPacket) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", c.path, err)
	}
	defer f.Close()

	reader, err := newPacketReader(f)
	if err != nil {
		return fmt.Errorf("failed to read capture file %s: %w", c.path, err)
	}

	linkType := reader.LinkType()
	if linkType != layers.LinkTypeEthernet {
		slog.Warn("capture link type is not ethernet, frames will be skipped",
			"path", c.path, "link_type", linkType.String())
	}

	var index uint64
	for {
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet %d: %w", index+1, err)
		}
		index++

		if linkType != layers.LinkTypeEthernet {
			c.skipped.Add(1)
			continue
		}

		raw := core.RawPacket{
			Data:       data,
			Timestamp:  ci.Timestamp,
			CaptureLen: uint32(ci.CaptureLength),
			OrigLen:    uint32(ci.Length),
			Index:      index,
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case output <- raw:
			c.received.Add(1)
		}
	}
}

// newPacketReader picks the pcapng or classic pcap reader from the magic.
func newPacketReader(r io.Reader) (packetReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(pcapngMagic))
	if err != nil {
		return nil, fmt.Errorf("file header: %w", err)
	}
	if bytes.Equal(magic, pcapngMagic) {
		return pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(br)
}
