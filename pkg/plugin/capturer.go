// Package plugin defines plugin interfaces.
package plugin

import (
	"context"

	"firestige.xyz/framepeek/internal/core"
)

// Capturer produces raw frames. Capture blocks until the source is
// exhausted or ctx is done, and never closes output.
type Capturer interface {
	Plugin
	Capture(ctx context.Context, output chan<- core.RawPacket) error
	Stats() CaptureStats
}

// CaptureStats represents capture statistics.
type CaptureStats struct {
	PacketsReceived uint64
	PacketsSkipped  uint64 // Frames with an unsupported link type
}
