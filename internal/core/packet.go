// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is one captured frame handed over by a capturer.
type RawPacket struct {
	Data       []byte    // Raw frame data, owned by the capturer
	Timestamp  time.Time // Capture timestamp
	CaptureLen uint32    // Actual captured length
	OrigLen    uint32    // Original frame length on the wire
	Index      uint64    // 1-based position in the capture
}

// OutputRecord is the final output sent to reporters.
type OutputRecord struct {
	Index      uint64
	Timestamp  time.Time
	CaptureLen uint32
	OrigLen    uint32

	// Fields is nil when the link-layer header itself could not be decoded.
	Fields Record
	// Err holds the fatal decode error when Fields is nil.
	Err error

	// Preview is the bounded hex rendering of the raw frame.
	Preview string
}
