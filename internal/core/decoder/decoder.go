// Package decoder implements L2-L4 decoding of captured frames.
//
// Every function is pure: it borrows the input read-only for the duration of
// the call, keeps no state between calls and is safe for concurrent use.
// Byte values in results are views into the input buffer.
package decoder

import "firestige.xyz/framepeek/internal/core"

// Decoder decodes raw packets into records.
type Decoder interface {
	Decode(raw core.RawPacket) (core.Record, error)
}

// FrameDecoder decodes Ethernet-framed packets with Parse.
type FrameDecoder struct{}

// NewFrameDecoder returns the default link-layer decoder.
func NewFrameDecoder() FrameDecoder {
	return FrameDecoder{}
}

// Decode implements Decoder.
func (FrameDecoder) Decode(raw core.RawPacket) (core.Record, error) {
	return Parse(raw.Data)
}
