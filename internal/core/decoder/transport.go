package decoder

import (
	"encoding/binary"
	"fmt"

	"firestige.xyz/framepeek/internal/core"
)

const (
	udpHeaderLen    = 8
	tcpHeaderMinLen = 20
)

// decodeTransport decodes transport layer header (TCP/UDP).
// The second result is false for protocols without a decoder.
func decodeTransport(data []byte, protocol uint8) (core.TransportHeader, bool, error) {
	switch protocol {
	case protocolTCP:
		th, err := decodeTCP(data)
		return th, true, err
	case protocolUDP:
		th, err := decodeUDP(data)
		return th, true, err
	default:
		// ICMP and others carry no ports
		return core.TransportHeader{}, false, nil
	}
}

// decodeUDP decodes UDP header.
func decodeUDP(data []byte) (core.TransportHeader, error) {
	r := NewReader(data)
	if r.Remaining() < udpHeaderLen {
		return core.TransportHeader{}, fmt.Errorf("udp header: %w", r.need(udpHeaderLen))
	}

	transport := core.TransportHeader{
		Protocol: protocolUDP,
	}
	transport.SrcPort, _ = r.Uint16(binary.BigEndian)
	transport.DstPort, _ = r.Uint16(binary.BigEndian)
	// Length includes header and data
	transport.Length, _ = r.Uint16(binary.BigEndian)
	// Checksum not needed for decoding

	return transport, nil
}

// decodeTCP decodes the fixed part of a TCP header.
func decodeTCP(data []byte) (core.TransportHeader, error) {
	r := NewReader(data)
	if r.Remaining() < tcpHeaderMinLen {
		return core.TransportHeader{}, fmt.Errorf("tcp header: %w", r.need(tcpHeaderMinLen))
	}

	transport := core.TransportHeader{
		Protocol: protocolTCP,
	}
	transport.SrcPort, _ = r.Uint16(binary.BigEndian)
	transport.DstPort, _ = r.Uint16(binary.BigEndian)
	transport.SeqNum, _ = r.Uint32(binary.BigEndian)
	transport.AckNum, _ = r.Uint32(binary.BigEndian)

	// Data offset in the upper 4 bits, in 32-bit words
	dataOffset, _ := r.Uint8()
	headerLen := int(dataOffset>>4) * 4
	if headerLen < tcpHeaderMinLen {
		return core.TransportHeader{}, fmt.Errorf("%w: tcp data offset %d bytes", core.ErrMalformedHeader, headerLen)
	}
	if len(data) < headerLen {
		return core.TransportHeader{}, fmt.Errorf("%w: tcp header needs %d bytes, have %d",
			core.ErrTruncatedInput, headerLen, len(data))
	}

	// Byte 13: | reserved (2 bits) | URG ACK PSH RST SYN FIN |
	flags, _ := r.Uint8()
	transport.TCPFlags = flags & 0x3F

	return transport, nil
}
