package decoder

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"firestige.xyz/framepeek/internal/core"
)

const (
	ipv4HeaderMinWords = 5

	// Protocol numbers
	protocolICMP = 1
	protocolTCP  = 6
	protocolUDP  = 17
)

var protocolNames = map[uint8]string{
	protocolICMP: "ICMP",
	protocolTCP:  "TCP",
	protocolUDP:  "UDP",
}

// ProtocolName returns the symbolic name of an IP protocol number.
func ProtocolName(proto uint8) (string, bool) {
	name, ok := protocolNames[proto]
	return name, ok
}

// DecodeIPv4 decodes a buffer that starts at an IPv4 header.
// Options are skipped uninterpreted and the checksum is not validated.
func DecodeIPv4(data []byte) (core.IPv4Header, error) {
	r := NewReader(data)

	verIHL, err := r.Uint8()
	if err != nil {
		return core.IPv4Header{}, fmt.Errorf("ipv4 version: %w", err)
	}
	version := verIHL >> 4
	ihl := verIHL & 0x0F
	if version != 4 {
		return core.IPv4Header{}, fmt.Errorf("%w: ip version %d", core.ErrUnsupportedVersion, version)
	}
	if ihl < ipv4HeaderMinWords {
		return core.IPv4Header{}, fmt.Errorf("%w: ipv4 header length %d words, minimum %d",
			core.ErrMalformedHeader, ihl, ipv4HeaderMinWords)
	}

	ip := core.IPv4Header{Version: version, IHL: ihl}
	headerLen := ip.HeaderLen()
	if len(data) < headerLen {
		return core.IPv4Header{}, fmt.Errorf("%w: ipv4 header needs %d bytes, have %d",
			core.ErrTruncatedInput, headerLen, len(data))
	}

	// DSCP / ECN
	if err := r.Skip(1); err != nil {
		return core.IPv4Header{}, err
	}
	if ip.TotalLen, err = r.Uint16(binary.BigEndian); err != nil {
		return core.IPv4Header{}, err
	}
	if ip.ID, err = r.Uint16(binary.BigEndian); err != nil {
		return core.IPv4Header{}, err
	}
	flagsOffset, err := r.Uint16(binary.BigEndian)
	if err != nil {
		return core.IPv4Header{}, err
	}
	ip.Flags = uint8(flagsOffset >> 13)
	ip.FragOffset = flagsOffset & 0x1FFF
	if ip.TTL, err = r.Uint8(); err != nil {
		return core.IPv4Header{}, err
	}
	if ip.Protocol, err = r.Uint8(); err != nil {
		return core.IPv4Header{}, err
	}
	if ip.Checksum, err = r.Uint16(binary.BigEndian); err != nil {
		return core.IPv4Header{}, err
	}
	if ip.SrcIP, err = readAddr4(r); err != nil {
		return core.IPv4Header{}, err
	}
	if ip.DstIP, err = readAddr4(r); err != nil {
		return core.IPv4Header{}, err
	}

	// Options are not decoded; continue at the payload.
	if r, err = NewReaderAt(data, headerLen); err != nil {
		return core.IPv4Header{}, err
	}

	payload, err := r.Slice(int(ip.TotalLen) - headerLen)
	if err != nil {
		// Total length disagrees with the bytes present: keep what is there.
		payload = r.Rest()
		ip.LengthMismatch = true
	}
	ip.Payload = payload

	return ip, nil
}

// ParseIPPacket decodes a buffer that starts at an IPv4 header and returns
// the IP-layer record.
func ParseIPPacket(data []byte) (core.Record, error) {
	ip, err := DecodeIPv4(data)
	if err != nil {
		return nil, err
	}
	return ipv4Record(ip), nil
}

func readAddr4(r *Reader) (netip.Addr, error) {
	b, err := r.Slice(4)
	if err != nil {
		return netip.Addr{}, err
	}
	return netip.AddrFrom4([4]byte(b)), nil
}

// isFirstFragment reports whether the packet carries the start of its
// upper-layer payload.
func isFirstFragment(ip core.IPv4Header) bool {
	return ip.FragOffset == 0
}
