package decoder

import (
	"encoding/binary"
	"fmt"
	"strings"

	"firestige.xyz/framepeek/internal/core"
)

const (
	// Ethernet constants
	ethernetHeaderLen = 14
	vlanHeaderLen     = 4

	// EtherType values
	EtherTypeIPv4  = 0x0800
	EtherTypeARP   = 0x0806
	EtherTypeVLAN  = 0x8100
	EtherTypeIPv6  = 0x86DD
	EtherTypeEAPOL = 0x888E
	EtherTypeQinQ  = 0x88A8
)

var etherTypeNames = map[uint16]string{
	EtherTypeIPv4:  "IPv4",
	EtherTypeARP:   "ARP",
	EtherTypeVLAN:  "VLAN",
	EtherTypeIPv6:  "IPv6",
	EtherTypeEAPOL: "EAPOL",
	EtherTypeQinQ:  "QinQ",
}

// EtherTypeName returns the symbolic name of a recognized ethertype.
func EtherTypeName(etherType uint16) (string, bool) {
	name, ok := etherTypeNames[etherType]
	return name, ok
}

// decodeEthernet decodes the fixed 14-byte link-layer header. Tags are left
// in the payload for decodeVLANTags.
// Returns EthernetHeader and remaining payload.
func decodeEthernet(data []byte) (core.EthernetHeader, []byte, error) {
	if len(data) < ethernetHeaderLen {
		return core.EthernetHeader{}, nil, fmt.Errorf("%w: link-layer header needs %d bytes, have %d",
			core.ErrTruncatedInput, ethernetHeaderLen, len(data))
	}

	r := NewReader(data)
	eth := core.EthernetHeader{}

	dst, _ := r.Slice(6)
	copy(eth.DstMAC[:], dst)
	src, _ := r.Slice(6)
	copy(eth.SrcMAC[:], src)
	eth.EtherType, _ = r.Uint16(binary.BigEndian)
	eth.InnerEtherType = eth.EtherType

	return eth, r.Rest(), nil
}

// decodeVLANTags walks 802.1Q/802.1ad tags (can be nested: QinQ) at the
// start of payload, recording their IDs and the inner ethertype on eth.
// Returns the bytes after the last tag.
func decodeVLANTags(eth *core.EthernetHeader, payload []byte) ([]byte, error) {
	r := NewReader(payload)
	for eth.InnerEtherType == EtherTypeVLAN || eth.InnerEtherType == EtherTypeQinQ {
		if err := r.need(vlanHeaderLen); err != nil {
			return nil, fmt.Errorf("vlan tag %d: %w", len(eth.VLANs)+1, err)
		}

		// TCI: lower 12 bits are the VLAN ID
		tci, _ := r.Uint16(binary.BigEndian)
		eth.VLANs = append(eth.VLANs, tci&0x0FFF)
		eth.InnerEtherType, _ = r.Uint16(binary.BigEndian)
	}
	return r.Rest(), nil
}

// FormatMAC renders a hardware address as colon-separated uppercase hex.
func FormatMAC(mac [6]byte) string {
	var b strings.Builder
	b.Grow(17)
	for i, octet := range mac {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02X", octet)
	}
	return b.String()
}
