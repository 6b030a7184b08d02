// Package core defines core types with zero external dependencies.
package core

import "net/netip"

// EthernetHeader represents the 14-byte L2 header plus any 802.1Q/802.1ad tags.
type EthernetHeader struct {
	DstMAC    [6]byte
	SrcMAC    [6]byte
	EtherType uint16   // Outer type field: 0x0800=IPv4, 0x888E=EAPOL, 0x8100=VLAN
	VLANs     []uint16 // Tag VLAN IDs, outermost first (QinQ has 2)
	// InnerEtherType is the type field after the last tag; equals EtherType
	// when untagged.
	InnerEtherType uint16
}

// IPv4Header represents a decoded L3 IPv4 header.
type IPv4Header struct {
	Version        uint8
	IHL            uint8 // Header length in 32-bit words
	TotalLen       uint16
	ID             uint16
	Flags          uint8  // Top 3 bits of the flags/fragment word
	FragOffset     uint16 // In 8-byte units
	TTL            uint8
	Protocol       uint8 // TCP=6, UDP=17, ICMP=1
	Checksum       uint16
	SrcIP          netip.Addr
	DstIP          netip.Addr
	Payload        []byte // View into the decoded buffer
	LengthMismatch bool   // TotalLen disagreed with the bytes present
}

// IPv4 flag bits as found in IPv4Header.Flags.
const (
	IPv4FlagMoreFragments uint8 = 0x1
	IPv4FlagDontFragment  uint8 = 0x2
)

// HeaderLen returns the header length in bytes.
func (h IPv4Header) HeaderLen() int { return int(h.IHL) * 4 }

// DontFragment reports the DF bit.
func (h IPv4Header) DontFragment() bool { return h.Flags&IPv4FlagDontFragment != 0 }

// MoreFragments reports the MF bit.
func (h IPv4Header) MoreFragments() bool { return h.Flags&IPv4FlagMoreFragments != 0 }

// TransportHeader represents L4 transport layer header (TCP/UDP).
type TransportHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Protocol uint8 // Redundant storage for convenience
	// TCP-specific fields (only populated for TCP)
	TCPFlags uint8
	SeqNum   uint32
	AckNum   uint32
	// UDP-specific field
	Length uint16
}

// Frame is the typed result of decoding one link-layer frame. Upper layers
// are nil when absent; the paired error says why a present layer failed.
type Frame struct {
	Length   int
	Ethernet EthernetHeader
	Payload  []byte // Everything after the 14-byte link-layer header

	// VLANErr is set when a tag was cut short; no upper layer is decoded then.
	VLANErr error

	IP    *IPv4Header
	IPErr error

	Transport    *TransportHeader
	TransportErr error
}
