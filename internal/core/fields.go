// Package core defines record field names.
package core

// Field names of the link-layer record.
const (
	FieldDstMAC         = "dst_mac"
	FieldSrcMAC         = "src_mac"
	FieldEtherType      = "ethertype"
	FieldEtherTypeName  = "ethertype_name" // Only for recognized ethertypes
	FieldFrameLength    = "frame_length"
	FieldPayloadLength  = "payload_length"  // Shared with the IP record
	FieldVLANID         = "vlan_id"         // Outermost tag
	FieldInnerVLANID    = "inner_vlan_id"   // Second tag of a QinQ stack
	FieldInnerEtherType = "inner_ethertype" // Only for tagged frames
	FieldVLANError      = "vlan_error"
	FieldIP             = "ip"
	FieldIPError        = "ip_error"
	FieldTransport      = "transport"
	FieldTransportError = "transport_error"
)

// Field names of the IP record.
const (
	FieldVersion        = "version"
	FieldHeaderLength   = "header_length" // 32-bit words
	FieldTotalLength    = "total_length"
	FieldIdentification = "identification"
	FieldFlags          = "flags"
	FieldDontFragment   = "dont_fragment"
	FieldMoreFragments  = "more_fragments"
	FieldFragmentOffset = "fragment_offset" // 8-byte units
	FieldTTL            = "ttl"
	FieldProtocol       = "protocol" // Symbolic, only when recognized
	FieldProtocolNumber = "protocol_number"
	FieldChecksum       = "checksum"
	FieldSrcIP          = "src_ip"
	FieldDstIP          = "dst_ip"
	FieldPayload        = "payload"
	FieldLengthMismatch = "length_mismatch"
)

// Field names of the transport record.
const (
	FieldSrcPort  = "src_port"
	FieldDstPort  = "dst_port"
	FieldSeq      = "seq"
	FieldAck      = "ack"
	FieldTCPFlags = "tcp_flags"
	FieldLength   = "length" // UDP length
)
