package decoder

import (
	"firestige.xyz/framepeek/internal/core"
)

// frameRecord renders a decoded frame with the link-layer schema.
func frameRecord(f core.Frame) core.Record {
	rec := core.Record{
		core.FieldDstMAC:        core.StringValue(FormatMAC(f.Ethernet.DstMAC)),
		core.FieldSrcMAC:        core.StringValue(FormatMAC(f.Ethernet.SrcMAC)),
		core.FieldEtherType:     core.IntValue(int64(f.Ethernet.EtherType)),
		core.FieldFrameLength:   core.IntValue(int64(f.Length)),
		core.FieldPayloadLength: core.IntValue(int64(len(f.Payload))),
	}
	if name, ok := EtherTypeName(f.Ethernet.EtherType); ok {
		rec.Set(core.FieldEtherTypeName, core.StringValue(name))
	}

	if vlans := f.Ethernet.VLANs; len(vlans) > 0 {
		rec.Set(core.FieldVLANID, core.IntValue(int64(vlans[0])))
		if len(vlans) > 1 {
			rec.Set(core.FieldInnerVLANID, core.IntValue(int64(vlans[1])))
		}
		rec.Set(core.FieldInnerEtherType, core.IntValue(int64(f.Ethernet.InnerEtherType)))
	}
	if f.VLANErr != nil {
		rec.Set(core.FieldVLANError, core.StringValue(f.VLANErr.Error()))
	}

	switch {
	case f.IP != nil:
		rec.Set(core.FieldIP, core.RecordValue(ipv4Record(*f.IP)))
	case f.IPErr != nil:
		rec.Set(core.FieldIPError, core.StringValue(f.IPErr.Error()))
	}

	switch {
	case f.Transport != nil:
		rec.Set(core.FieldTransport, core.RecordValue(transportRecord(*f.Transport)))
	case f.TransportErr != nil:
		rec.Set(core.FieldTransportError, core.StringValue(f.TransportErr.Error()))
	}

	return rec
}

// ipv4Record renders an IPv4 header with the IP schema.
func ipv4Record(ip core.IPv4Header) core.Record {
	rec := core.Record{
		core.FieldVersion:        core.IntValue(int64(ip.Version)),
		core.FieldHeaderLength:   core.IntValue(int64(ip.IHL)),
		core.FieldTotalLength:    core.IntValue(int64(ip.TotalLen)),
		core.FieldIdentification: core.IntValue(int64(ip.ID)),
		core.FieldFlags:          core.IntValue(int64(ip.Flags)),
		core.FieldDontFragment:   core.BoolValue(ip.DontFragment()),
		core.FieldMoreFragments:  core.BoolValue(ip.MoreFragments()),
		core.FieldFragmentOffset: core.IntValue(int64(ip.FragOffset)),
		core.FieldTTL:            core.IntValue(int64(ip.TTL)),
		core.FieldProtocolNumber: core.IntValue(int64(ip.Protocol)),
		core.FieldChecksum:       core.IntValue(int64(ip.Checksum)),
		core.FieldSrcIP:          core.StringValue(ip.SrcIP.String()),
		core.FieldDstIP:          core.StringValue(ip.DstIP.String()),
		core.FieldPayloadLength:  core.IntValue(int64(len(ip.Payload))),
		core.FieldPayload:        core.BytesValue(ip.Payload),
		core.FieldLengthMismatch: core.BoolValue(ip.LengthMismatch),
	}
	if name, ok := ProtocolName(ip.Protocol); ok {
		rec.Set(core.FieldProtocol, core.StringValue(name))
	}
	return rec
}

func transportRecord(th core.TransportHeader) core.Record {
	rec := core.Record{
		core.FieldSrcPort: core.IntValue(int64(th.SrcPort)),
		core.FieldDstPort: core.IntValue(int64(th.DstPort)),
	}
	switch th.Protocol {
	case protocolTCP:
		rec.Set(core.FieldSeq, core.IntValue(int64(th.SeqNum)))
		rec.Set(core.FieldAck, core.IntValue(int64(th.AckNum)))
		rec.Set(core.FieldTCPFlags, core.IntValue(int64(th.TCPFlags)))
	case protocolUDP:
		rec.Set(core.FieldLength, core.IntValue(int64(th.Length)))
	}
	return rec
}
