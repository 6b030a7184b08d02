package decoder

import (
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/framepeek/internal/core"
)

// scenarioFrame is a broadcast Ethernet header followed by a minimal IPv4/UDP header.
func scenarioFrame() []byte {
	return []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x08, 0x00, // EtherType: IPv4
		0x45,       // Version 4, IHL 5
		0x00,       // DSCP, ECN
		0x00, 0x14, // Total Length: 20 bytes
		0x00, 0x00, // Identification
		0x00, 0x00, // Flags, Fragment Offset
		0x40,       // TTL: 64
		0x11,       // Protocol: UDP (17)
		0x00, 0x00, // Checksum
		0x0A, 0x00, 0x00, 0x01, // Src IP
		0x0A, 0x00, 0x00, 0x02, // Dst IP
	}
}

// serializeUDPFrame builds an Ethernet/IPv4/UDP frame with gopacket.
func serializeUDPFrame(t testing.TB, payload []byte) []byte {
	t.Helper()

	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x5E, 0x10, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0x00, 0x5E, 0x10, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		Id:       0xBEEF,
		Flags:    layers.IPv4DontFragment,
		TTL:      128,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{192, 168, 4, 20},
		DstIP:    net.IP{224, 0, 0, 251},
	}
	udp := &layers.UDP{SrcPort: 5353, DstPort: 5353}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}
	return buf.Bytes()
}

func TestParseScenario(t *testing.T) {
	rec, err := Parse(scenarioFrame())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if v, _ := rec.Str(core.FieldDstMAC); v != "FF:FF:FF:FF:FF:FF" {
		t.Errorf("Expected dst_mac FF:FF:FF:FF:FF:FF, got %q", v)
	}
	if v, _ := rec.Str(core.FieldSrcMAC); v != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Expected src_mac AA:BB:CC:DD:EE:FF, got %q", v)
	}
	if v, _ := rec.Int(core.FieldEtherType); v != 0x0800 {
		t.Errorf("Expected ethertype 0x0800, got 0x%04x", v)
	}
	if v, _ := rec.Str(core.FieldEtherTypeName); v != "IPv4" {
		t.Errorf("Expected ethertype_name IPv4, got %q", v)
	}

	ip, ok := rec.Sub(core.FieldIP)
	if !ok {
		t.Fatalf("Expected ip sub-record, got keys %v", rec.Keys())
	}
	if v, _ := ip.Str(core.FieldProtocol); v != "UDP" {
		t.Errorf("Expected ip.protocol UDP, got %q", v)
	}
	if v, _ := ip.Str(core.FieldSrcIP); v != "10.0.0.1" {
		t.Errorf("Expected ip.src_ip 10.0.0.1, got %q", v)
	}
	if v, _ := ip.Str(core.FieldDstIP); v != "10.0.0.2" {
		t.Errorf("Expected ip.dst_ip 10.0.0.2, got %q", v)
	}
	if v, _ := ip.Int(core.FieldTTL); v != 64 {
		t.Errorf("Expected ip.ttl 64, got %d", v)
	}

	// UDP header is missing entirely: the transport layer reports why
	if rec.Has(core.FieldTransport) {
		t.Error("Expected no transport record")
	}
	if !rec.Has(core.FieldTransportError) {
		t.Error("Expected transport_error for the missing UDP header")
	}
	if rec.Has(core.FieldIPError) {
		t.Error("Unexpected ip_error")
	}
}

func TestParseTooShort(t *testing.T) {
	frame := scenarioFrame()
	for n := 0; n < ethernetHeaderLen; n++ {
		rec, err := Parse(frame[:n])
		if !errors.Is(err, core.ErrTruncatedInput) {
			t.Errorf("len=%d: expected ErrTruncatedInput, got %v", n, err)
		}
		if rec != nil {
			t.Errorf("len=%d: expected no partial result, got %v", n, rec)
		}
	}
}

func TestParseMatchesParseIPPacket(t *testing.T) {
	frames := map[string][]byte{
		"scenario": scenarioFrame(),
		"udp":      serializeUDPFrame(t, []byte("hello")),
		"udpEmpty": serializeUDPFrame(t, nil),
		"udpLarge": serializeUDPFrame(t, make([]byte, 1400)),
	}

	for name, frame := range frames {
		t.Run(name, func(t *testing.T) {
			rec, err := Parse(frame)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			ip, ok := rec.Sub(core.FieldIP)
			if !ok {
				t.Fatalf("Expected ip sub-record, got keys %v", rec.Keys())
			}
			want, err := ParseIPPacket(frame[ethernetHeaderLen:])
			if err != nil {
				t.Fatalf("ParseIPPacket failed: %v", err)
			}
			if diff := cmp.Diff(want.Map(), ip.Map()); diff != "" {
				t.Errorf("ip sub-record mismatch (-ParseIPPacket +Parse):\n%s", diff)
			}
		})
	}
}

func TestParseAgainstGopacket(t *testing.T) {
	frame := serializeUDPFrame(t, []byte("query"))

	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	eth, _ := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	ip4, _ := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	udp, _ := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if eth == nil || ip4 == nil || udp == nil {
		t.Fatalf("gopacket could not decode the reference frame: %v", pkt.ErrorLayer())
	}

	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ip, _ := rec.Sub(core.FieldIP)
	transport, _ := rec.Sub(core.FieldTransport)

	want := map[string]any{
		core.FieldDstMAC:        strings.ToUpper(eth.DstMAC.String()),
		core.FieldSrcMAC:        strings.ToUpper(eth.SrcMAC.String()),
		core.FieldEtherType:     int64(eth.EthernetType),
		core.FieldEtherTypeName: "IPv4",
		core.FieldFrameLength:   int64(len(frame)),
		core.FieldPayloadLength: int64(len(frame) - ethernetHeaderLen),
	}
	got := map[string]any{}
	for key := range want {
		v, _ := rec.Get(key)
		got[key] = v.Interface()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("link layer mismatch (-gopacket +framepeek):\n%s", diff)
	}

	wantIP := map[string]any{
		core.FieldVersion:        int64(ip4.Version),
		core.FieldHeaderLength:   int64(ip4.IHL),
		core.FieldTotalLength:    int64(ip4.Length),
		core.FieldIdentification: int64(ip4.Id),
		core.FieldFlags:          int64(ip4.Flags),
		core.FieldDontFragment:   true,
		core.FieldMoreFragments:  false,
		core.FieldFragmentOffset: int64(ip4.FragOffset),
		core.FieldTTL:            int64(ip4.TTL),
		core.FieldProtocolNumber: int64(ip4.Protocol),
		core.FieldProtocol:       "UDP",
		core.FieldChecksum:       int64(ip4.Checksum),
		core.FieldSrcIP:          ip4.SrcIP.String(),
		core.FieldDstIP:          ip4.DstIP.String(),
		core.FieldPayloadLength:  int64(len(ip4.Payload)),
		core.FieldPayload:        []byte(ip4.Payload),
		core.FieldLengthMismatch: false,
	}
	if diff := cmp.Diff(wantIP, ip.Map()); diff != "" {
		t.Errorf("ip layer mismatch (-gopacket +framepeek):\n%s", diff)
	}

	wantTransport := map[string]any{
		core.FieldSrcPort: int64(udp.SrcPort),
		core.FieldDstPort: int64(udp.DstPort),
		core.FieldLength:  int64(udp.Length),
	}
	if diff := cmp.Diff(wantTransport, transport.Map()); diff != "" {
		t.Errorf("transport mismatch (-gopacket +framepeek):\n%s", diff)
	}
}

func TestParseTruncatedIPHeader(t *testing.T) {
	frame := scenarioFrame()

	// Every cut inside the IP header keeps the link layer and flags the IP layer
	for n := ethernetHeaderLen; n < len(frame); n++ {
		rec, err := Parse(frame[:n])
		if err != nil {
			t.Fatalf("len=%d: Parse should not fail, got %v", n, err)
		}
		if v, _ := rec.Str(core.FieldSrcMAC); v != "AA:BB:CC:DD:EE:FF" {
			t.Errorf("len=%d: expected src_mac, got %q", n, v)
		}
		if v, _ := rec.Int(core.FieldEtherType); v != 0x0800 {
			t.Errorf("len=%d: expected ethertype 0x0800, got 0x%04x", n, v)
		}
		if rec.Has(core.FieldIP) {
			t.Errorf("len=%d: ip sub-record should be absent", n)
		}
		if !rec.Has(core.FieldIPError) {
			t.Errorf("len=%d: expected ip_error indicator", n)
		}
	}
}

func TestParseUnsupportedIPVersion(t *testing.T) {
	frame := scenarioFrame()
	frame[ethernetHeaderLen] = 0x65

	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse should not fail, got %v", err)
	}
	if rec.Has(core.FieldIP) {
		t.Error("ip sub-record should be absent")
	}
	msg, ok := rec.Str(core.FieldIPError)
	if !ok || msg == "" {
		t.Fatalf("Expected ip_error, got %q", msg)
	}
}

func TestParseOtherEtherTypes(t *testing.T) {
	tests := []struct {
		name      string
		etherType uint16
		wantName  string
	}{
		{"EAPOL", 0x888E, "EAPOL"},
		{"ARP", 0x0806, "ARP"},
		{"IPv6", 0x86DD, "IPv6"},
		{"VLAN", 0x8100, "VLAN"},
		{"Unknown", 0x1234, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := scenarioFrame()
			frame[12], frame[13] = byte(tt.etherType>>8), byte(tt.etherType)

			rec, err := Parse(frame)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if v, _ := rec.Int(core.FieldEtherType); v != int64(tt.etherType) {
				t.Errorf("Expected ethertype 0x%04x, got 0x%04x", tt.etherType, v)
			}
			name, ok := rec.Str(core.FieldEtherTypeName)
			if name != tt.wantName || ok != (tt.wantName != "") {
				t.Errorf("Expected ethertype_name %q, got %q (present=%v)", tt.wantName, name, ok)
			}
			for _, key := range []string{core.FieldIP, core.FieldIPError, core.FieldTransport, core.FieldTransportError} {
				if rec.Has(key) {
					t.Errorf("Unexpected %s for non-IPv4 frame", key)
				}
			}
			if v, _ := rec.Int(core.FieldPayloadLength); v != int64(len(frame)-ethernetHeaderLen) {
				t.Errorf("Expected payload_length %d, got %d", len(frame)-ethernetHeaderLen, v)
			}
		})
	}
}

// taggedFrame inserts VLAN tags (type, TCI pairs) between the link-layer
// header and the IPv4 header of scenarioFrame.
func taggedFrame(outer uint16, tags ...uint16) []byte {
	base := scenarioFrame()
	frame := append([]byte{}, base[:12]...)
	frame = append(frame, byte(outer>>8), byte(outer))
	for i := 0; i < len(tags); i += 2 {
		frame = append(frame, byte(tags[i]>>8), byte(tags[i]), byte(tags[i+1]>>8), byte(tags[i+1]))
	}
	return append(frame, base[ethernetHeaderLen:]...)
}

func TestParseVLANTagged(t *testing.T) {
	t.Run("Single", func(t *testing.T) {
		frame := taggedFrame(EtherTypeVLAN, 100, EtherTypeIPv4)
		rec, err := Parse(frame)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if v, _ := rec.Int(core.FieldEtherType); v != EtherTypeVLAN {
			t.Errorf("Expected raw outer ethertype 0x8100, got 0x%04x", v)
		}
		if v, ok := rec.Int(core.FieldVLANID); !ok || v != 100 {
			t.Errorf("Expected vlan_id 100, got %d (present=%v)", v, ok)
		}
		if rec.Has(core.FieldInnerVLANID) {
			t.Error("Unexpected inner_vlan_id for single tag")
		}
		if v, _ := rec.Int(core.FieldInnerEtherType); v != EtherTypeIPv4 {
			t.Errorf("Expected inner_ethertype 0x0800, got 0x%04x", v)
		}
		if v, _ := rec.Int(core.FieldPayloadLength); v != int64(len(frame)-ethernetHeaderLen) {
			t.Errorf("Expected payload_length %d, got %d", len(frame)-ethernetHeaderLen, v)
		}
		ip, ok := rec.Sub(core.FieldIP)
		if !ok {
			t.Fatalf("Expected ip record inside the tag, got %v", rec.Keys())
		}
		if v, _ := ip.Str(core.FieldDstIP); v != "10.0.0.2" {
			t.Errorf("Expected dst_ip 10.0.0.2, got %q", v)
		}
	})

	t.Run("QinQ", func(t *testing.T) {
		rec, err := Parse(taggedFrame(EtherTypeQinQ, 10, EtherTypeVLAN, 20, EtherTypeIPv4))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if v, _ := rec.Int(core.FieldVLANID); v != 10 {
			t.Errorf("Expected vlan_id 10, got %d", v)
		}
		if v, _ := rec.Int(core.FieldInnerVLANID); v != 20 {
			t.Errorf("Expected inner_vlan_id 20, got %d", v)
		}
		if !rec.Has(core.FieldIP) {
			t.Error("Expected ip record inside QinQ")
		}
	})

	t.Run("TruncatedTag", func(t *testing.T) {
		frame := taggedFrame(EtherTypeVLAN)[:ethernetHeaderLen+2]
		rec, err := Parse(frame)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if !rec.Has(core.FieldVLANError) {
			t.Error("Expected vlan_error")
		}
		for _, key := range []string{core.FieldVLANID, core.FieldIP, core.FieldIPError} {
			if rec.Has(key) {
				t.Errorf("Unexpected %s after truncated tag", key)
			}
		}
	})

	t.Run("Untagged", func(t *testing.T) {
		rec, err := Parse(scenarioFrame())
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		for _, key := range []string{core.FieldVLANID, core.FieldInnerVLANID, core.FieldInnerEtherType, core.FieldVLANError} {
			if rec.Has(key) {
				t.Errorf("Unexpected %s for untagged frame", key)
			}
		}
	})
}

func TestParseVLANAgainstGopacket(t *testing.T) {
	frame := taggedFrame(EtherTypeVLAN, 0x2ABC, EtherTypeIPv4)
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	dot1q, ok := pkt.Layer(layers.LayerTypeDot1Q).(*layers.Dot1Q)
	if !ok {
		t.Fatal("gopacket found no Dot1Q layer")
	}

	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v, _ := rec.Int(core.FieldVLANID); v != int64(dot1q.VLANIdentifier) {
		t.Errorf("vlan_id %d, gopacket says %d", v, dot1q.VLANIdentifier)
	}
	if v, _ := rec.Int(core.FieldInnerEtherType); v != int64(dot1q.Type) {
		t.Errorf("inner_ethertype 0x%04x, gopacket says 0x%04x", v, uint16(dot1q.Type))
	}
}

func TestParseHeaderOnlyFrame(t *testing.T) {
	frame := scenarioFrame()[:ethernetHeaderLen]
	frame[12], frame[13] = 0x88, 0x8E

	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if v, _ := rec.Int(core.FieldPayloadLength); v != 0 {
		t.Errorf("Expected payload_length 0, got %d", v)
	}
	if v, _ := rec.Int(core.FieldFrameLength); v != ethernetHeaderLen {
		t.Errorf("Expected frame_length 14, got %d", v)
	}
}

func TestDecodeFrameNonFirstFragment(t *testing.T) {
	frame := append(scenarioFrame(), make([]byte, 8)...)
	frame[ethernetHeaderLen+2], frame[ethernetHeaderLen+3] = 0x00, 0x1C // Total Length: 28
	frame[ethernetHeaderLen+6], frame[ethernetHeaderLen+7] = 0x00, 0x10 // Fragment Offset: 16

	f, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if f.IP == nil {
		t.Fatalf("Expected IP layer, got error %v", f.IPErr)
	}
	if f.IP.FragOffset != 16 {
		t.Errorf("Expected fragment offset 16, got %d", f.IP.FragOffset)
	}
	if f.Transport != nil || f.TransportErr != nil {
		t.Errorf("Non-first fragment carries no transport header, got %+v %v", f.Transport, f.TransportErr)
	}
}

func TestDecodeFrameTCP(t *testing.T) {
	tcp := []byte{
		0x00, 0x50, 0xC0, 0x01, // Ports 80 -> 49153
		0x00, 0x00, 0x00, 0x0A, // Seq
		0x00, 0x00, 0x00, 0x0B, // Ack
		0x50, 0x18, // Data Offset 5, PSH+ACK
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	frame := append(scenarioFrame()[:ethernetHeaderLen], makeIPv4Header(protocolTCP, tcp)...)

	rec, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	transport, ok := rec.Sub(core.FieldTransport)
	if !ok {
		t.Fatalf("Expected transport record, got keys %v", rec.Keys())
	}
	want := map[string]any{
		core.FieldSrcPort:  int64(80),
		core.FieldDstPort:  int64(49153),
		core.FieldSeq:      int64(10),
		core.FieldAck:      int64(11),
		core.FieldTCPFlags: int64(0x18),
	}
	if diff := cmp.Diff(want, transport.Map()); diff != "" {
		t.Errorf("transport mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConcurrent(t *testing.T) {
	frames := [][]byte{
		scenarioFrame(),
		serializeUDPFrame(t, []byte("a")),
		serializeUDPFrame(t, make([]byte, 512)),
		scenarioFrame()[:20],
	}
	want := make([]map[string]any, len(frames))
	for i, f := range frames {
		rec, err := Parse(f)
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		want[i] = rec.Map()
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				idx := i % len(frames)
				rec, err := Parse(frames[idx])
				if err != nil {
					errs <- err.Error()
					return
				}
				if diff := cmp.Diff(want[idx], rec.Map()); diff != "" {
					errs <- diff
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestFrameDecoderDecode(t *testing.T) {
	d := NewFrameDecoder()
	var _ Decoder = d

	rec, err := d.Decode(core.RawPacket{Data: scenarioFrame()})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !rec.Has(core.FieldIP) {
		t.Error("Expected ip sub-record")
	}

	if _, err := d.Decode(core.RawPacket{}); !errors.Is(err, core.ErrTruncatedInput) {
		t.Errorf("Expected ErrTruncatedInput for empty packet, got %v", err)
	}
}

func FuzzParse(f *testing.F) {
	f.Add(scenarioFrame())
	f.Add(serializeUDPFrame(f, []byte("seed")))
	f.Add([]byte{})
	f.Add(append(scenarioFrame()[:ethernetHeaderLen], 0x4F))

	f.Fuzz(func(t *testing.T, data []byte) {
		orig := append([]byte(nil), data...)
		rec, err := Parse(data)
		if err != nil {
			if len(data) >= ethernetHeaderLen {
				t.Fatalf("Parse failed on a %d-byte frame: %v", len(data), err)
			}
			if !errors.Is(err, core.ErrTruncatedInput) || rec != nil {
				t.Fatalf("Expected ErrTruncatedInput without record, got %v %v", rec, err)
			}
		}
		if rec.Has(core.FieldIP) && rec.Has(core.FieldIPError) {
			t.Fatal("ip and ip_error are mutually exclusive")
		}
		if string(orig) != string(data) {
			t.Fatal("Parse modified its input")
		}
	})
}

func BenchmarkParse(b *testing.B) {
	frame := serializeUDPFrame(b, make([]byte, 256))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(frame); err != nil {
			b.Fatal(err)
		}
	}
}
