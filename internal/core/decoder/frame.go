package decoder

import (
	"firestige.xyz/framepeek/internal/core"
)

// DecodeFrame decodes a buffer that starts at an Ethernet-style link-layer
// header. Only a short link-layer header is an error; failures of inner
// layers are recorded on the Frame and decoding stops at that layer.
func DecodeFrame(data []byte) (core.Frame, error) {
	eth, payload, err := decodeEthernet(data)
	if err != nil {
		return core.Frame{}, err
	}

	frame := core.Frame{
		Length:   len(data),
		Ethernet: eth,
		Payload:  payload,
	}
	inner, err := decodeVLANTags(&frame.Ethernet, payload)
	if err != nil {
		frame.VLANErr = err
		return frame, nil
	}
	if frame.Ethernet.InnerEtherType != EtherTypeIPv4 {
		return frame, nil
	}

	ip, err := DecodeIPv4(inner)
	if err != nil {
		frame.IPErr = err
		return frame, nil
	}
	frame.IP = &ip

	if !isFirstFragment(ip) {
		return frame, nil
	}
	th, ok, err := decodeTransport(ip.Payload, ip.Protocol)
	switch {
	case err != nil:
		frame.TransportErr = err
	case ok:
		frame.Transport = &th
	}

	return frame, nil
}

// Parse decodes a captured frame into a record merging the link-layer
// fields with the IP fields nested under "ip".
func Parse(data []byte) (core.Record, error) {
	frame, err := DecodeFrame(data)
	if err != nil {
		return nil, err
	}
	return frameRecord(frame), nil
}
