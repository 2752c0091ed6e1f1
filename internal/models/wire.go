package models

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// wireRest is the sparse rest object as the capture backend emits it: every
// field optional, only the ones for the detected layers present.
type wireRest struct {
	IPVersion       *int       `json:"ip_version,omitempty"`
	IPHeaderLength  *int       `json:"ip_header_length,omitempty"`
	IPTTL           *int       `json:"ip_ttl,omitempty"`
	IPTrafficClass  *int       `json:"ip_traffic_class,omitempty"`
	IPFlowLabel     *int       `json:"ip_flow_label,omitempty"`
	IPPayloadLength *int       `json:"ip_payload_length,omitempty"`
	IPHopLimit      *int       `json:"ip_hop_limit,omitempty"`
	IPSrc           *string    `json:"ip_src,omitempty"`
	IPDst           *string    `json:"ip_dst,omitempty"`
	PortSrc         *int       `json:"port_src,omitempty"`
	PortDst         *int       `json:"port_dst,omitempty"`
	SequenceNumber  *uint32    `json:"sequence_number,omitempty"`
	AckNumber       *uint32    `json:"acknowledgment_number,omitempty"`
	Flags           *wireFlags `json:"flags,omitempty"`
	UDPLength       *int       `json:"udp_length,omitempty"`
	UDPChecksum     *int       `json:"udp_checksum,omitempty"`
	ICMPType        *int       `json:"icmp_type,omitempty"`
	ICMPCode        *int       `json:"icmp_code,omitempty"`
	ICMPChecksum    *int       `json:"icmp_checksum,omitempty"`
	Payload         payload    `json:"payload"`
}

type wireFlags struct {
	URG bit `json:"URG"`
	ACK bit `json:"ACK"`
	PSH bit `json:"PSH"`
	RST bit `json:"RST"`
	SYN bit `json:"SYN"`
	FIN bit `json:"FIN"`
}

// bit accepts both JSON booleans and the 0/1 integers produced by masking
// the TCP header.
type bit bool

func (b *bit) UnmarshalJSON(data []byte) error {
	switch s := string(bytes.TrimSpace(data)); s {
	case "true", "1":
		*b = true
	case "false", "0", "null":
		*b = false
	default:
		return fmt.Errorf("invalid flag value %s", s)
	}
	return nil
}

// payload accepts an array of byte values or a base64 string, and always
// encodes as an array so the output matches the backend's shape.
type payload []byte

func (p *payload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = payload{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		*p = raw
		return nil
	}
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 0xff {
			return fmt.Errorf("payload byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*p = out
	return nil
}

func (p payload) MarshalJSON() ([]byte, error) {
	vals := make([]int, len(p))
	for i, b := range p {
		vals[i] = int(b)
	}
	return json.Marshal(vals)
}

// Batch is one full snapshot of the capture backend's packet list. Records
// are kept raw so each one can be decoded, and rejected, on its own.
type Batch struct {
	Packets []json.RawMessage `json:"packets"`
}

type wirePacket struct {
	Number    int      `json:"number"`
	Timestamp float64  `json:"timestamp"`
	TCaptured float64  `json:"t_captured"`
	MACSrc    string   `json:"mac_src"`
	MACDst    string   `json:"mac_dst"`
	Protocol  string   `json:"protocol"`
	Length    int      `json:"length"`
	Rest      wireRest `json:"rest"`
}

// UnmarshalJSON decodes the backend's sparse record and resolves it into
// the tagged network/transport variants.
func (p *Packet) UnmarshalJSON(data []byte) error {
	var w wirePacket
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Packet{
		Number:    w.Number,
		Timestamp: w.Timestamp,
		TCaptured: w.TCaptured,
		MACSrc:    w.MACSrc,
		MACDst:    w.MACDst,
		Protocol:  w.Protocol,
		Length:    w.Length,
		Rest: Rest{
			Network:   w.Rest.network(),
			Transport: w.Rest.transport(w.Protocol),
			Payload:   []byte(w.Rest.Payload),
		},
	}
	if p.Rest.Payload == nil {
		p.Rest.Payload = []byte{}
	}
	return nil
}

// MarshalJSON writes the record back in the backend's sparse shape.
func (p Packet) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePacket{
		Number:    p.Number,
		Timestamp: p.Timestamp,
		TCaptured: p.TCaptured,
		MACSrc:    p.MACSrc,
		MACDst:    p.MACDst,
		Protocol:  p.Protocol,
		Length:    p.Length,
		Rest:      toWire(p.Rest),
	})
}

func (w *wireRest) network() Network {
	if w.IPVersion == nil {
		return nil
	}
	switch *w.IPVersion {
	case 4:
		return &IPv4{
			HeaderLength: intOr(w.IPHeaderLength),
			TTL:          intOr(w.IPTTL),
			Src:          strOr(w.IPSrc),
			Dst:          strOr(w.IPDst),
		}
	case 6:
		return &IPv6{
			TrafficClass:  intOr(w.IPTrafficClass),
			FlowLabel:     intOr(w.IPFlowLabel),
			PayloadLength: intOr(w.IPPayloadLength),
			HopLimit:      intOr(w.IPHopLimit),
			Src:           strOr(w.IPSrc),
			Dst:           strOr(w.IPDst),
		}
	}
	return nil
}

// transport picks the shape from the protocol tag alone; fields of other
// protocols present on the wire are ignored.
func (w *wireRest) transport(protocol string) Transport {
	switch protocol {
	case ProtocolTCP:
		if w.PortSrc == nil || w.PortDst == nil {
			return nil
		}
		t := &TCP{SrcPort: *w.PortSrc, DstPort: *w.PortDst}
		if w.SequenceNumber != nil {
			t.Seq = *w.SequenceNumber
		}
		if w.AckNumber != nil {
			t.Ack = *w.AckNumber
		}
		if f := w.Flags; f != nil {
			t.Flags = TCPFlags{
				URG: bool(f.URG), ACK: bool(f.ACK), PSH: bool(f.PSH),
				RST: bool(f.RST), SYN: bool(f.SYN), FIN: bool(f.FIN),
			}
		}
		return t
	case ProtocolUDP:
		if w.PortSrc == nil || w.PortDst == nil {
			return nil
		}
		return &UDP{
			SrcPort:  *w.PortSrc,
			DstPort:  *w.PortDst,
			Length:   intOr(w.UDPLength),
			Checksum: intOr(w.UDPChecksum),
		}
	case ProtocolICMP:
		if w.ICMPType == nil {
			return nil
		}
		return &ICMP{
			Type:     *w.ICMPType,
			Code:     intOr(w.ICMPCode),
			Checksum: intOr(w.ICMPChecksum),
		}
	}
	return nil
}

func toWire(r Rest) wireRest {
	w := wireRest{Payload: payload(r.Payload)}
	switch n := r.Network.(type) {
	case *IPv4:
		w.IPVersion = intPtr(4)
		w.IPHeaderLength = intPtr(n.HeaderLength)
		w.IPTTL = intPtr(n.TTL)
		w.IPSrc, w.IPDst = &n.Src, &n.Dst
	case *IPv6:
		w.IPVersion = intPtr(6)
		w.IPTrafficClass = intPtr(n.TrafficClass)
		w.IPFlowLabel = intPtr(n.FlowLabel)
		w.IPPayloadLength = intPtr(n.PayloadLength)
		w.IPHopLimit = intPtr(n.HopLimit)
		w.IPSrc, w.IPDst = &n.Src, &n.Dst
	}
	switch t := r.Transport.(type) {
	case *TCP:
		w.PortSrc, w.PortDst = intPtr(t.SrcPort), intPtr(t.DstPort)
		w.SequenceNumber, w.AckNumber = &t.Seq, &t.Ack
		w.Flags = &wireFlags{
			URG: bit(t.Flags.URG), ACK: bit(t.Flags.ACK), PSH: bit(t.Flags.PSH),
			RST: bit(t.Flags.RST), SYN: bit(t.Flags.SYN), FIN: bit(t.Flags.FIN),
		}
	case *UDP:
		w.PortSrc, w.PortDst = intPtr(t.SrcPort), intPtr(t.DstPort)
		w.UDPLength, w.UDPChecksum = intPtr(t.Length), intPtr(t.Checksum)
	case *ICMP:
		w.ICMPType, w.ICMPCode, w.ICMPChecksum = intPtr(t.Type), intPtr(t.Code), intPtr(t.Checksum)
	}
	return w
}

func intPtr(v int) *int { return &v }

func intOr(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func strOr(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
