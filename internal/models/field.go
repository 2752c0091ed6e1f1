package models

import "strings"

// Field resolves a dotted field path against the packet, using the names
// of the backend's wire format ("protocol", "rest.ip_src",
// "rest.flags.SYN"). The "rest." prefix is optional. Numbers are returned
// as float64, text as string, flags as bool. The second result is false
// when the path is unknown or the layer holding it is absent.
func (p *Packet) Field(path string) (any, bool) {
	switch path {
	case "number":
		return float64(p.Number), true
	case "timestamp":
		return p.Timestamp, true
	case "t_captured":
		return p.TCaptured, true
	case "mac_src":
		return p.MACSrc, true
	case "mac_dst":
		return p.MACDst, true
	case "protocol":
		return p.Protocol, true
	case "length":
		return float64(p.Length), true
	}
	return p.Rest.Field(strings.TrimPrefix(path, "rest."))
}

// Field resolves a rest field by its wire name.
func (r Rest) Field(name string) (any, bool) {
	switch name {
	case "payload":
		return string(r.Payload), true
	case "payload_length":
		return float64(len(r.Payload)), true
	case "ip_version":
		if r.Network == nil {
			return nil, false
		}
		return float64(r.Network.Version()), true
	}
	if strings.HasPrefix(name, "ip_") {
		return networkField(r.Network, name)
	}
	return transportField(r.Transport, name)
}

func networkField(n Network, name string) (any, bool) {
	switch v := n.(type) {
	case *IPv4:
		switch name {
		case "ip_header_length":
			return float64(v.HeaderLength), true
		case "ip_ttl":
			return float64(v.TTL), true
		case "ip_src":
			return v.Src, true
		case "ip_dst":
			return v.Dst, true
		}
	case *IPv6:
		switch name {
		case "ip_traffic_class":
			return float64(v.TrafficClass), true
		case "ip_flow_label":
			return float64(v.FlowLabel), true
		case "ip_payload_length":
			return float64(v.PayloadLength), true
		case "ip_hop_limit":
			return float64(v.HopLimit), true
		case "ip_src":
			return v.Src, true
		case "ip_dst":
			return v.Dst, true
		}
	}
	return nil, false
}

func transportField(t Transport, name string) (any, bool) {
	switch v := t.(type) {
	case *TCP:
		switch name {
		case "port_src":
			return float64(v.SrcPort), true
		case "port_dst":
			return float64(v.DstPort), true
		case "sequence_number":
			return float64(v.Seq), true
		case "acknowledgment_number":
			return float64(v.Ack), true
		}
		if flag, ok := strings.CutPrefix(name, "flags."); ok {
			on, known := v.Flags.Get(flag)
			return on, known
		}
	case *UDP:
		switch name {
		case "port_src":
			return float64(v.SrcPort), true
		case "port_dst":
			return float64(v.DstPort), true
		case "udp_length":
			return float64(v.Length), true
		case "udp_checksum":
			return float64(v.Checksum), true
		}
	case *ICMP:
		switch name {
		case "icmp_type":
			return float64(v.Type), true
		case "icmp_code":
			return float64(v.Code), true
		case "icmp_checksum":
			return float64(v.Checksum), true
		}
	}
	return nil, false
}
