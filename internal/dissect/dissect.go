// Package dissect selects and formats the layer-specific fields of a packet
// for the detail panel.
package dissect

import (
	"fmt"
	"strings"

	"github.com/google/gopacket/layers"

	"caramelo/internal/models"
)

// Layer is either a decoded field set or unavailable. The zero value is
// unavailable.
type Layer struct {
	Available bool `json:"available"`
	models.LayerDetail
}

// Unavailable marks a layer with nothing decodable.
var Unavailable = Layer{}

func available(d models.LayerDetail) Layer {
	return Layer{Available: true, LayerDetail: d}
}

// Description is the detail-panel content for one packet.
type Description struct {
	Network   Layer              `json:"network"`
	Transport Layer              `json:"transport"`
	Payload   models.LayerDetail `json:"payload"`
}

// Describe resolves the network and transport field sets of p. It never
// fails: packets without a recognizable layer get Unavailable for it.
func Describe(p *models.Packet) Description {
	return Description{
		Network:   describeNetwork(p.Rest),
		Transport: describeTransport(p.Protocol, p.Rest),
		Payload:   describePayload(p.Rest.Payload),
	}
}

func describeNetwork(r models.Rest) Layer {
	switch r.IPVersion() {
	case 4:
		if ip, ok := r.Network.(*models.IPv4); ok {
			return available(parseIPv4(ip))
		}
	case 6:
		if ip, ok := r.Network.(*models.IPv6); ok {
			return available(parseIPv6(ip))
		}
	}
	return Unavailable
}

func describeTransport(protocol string, r models.Rest) Layer {
	switch protocol {
	case models.ProtocolTCP:
		if tcp, ok := r.Transport.(*models.TCP); ok {
			return available(parseTCP(tcp))
		}
	case models.ProtocolUDP:
		if udp, ok := r.Transport.(*models.UDP); ok {
			return available(parseUDP(udp))
		}
	case models.ProtocolICMP:
		if icmp, ok := r.Transport.(*models.ICMP); ok {
			return available(parseICMP(icmp))
		}
	}
	return Unavailable
}

func parseIPv4(ip *models.IPv4) models.LayerDetail {
	return models.LayerDetail{
		Name: "IPv4",
		Fields: []models.LayerField{
			{Name: "Version", Value: "4"},
			{Name: "Header Length", Value: fmt.Sprintf("%d bytes", ip.HeaderLength)},
			{Name: "TTL", Value: fmt.Sprintf("%d", ip.TTL)},
			{Name: "Source", Value: ip.Src},
			{Name: "Destination", Value: ip.Dst},
		},
	}
}

func parseIPv6(ip *models.IPv6) models.LayerDetail {
	return models.LayerDetail{
		Name: "IPv6",
		Fields: []models.LayerField{
			{Name: "Version", Value: "6"},
			{Name: "Traffic Class", Value: fmt.Sprintf("0x%02x", ip.TrafficClass)},
			{Name: "Flow Label", Value: fmt.Sprintf("0x%05x", ip.FlowLabel)},
			{Name: "Payload Length", Value: fmt.Sprintf("%d", ip.PayloadLength)},
			{Name: "Hop Limit", Value: fmt.Sprintf("%d", ip.HopLimit)},
			{Name: "Source", Value: ip.Src},
			{Name: "Destination", Value: ip.Dst},
		},
	}
}

func parseTCP(tcp *models.TCP) models.LayerDetail {
	flags := tcp.Flags
	return models.LayerDetail{
		Name: "TCP",
		Fields: []models.LayerField{
			{Name: "Source Port", Value: layers.TCPPort(tcp.SrcPort).String()},
			{Name: "Destination Port", Value: layers.TCPPort(tcp.DstPort).String()},
			{Name: "Sequence Number", Value: fmt.Sprintf("%d", tcp.Seq)},
			{Name: "Acknowledgment Number", Value: fmt.Sprintf("%d", tcp.Ack)},
			{
				Name:  "Flags",
				Value: fmt.Sprintf("[%s]", strings.Join(flags.Set(), ", ")),
				Children: []models.LayerField{
					{Name: "URG", Value: boolToStr(flags.URG, "Set", "Not set")},
					{Name: "ACK", Value: boolToStr(flags.ACK, "Set", "Not set")},
					{Name: "PSH", Value: boolToStr(flags.PSH, "Set", "Not set")},
					{Name: "RST", Value: boolToStr(flags.RST, "Set", "Not set")},
					{Name: "SYN", Value: boolToStr(flags.SYN, "Set", "Not set")},
					{Name: "FIN", Value: boolToStr(flags.FIN, "Set", "Not set")},
				},
			},
		},
	}
}

func parseUDP(udp *models.UDP) models.LayerDetail {
	return models.LayerDetail{
		Name: "UDP",
		Fields: []models.LayerField{
			{Name: "Source Port", Value: layers.UDPPort(udp.SrcPort).String()},
			{Name: "Destination Port", Value: layers.UDPPort(udp.DstPort).String()},
			{Name: "Length", Value: fmt.Sprintf("%d", udp.Length)},
			{Name: "Checksum", Value: fmt.Sprintf("0x%04x", udp.Checksum)},
		},
	}
}

func parseICMP(icmp *models.ICMP) models.LayerDetail {
	tc := layers.CreateICMPv4TypeCode(uint8(icmp.Type), uint8(icmp.Code))
	return models.LayerDetail{
		Name: "ICMP",
		Fields: []models.LayerField{
			{Name: "Type", Value: fmt.Sprintf("%d (%s)", icmp.Type, tc.String())},
			{Name: "Code", Value: fmt.Sprintf("%d", icmp.Code)},
			{Name: "Checksum", Value: fmt.Sprintf("0x%04x", icmp.Checksum)},
		},
	}
}

func boolToStr(b bool, t, f string) string {
	if b {
		return t
	}
	return f
}
