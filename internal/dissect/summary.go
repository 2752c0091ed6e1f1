package dissect

import (
	"fmt"
	"strings"

	"github.com/google/gopacket/layers"

	"caramelo/internal/models"
)

// Summarize builds the address columns and the one-line info text of a
// table row. Addresses fall back to MAC addresses when the packet has no
// network layer.
func Summarize(p *models.Packet) (src, dst, info string) {
	src, dst = p.MACSrc, p.MACDst
	switch n := p.Rest.Network.(type) {
	case *models.IPv4:
		src, dst = n.Src, n.Dst
	case *models.IPv6:
		src, dst = n.Src, n.Dst
	}

	switch t := p.Rest.Transport.(type) {
	case *models.TCP:
		if p.Protocol != models.ProtocolTCP {
			break
		}
		info = fmt.Sprintf("%d -> %d [%s] Seq=%d Ack=%d Len=%d",
			t.SrcPort, t.DstPort, strings.Join(t.Flags.Set(), ","),
			t.Seq, t.Ack, len(p.Rest.Payload))
	case *models.UDP:
		if p.Protocol != models.ProtocolUDP {
			break
		}
		info = fmt.Sprintf("%d -> %d Len=%d", t.SrcPort, t.DstPort, t.Length)
	case *models.ICMP:
		if p.Protocol != models.ProtocolICMP {
			break
		}
		info = layers.CreateICMPv4TypeCode(uint8(t.Type), uint8(t.Code)).String()
	}
	if info == "" {
		info = fmt.Sprintf("%s, %d bytes", p.Protocol, p.Length)
	}
	return src, dst, info
}
