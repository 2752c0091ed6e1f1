package models

// Transport protocol tags emitted by the capture backend. Anything else
// (including a raw IP protocol number such as "47") is undeciphered.
const (
	ProtocolTCP     = "TCP"
	ProtocolUDP     = "UDP"
	ProtocolICMP    = "ICMP"
	ProtocolUnknown = "unknown"
)

// Packet is one captured packet summary plus its layer-specific fields.
// Packets are never mutated once a batch has been ingested.
type Packet struct {
	Number    int     `json:"number"`
	Timestamp float64 `json:"timestamp"`
	TCaptured float64 `json:"t_captured"`
	MACSrc    string  `json:"mac_src"`
	MACDst    string  `json:"mac_dst"`
	Protocol  string  `json:"protocol"`
	Length    int     `json:"length"`
	Rest      Rest    `json:"rest"`
}

// Rest carries the layer-specific part of a packet. Network and Transport
// are each nil or exactly one concrete variant; Payload is always present
// (possibly empty).
type Rest struct {
	Network   Network
	Transport Transport
	Payload   []byte
}

// IPVersion returns the network layer version, or 0 when the packet has no
// decodable network layer.
func (r Rest) IPVersion() int {
	if r.Network == nil {
		return 0
	}
	return r.Network.Version()
}

// Network is the closed set of network-layer shapes: *IPv4 or *IPv6.
type Network interface {
	Version() int
	isNetwork()
}

// IPv4 holds the IPv4 header fields shown in the detail panel.
type IPv4 struct {
	HeaderLength int
	TTL          int
	Src          string
	Dst          string
}

func (*IPv4) Version() int { return 4 }
func (*IPv4) isNetwork()   {}

// IPv6 holds the IPv6 header fields shown in the detail panel.
type IPv6 struct {
	TrafficClass  int
	FlowLabel     int
	PayloadLength int
	HopLimit      int
	Src           string
	Dst           string
}

func (*IPv6) Version() int { return 6 }
func (*IPv6) isNetwork()   {}

// Transport is the closed set of transport-layer shapes: *TCP, *UDP or *ICMP.
type Transport interface {
	// Protocol returns the tag this shape belongs to.
	Protocol() string
	isTransport()
}

// TCPFlags holds the six TCP control bits.
type TCPFlags struct {
	URG bool
	ACK bool
	PSH bool
	RST bool
	SYN bool
	FIN bool
}

// Set returns the names of the flags that are set, in header order.
func (f TCPFlags) Set() []string {
	var out []string
	for _, fl := range []struct {
		name string
		on   bool
	}{
		{"URG", f.URG}, {"ACK", f.ACK}, {"PSH", f.PSH},
		{"RST", f.RST}, {"SYN", f.SYN}, {"FIN", f.FIN},
	} {
		if fl.on {
			out = append(out, fl.name)
		}
	}
	return out
}

// Get returns the flag with the given name.
func (f TCPFlags) Get(name string) (bool, bool) {
	switch name {
	case "URG":
		return f.URG, true
	case "ACK":
		return f.ACK, true
	case "PSH":
		return f.PSH, true
	case "RST":
		return f.RST, true
	case "SYN":
		return f.SYN, true
	case "FIN":
		return f.FIN, true
	}
	return false, false
}

// TCP holds the TCP header fields the backend reports.
type TCP struct {
	SrcPort int
	DstPort int
	Seq     uint32
	Ack     uint32
	Flags   TCPFlags
}

func (*TCP) Protocol() string { return ProtocolTCP }
func (*TCP) isTransport()     {}

// UDP holds the UDP header fields the backend reports.
type UDP struct {
	SrcPort  int
	DstPort  int
	Length   int
	Checksum int
}

func (*UDP) Protocol() string { return ProtocolUDP }
func (*UDP) isTransport()     {}

// ICMP holds the ICMP type, code and checksum.
type ICMP struct {
	Type     int
	Code     int
	Checksum int
}

func (*ICMP) Protocol() string { return ProtocolICMP }
func (*ICMP) isTransport()     {}
