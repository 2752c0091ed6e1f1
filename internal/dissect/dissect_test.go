package dissect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caramelo/internal/models"
)

func field(t *testing.T, d models.LayerDetail, name string) models.LayerField {
	t.Helper()
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %q not found in %s", name, d.Name)
	return models.LayerField{}
}

func TestDescribe_UnknownWithoutNetwork(t *testing.T) {
	p := &models.Packet{Number: 1, Protocol: models.ProtocolUnknown, Rest: models.Rest{Payload: []byte{}}}

	d := Describe(p)
	assert.False(t, d.Network.Available)
	assert.False(t, d.Transport.Available)
	assert.Equal(t, Unavailable, d.Network)
	assert.Equal(t, Unavailable, d.Transport)
	assert.Equal(t, "Payload", d.Payload.Name)
}

func TestDescribe_IPv4TCP(t *testing.T) {
	p := &models.Packet{
		Protocol: models.ProtocolTCP,
		Rest: models.Rest{
			Network:   &models.IPv4{HeaderLength: 20, TTL: 64, Src: "10.0.0.1", Dst: "10.0.0.2"},
			Transport: &models.TCP{SrcPort: 51000, DstPort: 80, Seq: 1, Ack: 2, Flags: models.TCPFlags{SYN: true, ACK: true}},
		},
	}

	d := Describe(p)
	require.True(t, d.Network.Available)
	assert.Equal(t, "IPv4", d.Network.Name)
	assert.Equal(t, "64", field(t, d.Network.LayerDetail, "TTL").Value)
	assert.Equal(t, "20 bytes", field(t, d.Network.LayerDetail, "Header Length").Value)

	require.True(t, d.Transport.Available)
	assert.Equal(t, "TCP", d.Transport.Name)
	assert.Contains(t, field(t, d.Transport.LayerDetail, "Destination Port").Value, "80")
	flags := field(t, d.Transport.LayerDetail, "Flags")
	assert.Equal(t, "[ACK, SYN]", flags.Value)
	require.Len(t, flags.Children, 6)
	assert.Equal(t, "Set", flags.Children[4].Value)
	assert.Equal(t, "Not set", flags.Children[5].Value)
}

func TestDescribe_IPv6UDP(t *testing.T) {
	p := &models.Packet{
		Protocol: models.ProtocolUDP,
		Rest: models.Rest{
			Network:   &models.IPv6{FlowLabel: 0x12345, HopLimit: 1, Src: "fe80::1", Dst: "ff02::1"},
			Transport: &models.UDP{SrcPort: 53, DstPort: 40000, Length: 28, Checksum: 0xbeef},
		},
	}

	d := Describe(p)
	require.True(t, d.Network.Available)
	assert.Equal(t, "IPv6", d.Network.Name)
	assert.Equal(t, "0x12345", field(t, d.Network.LayerDetail, "Flow Label").Value)
	require.True(t, d.Transport.Available)
	assert.Equal(t, "0xbeef", field(t, d.Transport.LayerDetail, "Checksum").Value)
}

func TestDescribe_ICMP(t *testing.T) {
	p := &models.Packet{
		Protocol: models.ProtocolICMP,
		Rest: models.Rest{
			Network:   &models.IPv4{TTL: 1},
			Transport: &models.ICMP{Type: 8, Code: 0, Checksum: 0x1c46},
		},
	}

	d := Describe(p)
	require.True(t, d.Transport.Available)
	assert.Equal(t, "ICMP", d.Transport.Name)
	assert.Contains(t, field(t, d.Transport.LayerDetail, "Type").Value, "8 (")
	assert.Equal(t, "0x1c46", field(t, d.Transport.LayerDetail, "Checksum").Value)
}

func TestDescribe_ProtocolTagMismatch(t *testing.T) {
	// The transport shape is only shown when the protocol tag agrees.
	p := &models.Packet{
		Protocol: "udp",
		Rest:     models.Rest{Transport: &models.UDP{SrcPort: 1, DstPort: 2}},
	}
	assert.False(t, Describe(p).Transport.Available)

	p.Protocol = models.ProtocolTCP
	assert.False(t, Describe(p).Transport.Available)
}

func TestDescribe_Pure(t *testing.T) {
	p := &models.Packet{
		Protocol: models.ProtocolUDP,
		Rest: models.Rest{
			Network:   &models.IPv4{Src: "1.1.1.1"},
			Transport: &models.UDP{SrcPort: 1, DstPort: 2},
			Payload:   []byte("abc"),
		},
	}
	assert.Equal(t, Describe(p), Describe(p))
}

func TestSummarize(t *testing.T) {
	p := &models.Packet{
		Protocol: models.ProtocolTCP,
		MACSrc:   "AA:AA:AA:AA:AA:AA",
		MACDst:   "BB:BB:BB:BB:BB:BB",
		Rest: models.Rest{
			Network:   &models.IPv4{Src: "10.0.0.1", Dst: "10.0.0.2"},
			Transport: &models.TCP{SrcPort: 1234, DstPort: 80, Seq: 5, Ack: 6, Flags: models.TCPFlags{PSH: true, ACK: true}},
			Payload:   []byte("hello"),
		},
	}
	src, dst, info := Summarize(p)
	assert.Equal(t, "10.0.0.1", src)
	assert.Equal(t, "10.0.0.2", dst)
	assert.Equal(t, "1234 -> 80 [ACK,PSH] Seq=5 Ack=6 Len=5", info)

	bare := &models.Packet{Protocol: "unknown", Length: 60, MACSrc: "AA:AA:AA:AA:AA:AA", MACDst: "BB:BB:BB:BB:BB:BB"}
	src, dst, info = Summarize(bare)
	assert.Equal(t, "AA:AA:AA:AA:AA:AA", src)
	assert.Equal(t, "BB:BB:BB:BB:BB:BB", dst)
	assert.Equal(t, "unknown, 60 bytes", info)
}

func TestPayloadFormatting(t *testing.T) {
	data := []byte("GET / HTTP/1.1\r\nHost: x\r\n\x00\x01")

	assert.Equal(t, "GET / HTTP/1.1\nHost: x\n..", PayloadText(data))

	dump := FormatHexDump(data)
	assert.Contains(t, dump, "0000  47 45 54 20 2f 20 48 54  54 50 2f 31 2e 31 0d 0a  |GET / HTTP/1.1..|\n")
	assert.Contains(t, dump, "0010  ")
	assert.Empty(t, FormatHexDump(nil))
}

func TestFormatEscaped(t *testing.T) {
	assert.Equal(t, `\x47 \x00 \xff`, FormatEscaped([]byte{0x47, 0x00, 0xff}))
	assert.Empty(t, FormatEscaped(nil))

	d := Describe(&models.Packet{Rest: models.Rest{Payload: []byte("A")}})
	assert.Equal(t, `\x41`, field(t, d.Payload, "Bytes").Value)
}
