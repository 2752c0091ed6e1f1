package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tcpRecord = `{
	"number": 1, "timestamp": 0.5, "t_captured": 1700000000.25,
	"mac_src": "AA:BB:CC:DD:EE:01", "mac_dst": "AA:BB:CC:DD:EE:02",
	"protocol": "TCP", "length": 74,
	"rest": {
		"ip_version": 4, "ip_header_length": 20, "ip_ttl": 64,
		"ip_src": "10.0.0.1", "ip_dst": "10.0.0.2",
		"port_src": 51000, "port_dst": 443,
		"sequence_number": 4000000000, "acknowledgment_number": 7,
		"flags": {"URG": 0, "ACK": 1, "PSH": 0, "RST": 0, "SYN": 1, "FIN": 0},
		"udp_length": 99,
		"payload": [72, 105]
	}
}`

func TestUnmarshal_TCPv4(t *testing.T) {
	var p Packet
	require.NoError(t, json.Unmarshal([]byte(tcpRecord), &p))

	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 0.5, p.Timestamp)
	assert.Equal(t, "TCP", p.Protocol)
	assert.Equal(t, 4, p.Rest.IPVersion())

	ip, ok := p.Rest.Network.(*IPv4)
	require.True(t, ok)
	assert.Equal(t, &IPv4{HeaderLength: 20, TTL: 64, Src: "10.0.0.1", Dst: "10.0.0.2"}, ip)

	tcp, ok := p.Rest.Transport.(*TCP)
	require.True(t, ok, "udp_length on a TCP record must not produce a UDP shape")
	assert.Equal(t, 51000, tcp.SrcPort)
	assert.Equal(t, 443, tcp.DstPort)
	assert.Equal(t, uint32(4000000000), tcp.Seq)
	assert.Equal(t, TCPFlags{ACK: true, SYN: true}, tcp.Flags)
	assert.Equal(t, []byte("Hi"), p.Rest.Payload)
}

func TestUnmarshal_UDPv6BooleanFlagsIgnored(t *testing.T) {
	raw := `{"number": 2, "protocol": "UDP", "rest": {
		"ip_version": 6, "ip_traffic_class": 0, "ip_flow_label": 12345,
		"ip_payload_length": 40, "ip_hop_limit": 255,
		"ip_src": "fe80::1", "ip_dst": "ff02::fb",
		"port_src": 5353, "port_dst": 5353, "udp_length": 40, "udp_checksum": 4660,
		"flags": {"SYN": true},
		"payload": "AAEC"
	}}`
	var p Packet
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	ip, ok := p.Rest.Network.(*IPv6)
	require.True(t, ok)
	assert.Equal(t, 12345, ip.FlowLabel)
	assert.Equal(t, 255, ip.HopLimit)
	assert.Equal(t, "ff02::fb", ip.Dst)

	udp, ok := p.Rest.Transport.(*UDP)
	require.True(t, ok)
	assert.Equal(t, &UDP{SrcPort: 5353, DstPort: 5353, Length: 40, Checksum: 4660}, udp)
	assert.Equal(t, []byte{0, 1, 2}, p.Rest.Payload)
}

func TestUnmarshal_UnknownProtocolCarriesOnlyPayload(t *testing.T) {
	var p Packet
	require.NoError(t, json.Unmarshal([]byte(`{"number": 3, "protocol": "unknown", "rest": {"payload": [1]}}`), &p))

	assert.Nil(t, p.Rest.Network)
	assert.Nil(t, p.Rest.Transport)
	assert.Equal(t, 0, p.Rest.IPVersion())
	assert.Equal(t, []byte{1}, p.Rest.Payload)
}

func TestUnmarshal_RawNumericProtocolKeepsNetwork(t *testing.T) {
	raw := `{"number": 4, "protocol": "47", "rest": {
		"ip_version": 4, "ip_src": "192.168.1.1", "ip_dst": "192.168.1.2",
		"port_src": 1, "port_dst": 2, "payload": []
	}}`
	var p Packet
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.NotNil(t, p.Rest.Network)
	assert.Nil(t, p.Rest.Transport)
}

func TestUnmarshal_MissingTransportFields(t *testing.T) {
	var p Packet
	require.NoError(t, json.Unmarshal([]byte(`{"number": 5, "protocol": "ICMP", "rest": {"ip_version": 4}}`), &p))

	assert.Nil(t, p.Rest.Transport)
	assert.NotNil(t, p.Rest.Payload)
	assert.Empty(t, p.Rest.Payload)
}

func TestUnmarshal_InvalidPayload(t *testing.T) {
	var p Packet
	err := json.Unmarshal([]byte(`{"number": 6, "protocol": "UDP", "rest": {"payload": [300]}}`), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestMarshal_SparseShape(t *testing.T) {
	var p Packet
	require.NoError(t, json.Unmarshal([]byte(tcpRecord), &p))

	out, err := json.Marshal(p)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	rest := generic["rest"].(map[string]any)

	assert.Equal(t, float64(443), rest["port_dst"])
	assert.Equal(t, []any{float64(72), float64(105)}, rest["payload"])
	assert.NotContains(t, rest, "udp_length")
	assert.NotContains(t, rest, "ip_hop_limit")
	assert.Equal(t, true, rest["flags"].(map[string]any)["SYN"])
}
