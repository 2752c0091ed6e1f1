package filter

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caramelo/internal/models"
)

func tcp(n int, src, dst int, flags models.TCPFlags) models.Packet {
	return models.Packet{
		Number:   n,
		Protocol: models.ProtocolTCP,
		Length:   60 + n,
		MACSrc:   "AA:BB:CC:00:00:01",
		Rest: models.Rest{
			Network:   &models.IPv4{TTL: 64, Src: "10.0.0.1", Dst: "10.0.0.2"},
			Transport: &models.TCP{SrcPort: src, DstPort: dst, Flags: flags},
			Payload:   []byte("GET / HTTP/1.1"),
		},
	}
}

func udp(n int, src, dst int) models.Packet {
	return models.Packet{
		Number:   n,
		Protocol: models.ProtocolUDP,
		Length:   40 + n,
		Rest: models.Rest{
			Network:   &models.IPv6{HopLimit: 1, Src: "fe80::1", Dst: "ff02::1"},
			Transport: &models.UDP{SrcPort: src, DstPort: dst},
			Payload:   []byte{},
		},
	}
}

func unknown(n int) models.Packet {
	return models.Packet{Number: n, Protocol: models.ProtocolUnknown, Rest: models.Rest{Payload: []byte{}}}
}

func numbers(rows []*models.Packet) []int {
	out := make([]int, len(rows))
	for i, p := range rows {
		out[i] = p.Number
	}
	return out
}

func sampleBatch() []models.Packet {
	return []models.Packet{
		tcp(1, 51000, 443, models.TCPFlags{SYN: true}),
		udp(2, 5353, 5353),
		tcp(3, 443, 51000, models.TCPFlags{SYN: true, ACK: true}),
		unknown(4),
	}
}

func TestFilter_EmptyPassesAll(t *testing.T) {
	batch := sampleBatch()
	rows := New().Apply(batch)
	if diff := cmp.Diff([]int{1, 2, 3, 4}, numbers(rows)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_MembershipScenario(t *testing.T) {
	batch := sampleBatch()[:3]
	f := New()
	f.Protocols.Toggle(models.ProtocolTCP)

	rows := f.Apply(batch)
	if diff := cmp.Diff([]int{1, 3}, numbers(rows)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestProtocolSet(t *testing.T) {
	s := ProtocolSet{}
	p := udp(1, 1, 2)
	assert.True(t, s.Match(&p), "empty set means no restriction")

	assert.True(t, s.Toggle("TCP"))
	assert.False(t, s.Match(&p))

	s.Set("UDP", true)
	assert.True(t, s.Match(&p))
	assert.Equal(t, []string{"TCP", "UDP"}, s.Selected())

	assert.False(t, s.Toggle("TCP"))
	s.Set("UDP", false)
	assert.Empty(t, s.Selected())
	assert.True(t, s.Match(&p))

	s.Set("ICMP", true)
	s.Clear()
	assert.False(t, s.Has("ICMP"))
}

func TestFilter_CombinesByAnd(t *testing.T) {
	batch := sampleBatch()
	f := New()
	f.Protocols.Set(models.ProtocolTCP, true)
	f.Predicate = Compile("rest.port_dst == 443")

	assert.Equal(t, []int{1}, numbers(f.Apply(batch)))

	// Order of the two filters does not change the result.
	var manual []int
	for i := range batch {
		if f.Predicate.Match(&batch[i]) && f.Protocols.Match(&batch[i]) {
			manual = append(manual, batch[i].Number)
		}
	}
	assert.Equal(t, manual, numbers(f.Apply(batch)))
}

func TestPredicate_Expressions(t *testing.T) {
	batch := sampleBatch()
	tests := []struct {
		expr string
		want []int
	}{
		{"", []int{1, 2, 3, 4}},
		{"   ", []int{1, 2, 3, 4}},
		{"packet.protocol === 'TCP'", []int{1, 3}},
		{`protocol == "UDP" || protocol == "unknown"`, []int{2, 4}},
		{"protocol != 'TCP'", []int{2, 4}},
		{"rest.port_dst == 443", []int{1}},
		{"port_src >= 443 and port_src < 6000", []int{2, 3}},
		{"rest.flags.SYN && !rest.flags.ACK", []int{1}},
		{"not rest.flags.ACK", []int{1, 2, 4}},
		{"rest.ip_version == 6", []int{2}},
		{"rest.ip_version == null", []int{4}},
		{"rest.ip_hop_limit > 0", []int{2}},
		{"length > 62", []int{3}},
		{"rest.payload contains 'http/1.1'", []int{1, 3}},
		{"mac_src startsWith 'aa:bb'", []int{1, 3}},
		{"rest.ip_dst endsWith '::1'", []int{2}},
		{"protocol in ['UDP', 'unknown']", []int{2, 4}},
		{"number in []", []int{}},
		{"(protocol == 'TCP' || protocol == 'UDP') && number > 1", []int{2, 3}},
		{"number == 0x3", []int{3}},
		{"number > -1 && number < 2", []int{1}},
		{"true", []int{1, 2, 3, 4}},
		{"false", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p := Compile(tt.expr)
			require.NoError(t, p.Err())

			got := []int{}
			for i := range batch {
				if p.Match(&batch[i]) {
					got = append(got, batch[i].Number)
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%q mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestPredicate_Precedence(t *testing.T) {
	p := tcp(1, 1, 2, models.TCPFlags{})
	// && binds tighter than ||
	ok, err := Compile("true || false && false").Eval(&p)
	require.NoError(t, err)
	assert.True(t, ok)

	// ! binds tighter than &&
	ok, err = Compile("!false && false").Eval(&p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPredicate_FailOpen(t *testing.T) {
	batch := sampleBatch()
	tests := []struct {
		name string
		expr string
	}{
		{"ordering string against number", "protocol > 5"},
		{"non-boolean result", "length"},
		{"substring on number", "length contains 'x'"},
		{"not on a string", "!protocol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compile(tt.expr)
			require.NoError(t, p.Err())
			for i := range batch {
				_, err := p.Eval(&batch[i])
				assert.Error(t, err)
				assert.True(t, p.Match(&batch[i]), "packet %d must be included", batch[i].Number)
			}
		})
	}
}

func TestPredicate_FailOpenOnlyForFailingRecords(t *testing.T) {
	// Records with an IP layer fail to order a string against a number and
	// pass. The record without one resolves to absent and is excluded.
	batch := sampleBatch()
	f := New()
	f.Predicate = Compile("rest.ip_src > 1 || protocol == 'UDP'")

	assert.Equal(t, []int{1, 2, 3}, numbers(f.Apply(batch)))
}

func TestPredicate_SyntaxErrors(t *testing.T) {
	batch := sampleBatch()
	for _, expr := range []string{
		"protocol ==",
		"(protocol == 'TCP'",
		"protocol == 'TCP",
		"protocol = 'TCP'",
		"number in 3",
		"number in [1, 2",
		"and",
		"rest..port",
		"packet.protocol === 'TCP' extra",
		"1.2.3 == 1",
	} {
		t.Run(expr, func(t *testing.T) {
			p := Compile(expr)
			var synErr *SyntaxError
			require.ErrorAs(t, p.Err(), &synErr)
			assert.Equal(t, expr, p.Source())
			for i := range batch {
				assert.True(t, p.Match(&batch[i]))
			}
		})
	}
}

func TestCompiler_Caches(t *testing.T) {
	c := NewCompiler(time.Minute)
	a := c.Compile("protocol == 'TCP'")
	b := c.Compile("protocol == 'TCP'")
	assert.Same(t, a, b)
	assert.NotSame(t, a, c.Compile("protocol == 'UDP'"))
}

func TestNilPredicate(t *testing.T) {
	var p *Predicate
	pkt := unknown(1)
	assert.True(t, p.Match(&pkt))
	assert.Equal(t, "", p.Source())
	assert.NoError(t, p.Err())
}

func TestPredicate_EvalReportsCompileError(t *testing.T) {
	pkt := unknown(1)
	ok, err := Compile("protocol ==").Eval(&pkt)
	assert.True(t, ok)
	assert.Error(t, err)

	ok, err = Compile("").Eval(&pkt)
	assert.True(t, ok)
	assert.NoError(t, err)
}
