package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caramelo/internal/models"
)

func rows(pkts ...models.Packet) []*models.Packet {
	out := make([]*models.Packet, len(pkts))
	for i := range pkts {
		out[i] = &pkts[i]
	}
	return out
}

func numbers(rs []*models.Packet) []int {
	out := make([]int, len(rs))
	for i, p := range rs {
		out[i] = p.Number
	}
	return out
}

func TestSelect_Toggle(t *testing.T) {
	var s State
	assert.False(t, s.Active())

	require.NoError(t, s.Select(ColumnNumber))
	assert.Equal(t, State{Column: ColumnNumber}, s)

	require.NoError(t, s.Select(ColumnNumber))
	assert.Equal(t, State{Column: ColumnNumber, Desc: true}, s)

	require.NoError(t, s.Select(ColumnNumber))
	assert.Equal(t, State{Column: ColumnNumber}, s)

	// Switching columns always starts ascending.
	require.NoError(t, s.Select(ColumnNumber))
	require.NoError(t, s.Select(ColumnLength))
	assert.Equal(t, State{Column: ColumnLength}, s)

	s.Clear()
	assert.False(t, s.Active())
}

func TestSelect_UnknownColumn(t *testing.T) {
	s := State{Column: ColumnProtocol, Desc: true}
	err := s.Select("rest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sortable: length, mac_dst, mac_src, number")
	assert.Equal(t, State{Column: ColumnProtocol, Desc: true}, s)
}

func TestApply_NumberDescending(t *testing.T) {
	rs := rows(models.Packet{Number: 1}, models.Packet{Number: 2}, models.Packet{Number: 3})
	State{Column: ColumnNumber, Desc: true}.Apply(rs)
	assert.Equal(t, []int{3, 2, 1}, numbers(rs))
}

func TestApply_Stable(t *testing.T) {
	rs := rows(
		models.Packet{Number: 1, Protocol: "UDP"},
		models.Packet{Number: 2, Protocol: "TCP"},
		models.Packet{Number: 3, Protocol: "UDP"},
		models.Packet{Number: 4, Protocol: "TCP"},
	)
	State{Column: ColumnProtocol}.Apply(rs)
	assert.Equal(t, []int{2, 4, 1, 3}, numbers(rs))

	State{Column: ColumnProtocol, Desc: true}.Apply(rs)
	assert.Equal(t, []int{1, 3, 2, 4}, numbers(rs), "ties keep their current relative order")
}

func TestApply_NoColumnKeepsOrder(t *testing.T) {
	rs := rows(models.Packet{Number: 3}, models.Packet{Number: 1}, models.Packet{Number: 2})
	State{}.Apply(rs)
	assert.Equal(t, []int{3, 1, 2}, numbers(rs))
}

func TestApply_FloatAndStringColumns(t *testing.T) {
	rs := rows(
		models.Packet{Number: 1, Timestamp: 0.3, MACSrc: "cc"},
		models.Packet{Number: 2, Timestamp: 0.1, MACSrc: "aa"},
		models.Packet{Number: 3, Timestamp: 0.2, MACSrc: "bb"},
	)
	State{Column: ColumnTimestamp}.Apply(rs)
	assert.Equal(t, []int{2, 3, 1}, numbers(rs))

	State{Column: ColumnMACSrc, Desc: true}.Apply(rs)
	assert.Equal(t, []int{1, 3, 2}, numbers(rs))
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{"length", "mac_dst", "mac_src", "number", "protocol", "t_captured", "timestamp"}, Columns())
}
