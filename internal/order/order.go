// Package order sorts view rows by a single operator-selected column.
package order

import (
	"fmt"
	"sort"
	"strings"

	"caramelo/internal/models"
)

// Column names, matching the table headers' accessor keys.
const (
	ColumnNumber    = "number"
	ColumnTimestamp = "timestamp"
	ColumnCaptured  = "t_captured"
	ColumnMACSrc    = "mac_src"
	ColumnMACDst    = "mac_dst"
	ColumnProtocol  = "protocol"
	ColumnLength    = "length"
)

type compareFunc func(a, b *models.Packet) int

var columns = map[string]compareFunc{
	ColumnNumber:    func(a, b *models.Packet) int { return cmpInt(a.Number, b.Number) },
	ColumnTimestamp: func(a, b *models.Packet) int { return cmpFloat(a.Timestamp, b.Timestamp) },
	ColumnCaptured:  func(a, b *models.Packet) int { return cmpFloat(a.TCaptured, b.TCaptured) },
	ColumnMACSrc:    func(a, b *models.Packet) int { return strings.Compare(a.MACSrc, b.MACSrc) },
	ColumnMACDst:    func(a, b *models.Packet) int { return strings.Compare(a.MACDst, b.MACDst) },
	ColumnProtocol:  func(a, b *models.Packet) int { return strings.Compare(a.Protocol, b.Protocol) },
	ColumnLength:    func(a, b *models.Packet) int { return cmpInt(a.Length, b.Length) },
}

// Columns returns the sortable column names in lexical order.
func Columns() []string {
	out := make([]string, 0, len(columns))
	for name := range columns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// State is the active sort. The zero value means unsorted.
type State struct {
	Column string `json:"column,omitempty"`
	Desc   bool   `json:"desc"`
}

// Select applies a header click: the active column flips direction, any
// other column becomes active in ascending order.
func (s *State) Select(column string) error {
	if _, ok := columns[column]; !ok {
		return fmt.Errorf("unknown sort column %q (sortable: %s)", column, strings.Join(Columns(), ", "))
	}
	if s.Column == column {
		s.Desc = !s.Desc
		return nil
	}
	s.Column = column
	s.Desc = false
	return nil
}

// Clear returns to capture order.
func (s *State) Clear() {
	*s = State{}
}

// Active reports whether a column is selected.
func (s State) Active() bool {
	return s.Column != ""
}

// Apply sorts rows in place. The sort is stable, and with no active column
// rows keep their incoming order.
func (s State) Apply(rows []*models.Packet) {
	cmp, ok := columns[s.Column]
	if !ok {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := cmp(rows[i], rows[j])
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
