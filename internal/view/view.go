// Package view holds one operator's query state and turns a packet batch
// into the rows and detail panel that operator sees.
package view

import (
	"time"

	"caramelo/internal/dissect"
	"caramelo/internal/filter"
	"caramelo/internal/metrics"
	"caramelo/internal/models"
	"caramelo/internal/order"
)

// Row is one table row.
type Row struct {
	Packet models.Packet `json:"packet"`
	Src    string        `json:"src"`
	Dst    string        `json:"dst"`
	Info   string        `json:"info"`
	Active bool          `json:"active,omitempty"`
}

// Facet is one entry of the protocol dropdown.
type Facet struct {
	Protocol string `json:"protocol"`
	Count    int    `json:"count"`
	Selected bool   `json:"selected"`
}

// Detail is the detail panel. When Available is false the selected packet
// (if any) is not in the current batch.
type Detail struct {
	Available   bool                 `json:"available"`
	Number      *int                 `json:"number,omitempty"`
	Packet      *models.Packet       `json:"packet,omitempty"`
	Description *dissect.Description `json:"description,omitempty"`
}

// View is everything a client needs to render the table and panel.
type View struct {
	Rows           []Row       `json:"rows"`
	Total          int         `json:"total"`
	Visible        int         `json:"visible"`
	Facets         []Facet     `json:"facets"`
	Predicate      string      `json:"predicate"`
	PredicateError string      `json:"predicateError,omitempty"`
	Sort           order.State `json:"sort"`
	Active         *int        `json:"active,omitempty"`
	Detail         Detail      `json:"detail"`
}

// Numbers returns the packet numbers of the rows in display order.
func (v View) Numbers() []int {
	out := make([]int, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Packet.Number
	}
	return out
}

// State is one operator's filter, sort and selection.
type State struct {
	Filter    *filter.Filter
	Sort      order.State
	Selection Selection
}

// NewState returns an unfiltered, unsorted state with nothing selected.
func NewState() *State {
	return &State{Filter: filter.New()}
}

// Compute filters, sorts and resolves the selection against batch. It does
// not modify batch or the state, so repeated calls give the same view.
func (s *State) Compute(batch []models.Packet) View {
	start := time.Now()
	defer func() { metrics.ViewComputeSeconds.Observe(time.Since(start).Seconds()) }()

	rows := s.Filter.Apply(batch)
	if s.Sort.Active() {
		s.Sort.Apply(rows)
	}

	v := View{
		Rows:      make([]Row, len(rows)),
		Total:     len(batch),
		Visible:   len(rows),
		Facets:    s.facets(batch),
		Predicate: s.Filter.Predicate.Source(),
		Sort:      s.Sort,
	}
	if err := s.Filter.Predicate.Err(); err != nil {
		v.PredicateError = err.Error()
	}

	selected, hasSelection := s.Selection.Number()
	for i, p := range rows {
		src, dst, info := dissect.Summarize(p)
		v.Rows[i] = Row{Packet: *p, Src: src, Dst: dst, Info: info}
		if hasSelection && p.Number == selected {
			v.Rows[i].Active = true
			n := selected
			v.Active = &n
		}
	}

	if hasSelection {
		n := selected
		v.Detail.Number = &n
	}
	if p, ok := s.Selection.Resolve(batch); ok {
		desc := dissect.Describe(p)
		pkt := *p
		v.Detail.Available = true
		v.Detail.Packet = &pkt
		v.Detail.Description = &desc
	}
	return v
}

// facets lists the batch's protocols in first-seen order, followed by any
// selected protocol the batch no longer contains so it can be deselected.
func (s *State) facets(batch []models.Packet) []Facet {
	index := make(map[string]int)
	out := []Facet{}
	for i := range batch {
		proto := batch[i].Protocol
		if j, ok := index[proto]; ok {
			out[j].Count++
			continue
		}
		index[proto] = len(out)
		out = append(out, Facet{Protocol: proto, Count: 1, Selected: s.Filter.Protocols.Has(proto)})
	}
	for _, proto := range s.Filter.Protocols.Selected() {
		if _, ok := index[proto]; !ok {
			out = append(out, Facet{Protocol: proto, Selected: true})
		}
	}
	return out
}
