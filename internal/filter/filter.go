package filter

import "caramelo/internal/models"

// Filter combines the protocol facet and the predicate. A packet is kept
// only if it passes both.
type Filter struct {
	Protocols ProtocolSet
	Predicate *Predicate
}

// New returns a filter that passes everything.
func New() *Filter {
	return &Filter{Protocols: ProtocolSet{}}
}

// Match applies the facet first since it is the cheaper check.
func (f *Filter) Match(p *models.Packet) bool {
	return f.Protocols.Match(p) && f.Predicate.Match(p)
}

// Apply returns pointers to the packets of batch that pass, in batch order.
func (f *Filter) Apply(batch []models.Packet) []*models.Packet {
	out := make([]*models.Packet, 0, len(batch))
	for i := range batch {
		if f.Match(&batch[i]) {
			out = append(out, &batch[i])
		}
	}
	return out
}
