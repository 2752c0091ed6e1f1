package filter

import (
	"sort"

	"caramelo/internal/models"
)

// ProtocolSet is the operator's protocol facet selection. An empty set
// means no restriction.
type ProtocolSet map[string]struct{}

// Toggle flips tag in the set and reports whether it is now selected.
func (s ProtocolSet) Toggle(tag string) bool {
	if _, ok := s[tag]; ok {
		delete(s, tag)
		return false
	}
	s[tag] = struct{}{}
	return true
}

// Set forces tag on or off.
func (s ProtocolSet) Set(tag string, on bool) {
	if on {
		s[tag] = struct{}{}
	} else {
		delete(s, tag)
	}
}

func (s ProtocolSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

func (s ProtocolSet) Clear() {
	for k := range s {
		delete(s, k)
	}
}

// Selected returns the selected tags in lexical order.
func (s ProtocolSet) Selected() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Match reports whether p passes the facet filter.
func (s ProtocolSet) Match(p *models.Packet) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[p.Protocol]
	return ok
}
