package view

import "caramelo/internal/models"

// Selection references the active packet by number. It survives refilters,
// resorts and new batches; only Reset clears it.
type Selection struct {
	number int
	set    bool
}

// Select makes number the active packet.
func (s *Selection) Select(number int) {
	s.number = number
	s.set = true
}

// Reset clears the selection.
func (s *Selection) Reset() {
	*s = Selection{}
}

// Number returns the selected packet number, if any.
func (s Selection) Number() (int, bool) {
	return s.number, s.set
}

// Resolve finds the selected packet in the full, unfiltered batch.
func (s Selection) Resolve(batch []models.Packet) (*models.Packet, bool) {
	if !s.set {
		return nil, false
	}
	for i := range batch {
		if batch[i].Number == s.number {
			return &batch[i], true
		}
	}
	return nil, false
}
