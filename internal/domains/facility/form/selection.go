package form

import (
	"slices"

	amenityModel "facilitydesk/internal/domains/amenity/model"
)

// AmenitySelection is the set of checked amenity ids. The zero value is empty
// and ready to use.
type AmenitySelection struct {
	ids map[int64]struct{}
}

func NewAmenitySelection(ids ...int64) AmenitySelection {
	var s AmenitySelection
	s.Reset(ids)

	return s
}

// Toggle flips membership of id and reports whether it is now selected.
func (s *AmenitySelection) Toggle(id int64) bool {
	if s.ids == nil {
		s.ids = make(map[int64]struct{})
	}

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)

		return false
	}

	s.ids[id] = struct{}{}

	return true
}

func (s AmenitySelection) Has(id int64) bool {
	_, ok := s.ids[id]

	return ok
}

// IDs returns the selected ids in ascending order, never nil.
func (s AmenitySelection) IDs() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Reset replaces the whole selection.
func (s *AmenitySelection) Reset(ids []int64) {
	s.ids = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Retain drops ids missing from catalog and returns the dropped ones.
func (s *AmenitySelection) Retain(catalog []amenityModel.Amenity) []int64 {
	known := make(map[int64]struct{}, len(catalog))
	for _, a := range catalog {
		known[a.ID] = struct{}{}
	}

	var dropped []int64

	for id := range s.ids {
		if _, ok := known[id]; !ok {
			delete(s.ids, id)
			dropped = append(dropped, id)
		}
	}

	slices.Sort(dropped)

	return dropped
}

func (s AmenitySelection) Len() int {
	return len(s.ids)
}
