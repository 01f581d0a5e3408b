package form

import (
	"facilitydesk/internal/domains/facility/model"
)

// State is the editable projection of one facility owned by a single view
// session. It is never shared between sessions and never persisted.
type State struct {
	Fields        model.Fields
	Amenities     AmenitySelection
	PendingImages []ImageFile
	FieldErrors   map[string]string
}

// New returns the defaults of an empty creation form.
func New() *State {
	return &State{
		Fields: model.DefaultFields(),
	}
}

// FromFacility rebuilds the state wholesale from a fetched facility.
func FromFacility(f model.Facility) *State {
	return &State{
		Fields:    f.Fields,
		Amenities: NewAmenitySelection(f.AmenityIDs()...),
	}
}

func (s *State) AddImage(img ImageFile) {
	s.PendingImages = append(s.PendingImages, img)
}

func (s *State) ClearPendingImages() {
	s.PendingImages = nil
}

func (s *State) ClearErrors() {
	s.FieldErrors = nil
}

func (s *State) SetFieldErrors(locale string, fieldErrors map[string][]string) {
	s.FieldErrors = LocalizeFieldErrors(locale, fieldErrors)
}

func (s *State) HasErrors() bool {
	return len(s.FieldErrors) > 0
}
