package form_test

import (
	"testing"

	amenityModel "facilitydesk/internal/domains/amenity/model"
	"facilitydesk/internal/domains/facility/form"

	"github.com/stretchr/testify/assert"
)

func TestAmenitySelection_Toggle(t *testing.T) {
	tests := []struct {
		name    string
		initial []int64
		toggles []int64
		want    []int64
	}{
		{
			name:    "toggle once adds",
			toggles: []int64{3},
			want:    []int64{3},
		},
		{
			name:    "toggle once removes",
			initial: []int64{3, 5},
			toggles: []int64{3},
			want:    []int64{5},
		},
		{
			name:    "toggle twice restores absent",
			initial: []int64{5},
			toggles: []int64{3, 3},
			want:    []int64{5},
		},
		{
			name:    "toggle twice restores present",
			initial: []int64{3, 5},
			toggles: []int64{3, 3},
			want:    []int64{3, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := form.NewAmenitySelection(tt.initial...)

			for _, id := range tt.toggles {
				s.Toggle(id)
			}

			assert.Equal(t, tt.want, s.IDs())
		})
	}
}

func TestAmenitySelection_ZeroValue(t *testing.T) {
	var s form.AmenitySelection

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, []int64{}, s.IDs())
	assert.False(t, s.Has(1))

	assert.True(t, s.Toggle(1))
	assert.True(t, s.Has(1))
	assert.False(t, s.Toggle(1))
	assert.False(t, s.Has(1))
}

func TestAmenitySelection_Retain(t *testing.T) {
	s := form.NewAmenitySelection(1, 2, 9, 7)
	catalog := []amenityModel.Amenity{{ID: 1, Name: "Wifi"}, {ID: 2, Name: "Parking"}}

	dropped := s.Retain(catalog)

	assert.Equal(t, []int64{7, 9}, dropped)
	assert.Equal(t, []int64{1, 2}, s.IDs())
	assert.Empty(t, s.Retain(catalog))
}

func TestAmenitySelection_Reset(t *testing.T) {
	s := form.NewAmenitySelection(1, 2)
	s.Reset([]int64{4})

	assert.Equal(t, []int64{4}, s.IDs())
	assert.Equal(t, 1, s.Len())
}
