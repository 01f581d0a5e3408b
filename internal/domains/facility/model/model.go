package model

import (
	amenityModel "facilitydesk/internal/domains/amenity/model"
	imageModel "facilitydesk/internal/domains/image/model"
)

const (
	EntityName = "facility"
	Path       = "/facilities/"

	FieldID               = "id"
	FieldName             = "facility_name"
	FieldCapacity         = "capacity"
	FieldDescription      = "description"
	FieldShortDescription = "short_description"
	FieldAddress          = "address"
	FieldNumParking       = "num_parking"
	FieldMapURL           = "map_url"
	FieldManagementEntity = "management_entity"
	FieldPropKey          = "prop_key"
	FieldRoomKey          = "room_key"
	FieldAmenities        = "amenities"
	FieldImages           = "images"
)

const (
	DefaultCapacity   = 1
	DefaultNumParking = 0
)

type ManagementType string

const (
	ManagementInHouse  ManagementType = "IH"
	ManagementContract ManagementType = "CM"
)

// Fields holds the scalar, user-editable attributes of a facility.
type Fields struct {
	Name                string         `json:"facility_name"`
	Capacity            int            `json:"capacity"`
	Description         string         `json:"description"`
	ShortDescription    string         `json:"short_description"`
	Address             string         `json:"address"`
	NumParkingSpaces    int            `json:"num_parking"`
	MapURL              string         `json:"map_url"`
	ManagementEntity    ManagementType `json:"management_entity"`
	ExternalPropertyKey string         `json:"prop_key"`
	ExternalRoomKey     string         `json:"room_key"`
}

// DefaultFields returns the values of an empty creation form.
func DefaultFields() Fields {
	return Fields{
		Capacity:         DefaultCapacity,
		NumParkingSpaces: DefaultNumParking,
		ManagementEntity: ManagementInHouse,
	}
}

// Facility is the read shape of a facility, with its amenities and images embedded.
type Facility struct {
	ID int64 `json:"id"`
	Fields
	Amenities []amenityModel.Amenity `json:"amenities"`
	Images    []imageModel.Image     `json:"images"`
}

func (f Facility) AmenityIDs() []int64 {
	ids := make([]int64, 0, len(f.Amenities))
	for _, a := range f.Amenities {
		ids = append(ids, a.ID)
	}

	return ids
}

func (f Facility) HasImage(id int64) bool {
	for _, img := range f.Images {
		if img.ID == id {
			return true
		}
	}

	return false
}
