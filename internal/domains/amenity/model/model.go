package model

const (
	EntityName = "amenity"
	Path       = "/amenities/"

	FieldID   = "id"
	FieldName = "name"
)

// Amenity is an entry of the global catalog. Names are unique server-side.
type Amenity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
