package model

const (
	EntityName = "image"
	Path       = "/images/"

	FieldFacility = "facility"
	FieldImage    = "image"
	FieldCaption  = "caption"
)

// Image belongs to exactly one facility. URL is where the server stores the payload.
type Image struct {
	ID         int64  `json:"id"`
	FacilityID int64  `json:"facility,omitempty"`
	URL        string `json:"image"`
	Caption    string `json:"caption"`
}
