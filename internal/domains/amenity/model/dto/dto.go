package dto

import "facilitydesk/internal/domains/amenity/model"

type CreateAmenityRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AmenityResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (r *AmenityResponse) FromModel(m model.Amenity) {
	r.ID = m.ID
	r.Name = m.Name
}

func FromModels(models []model.Amenity) []AmenityResponse {
	resp := make([]AmenityResponse, 0, len(models))

	for _, m := range models {
		var r AmenityResponse
		r.FromModel(m)
		resp = append(resp, r)
	}

	return resp
}
