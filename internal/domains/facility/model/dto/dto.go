package dto

import (
	"cmp"
	"slices"
	"strings"

	amenityDto "facilitydesk/internal/domains/amenity/model/dto"
	"facilitydesk/internal/domains/facility/form"
	"facilitydesk/internal/domains/facility/model"
	imageDto "facilitydesk/internal/domains/image/model/dto"
	gDto "facilitydesk/shared/dto"
)

// UpdateFacilityRequest is the partial update sent from the edit form:
// every scalar field plus the full amenity id set.
type UpdateFacilityRequest struct {
	model.Fields
	Amenities []int64 `json:"amenities"`
}

// AttachAmenitiesRequest only replaces the amenity set.
type AttachAmenitiesRequest struct {
	Amenities []int64 `json:"amenities"`
}

// FieldsRequest is the BFF body for the scalar fields. Pointers let a PATCH
// leave untouched fields alone; range rules are left to the remote API.
type FieldsRequest struct {
	Name                *string `json:"facility_name"`
	Capacity            *int    `json:"capacity"`
	Description         *string `json:"description"`
	ShortDescription    *string `json:"short_description"`
	Address             *string `json:"address"`
	NumParkingSpaces    *int    `json:"num_parking"`
	MapURL              *string `json:"map_url"`
	ManagementEntity    *string `json:"management_entity" validate:"omitempty,oneof=IH CM"`
	ExternalPropertyKey *string `json:"prop_key"`
	ExternalRoomKey     *string `json:"room_key"`
}

// Apply copies every provided field onto f.
func (r FieldsRequest) Apply(f *model.Fields) {
	setString(&f.Name, r.Name)
	setString(&f.Description, r.Description)
	setString(&f.ShortDescription, r.ShortDescription)
	setString(&f.Address, r.Address)
	setString(&f.MapURL, r.MapURL)
	setString(&f.ExternalPropertyKey, r.ExternalPropertyKey)
	setString(&f.ExternalRoomKey, r.ExternalRoomKey)

	if r.Capacity != nil {
		f.Capacity = *r.Capacity
	}

	if r.NumParkingSpaces != nil {
		f.NumParkingSpaces = *r.NumParkingSpaces
	}

	if r.ManagementEntity != nil {
		f.ManagementEntity = model.ManagementType(*r.ManagementEntity)
	}
}

// PatchFacilityRequest is the BFF body of PATCH /facilities/{id}. A nil
// Amenities keeps the loaded selection; Toggle flips ids one by one.
type PatchFacilityRequest struct {
	FieldsRequest
	Amenities *[]int64 `json:"amenities"`
	Toggle    []int64  `json:"toggle_amenities"`
}

// CreateFacilityRequest is the JSON body of POST /facilities. Missing fields
// keep the form defaults; images are data URLs.
type CreateFacilityRequest struct {
	FieldsRequest
	Amenities []int64      `json:"amenities"`
	Images    []ImageInput `json:"images"    validate:"dive"`
}

// ImageInput is one image sent inline as data:<mime>;base64,<payload>.
type ImageInput struct {
	Name    string `json:"name"`
	Data    string `json:"data"    validate:"required"`
	Caption string `json:"caption" validate:"max=200"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

type FacilityResponse struct {
	ID int64 `json:"id"`
	model.Fields
	Amenities []amenityDto.AmenityResponse `json:"amenities"`
	Images    []imageDto.ImageResponse     `json:"images"`
}

func (r *FacilityResponse) FromModel(m model.Facility) {
	r.ID = m.ID
	r.Fields = m.Fields
	r.Amenities = amenityDto.FromModels(m.Amenities)

	r.Images = make([]imageDto.ImageResponse, 0, len(m.Images))
	for _, img := range m.Images {
		var ir imageDto.ImageResponse
		ir.FromModel(img)
		r.Images = append(r.Images, ir)
	}
}

type FacilitySummaryResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"facility_name"`
	Capacity         int    `json:"capacity"`
	Address          string `json:"address"`
	ShortDescription string `json:"short_description"`
}

func (r *FacilitySummaryResponse) FromModel(m model.Facility) {
	r.ID = m.ID
	r.Name = m.Name
	r.Capacity = m.Capacity
	r.Address = m.Address
	r.ShortDescription = m.ShortDescription
}

// Summaries filters facilities by name, sorts them and cuts the requested
// page. It also returns the number of matches before paging. Unknown sort keys
// keep the API order.
func Summaries(facilities []model.Facility, q gDto.QueryParams) ([]FacilitySummaryResponse, int) {
	matched := make([]model.Facility, 0, len(facilities))

	search := strings.ToLower(q.Search)
	for _, f := range facilities {
		if search == "" || strings.Contains(strings.ToLower(f.Name), search) {
			matched = append(matched, f)
		}
	}

	if compare := summaryOrder(q.SortBy); compare != nil {
		slices.SortStableFunc(matched, func(a, b model.Facility) int {
			if q.Descending() {
				return compare(b, a)
			}

			return compare(a, b)
		})
	}

	start, end := q.Window(len(matched))

	resp := make([]FacilitySummaryResponse, 0, end-start)
	for _, f := range matched[start:end] {
		var summary FacilitySummaryResponse
		summary.FromModel(f)
		resp = append(resp, summary)
	}

	return resp, len(matched)
}

func summaryOrder(sortBy string) func(a, b model.Facility) int {
	switch sortBy {
	case "id":
		return func(a, b model.Facility) int { return cmp.Compare(a.ID, b.ID) }
	case "facility_name":
		return func(a, b model.Facility) int { return strings.Compare(a.Name, b.Name) }
	case "capacity":
		return func(a, b model.Facility) int { return cmp.Compare(a.Capacity, b.Capacity) }
	default:
		return nil
	}
}

type StepFailureResponse struct {
	Step    string `json:"step"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// CreateFacilityResponse reports a created facility. Failures lists the later
// steps that did not go through; PendingImages are the files still to upload.
type CreateFacilityResponse struct {
	ID            int64                 `json:"id"`
	Partial       bool                  `json:"partial"`
	Failures      []StepFailureResponse `json:"failures"`
	PendingImages []string              `json:"pending_images,omitempty"`
}

type FormResponse struct {
	model.Fields
	Amenities   []int64           `json:"amenities"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func (r *FormResponse) FromState(s *form.State) {
	r.Fields = s.Fields
	r.Amenities = s.Amenities.IDs()
	r.FieldErrors = s.FieldErrors
}

// EditViewResponse is everything the edit screen renders. Stale is set when a
// mutation went through but the reload after it failed.
type EditViewResponse struct {
	Facility  FacilityResponse             `json:"facility"`
	Amenities []amenityDto.AmenityResponse `json:"amenities"`
	Form      *FormResponse                `json:"form,omitempty"`
	Stale     bool                         `json:"stale,omitempty"`
}
