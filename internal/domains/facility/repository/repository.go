package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"facilitydesk/infras/facilityapi"
	"facilitydesk/infras/otel"
	"facilitydesk/internal/domains/facility/model"
	"facilitydesk/internal/domains/facility/model/dto"
	gRepo "facilitydesk/shared/repository"
)

type Facility interface {
	GetAll(ctx context.Context) ([]model.Facility, error)
	Get(ctx context.Context, id int64) (model.Facility, error)
	Insert(ctx context.Context, fields model.Fields) (model.Facility, error)
	Update(ctx context.Context, id int64, req dto.UpdateFacilityRequest) (model.Facility, error)
	SetAmenities(ctx context.Context, id int64, amenityIDs []int64) (model.Facility, error)
	Delete(ctx context.Context, id int64) error
}

type repositoryImpl struct {
	gRepo.Resource[model.Facility]
}

func New(client facilityapi.Client, otel otel.Otel) Facility {
	return &repositoryImpl{
		Resource: gRepo.NewResource[model.Facility](model.EntityName, model.Path, client, otel),
	}
}

// Insert sends only the scalar fields, the amenity set is attached afterwards.
func (r *repositoryImpl) Insert(ctx context.Context, fields model.Fields) (model.Facility, error) {
	return r.Resource.Insert(ctx, fields)
}

func (r *repositoryImpl) Update(ctx context.Context, id int64, req dto.UpdateFacilityRequest) (model.Facility, error) {
	if req.Amenities == nil {
		req.Amenities = []int64{}
	}

	return r.Resource.Update(ctx, id, req)
}

func (r *repositoryImpl) SetAmenities(ctx context.Context, id int64, amenityIDs []int64) (model.Facility, error) {
	return r.Resource.Update(ctx, id, dto.AttachAmenitiesRequest{Amenities: amenityIDs})
}
