package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"facilitydesk/infras/facilityapi"
	"facilitydesk/infras/otel"
	"facilitydesk/internal/domains/amenity/model"
	"facilitydesk/internal/domains/amenity/model/dto"
	gRepo "facilitydesk/shared/repository"
)

type Amenity interface {
	GetAll(ctx context.Context) ([]model.Amenity, error)
	Insert(ctx context.Context, name string) (model.Amenity, error)
}

type repositoryImpl struct {
	gRepo.Resource[model.Amenity]
}

func New(client facilityapi.Client, otel otel.Otel) Amenity {
	return &repositoryImpl{
		Resource: gRepo.NewResource[model.Amenity](model.EntityName, model.Path, client, otel),
	}
}

func (r *repositoryImpl) Insert(ctx context.Context, name string) (model.Amenity, error) {
	return r.Resource.Insert(ctx, dto.CreateAmenityRequest{Name: name})
}
