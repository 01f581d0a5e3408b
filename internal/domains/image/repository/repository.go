package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"facilitydesk/infras/facilityapi"
	"facilitydesk/infras/otel"
	"facilitydesk/internal/domains/image/model"
	"facilitydesk/internal/domains/image/model/dto"
	"facilitydesk/shared/constant"
	gRepo "facilitydesk/shared/repository"

	"github.com/rs/zerolog/log"
)

type Image interface {
	Upload(ctx context.Context, req dto.UploadImageRequest) (model.Image, error)
	Delete(ctx context.Context, id int64) error
}

type repositoryImpl struct {
	gRepo.Resource[model.Image]
	client facilityapi.Client
	otel   otel.Otel
}

func New(client facilityapi.Client, otel otel.Otel) Image {
	return &repositoryImpl{
		Resource: gRepo.NewResource[model.Image](model.EntityName, model.Path, client, otel),
		client:   client,
		otel:     otel,
	}
}

func (r *repositoryImpl) Upload(ctx context.Context, req dto.UploadImageRequest) (result model.Image, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".image.Upload")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		constant.OtelFacilityIDAttributeKey: req.FacilityID,
		"file.name":                         req.FileName,
	})

	if err = r.client.Upload(ctx, model.Path, req.ToMultipart(), &result); err != nil {
		log.Error().Err(err).Int64("facility_id", req.FacilityID).Str("file", req.FileName).Msg("failed to upload image")

		return result, fmt.Errorf("failed to upload image %s: %w", req.FileName, err)
	}

	return result, nil
}
