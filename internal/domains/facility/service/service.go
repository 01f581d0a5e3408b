package service

import (
	"context"

	"facilitydesk/config"
	"facilitydesk/infras/otel"
	amenityModel "facilitydesk/internal/domains/amenity/model"
	amenityRepo "facilitydesk/internal/domains/amenity/repository"
	"facilitydesk/internal/domains/facility/form"
	"facilitydesk/internal/domains/facility/model"
	facilityRepo "facilitydesk/internal/domains/facility/repository"
	imageRepo "facilitydesk/internal/domains/image/repository"
	"facilitydesk/shared/constant"

	"github.com/rs/zerolog/log"
)

// Facility is the entry point of the views. Create and Edit hand out
// objects owned by a single view; nothing here keeps per-view state.
type Facility interface {
	List(ctx context.Context) ([]model.Facility, error)
	Amenities(ctx context.Context) ([]amenityModel.Amenity, error)
	NewForm() *form.State
	Create(ctx context.Context, state *form.State) (CreateResult, error)
	Edit(id int64) *Editor
	Locale() string
}

type serviceImpl struct {
	facilities facilityRepo.Facility
	amenities  amenityRepo.Amenity
	images     imageRepo.Image
	cfg        *config.Config
	otel       otel.Otel
	creator    *Creator
}

func New(facilities facilityRepo.Facility, amenities amenityRepo.Amenity, images imageRepo.Image, cfg *config.Config, otel otel.Otel) Facility {
	return &serviceImpl{
		facilities: facilities,
		amenities:  amenities,
		images:     images,
		cfg:        cfg,
		otel:       otel,
		creator:    NewCreator(facilities, images, otel, cfg.App.Locale, cfg.API.MaxParallelUploads),
	}
}

func (s *serviceImpl) List(ctx context.Context) (result []model.Facility, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".List")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	result, err = s.facilities.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list facilities")

		return nil, newTransportError("list facilities", s.cfg.App.Locale, form.MsgListFailed, err)
	}

	return result, nil
}

func (s *serviceImpl) Amenities(ctx context.Context) (result []amenityModel.Amenity, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Amenities")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	result, err = s.amenities.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list amenities")

		return nil, newTransportError("list amenities", s.cfg.App.Locale, form.MsgLoadAmenitiesFailed, err)
	}

	return result, nil
}

func (s *serviceImpl) NewForm() *form.State {
	return form.New()
}

func (s *serviceImpl) Create(ctx context.Context, state *form.State) (CreateResult, error) {
	return s.creator.Submit(ctx, state)
}

func (s *serviceImpl) Edit(id int64) *Editor {
	return NewEditor(id, s.facilities, s.amenities, s.images, s.otel, s.cfg.App.Locale)
}

func (s *serviceImpl) Locale() string {
	return s.cfg.App.Locale
}
