//go:build wireinject
// +build wireinject

package di

import (
	"facilitydesk/config"
	"facilitydesk/helper"
	"facilitydesk/infras/facilityapi"
	"facilitydesk/infras/otel"
	"facilitydesk/infras/redis"
	"facilitydesk/infras/s3"
	facilityHandler "facilitydesk/internal/handlers/facility"
	"facilitydesk/shared/cache"
	"facilitydesk/shared/lock"
	"facilitydesk/transport/http"
	"facilitydesk/transport/http/middleware"
	"facilitydesk/transport/http/router"

	amenityRepository "facilitydesk/internal/domains/amenity/repository"
	facilityRepository "facilitydesk/internal/domains/facility/repository"
	facilityService "facilitydesk/internal/domains/facility/service"
	imageRepository "facilitydesk/internal/domains/image/repository"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	otel.New,
	redis.New,
	facilityapi.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.New,
)

var facilityDomain = wire.NewSet(
	facilityRepository.New,
	amenityRepository.New,
	imageRepository.New,
	facilityService.New,
)

var domains = wire.NewSet(
	facilityDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	facilityHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeImporter() *helper.Importer {
	wire.Build(
		configurations,
		infrastructures,
		domains,
		s3.New,
		helper.NewImporter,
	)

	return &helper.Importer{}
}
