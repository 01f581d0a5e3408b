package repository

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"facilitydesk/infras/facilityapi"
	"facilitydesk/infras/otel"
	"facilitydesk/shared/constant"

	"github.com/rs/zerolog/log"
)

const otelAttrID = "record.id"

// Resource is a REST collection on the remote API, addressed as
// <path> and <path><id>/.
type Resource[T any] struct {
	client  facilityapi.Client
	otel    otel.Otel
	entitas string
	path    string
}

func NewResource[T any](entitasName, path string, client facilityapi.Client, otl otel.Otel) Resource[T] {
	return Resource[T]{
		client:  client,
		otel:    otl,
		entitas: entitasName,
		path:    path,
	}
}

// ItemPath returns the path of a single record.
func (repo *Resource[T]) ItemPath(id int64) string {
	return repo.path + strconv.FormatInt(id, 10) + "/"
}

func (repo *Resource[T]) GetAll(ctx context.Context) (result []T, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.GetAll", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = repo.client.Do(ctx, http.MethodGet, repo.path, nil, &result); err != nil {
		log.Error().Err(err).Str("entity", repo.entitas).Msg("failed to list records")

		return nil, fmt.Errorf("failed to list %s: %w", repo.entitas, err)
	}

	return result, nil
}

func (repo *Resource[T]) Get(ctx context.Context, id int64) (result T, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Get", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelAttrID, id)

	if err = repo.client.Do(ctx, http.MethodGet, repo.ItemPath(id), nil, &result); err != nil {
		return result, fmt.Errorf("failed to get %s %d: %w", repo.entitas, id, err)
	}

	return result, nil
}

// Insert posts body to the collection and decodes the created record.
func (repo *Resource[T]) Insert(ctx context.Context, body any) (result T, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Insert", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = repo.client.Do(ctx, http.MethodPost, repo.path, body, &result); err != nil {
		return result, fmt.Errorf("failed to insert %s: %w", repo.entitas, err)
	}

	return result, nil
}

// Update sends body as a partial update and decodes the updated record.
func (repo *Resource[T]) Update(ctx context.Context, id int64, body any) (result T, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Update", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelAttrID, id)

	if err = repo.client.Do(ctx, http.MethodPatch, repo.ItemPath(id), body, &result); err != nil {
		return result, fmt.Errorf("failed to update %s %d: %w", repo.entitas, id, err)
	}

	return result, nil
}

func (repo *Resource[T]) Delete(ctx context.Context, id int64) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.Delete", constant.OtelRepositoryScopeName, repo.entitas))
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = repo.client.Do(ctx, http.MethodDelete, repo.ItemPath(id), nil, nil); err != nil {
		log.Error().Err(err).Str("entity", repo.entitas).Int64("id", id).Msg("failed to delete record")

		return fmt.Errorf("failed to delete %s %d: %w", repo.entitas, id, err)
	}

	return nil
}
