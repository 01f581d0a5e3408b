package facility

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"facilitydesk/infras/otel"
	amenityDto "facilitydesk/internal/domains/amenity/model/dto"
	"facilitydesk/internal/domains/facility/model/dto"
	"facilitydesk/internal/domains/facility/service"
	"facilitydesk/shared"
	"facilitydesk/shared/constant"
	gDto "facilitydesk/shared/dto"
	"facilitydesk/shared/failure"
	"facilitydesk/shared/lock"
	"facilitydesk/shared/validator"
	"facilitydesk/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const cacheKeyFacility = "facility"

type Handler struct {
	service service.Facility
	locker  lock.Locker
	otel    otel.Otel
}

func New(service service.Facility, locker lock.Locker, otel otel.Otel) Handler {
	return Handler{
		service: service,
		locker:  locker,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/facilities", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetFacilities)
		routerGroup.Post("/", handler.CreateFacility)
		routerGroup.Get("/{id}", handler.GetFacility)
		routerGroup.Patch("/{id}", handler.UpdateFacility)
		routerGroup.Delete("/{id}", handler.DeleteFacility)
		routerGroup.Post("/{id}/amenities", handler.CreateAmenity)
		routerGroup.Post("/{id}/images", handler.UploadImage)
		routerGroup.Delete("/{id}/images/{imageID}", handler.DeleteImage)
	})

	router.Route("/amenities", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetAmenities)
	})
}

// GetFacilities lists facilities, optionally searched by name, sorted and paged.
// @Summary Get all facilities
// @Tags Facility
// @Produce json
// @Param q query string false "Name search"
// @Param sort_by query string false "id, facility_name or capacity"
// @Param sort_dir query string false "ASC or DESC"
// @Param page query int false "Page"
// @Param limit query int false "Page size, all when omitted"
// @Success 200 {object} []dto.FacilitySummaryResponse
// @Failure 502 {object} response.Error
// @Router /v1/facilities [get]
func (handler *Handler) GetFacilities(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFacilities")
	defer scope.End()

	facilities, err := handler.service.List(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get facilities")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, false)

	resp, total := dto.Summaries(facilities, queryParams)
	writer.Header().Set(constant.RequestHeaderTotalCount, strconv.Itoa(total))

	scope.AddEvent("Facilities retrieved successfully")

	response.WithJSON(writer, http.StatusOK, resp)
}

// CreateFacility creates a facility, attaches its amenities and uploads its images.
// @Summary Create a new facility
// @Description Accepts JSON with data URL images or a multipart form with "images" files.
// @Description Later steps that fail are reported in "failures" while the facility is kept.
// @Tags Facility
// @Accept json,mpfd
// @Produce json
// @Param request body dto.CreateFacilityRequest true "Create Facility Request"
// @Success 201 {object} dto.CreateFacilityResponse
// @Failure 400 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/facilities [post]
func (handler *Handler) CreateFacility(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateFacility")
	defer scope.End()

	state := handler.service.NewForm()

	if err := handler.readCreateRequest(request, state); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read create facility request")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	result, err := handler.service.Create(ctx, state)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create facility")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	resp := dto.CreateFacilityResponse{
		ID:       result.FacilityID,
		Partial:  result.Partial(),
		Failures: make([]dto.StepFailureResponse, 0, len(result.Failures)),
	}

	for _, f := range result.Failures {
		resp.Failures = append(resp.Failures, dto.StepFailureResponse{
			Step:    string(f.Step),
			Count:   f.Count,
			Message: f.Err.Error(),
		})
	}

	for _, img := range state.PendingImages {
		resp.PendingImages = append(resp.PendingImages, img.Name)
	}

	scope.SetAttribute(constant.OtelFacilityIDAttributeKey, result.FacilityID)
	scope.AddEvent("Facility created successfully")

	response.WithJSON(writer, http.StatusCreated, resp)
}

// GetFacility loads the edit view of a facility.
// @Summary Get a facility by ID
// @Tags Facility
// @Produce json
// @Param id path int true "Facility ID"
// @Success 200 {object} dto.EditViewResponse
// @Failure 404 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/facilities/{id} [get]
func (handler *Handler) GetFacility(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetFacility")
	defer scope.End()

	id, ok := shared.ParseID(chi.URLParam(request, constant.RequestParamID))
	if !ok {
		response.WithError(writer, failure.InvalidIDParam)

		return
	}

	editor := handler.service.Edit(id)

	if err := editor.Load(ctx); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to get facility")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	scope.AddEvent("Facility retrieved successfully")

	response.WithJSON(writer, http.StatusOK, newView(editor, nil))
}

// UpdateFacility applies the given fields and amenity changes and saves them.
// @Summary Update a facility
// @Description Omitted fields keep their current value. "amenities" replaces the
// @Description selection, "toggle_amenities" flips single ids.
// @Tags Facility
// @Accept json
// @Produce json
// @Param id path int true "Facility ID"
// @Param request body dto.PatchFacilityRequest true "Patch Facility Request"
// @Success 200 {object} dto.EditViewResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/facilities/{id} [patch]
func (handler *Handler) UpdateFacility(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateFacility")
	defer scope.End()

	id, ok := shared.ParseID(chi.URLParam(request, constant.RequestParamID))
	if !ok {
		response.WithError(writer, failure.InvalidIDParam)

		return
	}

	req := dto.PatchFacilityRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	editor, release, err := handler.edit(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to open facility for update")

		response.WithError(writer, handler.toFailure(err))

		return
	}
	defer release()

	state := editor.Form()
	req.Apply(&state.Fields)

	if req.Amenities != nil {
		state.Amenities.Reset(*req.Amenities)
	}

	for _, amenityID := range req.Toggle {
		state.Amenities.Toggle(amenityID)
	}

	err = editor.UpdateFields(ctx)
	if failed(err) {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to update facility")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	scope.AddEvent("Facility updated successfully")

	response.WithJSON(writer, http.StatusOK, newView(editor, err))
}

// DeleteFacility removes a facility and its images.
// @Summary Delete a facility
// @Tags Facility
// @Produce json
// @Param id path int true "Facility ID"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Failure 428 {object} response.Error
// @Router /v1/facilities/{id} [delete]
func (handler *Handler) DeleteFacility(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteFacility")
	defer scope.End()

	id, ok := shared.ParseID(chi.URLParam(request, constant.RequestParamID))
	if !ok {
		response.WithError(writer, failure.InvalidIDParam)

		return
	}

	editor, release, err := handler.edit(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to open facility for deletion")

		response.WithError(writer, handler.toFailure(err))

		return
	}
	defer release()

	if err = editor.DeleteFacility(ctx, confirmed(request)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to delete facility")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	scope.AddEvent("Facility deleted successfully")

	response.WithMessage(writer, http.StatusOK, "Facility deleted successfully")
}

// CreateAmenity adds an amenity to the shared catalog from the edit screen.
// @Summary Create an amenity
// @Tags Facility
// @Accept json
// @Produce json
// @Param id path int true "Facility ID"
// @Param request body amenityDto.CreateAmenityRequest true "Create Amenity Request"
// @Success 201 {object} dto.EditViewResponse
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/facilities/{id}/amenities [post]
func (handler *Handler) CreateAmenity(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateAmenity")
	defer scope.End()

	id, ok := shared.ParseID(chi.URLParam(request, constant.RequestParamID))
	if !ok {
		response.WithError(writer, failure.InvalidIDParam)

		return
	}

	req := amenityDto.CreateAmenityRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == constant.Empty {
		scope.TraceError(service.ErrEmptyAmenityName)

		response.WithError(writer, handler.toFailure(service.ErrEmptyAmenityName))

		return
	}

	editor, release, err := handler.edit(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to open facility for amenity creation")

		response.WithError(writer, handler.toFailure(err))

		return
	}
	defer release()

	err = editor.CreateAmenity(ctx, req.Name)
	if failed(err) {
		scope.TraceError(err)
		log.Error().Err(err).Str("name", req.Name).Msg("failed to create amenity")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	scope.AddEvent("Amenity created successfully")

	response.WithJSON(writer, http.StatusCreated, newView(editor, err))
}

// UploadImage attaches one image to a facility.
// @Summary Upload a facility image
// @Description Accepts a multipart form with an "image" file and "caption",
// @Description or JSON with a data URL.
// @Tags Facility
// @Accept mpfd,json
// @Produce json
// @Param id path int true "Facility ID"
// @Success 201 {object} dto.EditViewResponse
// @Failure 400 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/facilities/{id}/images [post]
func (handler *Handler) UploadImage(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadImage")
	defer scope.End()

	id, ok := shared.ParseID(chi.URLParam(request, constant.RequestParamID))
	if !ok {
		response.WithError(writer, failure.InvalidIDParam)

		return
	}

	file, err := readImage(request)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read image")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	editor, release, err := handler.edit(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to open facility for image upload")

		response.WithError(writer, handler.toFailure(err))

		return
	}
	defer release()

	err = editor.UploadImage(ctx, file)
	if failed(err) {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to upload image")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	scope.AddEvent("Image uploaded successfully")

	response.WithJSON(writer, http.StatusCreated, newView(editor, err))
}

// DeleteImage removes one image of a facility.
// @Summary Delete a facility image
// @Tags Facility
// @Produce json
// @Param id path int true "Facility ID"
// @Param imageID path int true "Image ID"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} dto.EditViewResponse
// @Failure 404 {object} response.Error
// @Failure 428 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/facilities/{id}/images/{imageID} [delete]
func (handler *Handler) DeleteImage(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteImage")
	defer scope.End()

	id, ok := shared.ParseID(chi.URLParam(request, constant.RequestParamID))
	if !ok {
		response.WithError(writer, failure.InvalidIDParam)

		return
	}

	imageID, ok := shared.ParseID(chi.URLParam(request, constant.RequestParamImageID))
	if !ok {
		response.WithError(writer, failure.InvalidIDParam)

		return
	}

	editor, release, err := handler.edit(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Int64("facility_id", id).Msg("failed to open facility for image deletion")

		response.WithError(writer, handler.toFailure(err))

		return
	}
	defer release()

	err = editor.DeleteImage(ctx, imageID, confirmed(request))
	if failed(err) {
		scope.TraceError(err)
		log.Error().Err(err).Int64("image_id", imageID).Msg("failed to delete image")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	scope.AddEvent("Image deleted successfully")

	response.WithJSON(writer, http.StatusOK, newView(editor, err))
}

// GetAmenities lists the shared amenity catalog.
// @Summary Get all amenities
// @Tags Amenity
// @Produce json
// @Success 200 {object} []amenityDto.AmenityResponse
// @Failure 502 {object} response.Error
// @Router /v1/amenities [get]
func (handler *Handler) GetAmenities(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAmenities")
	defer scope.End()

	amenities, err := handler.service.Amenities(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get amenities")

		response.WithError(writer, handler.toFailure(err))

		return
	}

	scope.AddEvent("Amenities retrieved successfully")

	response.WithJSON(writer, http.StatusOK, amenityDto.FromModels(amenities))
}

// edit locks the facility for the rest of the request and loads its session.
func (handler *Handler) edit(ctx context.Context, id int64) (*service.Editor, lock.Release, error) {
	release, err := handler.locker.Acquire(ctx, shared.BuildCacheKey(cacheKeyFacility, strconv.FormatInt(id, 10)))
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}

	editor := handler.service.Edit(id)

	if err = editor.Load(ctx); err != nil {
		release()

		return nil, nil, err //nolint:wrapcheck
	}

	return editor, release, nil
}

// failed reports whether err should fail the request. A stale view still
// answers with the data loaded before the mutation.
func failed(err error) bool {
	return err != nil && !errors.Is(err, service.ErrStaleView)
}

func confirmed(request *http.Request) bool {
	return shared.IsTrue(request.URL.Query().Get(constant.RequestParamConfirm))
}

func newView(editor *service.Editor, err error) dto.EditViewResponse {
	view := dto.EditViewResponse{
		Amenities: amenityDto.FromModels(editor.Catalog()),
		Stale:     errors.Is(err, service.ErrStaleView),
	}

	view.Facility.FromModel(editor.Facility())

	if state := editor.Form(); state != nil {
		view.Form = &dto.FormResponse{}
		view.Form.FromState(state)
	}

	return view
}
