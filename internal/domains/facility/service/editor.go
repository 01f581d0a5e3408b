package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"facilitydesk/infras/facilityapi"
	"facilitydesk/infras/otel"
	amenityModel "facilitydesk/internal/domains/amenity/model"
	amenityRepo "facilitydesk/internal/domains/amenity/repository"
	"facilitydesk/internal/domains/facility/form"
	"facilitydesk/internal/domains/facility/model"
	"facilitydesk/internal/domains/facility/model/dto"
	facilityRepo "facilitydesk/internal/domains/facility/repository"
	imageDto "facilitydesk/internal/domains/image/model/dto"
	imageRepo "facilitydesk/internal/domains/image/repository"
	"facilitydesk/shared/constant"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type SessionState int

const (
	StateLoading SessionState = iota + 1
	StateReady
	StateLoadFailed
	StateSubmitting
	StateDeleted
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadFailed:
		return "load_failed"
	case StateSubmitting:
		return "submitting"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

type Op string

const (
	OpLoad           Op = "load"
	OpUpdateFields   Op = "update_fields"
	OpCreateAmenity  Op = "create_amenity"
	OpUploadImage    Op = "upload_image"
	OpDeleteImage    Op = "delete_image"
	OpDeleteFacility Op = "delete_facility"
)

// Editor is the edit session of one facility for one view. It keeps the
// fetched facility, the amenity catalog and the form, and allows a single
// operation at a time.
type Editor struct {
	facilities facilityRepo.Facility
	amenities  amenityRepo.Amenity
	images     imageRepo.Image
	otel       otel.Otel
	locale     string
	id         int64

	mu       sync.Mutex
	state    SessionState
	op       Op
	facility model.Facility
	catalog  []amenityModel.Amenity
	form     *form.State
	loadErr  error
}

func NewEditor(id int64, facilities facilityRepo.Facility, amenities amenityRepo.Amenity, images imageRepo.Image, otel otel.Otel, locale string) *Editor {
	return &Editor{
		facilities: facilities,
		amenities:  amenities,
		images:     images,
		otel:       otel,
		locale:     locale,
		id:         id,
		state:      StateLoading,
	}
}

func (e *Editor) ID() int64 {
	return e.id
}

func (e *Editor) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Op returns the operation in flight, empty when idle.
func (e *Editor) Op() Op {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.op
}

func (e *Editor) Facility() model.Facility {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.facility
}

func (e *Editor) Catalog() []amenityModel.Amenity {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.catalog
}

// Form returns the session's form. It is rebuilt after every successful
// mutation, so callers must not keep it across operations.
func (e *Editor) Form() *form.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.form
}

// LoadErr returns the error that put the session in StateLoadFailed.
func (e *Editor) LoadErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loadErr
}

// Load fetches the facility and the amenity catalog concurrently. Both must
// succeed; on success the form is rebuilt from the facility.
func (e *Editor) Load(ctx context.Context) (err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Load")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(constant.OtelFacilityIDAttributeKey, e.id)

	e.mu.Lock()
	switch {
	case e.state == StateDeleted:
		e.mu.Unlock()

		return ErrSessionClosed
	case e.op != "":
		e.mu.Unlock()

		return ErrOperationInFlight
	}

	e.op = OpLoad
	if e.state != StateReady {
		e.state = StateLoading
	}
	e.mu.Unlock()

	facility, catalog, err := e.fetch(ctx, true)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.op = ""

	if err != nil {
		log.Error().Err(err).Int64("facility_id", e.id).Msg("failed to load facility")

		e.state = StateLoadFailed
		e.loadErr = err

		return err
	}

	e.apply(facility, catalog)

	return nil
}

// UpdateFields sends every scalar field and the amenity set, with ids that
// are not in the catalog dropped. A rejected update leaves the form untouched.
func (e *Editor) UpdateFields(ctx context.Context) (err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UpdateFields")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = e.begin(OpUpdateFields); err != nil {
		return err
	}
	defer e.end()

	e.mu.Lock()
	e.form.ClearErrors()

	selection := form.NewAmenitySelection(e.form.Amenities.IDs()...)
	if dropped := selection.Retain(e.catalog); len(dropped) > 0 {
		log.Warn().Int64("facility_id", e.id).Ints64("amenity_ids", dropped).Msg("dropping amenities missing from the catalog")
	}

	req := dto.UpdateFacilityRequest{
		Fields:    e.form.Fields,
		Amenities: selection.IDs(),
	}
	e.mu.Unlock()

	if _, err = e.facilities.Update(ctx, e.id, req); err != nil {
		log.Error().Err(err).Int64("facility_id", e.id).Msg("failed to update facility")

		return newUpdateError(e.locale, err)
	}

	return e.refresh(ctx, true)
}

// CreateAmenity adds name to the global catalog and reloads the facility
// and the catalog.
func (e *Editor) CreateAmenity(ctx context.Context, name string) (err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreateAmenity")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = e.ready(); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == constant.Empty {
		return ErrEmptyAmenityName
	}

	if err = e.begin(OpCreateAmenity); err != nil {
		return err
	}
	defer e.end()

	if _, err = e.amenities.Insert(ctx, name); err != nil {
		if isDuplicateName(err, amenityModel.FieldName) {
			return ErrAmenityExists
		}

		log.Error().Err(err).Str("name", name).Msg("failed to create amenity")

		return newTransportError("create amenity", e.locale, form.MsgAmenityCreateFailed, err)
	}

	return e.refresh(ctx, true)
}

// UploadImage attaches file to the facility and reloads the facility.
func (e *Editor) UploadImage(ctx context.Context, file *form.ImageFile) (err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadImage")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = e.ready(); err != nil {
		return err
	}

	if file == nil {
		return ErrNoImageSelected
	}

	if err = e.begin(OpUploadImage); err != nil {
		return err
	}
	defer e.end()

	body, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer body.Close()

	_, err = e.images.Upload(ctx, imageDto.UploadImageRequest{
		FacilityID:  e.id,
		FileName:    file.Name,
		ContentType: file.ContentType,
		Caption:     file.Caption,
		Body:        body,
	})
	if err != nil {
		return newTransportError("upload image", e.locale, form.MsgImageUploadFailed, err)
	}

	return e.refresh(ctx, false)
}

// DeleteImage removes one image of the facility once confirmed. Images of
// other facilities are reported as not found.
func (e *Editor) DeleteImage(ctx context.Context, imageID int64, confirmed bool) (err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteImage")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = e.ready(); err != nil {
		return err
	}

	if !confirmed {
		return ErrConfirmationRequired
	}

	if err = e.begin(OpDeleteImage); err != nil {
		return err
	}
	defer e.end()

	// the lock held is this facility's, so only its own images qualify
	if !e.Facility().HasImage(imageID) {
		return ErrImageNotFound
	}

	if err = e.images.Delete(ctx, imageID); err != nil {
		return newTransportError("delete image", e.locale, form.MsgImageDeleteFailed, err)
	}

	return e.refresh(ctx, false)
}

// DeleteFacility removes the facility and its images once confirmed. On
// success the session is closed for good.
func (e *Editor) DeleteFacility(ctx context.Context, confirmed bool) (err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeleteFacility")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = e.ready(); err != nil {
		return err
	}

	if !confirmed {
		return ErrConfirmationRequired
	}

	if err = e.begin(OpDeleteFacility); err != nil {
		return err
	}
	defer e.end()

	if err = e.facilities.Delete(ctx, e.id); err != nil {
		return newTransportError("delete facility", e.locale, form.MsgDeleteFailed, err)
	}

	e.mu.Lock()
	e.state = StateDeleted
	e.form = nil
	e.mu.Unlock()

	log.Info().Int64("facility_id", e.id).Msg("facility deleted")

	return nil
}

// ready checks that a mutation could start, without claiming the session.
func (e *Editor) ready() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.checkLocked()
}

func (e *Editor) checkLocked() error {
	switch {
	case e.state == StateDeleted:
		return ErrSessionClosed
	case e.op != "":
		return ErrOperationInFlight
	case e.state != StateReady:
		return ErrNotLoaded
	}

	return nil
}

func (e *Editor) begin(op Op) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkLocked(); err != nil {
		return err
	}

	e.state = StateSubmitting
	e.op = op

	return nil
}

func (e *Editor) end() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateSubmitting {
		e.state = StateReady
	}

	e.op = ""
}

// refresh replaces the session data wholesale after a successful mutation.
// The mutation already happened, so a failed reload is reported as stale.
func (e *Editor) refresh(ctx context.Context, withCatalog bool) error {
	facility, catalog, err := e.fetch(ctx, withCatalog)
	if err != nil {
		log.Error().Err(err).Int64("facility_id", e.id).Msg("failed to reload facility")

		return fmt.Errorf("%w: %w", ErrStaleView, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !withCatalog {
		catalog = e.catalog
	}

	e.apply(facility, catalog)

	return nil
}

func (e *Editor) apply(facility model.Facility, catalog []amenityModel.Amenity) {
	e.facility = facility
	e.catalog = catalog
	e.form = form.FromFacility(facility)
	e.form.Amenities.Retain(catalog)
	e.loadErr = nil

	if e.state != StateSubmitting {
		e.state = StateReady
	}
}

func (e *Editor) fetch(ctx context.Context, withCatalog bool) (model.Facility, []amenityModel.Amenity, error) {
	var (
		facility model.Facility
		catalog  []amenityModel.Amenity
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := e.facilities.Get(gctx, e.id)
		if err != nil {
			if facilityapi.IsNotFound(err) {
				return ErrFacilityNotFound
			}

			return newTransportError("get facility", e.locale, form.MsgLoadFacilityFailed, err)
		}

		facility = f

		return nil
	})

	if withCatalog {
		g.Go(func() error {
			list, err := e.amenities.GetAll(gctx)
			if err != nil {
				return newTransportError("list amenities", e.locale, form.MsgLoadAmenitiesFailed, err)
			}

			catalog = list

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.Facility{}, nil, err
	}

	return facility, catalog, nil
}
