package facility

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"facilitydesk/internal/domains/facility/form"
	"facilitydesk/internal/domains/facility/model"
	"facilitydesk/internal/domains/facility/model/dto"
	imageModel "facilitydesk/internal/domains/image/model"
	"facilitydesk/shared"
	"facilitydesk/shared/constant"
	"facilitydesk/shared/failure"
	"facilitydesk/shared/validator"
)

// Multipart field names that are not facility fields.
const (
	formFieldImages   = "images"
	formFieldCaptions = "captions"
)

func isMultipart(request *http.Request) bool {
	return strings.HasPrefix(request.Header.Get(constant.RequestHeaderContentType), constant.ContentTypeMultipartFormData)
}

// readCreateRequest fills state from a JSON or multipart create request.
func (handler *Handler) readCreateRequest(request *http.Request, state *form.State) error {
	if isMultipart(request) {
		return handler.readCreateMultipart(request, state)
	}

	req := dto.CreateFacilityRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		return err //nolint:wrapcheck
	}

	req.Apply(&state.Fields)
	state.Amenities.Reset(req.Amenities)

	for _, in := range req.Images {
		img, err := form.ImageFromDataURL(in.Name, in.Data)
		if err != nil {
			return failure.BadRequest(err)
		}

		state.AddImage(img.WithCaption(in.Caption))
	}

	return nil
}

func (handler *Handler) readCreateMultipart(request *http.Request, state *form.State) error {
	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to parse multipart form: %w", err))
	}

	values := request.MultipartForm.Value

	fields, err := fieldsFromValues(values, handler.service.Locale())
	if err != nil {
		return err
	}

	fields.Apply(&state.Fields)

	ids := make([]int64, 0, len(values[model.FieldAmenities]))
	for _, raw := range values[model.FieldAmenities] {
		id, ok := shared.ParseID(raw)
		if !ok {
			return failure.Validation(form.Message(handler.service.Locale(), form.MsgInvalidValue), map[string]string{
				model.FieldAmenities: form.FieldMessage(handler.service.Locale(), model.FieldAmenities),
			})
		}

		ids = append(ids, id)
	}

	state.Amenities.Reset(ids)

	captions := values[formFieldCaptions]

	for i, fh := range request.MultipartForm.File[formFieldImages] {
		if fh.Size == 0 {
			return failure.BadRequest(fmt.Errorf("image %s: %w", fh.Filename, form.ErrEmptyImage))
		}

		img := form.ImageFromFileHeader(fh)
		if i < len(captions) {
			img = img.WithCaption(captions[i])
		}

		state.AddImage(img)
	}

	return nil
}

// fieldsFromValues reads the facility fields of a form submission. Numbers
// that do not parse are reported per field like a server-side rejection.
func fieldsFromValues(values map[string][]string, locale string) (dto.FieldsRequest, error) {
	var (
		req     dto.FieldsRequest
		invalid = map[string]string{}
	)

	text := func(field string) *string {
		if v := values[field]; len(v) > 0 {
			return &v[0]
		}

		return nil
	}

	number := func(field string) *int {
		raw := text(field)
		if raw == nil {
			return nil
		}

		n, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			invalid[field] = form.FieldMessage(locale, field)

			return nil
		}

		return &n
	}

	req.Name = text(model.FieldName)
	req.Capacity = number(model.FieldCapacity)
	req.Description = text(model.FieldDescription)
	req.ShortDescription = text(model.FieldShortDescription)
	req.Address = text(model.FieldAddress)
	req.NumParkingSpaces = number(model.FieldNumParking)
	req.MapURL = text(model.FieldMapURL)
	req.ManagementEntity = text(model.FieldManagementEntity)
	req.ExternalPropertyKey = text(model.FieldPropKey)
	req.ExternalRoomKey = text(model.FieldRoomKey)

	if len(invalid) > 0 {
		return req, failure.Validation(form.Message(locale, form.MsgInvalidValue), invalid)
	}

	return req, validator.ValidateStruct(&req) //nolint:wrapcheck
}

// readImage reads the single image of an upload request. A request without a
// file yields nil, which the editor rejects.
func readImage(request *http.Request) (*form.ImageFile, error) {
	if !isMultipart(request) {
		req := dto.ImageInput{}

		if err := validator.Validate(request.Body, &req); err != nil {
			return nil, err //nolint:wrapcheck
		}

		img, err := form.ImageFromDataURL(req.Name, req.Data)
		if err != nil {
			return nil, failure.BadRequest(err)
		}

		img = img.WithCaption(req.Caption)

		return &img, nil
	}

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		return nil, failure.BadRequest(fmt.Errorf("failed to parse multipart form: %w", err))
	}

	files := request.MultipartForm.File[imageModel.FieldImage]
	if len(files) == 0 || files[0].Size == 0 {
		return nil, nil //nolint:nilnil
	}

	img := form.ImageFromFileHeader(files[0]).WithCaption(request.FormValue(imageModel.FieldCaption))

	return &img, nil
}
