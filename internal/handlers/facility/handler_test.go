package facility_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"facilitydesk/config"
	"facilitydesk/infras/facilityapi"
	"facilitydesk/infras/otel/mocks"
	amenityDto "facilitydesk/internal/domains/amenity/model/dto"
	amenityRepo "facilitydesk/internal/domains/amenity/repository"
	"facilitydesk/internal/domains/facility/model"
	"facilitydesk/internal/domains/facility/model/dto"
	facilityRepo "facilitydesk/internal/domains/facility/repository"
	"facilitydesk/internal/domains/facility/service"
	imageRepo "facilitydesk/internal/domains/image/repository"
	"facilitydesk/internal/handlers/facility"
	"facilitydesk/internal/testsupport/fakeapi"
	"facilitydesk/shared/constant"
	"facilitydesk/shared/lock"
	"facilitydesk/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent png
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

var seaHouse = model.Fields{
	Name:             "Sea House",
	Capacity:         4,
	Address:          "Naha",
	ManagementEntity: model.ManagementInHouse,
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type testEnv struct {
	router chi.Router
	api    *fakeapi.Server
	locker lock.Locker
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	api := fakeapi.New()
	ot := mocks.NewOtel()
	client := facilityapi.NewWithHTTPClient(api.Start(t), "facilitydesk-test", &http.Client{}, ot)

	cfg := &config.Config{}
	cfg.App.Locale = constant.LocaleEN

	svc := service.New(facilityRepo.New(client, ot), amenityRepo.New(client, ot), imageRepo.New(client, ot), cfg, ot)
	locker := lock.NewLocal()
	handler := facility.New(svc, locker, ot)

	router := chi.NewRouter()
	router.Route("/v1", handler.Router)

	return testEnv{router: router, api: api, locker: locker}
}

func (env testEnv) do(t *testing.T, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(constant.RequestHeaderContentType, contentType)
	}

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	return rec
}

func (env testEnv) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		return env.do(t, method, path, "", nil)
	}

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	return env.do(t, method, path, constant.ContentTypeJSON, bytes.NewReader(raw))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.Error {
	t.Helper()

	var out response.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	require.NotNil(t, out.Error)

	return out
}

func dataURL(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

type part struct {
	field string
	value string
	file  []byte
}

func multipartBody(t *testing.T, parts ...part) (string, io.Reader) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range parts {
		if p.file == nil {
			require.NoError(t, w.WriteField(p.field, p.value))

			continue
		}

		fw, err := w.CreateFormFile(p.field, p.value)
		require.NoError(t, err)

		_, err = fw.Write(p.file)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return w.FormDataContentType(), &buf
}

func TestCreateFacility_JSON(t *testing.T) {
	env := newTestEnv(t)
	wifi := env.api.SeedAmenity("Wifi")

	rec := env.doJSON(t, http.MethodPost, "/v1/facilities", map[string]any{
		model.FieldName:      "Forest Cabin",
		model.FieldCapacity:  6,
		model.FieldAddress:   "Nagano",
		model.FieldAmenities: []int64{wifi.ID},
		model.FieldImages: []map[string]string{
			{"name": "front.png", "data": dataURL(pngBytes), "caption": "front"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[dto.CreateFacilityResponse](t, rec)
	assert.NotZero(t, created.ID)
	assert.False(t, created.Partial)
	assert.Empty(t, created.Failures)
	assert.Empty(t, created.PendingImages)

	stored, ok := env.api.Facility(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Forest Cabin", stored.Name)
	assert.Equal(t, model.ManagementInHouse, stored.ManagementEntity)
	assert.Equal(t, []int64{wifi.ID}, stored.AmenityIDs())
	require.Len(t, stored.Images, 1)
	assert.Equal(t, "front", stored.Images[0].Caption)
}

func TestCreateFacility_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		body        func(t *testing.T) (string, io.Reader)
		wantFields  map[string]string
		wantAPICall bool
	}{
		{
			name: "server rejects capacity",
			body: func(t *testing.T) (string, io.Reader) {
				raw, err := json.Marshal(map[string]any{model.FieldName: "Big", model.FieldCapacity: 21, model.FieldAddress: "Osaka"})
				require.NoError(t, err)

				return constant.ContentTypeJSON, bytes.NewReader(raw)
			},
			wantFields:  map[string]string{model.FieldCapacity: "Capacity must be between 1 and 20."},
			wantAPICall: true,
		},
		{
			name: "multipart capacity is not a number",
			body: func(t *testing.T) (string, io.Reader) {
				return multipartBody(t,
					part{field: model.FieldName, value: "Big"},
					part{field: model.FieldCapacity, value: "many"},
					part{field: model.FieldAddress, value: "Osaka"},
				)
			},
			wantFields: map[string]string{model.FieldCapacity: "Capacity must be between 1 and 20."},
		},
		{
			name: "multipart amenity is not an id",
			body: func(t *testing.T) (string, io.Reader) {
				return multipartBody(t,
					part{field: model.FieldName, value: "Big"},
					part{field: model.FieldAddress, value: "Osaka"},
					part{field: model.FieldAmenities, value: "wifi"},
				)
			},
			wantFields: map[string]string{model.FieldAmenities: "Invalid value."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			contentType, body := tt.body(t)
			rec := env.do(t, http.MethodPost, "/v1/facilities", contentType, body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			errResp := decodeError(t, rec)
			assert.Equal(t, tt.wantFields, errResp.FieldErrors)
			assert.Zero(t, env.api.FacilityCount())
			assert.Equal(t, tt.wantAPICall, env.api.TotalCalls() > 0)
		})
	}
}

func TestCreateFacility_Multipart(t *testing.T) {
	env := newTestEnv(t)
	wifi := env.api.SeedAmenity("Wifi")
	sauna := env.api.SeedAmenity("Sauna")

	contentType, body := multipartBody(t,
		part{field: model.FieldName, value: "Sea House"},
		part{field: model.FieldCapacity, value: "8"},
		part{field: model.FieldAddress, value: "Naha"},
		part{field: model.FieldNumParking, value: "2"},
		part{field: model.FieldManagementEntity, value: string(model.ManagementContract)},
		part{field: model.FieldAmenities, value: fmt.Sprint(wifi.ID)},
		part{field: model.FieldAmenities, value: fmt.Sprint(sauna.ID)},
		part{field: "images", value: "a.png", file: pngBytes},
		part{field: "images", value: "b.png", file: pngBytes},
		part{field: "captions", value: "first"},
	)

	rec := env.do(t, http.MethodPost, "/v1/facilities", contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[dto.CreateFacilityResponse](t, rec)

	stored, ok := env.api.Facility(created.ID)
	require.True(t, ok)
	assert.Equal(t, 8, stored.Capacity)
	assert.Equal(t, 2, stored.NumParkingSpaces)
	assert.Equal(t, model.ManagementContract, stored.ManagementEntity)
	assert.ElementsMatch(t, []int64{wifi.ID, sauna.ID}, stored.AmenityIDs())
	assert.Len(t, stored.Images, 2)
	assert.Equal(t, 2, env.api.Calls(fakeapi.UploadImage))
}

func TestCreateFacility_PartialUpload(t *testing.T) {
	env := newTestEnv(t)
	env.api.FailUploadsNamed("b.png", http.StatusInternalServerError)

	rec := env.doJSON(t, http.MethodPost, "/v1/facilities", map[string]any{
		model.FieldName:    "Sea House",
		model.FieldAddress: "Naha",
		model.FieldImages: []map[string]string{
			{"name": "a.png", "data": dataURL(pngBytes)},
			{"name": "b.png", "data": dataURL(pngBytes)},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[dto.CreateFacilityResponse](t, rec)
	assert.True(t, created.Partial)
	require.Len(t, created.Failures, 1)
	assert.Equal(t, string(service.StepImages), created.Failures[0].Step)
	assert.Equal(t, 1, created.Failures[0].Count)
	assert.Equal(t, []string{"b.png"}, created.PendingImages)
	assert.Equal(t, 1, env.api.FacilityCount())
}

func TestGetFacility(t *testing.T) {
	env := newTestEnv(t)
	wifi := env.api.SeedAmenity("Wifi")
	env.api.SeedAmenity("Sauna")
	f := env.api.SeedFacility(seaHouse, wifi.ID)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{name: "found", path: fmt.Sprintf("/v1/facilities/%d", f.ID), wantCode: http.StatusOK},
		{name: "not found", path: "/v1/facilities/999", wantCode: http.StatusNotFound},
		{name: "invalid id", path: "/v1/facilities/abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode != http.StatusOK {
				decodeError(t, rec)

				return
			}

			view := decode[dto.EditViewResponse](t, rec)
			assert.Equal(t, f.ID, view.Facility.ID)
			assert.Equal(t, "Sea House", view.Facility.Name)
			assert.Len(t, view.Amenities, 2)
			require.NotNil(t, view.Form)
			assert.Equal(t, []int64{wifi.ID}, view.Form.Amenities)
			assert.False(t, view.Stale)
		})
	}
}

func TestGetFacility_NotFoundMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/v1/facilities/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Facility not found.", *decodeError(t, rec).Error)
}

func TestUpdateFacility(t *testing.T) {
	env := newTestEnv(t)
	wifi := env.api.SeedAmenity("Wifi")
	sauna := env.api.SeedAmenity("Sauna")
	f := env.api.SeedFacility(seaHouse, wifi.ID)
	path := fmt.Sprintf("/v1/facilities/%d", f.ID)

	rec := env.doJSON(t, http.MethodPatch, path, map[string]any{
		model.FieldCapacity: 10,
		"toggle_amenities":  []int64{wifi.ID, sauna.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := decode[dto.EditViewResponse](t, rec)
	assert.Equal(t, 10, view.Facility.Capacity)
	assert.Equal(t, "Sea House", view.Facility.Name)
	assert.Equal(t, []int64{sauna.ID}, view.Form.Amenities)

	stored, _ := env.api.Facility(f.ID)
	assert.Equal(t, 10, stored.Capacity)
	assert.Equal(t, []int64{sauna.ID}, stored.AmenityIDs())

	rec = env.doJSON(t, http.MethodPatch, path, map[string]any{
		model.FieldAmenities: []int64{},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[dto.EditViewResponse](t, rec).Form.Amenities)
}

func TestUpdateFacility_Rejected(t *testing.T) {
	env := newTestEnv(t)
	f := env.api.SeedFacility(seaHouse)
	path := fmt.Sprintf("/v1/facilities/%d", f.ID)

	tests := []struct {
		name       string
		body       map[string]any
		wantCode   int
		wantFields map[string]string
	}{
		{
			name:       "out of range parking",
			body:       map[string]any{model.FieldNumParking: 11},
			wantCode:   http.StatusBadRequest,
			wantFields: map[string]string{model.FieldNumParking: "Parking spaces must be between 0 and 10."},
		},
		{
			name:     "unknown management entity",
			body:     map[string]any{model.FieldManagementEntity: "XX"},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, http.MethodPatch, path, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantFields, decodeError(t, rec).FieldErrors)

			stored, _ := env.api.Facility(f.ID)
			assert.Equal(t, seaHouse.Capacity, stored.Capacity)
			assert.Equal(t, seaHouse.NumParkingSpaces, stored.NumParkingSpaces)
		})
	}
}

func TestUpdateFacility_Locked(t *testing.T) {
	env := newTestEnv(t)
	f := env.api.SeedFacility(seaHouse)
	path := fmt.Sprintf("/v1/facilities/%d", f.ID)

	release, err := env.locker.Acquire(context.Background(), fmt.Sprintf("facility:%d", f.ID))
	require.NoError(t, err)

	rec := env.doJSON(t, http.MethodPatch, path, map[string]any{model.FieldCapacity: 3})
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Zero(t, env.api.Calls(fakeapi.UpdateFacility))

	release()

	rec = env.doJSON(t, http.MethodPatch, path, map[string]any{model.FieldCapacity: 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, env.api.Calls(fakeapi.UpdateFacility))
}

func TestDeleteFacility(t *testing.T) {
	env := newTestEnv(t)
	f := env.api.SeedFacility(seaHouse)
	env.api.SeedImage(f.ID, "a.png")
	path := fmt.Sprintf("/v1/facilities/%d", f.ID)

	rec := env.doJSON(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusPreconditionRequired, rec.Code, rec.Body.String())
	assert.Zero(t, env.api.Calls(fakeapi.DeleteFacility))

	rec = env.doJSON(t, http.MethodDelete, path+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, ok := env.api.Facility(f.ID)
	assert.False(t, ok)

	rec = env.doJSON(t, http.MethodDelete, path+"?confirm=true", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAmenity(t *testing.T) {
	env := newTestEnv(t)
	env.api.SeedAmenity("Wifi")
	f := env.api.SeedFacility(seaHouse)
	path := fmt.Sprintf("/v1/facilities/%d/amenities", f.ID)

	tests := []struct {
		name        string
		amenity     string
		wantCode    int
		wantMessage string
		wantCatalog int
		wantNoCalls bool
	}{
		{name: "new", amenity: "Sauna", wantCode: http.StatusCreated, wantCatalog: 2},
		{name: "duplicate", amenity: "Wifi", wantCode: http.StatusConflict, wantMessage: "That amenity already exists.", wantCatalog: 2},
		{name: "blank", amenity: "   ", wantCode: http.StatusBadRequest, wantMessage: "Enter an amenity name.", wantCatalog: 2, wantNoCalls: true},
		{name: "missing", amenity: "", wantCode: http.StatusBadRequest, wantCatalog: 2, wantNoCalls: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := env.api.TotalCalls()

			rec := env.doJSON(t, http.MethodPost, path, amenityDto.CreateAmenityRequest{Name: tt.amenity})
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantNoCalls {
				assert.Equal(t, before, env.api.TotalCalls())
			}

			if tt.wantCode == http.StatusCreated {
				view := decode[dto.EditViewResponse](t, rec)
				assert.Len(t, view.Amenities, tt.wantCatalog)
			} else if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, *decodeError(t, rec).Error)
			}

			assert.Equal(t, tt.wantCatalog, env.api.AmenityCount())
		})
	}
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t)
	f := env.api.SeedFacility(seaHouse)
	path := fmt.Sprintf("/v1/facilities/%d/images", f.ID)

	contentType, body := multipartBody(t,
		part{field: "image", value: "front.png", file: pngBytes},
		part{field: "caption", value: "front"},
	)

	rec := env.do(t, http.MethodPost, path, contentType, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decode[dto.EditViewResponse](t, rec)
	require.Len(t, view.Facility.Images, 1)
	assert.Equal(t, "front", view.Facility.Images[0].Caption)

	rec = env.doJSON(t, http.MethodPost, path, dto.ImageInput{Name: "back.png", Data: dataURL(pngBytes)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[dto.EditViewResponse](t, rec).Facility.Images, 2)

	contentType, body = multipartBody(t, part{field: "caption", value: "nothing"})

	rec = env.do(t, http.MethodPost, path, contentType, body)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "Select an image.", *decodeError(t, rec).Error)
	assert.Equal(t, 2, env.api.Calls(fakeapi.UploadImage))
}

func TestDeleteImage(t *testing.T) {
	env := newTestEnv(t)
	f := env.api.SeedFacility(seaHouse)
	img := env.api.SeedImage(f.ID, "a.png")
	path := fmt.Sprintf("/v1/facilities/%d/images/%d", f.ID, img.ID)

	rec := env.doJSON(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusPreconditionRequired, rec.Code, rec.Body.String())

	rec = env.doJSON(t, http.MethodDelete, path+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[dto.EditViewResponse](t, rec).Facility.Images)
	assert.Equal(t, 1, env.api.Calls(fakeapi.DeleteImage))
}

func TestDeleteImage_OtherFacility(t *testing.T) {
	env := newTestEnv(t)
	a := env.api.SeedFacility(seaHouse)
	b := env.api.SeedFacility(model.Fields{Name: "Forest Cabin", Capacity: 8, Address: "Nagano"})
	img := env.api.SeedImage(b.ID, "b.png")

	path := fmt.Sprintf("/v1/facilities/%d/images/%d?confirm=true", a.ID, img.ID)

	rec := env.doJSON(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "Image not found.", *decodeError(t, rec).Error)
	assert.Zero(t, env.api.Calls(fakeapi.DeleteImage))

	stored, ok := env.api.Facility(b.ID)
	require.True(t, ok)
	assert.Len(t, stored.Images, 1)
}

func TestListEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.api.SeedAmenity("Wifi")
	env.api.SeedFacility(seaHouse)

	rec := env.doJSON(t, http.MethodGet, "/v1/facilities", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	facilities := decode[[]dto.FacilitySummaryResponse](t, rec)
	require.Len(t, facilities, 1)
	assert.Equal(t, "Sea House", facilities[0].Name)

	rec = env.doJSON(t, http.MethodGet, "/v1/amenities", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]amenityDto.AmenityResponse](t, rec), 1)

	env.api.FailNext(fakeapi.ListFacilities, http.StatusInternalServerError, "")

	rec = env.doJSON(t, http.MethodGet, "/v1/facilities", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetFacilities_Query(t *testing.T) {
	env := newTestEnv(t)
	env.api.SeedFacility(seaHouse)
	env.api.SeedFacility(model.Fields{Name: "Forest Cabin", Capacity: 8, Address: "Nagano"})
	env.api.SeedFacility(model.Fields{Name: "Sea View Loft", Capacity: 2, Address: "Naha"})

	tests := []struct {
		name      string
		query     string
		wantNames []string
		wantTotal string
	}{
		{name: "all", query: "", wantNames: []string{"Sea House", "Forest Cabin", "Sea View Loft"}, wantTotal: "3"},
		{name: "search", query: "?q=SEA", wantNames: []string{"Sea House", "Sea View Loft"}, wantTotal: "2"},
		{name: "sort by capacity desc", query: "?sort_by=capacity&sort_dir=desc", wantNames: []string{"Forest Cabin", "Sea House", "Sea View Loft"}, wantTotal: "3"},
		{name: "second page", query: "?sort_by=facility_name&limit=2&page=2", wantNames: []string{"Sea View Loft"}, wantTotal: "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSON(t, http.MethodGet, "/v1/facilities"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			names := []string{}
			for _, f := range decode[[]dto.FacilitySummaryResponse](t, rec) {
				names = append(names, f.Name)
			}

			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantTotal, rec.Header().Get(constant.RequestHeaderTotalCount))
		})
	}
}
