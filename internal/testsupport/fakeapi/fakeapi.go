// Package fakeapi is an in-memory stand-in for the remote facility API. It
// validates like the real server, reports field errors the same way, and can
// be told to fail specific calls.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	amenityModel "facilitydesk/internal/domains/amenity/model"
	"facilitydesk/internal/domains/facility/model"
	imageModel "facilitydesk/internal/domains/image/model"
	"facilitydesk/shared/constant"
	"facilitydesk/shared/validator"

	"github.com/go-chi/chi/v5"
)

// Route keys accepted by FailNext and Calls.
const (
	ListFacilities = "GET /facilities/"
	CreateFacility = "POST /facilities/"
	GetFacility    = "GET /facilities/{id}/"
	UpdateFacility = "PATCH /facilities/{id}/"
	DeleteFacility = "DELETE /facilities/{id}/"
	ListAmenities  = "GET /amenities/"
	CreateAmenity  = "POST /amenities/"
	UploadImage    = "POST /images/"
	DeleteImage    = "DELETE /images/{id}/"
)

const maxUploadMemory = 8 << 20

type facilityInput struct {
	Name             string `json:"facility_name"     validate:"required,max=200"`
	Capacity         int    `json:"capacity"          validate:"gte=1,lte=20"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description" validate:"max=100"`
	Address          string `json:"address"           validate:"required,max=200"`
	NumParking       int    `json:"num_parking"       validate:"gte=0,lte=10"`
	MapURL           string `json:"map_url"           validate:"omitempty,url"`
	ManagementEntity string `json:"management_entity" validate:"oneof=IH CM"`
	PropKey          string `json:"prop_key"          validate:"max=200"`
	RoomKey          string `json:"room_key"          validate:"max=50"`
}

type amenityInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type facilityRecord struct {
	input      facilityInput
	amenityIDs []int64
}

type injected struct {
	status int
	body   string
}

type Server struct {
	mu          sync.Mutex
	nextID      int64
	facilities  map[int64]*facilityRecord
	amenities   map[int64]amenityModel.Amenity
	images      map[int64]imageModel.Image
	failures    map[string][]injected
	failUploads map[string]int
	calls       map[string]int
	router      chi.Router
}

func New() *Server {
	s := &Server{
		facilities:  make(map[int64]*facilityRecord),
		amenities:   make(map[int64]amenityModel.Amenity),
		images:      make(map[int64]imageModel.Image),
		failures:    make(map[string][]injected),
		failUploads: make(map[string]int),
		calls:       make(map[string]int),
	}

	r := chi.NewRouter()
	r.Get("/facilities/", s.route(ListFacilities, s.listFacilities))
	r.Post("/facilities/", s.route(CreateFacility, s.createFacility))
	r.Get("/facilities/{id}/", s.route(GetFacility, s.getFacility))
	r.Patch("/facilities/{id}/", s.route(UpdateFacility, s.updateFacility))
	r.Delete("/facilities/{id}/", s.route(DeleteFacility, s.deleteFacility))
	r.Get("/amenities/", s.route(ListAmenities, s.listAmenities))
	r.Post("/amenities/", s.route(CreateAmenity, s.createAmenity))
	r.Post("/images/", s.route(UploadImage, s.uploadImage))
	r.Delete("/images/{id}/", s.route(DeleteImage, s.deleteImage))

	s.router = r

	return s
}

// Start serves the fake on a local port until the test ends and returns its URL.
func (s *Server) Start(t testing.TB) string {
	t.Helper()

	server := httptest.NewServer(s.router)
	t.Cleanup(server.Close)

	return server.URL
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next call to route answer status with body. A body
// without detail or field errors is fine; an empty body sends nothing.
func (s *Server) FailNext(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[route] = append(s.failures[route], injected{status: status, body: body})
}

// FailUploadsNamed makes every upload of a file with this name answer status.
func (s *Server) FailUploadsNamed(fileName string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failUploads[fileName] = status
}

func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[route]
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.calls {
		total += n
	}

	return total
}

func (s *Server) FacilityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.facilities)
}

func (s *Server) AmenityCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.amenities)
}

func (s *Server) SeedAmenity(name string) amenityModel.Amenity {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a := amenityModel.Amenity{ID: s.nextID, Name: name}
	s.amenities[a.ID] = a

	return a
}

// RemoveAmenity deletes an amenity behind the clients' back.
func (s *Server) RemoveAmenity(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.amenities, id)

	for _, rec := range s.facilities {
		rec.amenityIDs = slices.DeleteFunc(rec.amenityIDs, func(v int64) bool { return v == id })
	}
}

func (s *Server) SeedFacility(fields model.Fields, amenityIDs ...int64) model.Facility {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.facilities[s.nextID] = &facilityRecord{
		input:      toInput(fields),
		amenityIDs: slices.Clone(amenityIDs),
	}

	return s.render(s.nextID, "")
}

func (s *Server) SeedImage(facilityID int64, fileName string) imageModel.Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	img := imageModel.Image{ID: s.nextID, FacilityID: facilityID, URL: "/media/facilities/images/" + fileName}
	s.images[img.ID] = img

	return img
}

// Facility returns the stored facility, as the server would render it.
func (s *Server) Facility(id int64) (model.Facility, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.facilities[id]; !ok {
		return model.Facility{}, false
	}

	return s.render(id, ""), true
}

func (s *Server) route(key string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[key]++

		var fail *injected
		if queue := s.failures[key]; len(queue) > 0 {
			fail = &queue[0]
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if fail != nil {
			w.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
			w.WriteHeader(fail.status)
			_, _ = io.WriteString(w, fail.body)

			return
		}

		next(w, r)
	}
}

func (s *Server) listFacilities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.facilities))
	for id := range s.facilities {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	list := make([]model.Facility, 0, len(ids))
	for _, id := range ids {
		list = append(list, s.render(id, host(r)))
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createFacility(w http.ResponseWriter, r *http.Request) {
	in := facilityInput{Capacity: model.DefaultCapacity, NumParking: model.DefaultNumParking, ManagementEntity: string(model.ManagementInHouse)}

	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())

		return
	}

	if fields := validate(in); fields != nil {
		writeJSON(w, http.StatusBadRequest, fields)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.facilities[s.nextID] = &facilityRecord{input: in}

	writeJSON(w, http.StatusCreated, s.render(s.nextID, host(r)))
}

func (s *Server) getFacility(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.facilityID(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.render(id, host(r)))
}

func (s *Server) updateFacility(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.facilityID(w, r)
	if !ok {
		return
	}

	rec := s.facilities[id]
	in := rec.input

	var relations struct {
		Amenities *[]int64 `json:"amenities"`
	}

	if err = json.Unmarshal(body, &in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())

		return
	}

	if err = json.Unmarshal(body, &relations); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"amenities": {"Expected a list of items."}})

		return
	}

	fields := validate(in)

	if relations.Amenities != nil {
		for _, aid := range *relations.Amenities {
			if _, known := s.amenities[aid]; !known {
				if fields == nil {
					fields = make(map[string][]string)
				}

				fields[model.FieldAmenities] = append(fields[model.FieldAmenities],
					fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", aid))
			}
		}
	}

	if fields != nil {
		writeJSON(w, http.StatusBadRequest, fields)

		return
	}

	rec.input = in
	if relations.Amenities != nil {
		rec.amenityIDs = slices.Clone(*relations.Amenities)
	}

	writeJSON(w, http.StatusOK, s.render(id, host(r)))
}

func (s *Server) deleteFacility(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.facilityID(w, r)
	if !ok {
		return
	}

	delete(s.facilities, id)

	for imgID, img := range s.images {
		if img.FacilityID == id {
			delete(s.images, imgID)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listAmenities(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.allAmenities())
}

func (s *Server) createAmenity(w http.ResponseWriter, r *http.Request) {
	var in amenityInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())

		return
	}

	if fields := validate(in); fields != nil {
		writeJSON(w, http.StatusBadRequest, fields)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.amenities {
		if a.Name == in.Name {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				amenityModel.FieldName: {"amenity with this アメニティ名 already exists."},
			})

			return
		}
	}

	s.nextID++
	a := amenityModel.Amenity{ID: s.nextID, Name: in.Name}
	s.amenities[a.ID] = a

	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDetail(w, http.StatusUnsupportedMediaType, err.Error())

		return
	}

	fields := make(map[string][]string)

	facilityID, err := strconv.ParseInt(r.FormValue(imageModel.FieldFacility), 10, 64)
	if err != nil {
		fields[imageModel.FieldFacility] = []string{"This field is required."}
	}

	file, header, err := r.FormFile(imageModel.FieldImage)
	if err != nil {
		fields[imageModel.FieldImage] = []string{"No file was submitted."}
	} else {
		defer file.Close()

		if header.Size == 0 {
			fields[imageModel.FieldImage] = []string{"The submitted file is empty."}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.facilities[facilityID]; facilityID != 0 && !ok {
		fields[imageModel.FieldFacility] = []string{fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", facilityID)}
	}

	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)

		return
	}

	if status, ok := s.failUploads[header.Filename]; ok {
		writeDetail(w, status, "upload rejected")

		return
	}

	s.nextID++
	img := imageModel.Image{
		ID:         s.nextID,
		FacilityID: facilityID,
		URL:        host(r) + "/media/facilities/images/" + header.Filename,
		Caption:    r.FormValue(imageModel.FieldCaption),
	}
	s.images[img.ID] = img

	img.FacilityID = 0
	writeJSON(w, http.StatusCreated, img)
}

func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if _, ok := s.images[id]; err != nil || !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")

		return
	}

	delete(s.images, id)

	w.WriteHeader(http.StatusNoContent)
}

// facilityID resolves the {id} param, answering 404 itself when unknown.
// Callers hold s.mu.
func (s *Server) facilityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if _, ok := s.facilities[id]; err != nil || !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")

		return 0, false
	}

	return id, true
}

// render builds the read shape of a facility. Callers hold s.mu.
func (s *Server) render(id int64, baseURL string) model.Facility {
	rec := s.facilities[id]

	f := model.Facility{
		ID:        id,
		Fields:    fromInput(rec.input),
		Amenities: s.amenityList(rec.amenityIDs),
		Images:    []imageModel.Image{},
	}

	imageIDs := make([]int64, 0)
	for imgID, img := range s.images {
		if img.FacilityID == id {
			imageIDs = append(imageIDs, imgID)
		}
	}

	slices.Sort(imageIDs)

	for _, imgID := range imageIDs {
		img := s.images[imgID]
		if baseURL != "" && strings.HasPrefix(img.URL, "/") {
			img.URL = baseURL + img.URL
		}

		img.FacilityID = 0
		f.Images = append(f.Images, img)
	}

	return f
}

// allAmenities returns the catalog ordered by id. Callers hold s.mu.
func (s *Server) allAmenities() []amenityModel.Amenity {
	ids := make([]int64, 0, len(s.amenities))
	for id := range s.amenities {
		ids = append(ids, id)
	}

	return s.amenityList(ids)
}

// amenityList returns the known amenities among ids, ordered by id. Callers hold s.mu.
func (s *Server) amenityList(ids []int64) []amenityModel.Amenity {
	ids = slices.Clone(ids)
	slices.Sort(ids)

	list := make([]amenityModel.Amenity, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.amenities[id]; ok {
			list = append(list, a)
		}
	}

	return list
}

func validate[T any](in T) map[string][]string {
	if err := validator.ValidateStructFields(&in); err != nil {
		return validator.Fields(err)
	}

	return nil
}

func toInput(f model.Fields) facilityInput {
	return facilityInput{
		Name:             f.Name,
		Capacity:         f.Capacity,
		Description:      f.Description,
		ShortDescription: f.ShortDescription,
		Address:          f.Address,
		NumParking:       f.NumParkingSpaces,
		MapURL:           f.MapURL,
		ManagementEntity: string(f.ManagementEntity),
		PropKey:          f.ExternalPropertyKey,
		RoomKey:          f.ExternalRoomKey,
	}
}

func fromInput(in facilityInput) model.Fields {
	return model.Fields{
		Name:                in.Name,
		Capacity:            in.Capacity,
		Description:         in.Description,
		ShortDescription:    in.ShortDescription,
		Address:             in.Address,
		NumParkingSpaces:    in.NumParking,
		MapURL:              in.MapURL,
		ManagementEntity:    model.ManagementType(in.ManagementEntity),
		ExternalPropertyKey: in.PropKey,
		ExternalRoomKey:     in.RoomKey,
	}
}

func host(r *http.Request) string {
	return "http://" + r.Host
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
