package helper_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facilitydesk/config"
	"facilitydesk/helper"
	"facilitydesk/infras/facilityapi"
	otelMocks "facilitydesk/infras/otel/mocks"
	"facilitydesk/infras/s3"
	s3Mocks "facilitydesk/infras/s3/mocks"
	amenityRepo "facilitydesk/internal/domains/amenity/repository"
	"facilitydesk/internal/domains/facility/model"
	facilityRepo "facilitydesk/internal/domains/facility/repository"
	"facilitydesk/internal/domains/facility/service"
	imageRepo "facilitydesk/internal/domains/image/repository"
	"facilitydesk/internal/testsupport/fakeapi"
	"facilitydesk/shared/constant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
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

const manifestYAML = `
facilities:
  - facility_name: Sea House
    capacity: 6
    address: Naha
    management_entity: CM
    amenities: [wifi, " Sauna ", Hot Tub]
    images:
      - path: photos/front.png
        caption: front
      - path: s3://media/facilities/back.png
  - facility_name: Empty Lot
    capacity: 0
    address: Osaka
`

func newFakeBackedService(t *testing.T) (service.Facility, *fakeapi.Server) {
	t.Helper()

	api := fakeapi.New()
	ot := otelMocks.NewOtel()
	client := facilityapi.NewWithHTTPClient(api.Start(t), "facilitydesk-test", &http.Client{}, ot)

	cfg := &config.Config{}
	cfg.App.Locale = constant.LocaleEN

	return service.New(facilityRepo.New(client, ot), amenityRepo.New(client, ot), imageRepo.New(client, ot), cfg, ot), api
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantLen int
	}{
		{name: "valid", input: manifestYAML, wantLen: 2},
		{name: "empty", input: "facilities: []\n", wantErr: helper.ErrEmptyManifest},
		{name: "unknown key", input: "facilities:\n  - facility_nam: typo\n"},
		{name: "not yaml", input: "facilities: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest, err := helper.ParseManifest(strings.NewReader(tt.input))

			if tt.wantLen == 0 {
				require.Error(t, err)

				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			require.Len(t, manifest.Facilities, tt.wantLen)

			first := manifest.Facilities[0]
			assert.Equal(t, "Sea House", first.Name)
			require.NotNil(t, first.Capacity)
			assert.Equal(t, 6, *first.Capacity)
			assert.Nil(t, first.NumParking)
			assert.Len(t, first.Images, 2)
		})
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := helper.LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestImporter_Run(t *testing.T) {
	svc, api := newFakeBackedService(t)
	wifi := api.SeedAmenity("Wifi")
	sauna := api.SeedAmenity("Sauna")

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "photos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photos", "front.png"), pngBytes, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifestYAML), 0o600))

	ctrl := gomock.NewController(t)
	bucket := s3Mocks.NewMockS3(ctrl)
	bucket.EXPECT().
		GetObject(gomock.Any(), "s3://media/facilities/back.png").
		Return(s3.Object{Key: "back.png", ContentType: "image/png", Body: pngBytes}, nil)

	manifest, err := helper.LoadManifest(filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, err)

	outcomes, err := helper.NewImporter(svc, bucket).Run(context.Background(), manifest, dir)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	created := outcomes[0]
	require.NoError(t, created.Err)
	assert.False(t, created.Result.Partial())
	assert.Len(t, created.Result.Images, 2)
	assert.Equal(t, []string{"Hot Tub"}, created.UnknownAmenities)

	stored, ok := api.Facility(created.Result.FacilityID)
	require.True(t, ok)
	assert.Equal(t, model.ManagementContract, stored.ManagementEntity)
	assert.ElementsMatch(t, []int64{wifi.ID, sauna.ID}, stored.AmenityIDs())
	assert.Len(t, stored.Images, 2)

	rejected := outcomes[1]
	var validationErr *service.ValidationError
	require.ErrorAs(t, rejected.Err, &validationErr)
	assert.Contains(t, validationErr.Fields, model.FieldCapacity)
	assert.Equal(t, 1, api.FacilityCount())

	var report bytes.Buffer
	helper.PrintReport(&report, outcomes)

	assert.Contains(t, report.String(), "CREATED  Sea House")
	assert.Contains(t, report.String(), "unknown amenities: Hot Tub")
	assert.Contains(t, report.String(), "FAILED   Empty Lot: rejected")
	assert.Contains(t, report.String(), "capacity: Capacity must be between 1 and 20.")
}

func TestImporter_UnreadableImageSkipsEntry(t *testing.T) {
	svc, api := newFakeBackedService(t)

	ctrl := gomock.NewController(t)
	bucket := s3Mocks.NewMockS3(ctrl)
	bucket.EXPECT().GetObject(gomock.Any(), gomock.Any()).Return(s3.Object{}, errors.New("NoSuchKey"))

	manifest := helper.Manifest{Facilities: []helper.ManifestFacility{
		{Name: "Sea House", Address: "Naha", Images: []helper.ManifestImage{{Path: "s3://media/gone.png"}}},
		{Name: "Forest Cabin", Address: "Nagano", Images: []helper.ManifestImage{{Path: "missing.png"}}},
	}}

	outcomes, err := helper.NewImporter(svc, bucket).Run(context.Background(), manifest, t.TempDir())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	for _, o := range outcomes {
		assert.True(t, o.Failed(), o.Name)
	}

	assert.Zero(t, api.FacilityCount())
	assert.Zero(t, api.Calls(fakeapi.CreateFacility))
}

func TestImporter_CatalogUnavailable(t *testing.T) {
	svc, api := newFakeBackedService(t)
	api.FailNext(fakeapi.ListAmenities, http.StatusServiceUnavailable, "")

	_, err := helper.NewImporter(svc, nil).Run(context.Background(), helper.Manifest{
		Facilities: []helper.ManifestFacility{{Name: "Sea House", Address: "Naha"}},
	}, t.TempDir())

	assert.Error(t, err)
	assert.Zero(t, api.Calls(fakeapi.CreateFacility))
}
