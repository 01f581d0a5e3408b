package helper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"facilitydesk/infras/s3"
	amenityModel "facilitydesk/internal/domains/amenity/model"
	"facilitydesk/internal/domains/facility/form"
	"facilitydesk/internal/domains/facility/model"
	"facilitydesk/internal/domains/facility/service"
	"facilitydesk/shared/constant"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var ErrEmptyManifest = errors.New("manifest has no facilities")

// Manifest lists the facilities created by one import run.
type Manifest struct {
	Facilities []ManifestFacility `yaml:"facilities"`
}

// ManifestFacility mirrors the create form. Omitted numbers keep the form
// defaults; amenities are catalog names.
type ManifestFacility struct {
	Name             string          `yaml:"facility_name"`
	Capacity         *int            `yaml:"capacity"`
	Description      string          `yaml:"description"`
	ShortDescription string          `yaml:"short_description"`
	Address          string          `yaml:"address"`
	NumParking       *int            `yaml:"num_parking"`
	MapURL           string          `yaml:"map_url"`
	ManagementEntity string          `yaml:"management_entity"`
	PropKey          string          `yaml:"prop_key"`
	RoomKey          string          `yaml:"room_key"`
	Amenities        []string        `yaml:"amenities"`
	Images           []ManifestImage `yaml:"images"`
}

// ManifestImage is a local path, relative to the manifest, or an s3:// uri.
type ManifestImage struct {
	Path    string `yaml:"path"`
	Caption string `yaml:"caption"`
}

// Outcome is what happened to one manifest entry.
type Outcome struct {
	Name             string
	Result           service.CreateResult
	UnknownAmenities []string
	Err              error
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}

	return ParseManifest(bytes.NewReader(raw))
}

// ParseManifest decodes a manifest, rejecting unknown keys so typos do not
// silently drop fields.
func ParseManifest(r io.Reader) (Manifest, error) {
	var manifest Manifest

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if len(manifest.Facilities) == 0 {
		return Manifest{}, ErrEmptyManifest
	}

	return manifest, nil
}

type Importer struct {
	service service.Facility
	s3      s3.S3
}

func NewImporter(service service.Facility, s3 s3.S3) *Importer {
	return &Importer{
		service: service,
		s3:      s3,
	}
}

// Run creates every facility of the manifest, one after the other. Entries
// are independent: a failed one is reported and the run goes on.
func (i *Importer) Run(ctx context.Context, manifest Manifest, baseDir string) ([]Outcome, error) {
	catalog, err := i.service.Amenities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load amenity catalog: %w", err)
	}

	byName := amenitiesByName(catalog)
	outcomes := make([]Outcome, 0, len(manifest.Facilities))

	for _, entry := range manifest.Facilities {
		outcome := i.importOne(ctx, entry, byName, baseDir)

		logEvent := log.Info()
		if outcome.Failed() {
			logEvent = log.Error().Err(outcome.Err)
		} else if outcome.Result.Partial() {
			logEvent = log.Warn()
		}

		logEvent.
			Str("facility", outcome.Name).
			Int64("facility_id", outcome.Result.FacilityID).
			Bool("partial", outcome.Result.Partial()).
			Msg("facility imported")

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (i *Importer) importOne(ctx context.Context, entry ManifestFacility, byName map[string]int64, baseDir string) Outcome {
	outcome := Outcome{Name: entry.Name}

	state := i.service.NewForm()
	entry.apply(&state.Fields)

	for _, name := range entry.Amenities {
		id, ok := byName[normalizeName(name)]
		if !ok {
			outcome.UnknownAmenities = append(outcome.UnknownAmenities, name)

			continue
		}

		if !state.Amenities.Has(id) {
			state.Amenities.Toggle(id)
		}
	}

	// Every image is read before anything is created.
	for _, ref := range entry.Images {
		img, err := i.loadImage(ctx, ref.Path, baseDir)
		if err != nil {
			outcome.Err = err

			return outcome
		}

		state.AddImage(img.WithCaption(ref.Caption))
	}

	outcome.Result, outcome.Err = i.service.Create(ctx, state)

	return outcome
}

func (i *Importer) loadImage(ctx context.Context, ref, baseDir string) (form.ImageFile, error) {
	if s3.IsURI(ref) {
		object, err := i.s3.GetObject(ctx, ref)
		if err != nil {
			return form.ImageFile{}, err //nolint:wrapcheck
		}

		return form.ImageFromBytes(object.Key, object.ContentType, object.Body)
	}

	if !filepath.IsAbs(ref) {
		ref = filepath.Join(baseDir, ref)
	}

	return form.ImageFromPath(ref)
}

func (f ManifestFacility) apply(fields *model.Fields) {
	fields.Name = f.Name
	fields.Description = f.Description
	fields.ShortDescription = f.ShortDescription
	fields.Address = f.Address
	fields.MapURL = f.MapURL
	fields.ExternalPropertyKey = f.PropKey
	fields.ExternalRoomKey = f.RoomKey

	if f.Capacity != nil {
		fields.Capacity = *f.Capacity
	}

	if f.NumParking != nil {
		fields.NumParkingSpaces = *f.NumParking
	}

	if f.ManagementEntity != constant.Empty {
		fields.ManagementEntity = model.ManagementType(f.ManagementEntity)
	}
}

func amenitiesByName(catalog []amenityModel.Amenity) map[string]int64 {
	byName := make(map[string]int64, len(catalog))
	for _, a := range catalog {
		byName[normalizeName(a.Name)] = a.ID
	}

	return byName
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// PrintReport writes one line per entry, plus the details of what failed.
func PrintReport(w io.Writer, outcomes []Outcome) {
	for _, o := range outcomes {
		var validationErr *service.ValidationError

		switch {
		case errors.As(o.Err, &validationErr):
			fmt.Fprintf(w, "FAILED   %s: rejected\n", o.Name)

			for _, field := range slices.Sorted(maps.Keys(validationErr.Fields)) {
				fmt.Fprintf(w, "         %s: %s\n", field, validationErr.Fields[field])
			}
		case o.Failed():
			fmt.Fprintf(w, "FAILED   %s: %v\n", o.Name, o.Err)
		case o.Result.Partial():
			fmt.Fprintf(w, "PARTIAL  %s (id %d)\n", o.Name, o.Result.FacilityID)

			for _, f := range o.Result.Failures {
				fmt.Fprintf(w, "         %s: %d failed: %v\n", f.Step, f.Count, f.Err)
			}
		default:
			fmt.Fprintf(w, "CREATED  %s (id %d, %d images)\n", o.Name, o.Result.FacilityID, len(o.Result.Images))
		}

		if len(o.UnknownAmenities) > 0 {
			fmt.Fprintf(w, "         unknown amenities: %s\n", strings.Join(o.UnknownAmenities, ", "))
		}
	}
}
