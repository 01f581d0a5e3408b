package service

import (
	"context"
	"errors"
	"fmt"

	"facilitydesk/infras/otel"
	"facilitydesk/internal/domains/facility/form"
	facilityRepo "facilitydesk/internal/domains/facility/repository"
	imageModel "facilitydesk/internal/domains/image/model"
	"facilitydesk/internal/domains/image/model/dto"
	imageRepo "facilitydesk/internal/domains/image/repository"
	"facilitydesk/shared/constant"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// CreateResult is the outcome of a create whose facility step succeeded.
type CreateResult struct {
	FacilityID int64
	Images     []imageModel.Image
	Failures   []PartialFailure
}

// Partial reports whether the facility exists without everything that was asked for.
func (r CreateResult) Partial() bool {
	return len(r.Failures) > 0
}

func (r CreateResult) Failure(step Step) (PartialFailure, bool) {
	for _, f := range r.Failures {
		if f.Step == step {
			return f, true
		}
	}

	return PartialFailure{}, false
}

type createStep struct {
	name   Step
	policy Policy
	run    func(ctx context.Context, c *createRun) error
}

type createRun struct {
	state  *form.State
	result CreateResult
}

// Creator turns one form into a facility with its amenities and images.
// Only the facility step can abort; later steps are additive and their
// failures are reported in the result.
type Creator struct {
	facilities facilityRepo.Facility
	images     imageRepo.Image
	otel       otel.Otel
	locale     string
	maxUploads int
	steps      []createStep
}

func NewCreator(facilities facilityRepo.Facility, images imageRepo.Image, otel otel.Otel, locale string, maxUploads int) *Creator {
	c := &Creator{
		facilities: facilities,
		images:     images,
		otel:       otel,
		locale:     locale,
		maxUploads: maxUploads,
	}

	c.steps = []createStep{
		{name: StepFacility, policy: AbortOnFailure, run: c.createFacility},
		{name: StepAmenities, policy: ContinueOnFailure, run: c.attachAmenities},
		{name: StepImages, policy: ContinueOnFailure, run: c.uploadImages},
	}

	return c
}

// Submit runs the create sequence. A nil error means the facility exists;
// check CreateResult.Partial for sub-resource failures.
func (c *Creator) Submit(ctx context.Context, state *form.State) (result CreateResult, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Submit")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	state.ClearErrors()

	run := &createRun{state: state}

	for _, step := range c.steps {
		stepErr := step.run(ctx, run)
		if stepErr == nil {
			continue
		}

		if step.policy == AbortOnFailure {
			log.Error().Err(stepErr).Str("step", string(step.name)).Msg("failed to create facility")

			return CreateResult{}, stepErr
		}

		var partial *PartialFailure
		if !errors.As(stepErr, &partial) {
			partial = &PartialFailure{Step: step.name, Count: 1, Err: stepErr}
		}

		log.Warn().
			Err(stepErr).
			Int64("facility_id", run.result.FacilityID).
			Str("step", string(step.name)).
			Str("policy", step.policy.String()).
			Int("failed", partial.Count).
			Msg("facility created with a failed step")

		run.result.Failures = append(run.result.Failures, *partial)
	}

	scope.SetAttribute(constant.OtelFacilityIDAttributeKey, run.result.FacilityID)

	return run.result, nil
}

func (c *Creator) createFacility(ctx context.Context, run *createRun) error {
	created, err := c.facilities.Insert(ctx, run.state.Fields)
	if err != nil {
		if fields := fieldErrors(err); len(fields) > 0 {
			run.state.SetFieldErrors(c.locale, fields)

			return &ValidationError{Fields: run.state.FieldErrors, Raw: fields}
		}

		return newTransportError("create facility", c.locale, form.MsgCreateFailed, err)
	}

	run.result.FacilityID = created.ID

	return nil
}

func (c *Creator) attachAmenities(ctx context.Context, run *createRun) error {
	if run.state.Amenities.Len() == 0 {
		return nil
	}

	if _, err := c.facilities.SetAmenities(ctx, run.result.FacilityID, run.state.Amenities.IDs()); err != nil {
		return &PartialFailure{Step: StepAmenities, Count: 1, Err: err}
	}

	return nil
}

// uploadImages fires every upload and waits for all of them. A failed upload
// never cancels the others; failed files stay pending on the form.
func (c *Creator) uploadImages(ctx context.Context, run *createRun) error {
	pending := run.state.PendingImages
	if len(pending) == 0 {
		return nil
	}

	// Each goroutine only writes its own index.
	var (
		g        errgroup.Group
		errs     = make([]error, len(pending))
		uploaded = make([]*imageModel.Image, len(pending))
	)

	if c.maxUploads > 0 {
		g.SetLimit(c.maxUploads)
	}

	for i, file := range pending {
		g.Go(func() error {
			img, err := c.uploadOne(ctx, run.result.FacilityID, file)
			if err != nil {
				errs[i] = err
			} else {
				uploaded[i] = &img
			}

			return nil
		})
	}

	_ = g.Wait()

	var (
		failed      []form.ImageFile
		failedCount int
	)

	for i, img := range uploaded {
		if img != nil {
			run.result.Images = append(run.result.Images, *img)

			continue
		}

		failed = append(failed, pending[i])
		failedCount++
	}

	run.state.PendingImages = failed

	if failedCount > 0 {
		return &PartialFailure{Step: StepImages, Count: failedCount, Err: errors.Join(errs...)}
	}

	return nil
}

func (c *Creator) uploadOne(ctx context.Context, facilityID int64, file form.ImageFile) (imageModel.Image, error) {
	body, err := file.Open()
	if err != nil {
		return imageModel.Image{}, fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	defer body.Close()

	return c.images.Upload(ctx, dto.UploadImageRequest{
		FacilityID:  facilityID,
		FileName:    file.Name,
		ContentType: file.ContentType,
		Caption:     file.Caption,
		Body:        body,
	})
}
