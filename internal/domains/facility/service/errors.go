package service

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"facilitydesk/infras/facilityapi"
	"facilitydesk/internal/domains/facility/form"
)

var (
	ErrFacilityNotFound     = errors.New("facility not found")
	ErrEmptyAmenityName     = errors.New("amenity name is empty")
	ErrAmenityExists        = errors.New("amenity already exists")
	ErrNoImageSelected      = errors.New("no image selected")
	ErrImageNotFound        = errors.New("image does not belong to this facility")
	ErrConfirmationRequired = errors.New("operation requires confirmation")
	ErrOperationInFlight    = errors.New("another operation is in progress for this facility")
	ErrSessionClosed        = errors.New("facility was deleted, session is closed")
	ErrNotLoaded            = errors.New("facility is not loaded")
	ErrStaleView            = errors.New("operation succeeded but the facility could not be reloaded")
)

// ValidationError carries the server's field errors, localized per field.
type ValidationError struct {
	Fields map[string]string
	Raw    map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}

	slices.Sort(names)

	return "validation failed: " + strings.Join(names, ", ")
}

// TransportError is a failed call that is not tied to a field: a non-2xx
// answer (Status set) or a network failure (Status 0).
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpdateError is a rejected partial update. Message is the server's detail or
// a generic text; Fields holds localized field errors when the server sent any.
type UpdateError struct {
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("update facility: %s", e.Message)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// Step names one stage of the create sequence.
type Step string

const (
	StepFacility  Step = "facility"
	StepAmenities Step = "amenities"
	StepImages    Step = "images"
)

// Policy decides what a failing step does to the rest of the sequence.
type Policy int

const (
	AbortOnFailure Policy = iota + 1
	ContinueOnFailure
)

func (p Policy) String() string {
	switch p {
	case AbortOnFailure:
		return "abort-on-failure"
	case ContinueOnFailure:
		return "continue-on-failure"
	default:
		return "unknown"
	}
}

// PartialFailure reports a later step that failed after the facility was
// already created. Count is the number of failed calls within the step.
type PartialFailure struct {
	Step  Step
	Count int
	Err   error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("step %s: %d failed: %v", e.Step, e.Count, e.Err)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}

func newTransportError(op, locale, fallbackKey string, err error) *TransportError {
	te := &TransportError{
		Op:      op,
		Message: form.Message(locale, fallbackKey),
		Err:     err,
	}

	var apiErr *facilityapi.Error
	if errors.As(err, &apiErr) {
		te.Status = apiErr.StatusCode
		if detail := apiErr.Detail(); detail != "" {
			te.Message = detail
		}
	}

	return te
}

func newUpdateError(locale string, err error) *UpdateError {
	ue := &UpdateError{
		Message: form.Message(locale, form.MsgUpdateFailed),
		Err:     err,
	}

	var apiErr *facilityapi.Error
	if errors.As(err, &apiErr) {
		ue.Status = apiErr.StatusCode
		ue.Fields = form.LocalizeFieldErrors(locale, apiErr.FieldErrors())

		if detail := apiErr.Detail(); detail != "" {
			ue.Message = detail
		}
	}

	return ue
}

// fieldErrors returns the field-error map of a 400 answer, or nil.
func fieldErrors(err error) map[string][]string {
	var apiErr *facilityapi.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return nil
	}

	return apiErr.FieldErrors()
}

var uniqueSignals = []string{"already exists", "unique", "既に存在"}

// isDuplicateName reports a 409, or a 400 whose name messages signal a
// unique constraint violation.
func isDuplicateName(err error, field string) bool {
	if facilityapi.StatusCode(err) == http.StatusConflict {
		return true
	}

	for _, msg := range fieldErrors(err)[field] {
		lower := strings.ToLower(msg)
		for _, signal := range uniqueSignals {
			if strings.Contains(lower, signal) {
				return true
			}
		}
	}

	return false
}
