package facility

import (
	"errors"
	"net/http"

	"facilitydesk/internal/domains/facility/form"
	"facilitydesk/internal/domains/facility/service"
	"facilitydesk/shared/failure"
	"facilitydesk/shared/lock"
)

// toFailure maps an orchestrator error to the HTTP failure sent to the client.
func (handler *Handler) toFailure(err error) error {
	locale := handler.service.Locale()

	var (
		fail          *failure.Failure
		validationErr *service.ValidationError
		updateErr     *service.UpdateError
		transportErr  *service.TransportError
	)

	switch {
	case errors.As(err, &fail):
		return fail
	case errors.As(err, &validationErr):
		return failure.Validation(form.Message(locale, form.MsgInvalidValue), validationErr.Fields)
	case errors.Is(err, service.ErrFacilityNotFound):
		return failure.NotFound(form.Message(locale, form.MsgFacilityNotFound))
	case errors.Is(err, service.ErrImageNotFound):
		return failure.NotFound(form.Message(locale, form.MsgImageNotFound))
	case errors.Is(err, service.ErrEmptyAmenityName):
		return failure.BadRequestFromString(form.Message(locale, form.MsgAmenityNameRequired))
	case errors.Is(err, service.ErrNoImageSelected), errors.Is(err, form.ErrEmptyImage):
		return failure.BadRequestFromString(form.Message(locale, form.MsgNoImageSelected))
	case errors.Is(err, service.ErrAmenityExists):
		return failure.Conflict(form.Message(locale, form.MsgAmenityExists))
	case errors.Is(err, service.ErrConfirmationRequired):
		return failure.ConfirmationRequiredError
	case errors.Is(err, service.ErrOperationInFlight), errors.Is(err, lock.ErrLocked):
		return failure.Conflict(service.ErrOperationInFlight.Error())
	case errors.As(err, &updateErr):
		if updateErr.Status >= http.StatusBadRequest && updateErr.Status < http.StatusInternalServerError {
			return &failure.Failure{Code: updateErr.Status, Message: updateErr.Message, Fields: updateErr.Fields}
		}

		return failure.BadGateway(updateErr.Message)
	case errors.As(err, &transportErr):
		return failure.BadGateway(transportErr.Message)
	default:
		return failure.InternalError(err)
	}
}
