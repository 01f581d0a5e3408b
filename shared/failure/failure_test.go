package failure_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"facilitydesk/shared/failure"

	"github.com/stretchr/testify/assert"
)

func TestFailure_Error(t *testing.T) {
	f := &failure.Failure{
		Code:    http.StatusBadRequest,
		Message: "test error message",
	}

	assert.Equal(t, "test error message", f.Error())
}

func TestPredefinedFailures(t *testing.T) {
	tests := []struct {
		name    string
		failure *failure.Failure
		code    int
	}{
		{
			name:    "InvalidIDParam",
			failure: failure.InvalidIDParam,
			code:    http.StatusBadRequest,
		},
		{
			name:    "ConfirmationRequiredError",
			failure: failure.ConfirmationRequiredError,
			code:    http.StatusPreconditionRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.failure.Code)
			assert.NotEmpty(t, tt.failure.Message)
		})
	}
}

func TestBadRequest(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{
			name:     "with error",
			input:    errors.New("validation failed"),
			expected: &failure.Failure{Code: http.StatusBadRequest, Message: "validation failed"},
		},
		{
			name:     "with nil error",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := failure.BadRequest(tt.input)

			if tt.expected == nil {
				assert.NoError(t, result)

				return
			}

			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "bad request from string",
			err:     failure.BadRequestFromString("custom bad request"),
			code:    http.StatusBadRequest,
			message: "custom bad request",
		},
		{
			name:    "internal error",
			err:     failure.InternalError(errors.New("boom")),
			code:    http.StatusInternalServerError,
			message: "boom",
		},
		{
			name:    "not found",
			err:     failure.NotFound("facility not found"),
			code:    http.StatusNotFound,
			message: "facility not found",
		},
		{
			name:    "conflict",
			err:     failure.Conflict("amenity already exists"),
			code:    http.StatusConflict,
			message: "amenity already exists",
		},
		{
			name:    "bad gateway",
			err:     failure.BadGateway("remote api unavailable"),
			code:    http.StatusBadGateway,
			message: "remote api unavailable",
		},
		{
			name:    "arbitrary code",
			err:     failure.New(http.StatusTeapot, "short and stout"),
			code:    http.StatusTeapot,
			message: "short and stout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, failure.GetCode(tt.err))
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestInternalError_Nil(t *testing.T) {
	assert.NoError(t, failure.InternalError(nil))
}

func TestValidation(t *testing.T) {
	fields := map[string]string{"capacity": "out of range"}
	err := failure.Validation("invalid facility", fields)

	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	assert.Equal(t, fields, failure.GetFields(err))
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "failure",
			err:      failure.NotFound("missing"),
			expected: http.StatusNotFound,
		},
		{
			name:     "wrapped failure",
			err:      fmt.Errorf("loading: %w", failure.Conflict("busy")),
			expected: http.StatusConflict,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, failure.GetCode(tt.err))
		})
	}
}

func TestGetFields_PlainError(t *testing.T) {
	assert.Nil(t, failure.GetFields(errors.New("plain")))
}
