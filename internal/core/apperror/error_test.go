package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Wrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("save custom field: %w", NewStoreUnavailable(cause))

	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDatabase, appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, GetHTTPStatus(err))
	assert.ErrorIs(t, err, cause)
}

func TestAppError_Predicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"not found", NewNotFound("CustomField", "42"), IsNotFound, true},
		{"validation", NewValidation("bad"), IsValidation, true},
		{"format counts as validation", NewInvalidFormat("EMAIL", "Invalid Email format: x"), IsValidation, true},
		{"immutable", NewImmutableField("type", "changed"), IsImmutableField, true},
		{"immutable is not plain validation", NewImmutableField("type", "changed"), IsValidation, false},
		{"conflict", NewConflict("dup"), IsConflict, true},
		{"duplicate counts as conflict", NewDuplicate("CustomField", "refId", "a_1"), IsConflict, true},
		{"plain error", errors.New("boom"), IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred(tt.err))
		})
	}
}

func TestNewNotFound_Message(t *testing.T) {
	err := NewNotFound("CustomField", "11111111-2222-3333-a444-555555555555")
	assert.Equal(t, "CustomField not found by id: 11111111-2222-3333-a444-555555555555", err.Message)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
}

func TestNewImmutableField_Status(t *testing.T) {
	err := NewImmutableField("type", "The type of the custom field can not be changed.")
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, "type", err.Details["attribute"])
}
