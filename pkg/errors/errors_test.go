package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationCarriesFields(t *testing.T) {
	err := Validation(map[string]string{"status": "The selected status is invalid."})
	require.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "VALIDATION_ERROR", err.Code)
	assert.Equal(t, "The selected status is invalid.", err.Fields["status"])
	assert.Nil(t, ErrValidation.Fields)
}

func TestCloneCopiesFields(t *testing.T) {
	original := FieldError("code", "The code has already been taken.")
	clone := Clone(original, "custom")
	clone.Fields["code"] = "changed"
	assert.Equal(t, "The code has already been taken.", original.Fields["code"])
	assert.Equal(t, "custom", clone.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	err := Clone(ErrNotFound, "document not found")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	err := FromError(sql.ErrConnDone)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestErrorStringIncludesFields(t *testing.T) {
	err := Validation(map[string]string{"b": "two", "a": "one"})
	assert.Equal(t, "the given data was invalid (a: one; b: two)", err.Error())
}
