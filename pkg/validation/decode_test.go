package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/erp-api/pkg/errors"
)

type decodeTarget struct {
	Status string           `json:"status"`
	Order  *int             `json:"order"`
	Amount *decimal.Decimal `json:"amount"`
	Tags   []string         `json:"tags"`
}

func decodeFields(t *testing.T, body string) map[string]string {
	t.Helper()
	var dst decodeTarget
	err := DecodeJSON([]byte(body), &dst)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrMalformedJSON), "well-formed JSON must not be reported as malformed")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Status, appErr.Status)
	return appErr.Fields
}

func TestDecodeJSONWrongTypesBecomeFieldErrors(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
		msg   string
	}{
		"number for string":  {`{"status":7}`, "status", "The status must be a string."},
		"string for integer": {`{"order":"first"}`, "order", "The order must be an integer."},
		"fraction for int":   {`{"order":1.5}`, "order", "The order must be an integer."},
		"text for decimal":   {`{"amount":"lots"}`, "amount", "The amount must be a number."},
		"object for array":   {`{"tags":{"a":1}}`, "tags", "The tags must be an array."},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fields := decodeFields(t, tc.body)
			assert.Equal(t, tc.msg, fields[tc.field])
		})
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	var dst decodeTarget
	for _, body := range []string{``, `{"status":`, `not json`} {
		err := DecodeJSON([]byte(body), &dst)
		assert.ErrorIs(t, err, ErrMalformedJSON, body)
	}
}

func TestDecodeJSONValid(t *testing.T) {
	var dst decodeTarget
	require.NoError(t, DecodeJSON([]byte(`{"status":"Approve","order":2,"amount":"10.50"}`), &dst))
	assert.Equal(t, "Approve", dst.Status)
	require.NotNil(t, dst.Order)
	assert.Equal(t, 2, *dst.Order)
	assert.True(t, decimal.RequireFromString("10.5").Equal(*dst.Amount))
}
