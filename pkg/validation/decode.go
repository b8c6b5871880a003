package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/noah-isme/erp-api/pkg/errors"
)

// ErrMalformedJSON marks request bodies that are not well-formed JSON.
var ErrMalformedJSON = errors.New("malformed JSON body")

const (
	typeArray  = "array"
	typeObject = "object"
)

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
)

// DecodeJSON unmarshals body into dst. Bodies that are not well-formed JSON
// wrap ErrMalformedJSON; a value of the wrong JSON type becomes a field error
// carrying the same message the schema rules produce.
func DecodeJSON(body []byte, dst interface{}) error {
	if len(strings.TrimSpace(string(body))) == 0 || !json.Valid(body) {
		return ErrMalformedJSON
	}
	err := json.Unmarshal(body, dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return appErrors.FieldError("body", "The body must be an object.")
		}
		return appErrors.FieldError(field, msgType(field, kindOf(typeErr.Type)))
	}

	// Custom unmarshalers (decimal amounts) do not report the field, so find
	// the first top-level member that fails on its own.
	if field, typ, ok := locateField(body, dst); ok {
		return appErrors.FieldError(field, msgType(field, typ))
	}
	return errors.Join(ErrMalformedJSON, err)
}

func locateField(body []byte, dst interface{}) (string, string, bool) {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return "", "", false
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return "", "", false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		raw, ok := members[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, reflect.New(f.Type).Interface()); err != nil {
			return name, kindOf(f.Type), true
		}
	}
	return "", "", false
}

// kindOf maps a Go destination type onto the schema type names.
func kindOf(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch {
	case t == decimalType:
		return TypeNumeric
	case t == timeType:
		return TypeDate
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger
	case reflect.Float32, reflect.Float64:
		return TypeNumeric
	case reflect.Bool:
		return TypeBoolean
	case reflect.Slice, reflect.Array:
		return typeArray
	case reflect.Struct, reflect.Map:
		return typeObject
	default:
		return TypeString
	}
}
