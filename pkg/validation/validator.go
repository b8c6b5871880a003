package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	appErrors "github.com/noah-isme/erp-api/pkg/errors"
)

// Lookup answers referential questions against persistent storage.
type Lookup interface {
	Exists(ctx context.Context, ref Ref, value interface{}) (bool, error)
	// Taken reports whether value is already used by a row other than ignoreID.
	Taken(ctx context.Context, ref Ref, value interface{}, ignoreID string) (bool, error)
}

type options struct {
	ignoreID string
	partial  bool
}

// Option tweaks a single Validate call.
type Option func(*options)

// IgnoreID excludes the row being updated from unique checks.
func IgnoreID(id string) Option {
	return func(o *options) { o.ignoreID = id }
}

// Partial only checks fields present in the input.
func Partial() Option {
	return func(o *options) { o.partial = true }
}

// Validator runs schemas against decoded JSON input.
type Validator struct {
	validate *validator.Validate
	lookup   Lookup
}

// New builds a Validator. A nil lookup skips exists/unique rules.
func New(lookup Lookup) *Validator {
	v := validator.New()
	_ = v.RegisterValidation("decimal", validateDecimal)
	_ = v.RegisterValidation("positive_decimal", validatePositiveDecimal)
	return &Validator{validate: v, lookup: lookup}
}

func validateDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

// Input converts a request DTO into the map form consumed by Validate.
func Input(payload interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := map[string]interface{}{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return out, nil
}

// Validate checks input against every rule of schema. Structural rules run
// first; exists and unique lookups only run for fields that passed them.
// Only the first failure per field is reported.
func (v *Validator) Validate(ctx context.Context, schema Schema, input map[string]interface{}, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	fields := map[string]string{}
	for _, rule := range schema.Rules {
		value, present := input[rule.Field]
		if o.partial && !present {
			continue
		}
		if isEmpty(value) {
			if rule.Required {
				fields[rule.Field] = msgRequired(rule.Field)
			} else if rule.RequiredIf != nil && matches(input[rule.RequiredIf.Field], rule.RequiredIf.Value) {
				fields[rule.Field] = msgRequiredIf(rule.Field, rule.RequiredIf)
			}
			continue
		}
		if msg := v.checkStructure(rule, value); msg != "" {
			fields[rule.Field] = msg
			continue
		}
		if rule.Different != "" {
			other, ok := input[rule.Different]
			if ok && !isEmpty(other) && fmt.Sprint(other) == fmt.Sprint(value) {
				fields[rule.Field] = msgDifferent(rule.Field, rule.Different)
				continue
			}
		}
	}

	if v.lookup != nil {
		for _, rule := range schema.Rules {
			if _, failed := fields[rule.Field]; failed {
				continue
			}
			value, present := input[rule.Field]
			if !present || isEmpty(value) {
				continue
			}
			msg, err := v.checkReferences(ctx, rule, value, o.ignoreID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate references")
			}
			if msg != "" {
				fields[rule.Field] = msg
			}
		}
	}

	if len(fields) > 0 {
		return appErrors.Validation(fields)
	}
	return nil
}

func (v *Validator) checkStructure(rule Rule, value interface{}) string {
	typed, ok := coerce(rule.Type, value)
	if !ok {
		return msgType(rule.Field, rule.Type)
	}

	switch rule.Type {
	case TypeUUID:
		if err := v.validate.Var(typed, "uuid"); err != nil {
			return msgType(rule.Field, rule.Type)
		}
	case TypeEmail:
		if err := v.validate.Var(typed, "email"); err != nil {
			return msgType(rule.Field, rule.Type)
		}
	case TypeNumeric:
		if err := v.validate.Var(fmt.Sprint(typed), "decimal"); err != nil {
			return msgType(rule.Field, rule.Type)
		}
	}

	if len(rule.Values) > 0 {
		if err := v.validate.Var(fmt.Sprint(typed), "oneof="+strings.Join(rule.Values, " ")); err != nil {
			return msgInvalidChoice(rule.Field)
		}
	}

	if rule.Tag != "" {
		if err := v.validate.Var(typed, rule.Tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				_, text := typed.(string)
				return msgConstraint(rule.Field, verrs[0].Tag(), verrs[0].Param(), text)
			}
			return msgConstraint(rule.Field, "", "", false)
		}
	}
	return ""
}

func (v *Validator) checkReferences(ctx context.Context, rule Rule, value interface{}, ignoreID string) (string, error) {
	if rule.Exists != nil {
		ok, err := v.lookup.Exists(ctx, *rule.Exists, value)
		if err != nil {
			return "", err
		}
		if !ok {
			return msgInvalidChoice(rule.Field), nil
		}
	}
	if rule.Unique != nil {
		taken, err := v.lookup.Taken(ctx, *rule.Unique, value, ignoreID)
		if err != nil {
			return "", err
		}
		if taken {
			return msgTaken(rule.Field), nil
		}
	}
	return "", nil
}

// coerce converts a decoded JSON value into the Go type checked by the
// validator tag set: strings stay strings, numbers become float64 or int64.
func coerce(typ string, value interface{}) (interface{}, bool) {
	switch typ {
	case TypeInteger:
		switch n := value.(type) {
		case json.Number:
			i, err := n.Int64()
			return i, err == nil
		case float64:
			if math.Trunc(n) != n {
				return nil, false
			}
			return int64(n), true
		case int:
			return int64(n), true
		case int64:
			return n, true
		}
		return nil, false
	case TypeNumeric:
		switch n := value.(type) {
		case json.Number:
			f, err := n.Float64()
			return f, err == nil
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			d, err := decimal.NewFromString(strings.TrimSpace(n))
			if err != nil {
				return nil, false
			}
			return d.InexactFloat64(), true
		}
		return nil, false
	case TypeBoolean:
		b, ok := value.(bool)
		return b, ok
	case TypeDate:
		s, ok := value.(string)
		if !ok {
			return nil, false
		}
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return s, true
		}
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return s, true
		}
		return nil, false
	default:
		s, ok := value.(string)
		return s, ok
	}
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	}
	return false
}

func matches(value interface{}, expected string) bool {
	if isEmpty(value) {
		return false
	}
	return fmt.Sprint(value) == expected
}
