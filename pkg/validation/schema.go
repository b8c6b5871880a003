package validation

import (
	"fmt"
	"strings"
)

// Field types understood by the engine.
const (
	TypeString  = "string"
	TypeUUID    = "uuid"
	TypeInteger = "integer"
	TypeNumeric = "numeric"
	TypeDate    = "date"
	TypeEmail   = "email"
	TypeBoolean = "boolean"
)

// Ref points at a table column used by exists/unique checks.
type Ref struct {
	Table       string `json:"table"`
	Column      string `json:"column"`
	SoftDeletes bool   `json:"soft_deletes,omitempty"`
}

func (r *Ref) String() string {
	if r == nil {
		return ""
	}
	return r.Table + "." + r.Column
}

// Condition makes a field required when another field holds Value.
type Condition struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Rule declares the constraints for one input field.
type Rule struct {
	Field      string
	Type       string
	Required   bool
	Nullable   bool
	RequiredIf *Condition
	// Tag holds extra go-playground/validator constraints (min, max, gt, ...).
	Tag       string
	Values    []string
	Exists    *Ref
	Unique    *Ref
	Different string
}

// Schema is the ordered rule set of one operation.
type Schema struct {
	Name  string
	Rules []Rule
}

// Rule returns the rule declared for field, if any.
func (s Schema) Rule(field string) (Rule, bool) {
	for _, r := range s.Rules {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}

// FieldConstraint is the published view of a rule.
type FieldConstraint struct {
	Field       string   `json:"field"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Nullable    bool     `json:"nullable"`
	RequiredIf  string   `json:"required_if,omitempty"`
	Values      []string `json:"values,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
	Exists      string   `json:"exists,omitempty"`
	Unique      string   `json:"unique,omitempty"`
	Different   string   `json:"different,omitempty"`
}

// Describe renders the schema's constraint table.
func (s Schema) Describe() []FieldConstraint {
	out := make([]FieldConstraint, 0, len(s.Rules))
	for _, r := range s.Rules {
		fc := FieldConstraint{
			Field:     r.Field,
			Type:      r.Type,
			Required:  r.Required,
			Nullable:  r.Nullable || !r.Required,
			Values:    r.Values,
			Exists:    r.Exists.String(),
			Unique:    r.Unique.String(),
			Different: r.Different,
		}
		if fc.Type == "" {
			fc.Type = TypeString
		}
		if r.RequiredIf != nil {
			fc.RequiredIf = fmt.Sprintf("%s=%s", r.RequiredIf.Field, r.RequiredIf.Value)
			fc.Nullable = false
		}
		if r.Tag != "" {
			fc.Constraints = strings.Split(r.Tag, ",")
		}
		out = append(out, fc)
	}
	return out
}
