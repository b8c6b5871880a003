package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/noah-isme/erp-api/internal/models"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/validation"
)

// Schema names shared by services and the schema endpoint.
const (
	SchemaDepartment         = "department"
	SchemaWarehouse          = "warehouse"
	SchemaInventoryTransfer  = "inventory_transfer"
	SchemaTask               = "task"
	SchemaTaskDescription    = "task_description"
	SchemaUserCreate         = "user.create"
	SchemaUserUpdate         = "user.update"
	SchemaNotificationToggle = "notification_setting"
)

// ApprovalSchemaName names the approval transaction schema of a document type.
func ApprovalSchemaName(t models.DocumentType) string {
	return "approval_transaction." + string(t)
}

// DocumentSchemaName names the document schema of a document type.
func DocumentSchemaName(t models.DocumentType) string {
	return "document." + string(t)
}

var usersRef = &validation.Ref{Table: "users", Column: "id"}

// SchemaRegistry holds every input schema keyed by name.
type SchemaRegistry struct {
	schemas map[string]validation.Schema
}

// NewSchemaRegistry builds the registry for all document types and entities.
func NewSchemaRegistry() *SchemaRegistry {
	r := &SchemaRegistry{schemas: map[string]validation.Schema{}}
	for _, t := range models.DocumentTypes() {
		spec, _ := t.Spec()
		r.add(approvalSchema(spec))
		r.add(documentSchema(spec))
	}
	r.add(validation.Schema{
		Name: SchemaDepartment,
		Rules: []validation.Rule{
			{Field: "name", Type: validation.TypeString, Required: true, Tag: "max=120"},
			{Field: "code", Type: validation.TypeString, Required: true, Tag: "max=32", Unique: &validation.Ref{Table: "departments", Column: "code"}},
			{Field: "parent_id", Type: validation.TypeUUID, Nullable: true, Exists: &validation.Ref{Table: "departments", Column: "id"}},
			{Field: "manager_id", Type: validation.TypeUUID, Nullable: true, Exists: usersRef},
		},
	})
	r.add(validation.Schema{
		Name: SchemaWarehouse,
		Rules: []validation.Rule{
			{Field: "name", Type: validation.TypeString, Required: true, Tag: "max=120"},
			{Field: "code", Type: validation.TypeString, Required: true, Tag: "max=32", Unique: &validation.Ref{Table: "warehouses", Column: "code"}},
			{Field: "location", Type: validation.TypeString, Nullable: true, Tag: "max=255"},
		},
	})
	warehouses := &validation.Ref{Table: "warehouses", Column: "id"}
	r.add(validation.Schema{
		Name: SchemaInventoryTransfer,
		Rules: []validation.Rule{
			{Field: "item_name", Type: validation.TypeString, Required: true, Tag: "max=255"},
			{Field: "quantity", Type: validation.TypeNumeric, Required: true, Tag: "gt=0"},
			{Field: "from_warehouse_id", Type: validation.TypeUUID, Required: true, Exists: warehouses},
			{Field: "to_warehouse_id", Type: validation.TypeUUID, Required: true, Exists: warehouses, Different: "from_warehouse_id"},
			{Field: "notes", Type: validation.TypeString, Nullable: true, Tag: "max=1000"},
		},
	})
	r.add(validation.Schema{
		Name: SchemaTask,
		Rules: []validation.Rule{
			{Field: "title", Type: validation.TypeString, Required: true, Tag: "max=255"},
			{Field: "description", Type: validation.TypeString, Nullable: true, Tag: "max=5000"},
			{Field: "assigned_to", Type: validation.TypeUUID, Nullable: true, Exists: usersRef},
		},
	})
	r.add(validation.Schema{
		Name: SchemaTaskDescription,
		Rules: []validation.Rule{
			{Field: "action", Type: validation.TypeString, Required: true, Values: models.TaskActions()},
			{Field: "description", Type: validation.TypeString, Required: true, Tag: "max=2000"},
		},
	})
	r.add(validation.Schema{
		Name: SchemaUserCreate,
		Rules: []validation.Rule{
			{Field: "email", Type: validation.TypeEmail, Required: true, Unique: &validation.Ref{Table: "users", Column: "email"}},
			{Field: "full_name", Type: validation.TypeString, Required: true, Tag: "max=255"},
			{Field: "role", Type: validation.TypeString, Required: true, Values: models.UserRoles()},
			{Field: "password", Type: validation.TypeString, Required: true, Tag: "min=6"},
			{Field: "active", Type: validation.TypeBoolean, Nullable: true},
			{Field: "department_id", Type: validation.TypeUUID, Nullable: true, Exists: &validation.Ref{Table: "departments", Column: "id"}},
			{Field: "parent_id", Type: validation.TypeUUID, Nullable: true, Exists: usersRef},
		},
	})
	r.add(validation.Schema{
		Name: SchemaUserUpdate,
		Rules: []validation.Rule{
			{Field: "full_name", Type: validation.TypeString, Required: true, Tag: "max=255"},
			{Field: "role", Type: validation.TypeString, Required: true, Values: models.UserRoles()},
			{Field: "active", Type: validation.TypeBoolean, Nullable: true},
			{Field: "department_id", Type: validation.TypeUUID, Nullable: true, Exists: &validation.Ref{Table: "departments", Column: "id"}},
			{Field: "parent_id", Type: validation.TypeUUID, Nullable: true, Exists: usersRef},
		},
	})
	r.add(validation.Schema{
		Name: SchemaNotificationToggle,
		Rules: []validation.Rule{
			{Field: "document_type", Type: validation.TypeString, Required: true, Values: models.DocumentTypeValues()},
			{Field: "channel", Type: validation.TypeString, Required: true, Values: models.ChannelValues()},
			{Field: "enabled", Type: validation.TypeBoolean, Required: true},
		},
	})
	return r
}

func (r *SchemaRegistry) add(s validation.Schema) {
	r.schemas[s.Name] = s
}

// Get returns a schema by name.
func (r *SchemaRegistry) Get(name string) (validation.Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Names lists every registered schema in alphabetical order.
func (r *SchemaRegistry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the constraint table of a schema.
func (r *SchemaRegistry) Describe(name string) ([]validation.FieldConstraint, bool) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, false
	}
	return s.Describe(), true
}

func approvalSchema(spec models.DocumentSpec) validation.Schema {
	return validation.Schema{
		Name: ApprovalSchemaName(spec.Type),
		Rules: []validation.Rule{
			{Field: "document_id", Type: validation.TypeUUID, Required: true, Exists: &validation.Ref{Table: spec.Table, Column: "id", SoftDeletes: true}},
			{Field: "requester_id", Type: validation.TypeUUID, Required: true, Exists: usersRef},
			{Field: "assigned_to", Type: validation.TypeUUID, Required: spec.AssigneeRequired, Nullable: !spec.AssigneeRequired, Exists: usersRef},
			{Field: "referred_to", Type: validation.TypeUUID, Nullable: true, RequiredIf: &validation.Condition{Field: "status", Value: string(models.ApprovalRefer)}, Exists: usersRef},
			{Field: "order", Type: validation.TypeInteger, Nullable: true, Tag: "min=0"},
			{Field: "description", Type: validation.TypeString, Nullable: true, Tag: "max=2000"},
			{Field: "status", Type: validation.TypeString, Required: true, Values: models.ApprovalStatuses()},
		},
	}
}

func documentSchema(spec models.DocumentSpec) validation.Schema {
	rules := []validation.Rule{
		{Field: "number", Type: validation.TypeString, Required: true, Tag: "max=64", Unique: &validation.Ref{Table: spec.Table, Column: "number"}},
		{Field: "title", Type: validation.TypeString, Required: true, Tag: "max=255"},
		{Field: "description", Type: validation.TypeString, Nullable: true, Tag: "max=5000"},
		{Field: "department_id", Type: validation.TypeUUID, Required: spec.DepartmentRequired, Nullable: !spec.DepartmentRequired, Exists: &validation.Ref{Table: "departments", Column: "id"}},
		{Field: "requester_id", Type: validation.TypeUUID, Required: true, Exists: usersRef},
	}
	if spec.ReferenceType != "" {
		refSpec, _ := spec.ReferenceType.Spec()
		rules = append(rules, validation.Rule{
			Field:    "reference_id",
			Type:     validation.TypeUUID,
			Required: spec.ReferenceRequired,
			Nullable: !spec.ReferenceRequired,
			Exists:   &validation.Ref{Table: refSpec.Table, Column: "id", SoftDeletes: true},
		})
	}
	rules = append(rules,
		validation.Rule{Field: "amount", Type: validation.TypeNumeric, Required: spec.AmountRequired, Nullable: !spec.AmountRequired, Tag: "gt=0"},
		validation.Rule{Field: "currency", Type: validation.TypeString, Nullable: true, Tag: "len=3"},
		validation.Rule{Field: "due_date", Type: validation.TypeDate, Nullable: true},
		validation.Rule{Field: "status", Type: validation.TypeString, Nullable: true, Values: spec.Statuses},
	)
	return validation.Schema{Name: DocumentSchemaName(spec.Type), Rules: rules}
}

// validatePayload runs the named schema against a request DTO.
func validatePayload(ctx context.Context, v schemaValidator, registry *SchemaRegistry, name string, payload interface{}, opts ...validation.Option) error {
	input, err := validation.Input(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid payload")
	}
	schema, ok := registry.Get(name)
	if !ok {
		return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("schema %q not registered", name))
	}
	return v.Validate(ctx, schema, input, opts...)
}
