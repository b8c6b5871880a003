package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies an approvable business document.
type DocumentType string

const (
	DocumentRFQ             DocumentType = "rfq"
	DocumentBudget          DocumentType = "budget"
	DocumentPurchaseOrder   DocumentType = "purchase_order"
	DocumentPaymentOrder    DocumentType = "payment_order"
	DocumentMaterialRequest DocumentType = "material_request"
	DocumentInvoice         DocumentType = "invoice"
)

// DocumentSpec captures everything that differs between document types.
type DocumentSpec struct {
	Type               DocumentType
	Table              string
	Label              string
	Statuses           []string
	DefaultStatus      string
	Projection         map[ApprovalStatus]string
	AssigneeRequired   bool
	AmountRequired     bool
	DepartmentRequired bool
	ReferenceType      DocumentType
	ReferenceRequired  bool
}

var fullProjection = map[ApprovalStatus]string{
	ApprovalApprove: "Approved",
	ApprovalReject:  "Rejected",
	ApprovalRefer:   "Referred",
	ApprovalPending: "Pending",
}

var documentOrder = []DocumentType{
	DocumentRFQ,
	DocumentBudget,
	DocumentPurchaseOrder,
	DocumentPaymentOrder,
	DocumentMaterialRequest,
	DocumentInvoice,
}

var documentSpecs = map[DocumentType]DocumentSpec{
	DocumentRFQ: {
		Type:             DocumentRFQ,
		Table:            "rfqs",
		Label:            "Request for Quotation",
		Statuses:         []string{"Draft", "Submitted", "Referred", "Approved", "Rejected", "Pending"},
		DefaultStatus:    "Draft",
		Projection:       fullProjection,
		AssigneeRequired: true,
	},
	DocumentBudget: {
		Type:               DocumentBudget,
		Table:              "budgets",
		Label:              "Budget",
		Statuses:           []string{"Pending", "Active", "Frozen", "Closed"},
		DefaultStatus:      "Pending",
		Projection:         map[ApprovalStatus]string{ApprovalApprove: "Active"},
		AssigneeRequired:   true,
		AmountRequired:     true,
		DepartmentRequired: true,
	},
	DocumentPurchaseOrder: {
		Type:             DocumentPurchaseOrder,
		Table:            "purchase_orders",
		Label:            "Purchase Order",
		Statuses:         []string{"Pending", "Approved", "Rejected", "Referred", "Completed", "Cancelled"},
		DefaultStatus:    "Pending",
		Projection:       fullProjection,
		AssigneeRequired: true,
		AmountRequired:   true,
		ReferenceType:    DocumentRFQ,
	},
	DocumentPaymentOrder: {
		Type:              DocumentPaymentOrder,
		Table:             "payment_orders",
		Label:             "Payment Order",
		Statuses:          []string{"Pending", "Approved", "Rejected", "Referred", "Paid"},
		DefaultStatus:     "Pending",
		Projection:        fullProjection,
		AssigneeRequired:  true,
		AmountRequired:    true,
		ReferenceType:     DocumentPurchaseOrder,
		ReferenceRequired: true,
	},
	DocumentMaterialRequest: {
		Type:               DocumentMaterialRequest,
		Table:              "material_requests",
		Label:              "Material Request",
		Statuses:           []string{"Pending", "Approved", "Rejected", "Referred", "Fulfilled"},
		DefaultStatus:      "Pending",
		Projection:         fullProjection,
		DepartmentRequired: true,
	},
	DocumentInvoice: {
		Type:          DocumentInvoice,
		Table:         "invoices",
		Label:         "Invoice",
		Statuses:      []string{"Unpaid", "Pending", "Approved", "Rejected", "Paid"},
		DefaultStatus: "Unpaid",
		Projection: map[ApprovalStatus]string{
			ApprovalApprove: "Approved",
			ApprovalReject:  "Rejected",
			ApprovalPending: "Pending",
		},
		AmountRequired:    true,
		ReferenceType:     DocumentPurchaseOrder,
		ReferenceRequired: true,
	},
}

// DocumentTypes returns every document type in display order.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(documentOrder))
	copy(out, documentOrder)
	return out
}

// DocumentTypeValues returns the document types as strings.
func DocumentTypeValues() []string {
	out := make([]string, 0, len(documentOrder))
	for _, t := range documentOrder {
		out = append(out, string(t))
	}
	return out
}

// ParseDocumentType resolves a path or query value to a known type.
func ParseDocumentType(raw string) (DocumentType, bool) {
	t := DocumentType(raw)
	_, ok := documentSpecs[t]
	return t, ok
}

// Spec returns the per-type rules.
func (t DocumentType) Spec() (DocumentSpec, bool) {
	spec, ok := documentSpecs[t]
	return spec, ok
}

// Project maps a transaction status onto the document's own enumeration.
func (s DocumentSpec) Project(status ApprovalStatus) (string, bool) {
	mapped, ok := s.Projection[status]
	return mapped, ok
}

// ValidStatus reports whether status belongs to the type's enumeration.
func (s DocumentSpec) ValidStatus(status string) bool {
	for _, candidate := range s.Statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// Document is the shared column shape of every approvable table.
type Document struct {
	ID             string              `db:"id" json:"id"`
	Type           DocumentType        `db:"-" json:"type"`
	Number         string              `db:"number" json:"number"`
	Title          string              `db:"title" json:"title"`
	Description    *string             `db:"description" json:"description,omitempty"`
	DepartmentID   *string             `db:"department_id" json:"department_id,omitempty"`
	RequesterID    string              `db:"requester_id" json:"requester_id"`
	ReferenceID    *string             `db:"reference_id" json:"reference_id,omitempty"`
	Amount         decimal.NullDecimal `db:"amount" json:"amount"`
	Currency       string              `db:"currency" json:"currency"`
	DueDate        *time.Time          `db:"due_date" json:"due_date,omitempty"`
	Status         string              `db:"status" json:"status"`
	ApprovalStatus *ApprovalStatus     `db:"approval_status" json:"approval_status,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time          `db:"deleted_at" json:"-"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Status         string
	ApprovalStatus string
	DepartmentID   string
	RequesterID    string
	Search         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
