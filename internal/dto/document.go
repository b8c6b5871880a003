package dto

import "github.com/shopspring/decimal"

// DocumentRequest is shared by document create and update calls. Update only
// touches the fields present in the body.
type DocumentRequest struct {
	Number       string           `json:"number,omitempty"`
	Title        string           `json:"title,omitempty"`
	Description  *string          `json:"description,omitempty"`
	DepartmentID *string          `json:"department_id,omitempty"`
	RequesterID  string           `json:"requester_id,omitempty"`
	ReferenceID  *string          `json:"reference_id,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Currency     string           `json:"currency,omitempty"`
	DueDate      *string          `json:"due_date,omitempty"`
	Status       string           `json:"status,omitempty"`
}

// ExportFile is a rendered document listing ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
