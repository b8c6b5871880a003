package models

import "time"

// ApprovalStatus is the closed set of decisions recorded on a transaction.
type ApprovalStatus string

const (
	ApprovalApprove ApprovalStatus = "Approve"
	ApprovalReject  ApprovalStatus = "Reject"
	ApprovalRefer   ApprovalStatus = "Refer"
	ApprovalPending ApprovalStatus = "Pending"
)

// ApprovalStatuses lists every accepted transaction status.
func ApprovalStatuses() []string {
	return []string{string(ApprovalApprove), string(ApprovalReject), string(ApprovalRefer), string(ApprovalPending)}
}

// Decided reports whether the status closes a step (Approve or Reject).
func (s ApprovalStatus) Decided() bool {
	return s == ApprovalApprove || s == ApprovalReject
}

// ApprovalTransaction is one append-only step of a document's approval chain.
type ApprovalTransaction struct {
	ID           string         `db:"id" json:"id"`
	DocumentType DocumentType   `db:"document_type" json:"document_type"`
	DocumentID   string         `db:"document_id" json:"document_id"`
	RequesterID  string         `db:"requester_id" json:"requester_id"`
	AssignedTo   *string        `db:"assigned_to" json:"assigned_to,omitempty"`
	ReferredTo   *string        `db:"referred_to" json:"referred_to,omitempty"`
	Order        int            `db:"order" json:"order"`
	Description  *string        `db:"description" json:"description,omitempty"`
	Status       ApprovalStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// Recipient returns the user the next step is waiting on.
func (t ApprovalTransaction) Recipient() string {
	if t.Status == ApprovalRefer && t.ReferredTo != nil {
		return *t.ReferredTo
	}
	if t.AssignedTo != nil {
		return *t.AssignedTo
	}
	return ""
}

// ApprovalOutcome is the result of recording a transaction.
type ApprovalOutcome struct {
	Transaction    ApprovalTransaction `json:"transaction"`
	Document       Document            `json:"document"`
	PreviousStatus *ApprovalStatus     `json:"previous_status,omitempty"`
	CurrentStatus  ApprovalStatus      `json:"current_status"`
}

// Regressed flags a decided chain moved back to Pending.
func (o ApprovalOutcome) Regressed() bool {
	return o.PreviousStatus != nil && o.PreviousStatus.Decided() && o.CurrentStatus == ApprovalPending
}

// PendingApproval is a document whose latest transaction is still Pending.
type PendingApproval struct {
	DocumentType  DocumentType `db:"document_type" json:"document_type"`
	DocumentID    string       `db:"document_id" json:"document_id"`
	TransactionID string       `db:"id" json:"transaction_id"`
	RequesterID   string       `db:"requester_id" json:"requester_id"`
	AssignedTo    *string      `db:"assigned_to" json:"assigned_to,omitempty"`
	ReferredTo    *string      `db:"referred_to" json:"referred_to,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
