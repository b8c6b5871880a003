package dto

import "github.com/noah-isme/erp-api/internal/models"

// RecordTransactionRequest is the body of POST /documents/:type/:id/transactions.
// RequesterID falls back to the authenticated user when omitted and Order is
// assigned automatically when absent.
type RecordTransactionRequest struct {
	RequesterID string  `json:"requester_id,omitempty"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	ReferredTo  *string `json:"referred_to,omitempty"`
	Order       *int    `json:"order,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// ApprovalChainResponse bundles a document's chain with its projection.
type ApprovalChainResponse struct {
	DocumentType   models.DocumentType          `json:"document_type"`
	DocumentID     string                       `json:"document_id"`
	Status         string                       `json:"status"`
	ApprovalStatus *models.ApprovalStatus       `json:"approval_status,omitempty"`
	Transactions   []models.ApprovalTransaction `json:"transactions,omitempty"`
}
