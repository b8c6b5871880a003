package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/middleware"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/response"
)

type approvalService interface {
	Record(ctx context.Context, rawType, documentID string, req dto.RecordTransactionRequest, actorID string) (*models.ApprovalOutcome, error)
	List(ctx context.Context, rawType, documentID string) (*dto.ApprovalChainResponse, error)
	Current(ctx context.Context, rawType, documentID string) (*dto.ApprovalChainResponse, error)
}

// ApprovalHandler exposes a document's approval chain.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(svc approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: svc}
}

// List godoc
// @Summary List approval transactions of a document
// @Description Ordered by order then creation time
// @Tags Approvals
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{type}/{id}/transactions [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	chain, err := h.service.List(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chain, nil)
}

// Record godoc
// @Summary Record an approval transaction
// @Description Appends a step to the chain and projects the new status onto the document
// @Tags Approvals
// @Accept json
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Param payload body dto.RecordTransactionRequest true "Transaction"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{type}/{id}/transactions [post]
func (h *ApprovalHandler) Record(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.RecordTransactionRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.service.Record(c.Request.Context(), c.Param("type"), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.NoteMeta(c, "status_regression", outcome.Regressed())
	response.Created(c, outcome, middleware.Meta(c))
}

// Current godoc
// @Summary Current approval status of a document
// @Tags Approvals
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{type}/{id}/approval-status [get]
func (h *ApprovalHandler) Current(c *gin.Context) {
	status, err := h.service.Current(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
