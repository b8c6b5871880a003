package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/response"
)

type documentService interface {
	List(ctx context.Context, rawType string, filter models.DocumentFilter) ([]models.Document, *models.Pagination, error)
	Get(ctx context.Context, rawType, id string) (*models.Document, bool, error)
	Create(ctx context.Context, rawType string, req dto.DocumentRequest, actorID string) (*models.Document, error)
	Update(ctx context.Context, rawType, id string, req dto.DocumentRequest, actorID string) (*models.Document, error)
	Delete(ctx context.Context, rawType, id, actorID string) error
	Export(ctx context.Context, rawType, rawFormat string, filter models.DocumentFilter) (*dto.ExportFile, error)
}

// DocumentHandler serves the CRUD surface shared by every approvable
// document type. The :type path segment selects the table.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(svc documentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

func documentFilter(c *gin.Context) models.DocumentFilter {
	filter := models.DocumentFilter{
		Status:         c.Query("status"),
		ApprovalStatus: c.Query("approval_status"),
		DepartmentID:   c.Query("department_id"),
		RequesterID:    c.Query("requester_id"),
		Search:         c.Query("search"),
		SortBy:         c.Query("sort_by"),
		SortOrder:      c.Query("sort_order"),
	}
	filter.Page, filter.PageSize = pageParams(c)
	return filter
}

// List godoc
// @Summary List documents of a type
// @Tags Documents
// @Produce json
// @Param type path string true "rfq, budget, purchase_order, payment_order, material_request or invoice"
// @Param status query string false "Document status"
// @Param approval_status query string false "Approve, Reject, Refer or Pending"
// @Param department_id query string false "Department"
// @Param search query string false "Number or title"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{type} [get]
func (h *DocumentHandler) List(c *gin.Context) {
	docs, pagination, err := h.service.List(c.Request.Context(), c.Param("type"), documentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, pagination)
}

// Get godoc
// @Summary Show a document
// @Tags Documents
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{type}/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, hit, err := h.service.Get(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil, withCacheMeta(c, hit))
}

// Create godoc
// @Summary Store a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param type path string true "Document type"
// @Param payload body dto.DocumentRequest true "Document"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{type} [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.DocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.service.Create(c.Request.Context(), c.Param("type"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Update godoc
// @Summary Update a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Param payload body dto.DocumentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{type}/{id} [put]
func (h *DocumentHandler) Update(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.DocumentRequest
	if !bindJSON(c, &req) {
		return
	}

	doc, err := h.service.Update(c.Request.Context(), c.Param("type"), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Delete godoc
// @Summary Soft delete a document
// @Tags Documents
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /documents/{type}/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("type"), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export a document listing
// @Tags Documents
// @Produce octet-stream
// @Param type path string true "Document type"
// @Param format query string false "csv, xlsx or pdf"
// @Success 200 {file} file
// @Failure 422 {object} response.Envelope
// @Router /documents/{type}/export [get]
func (h *DocumentHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("type"), c.DefaultQuery("format", "csv"), documentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
