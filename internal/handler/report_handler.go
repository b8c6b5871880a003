package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/internal/service"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/response"
)

type reportService interface {
	BalanceSheet(ctx context.Context, req dto.BalanceSheetRequest) (*dto.GeneratedFile, error)
	Quotation(ctx context.Context, rfqID string, req dto.QuotationRequest) (*dto.GeneratedFile, error)
	ResolveDownload(ctx context.Context, token string) (*service.FileDownload, error)
}

// ReportHandler exposes PDF generation endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// BalanceSheet godoc
// @Summary Render a balance sheet PDF
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.BalanceSheetRequest true "Statement sections"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/balance-sheet [post]
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	var req dto.BalanceSheetRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.service.BalanceSheet(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Quotation godoc
// @Summary Render a vendor quotation for an RFQ
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "RFQ ID"
// @Param payload body dto.QuotationRequest true "Vendor and priced items"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/rfq/{id}/quotation [post]
func (h *ReportHandler) Quotation(c *gin.Context) {
	if t := c.Param("type"); t != "" && t != string(models.DocumentRFQ) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "quotations are only issued for rfq documents"))
		return
	}
	var req dto.QuotationRequest
	if !bindJSON(c, &req) {
		return
	}
	file, err := h.service.Quotation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, file)
}

// Download godoc
// @Summary Download a generated report
// @Tags Reports
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.FieldError("token", "The token field is required."))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, result)
}
