package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/service"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/response"
)

// SchemaHandler publishes the input schemas so clients can mirror the
// server-side validation.
type SchemaHandler struct {
	registry *service.SchemaRegistry
}

// NewSchemaHandler constructs the handler.
func NewSchemaHandler(registry *service.SchemaRegistry) *SchemaHandler {
	return &SchemaHandler{registry: registry}
}

// List godoc
// @Summary List schema names
// @Tags Schemas
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schemas [get]
func (h *SchemaHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.registry.Names(), nil)
}

// Describe godoc
// @Summary Field constraint table of a schema
// @Tags Schemas
// @Produce json
// @Param name path string true "Schema name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schemas/{name} [get]
func (h *SchemaHandler) Describe(c *gin.Context) {
	fields, ok := h.registry.Describe(c.Param("name"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "schema not found"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"name": c.Param("name"), "fields": fields}, nil)
}
