package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/service"
	appErrors "github.com/noah-isme/erp-api/pkg/errors"
	"github.com/noah-isme/erp-api/pkg/response"
)

type attachmentService interface {
	Upload(ctx context.Context, rawType, documentID string, upload service.AttachmentUpload, actorID string) (*dto.AttachmentResponse, error)
	List(ctx context.Context, rawType, documentID string) ([]dto.AttachmentResponse, error)
	Download(ctx context.Context, id, token string) (*service.FileDownload, error)
	Delete(ctx context.Context, id, actorID string) error
}

// AttachmentHandler manages files attached to documents.
type AttachmentHandler struct {
	service attachmentService
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(svc attachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: svc}
}

// Upload godoc
// @Summary Attach a file to a document
// @Description Images up to 2 MB, documents up to 10 MB, videos up to 100 MB
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Param kind formData string true "image, document or video"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{type}/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.FieldError("file", "The file field is required."))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}

	upload := service.AttachmentUpload{
		Kind:     c.PostForm("kind"),
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  reader,
	}
	item, err := h.service.Upload(c.Request.Context(), c.Param("type"), c.Param("id"), upload, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// List godoc
// @Summary List a document's attachments
// @Tags Attachments
// @Produce json
// @Param type path string true "Document type"
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{type}/{id}/attachments [get]
func (h *AttachmentHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("type"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Download godoc
// @Summary Download an attachment via signed token
// @Tags Attachments
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if strings.TrimSpace(token) == "" {
		response.Error(c, appErrors.FieldError("token", "The token field is required."))
		return
	}
	result, err := h.service.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, result)
}

// Delete godoc
// @Summary Remove an attachment
// @Tags Attachments
// @Param id path string true "Attachment ID"
// @Success 204
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func serveFile(c *gin.Context, result *service.FileDownload) {
	defer result.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, result.SizeBytes, result.MimeType, result.File, nil)
}
