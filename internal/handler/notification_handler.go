package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/response"
)

type notificationService interface {
	Settings(ctx context.Context, userID string) (*dto.NotificationMatrix, error)
	UpdateSettings(ctx context.Context, userID string, req dto.UpdateNotificationSettingsRequest) (*dto.NotificationMatrix, error)
	Inbox(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// NotificationHandler serves the caller's channel settings and inbox.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// Settings godoc
// @Summary Notification channel matrix of the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notification-settings [get]
func (h *NotificationHandler) Settings(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	matrix, err := h.service.Settings(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// UpdateSettings godoc
// @Summary Toggle notification channels
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.UpdateNotificationSettingsRequest true "Toggles"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /notification-settings [put]
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.UpdateNotificationSettingsRequest
	if !bindJSON(c, &req) {
		return
	}
	matrix, err := h.service.UpdateSettings(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matrix, nil)
}

// Inbox godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) Inbox(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	filter := models.NotificationFilter{}
	filter.UnreadOnly, _ = strconv.ParseBool(c.Query("unread"))
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.service.Inbox(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
