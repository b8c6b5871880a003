package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/erp-api/internal/dto"
	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/response"
)

type taskService interface {
	Create(ctx context.Context, req dto.CreateTaskRequest, actorID string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.TaskDetail, error)
	Descriptions(ctx context.Context, id string) ([]models.TaskDescription, error)
	AddDescription(ctx context.Context, taskID string, req dto.TaskActionRequest, actorID string) (*models.TaskDescription, error)
}

// TaskHandler serves tasks and their action logs.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(svc taskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param assigned_to query string false "Assignee"
// @Param created_by query string false "Creator"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	filter := models.TaskFilter{AssignedTo: c.Query("assigned_to"), CreatedBy: c.Query("created_by")}
	filter.Page, filter.PageSize = pageParams(c)

	tasks, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, pagination)
}

// Create godoc
// @Summary Create task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Get godoc
// @Summary Show task with its action log
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Descriptions godoc
// @Summary List a task's action log
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/descriptions [get]
func (h *TaskHandler) Descriptions(c *gin.Context) {
	entries, err := h.service.Descriptions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// AddDescription godoc
// @Summary Append to a task's action log
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.TaskActionRequest true "Action"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /tasks/{id}/descriptions [post]
func (h *TaskHandler) AddDescription(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.TaskActionRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.service.AddDescription(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}
