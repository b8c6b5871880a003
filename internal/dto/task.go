package dto

import "github.com/noah-isme/erp-api/internal/models"

// CreateTaskRequest opens a new task.
type CreateTaskRequest struct {
	Title       string  `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
}

// TaskActionRequest appends an entry to a task's action log.
type TaskActionRequest struct {
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`
}

// TaskDetail is a task with its full action log.
type TaskDetail struct {
	models.Task
	Descriptions []models.TaskDescription `json:"descriptions"`
}
