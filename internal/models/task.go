package models

import "time"

// TaskAction is the decision logged against a task.
type TaskAction string

const (
	TaskActionApprove TaskAction = "Approve"
	TaskActionReject  TaskAction = "Reject"
	TaskActionRefer   TaskAction = "Refer"
)

// TaskActions lists the accepted task actions.
func TaskActions() []string {
	return []string{string(TaskActionApprove), string(TaskActionReject), string(TaskActionRefer)}
}

// Task is a unit of work that collects an action log.
type Task struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	AssignedTo  *string   `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TaskDescription is one append-only entry of a task's action log.
// Any action may follow any other.
type TaskDescription struct {
	ID          string     `db:"id" json:"id"`
	TaskID      string     `db:"task_id" json:"task_id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Action      TaskAction `db:"action" json:"action"`
	Description string     `db:"description" json:"description"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssignedTo string
	CreatedBy  string
	Page       int
	PageSize   int
}
