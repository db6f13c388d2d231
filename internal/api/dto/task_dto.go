package dto

import (
	"time"

	"github.com/taskforge/task-service/internal/domain"
)

// TaskCreateRequest payload for creating tasks.
type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
	ExecutorID  *string `json:"executor_id,omitempty"`
}

// TaskUpdateRequest payload for editing tasks.
type TaskUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// TaskSetStatusRequest payload for status transitions.
type TaskSetStatusRequest struct {
	Status string `json:"status"`
}

// TaskSetPriorityRequest payload for priority changes.
type TaskSetPriorityRequest struct {
	Priority string `json:"priority"`
}

// TaskResponse is the wire representation of a task.
type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AuthorID    string    `json:"author_id"`
	ExecutorID  *string   `json:"executor_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTaskResponse maps a domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		AuthorID:    task.AuthorID,
		ExecutorID:  task.ExecutorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// NewTaskListResponse maps a slice of domain tasks.
func NewTaskListResponse(tasks []domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskResponse(&tasks[i]))
	}
	return out
}
