package events

import (
	"time"

	"github.com/taskforge/task-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTaskCreated         EventType = "task_created"
	EventTaskStatusChanged   EventType = "task_status_changed"
	EventTaskPriorityChanged EventType = "task_priority_changed"
	EventTaskAssigned        EventType = "task_assigned"
	EventCommentAdded        EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TaskID    string      `json:"task_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	Title    string              `json:"title"`
	Priority domain.TaskPriority `json:"priority"`
	Status   domain.TaskStatus   `json:"status"`
}

// TaskStatusChangedPayload payload.
type TaskStatusChangedPayload struct {
	OldStatus domain.TaskStatus `json:"old_status"`
	NewStatus domain.TaskStatus `json:"new_status"`
}

// TaskPriorityChangedPayload payload.
type TaskPriorityChangedPayload struct {
	OldPriority domain.TaskPriority `json:"old_priority"`
	NewPriority domain.TaskPriority `json:"new_priority"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	ExecutorID *string `json:"executor_id,omitempty"`
	AuthorID   *string `json:"author_id,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}
