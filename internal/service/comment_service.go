package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge/task-service/internal/domain"
	"github.com/taskforge/task-service/internal/events"
	"github.com/taskforge/task-service/internal/repository"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

// CommentService coordinates comment workflows for tasks.
type CommentService struct {
	comments   repository.CommentRepository
	tasks      repository.TaskRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, tasks repository.TaskRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{comments: comments, tasks: tasks, dispatcher: dispatcher}
}

// Create attaches a comment to a task.
func (s *CommentService) Create(ctx context.Context, taskID, authorID, body string) (*domain.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, apperrors.NewNotFound("task", map[string]any{"task_id": taskID})
	}

	comment := &domain.Comment{
		TaskID:   taskID,
		AuthorID: authorID,
		Body:     body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventCommentAdded,
			TaskID:    taskID,
			ActorID:   authorID,
			Timestamp: time.Now(),
			Payload: events.CommentAddedPayload{
				CommentID:   comment.ID,
				AuthorID:    authorID,
				BodyPreview: preview(body, 120),
			},
		})
	}
	return comment, nil
}

// GetByID loads a single comment.
func (s *CommentService) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	return s.comments.GetByID(ctx, id)
}

// ListByTask returns a task's comments with pagination.
func (s *CommentService) ListByTask(ctx context.Context, taskID string, limit, offset int) ([]domain.Comment, error) {
	return s.comments.ListByTask(ctx, taskID, clampLimit(limit), offset)
}

// Update edits a comment body. Only the author or an admin may edit.
func (s *CommentService) Update(ctx context.Context, id, body string, actor *domain.User) (*domain.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}

	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actor.ID && actor.Role != domain.UserRoleAdmin {
		return nil, apperrors.NewForbidden("not the comment author")
	}

	comment.Body = body
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment. Only the author or an admin may delete.
func (s *CommentService) Delete(ctx context.Context, id string, actor *domain.User) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.AuthorID != actor.ID && actor.Role != domain.UserRoleAdmin {
		return apperrors.NewForbidden("not the comment author")
	}
	return s.comments.Delete(ctx, id)
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
