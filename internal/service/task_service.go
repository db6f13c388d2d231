package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskforge/task-service/internal/domain"
	"github.com/taskforge/task-service/internal/events"
	"github.com/taskforge/task-service/internal/repository"
	apperrors "github.com/taskforge/task-service/pkg/util"
)

const taskCacheTTL = 5 * time.Minute

// TaskService coordinates task workflows. Single-task reads go through a
// Redis cache when a client is provided; mutations invalidate the entry.
type TaskService struct {
	tasks      repository.TaskRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	cache      *redis.Client
}

// NewTaskService constructs the service. The cache client may be nil.
func NewTaskService(tasks repository.TaskRepository, users repository.UserRepository, dispatcher events.Dispatcher, cache *redis.Client) *TaskService {
	return &TaskService{tasks: tasks, users: users, dispatcher: dispatcher, cache: cache}
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	ExecutorID  *string
}

// TaskUpdateInput describes mutable task fields.
type TaskUpdateInput struct {
	Title       *string
	Description *string
}

// Create creates a task authored by the given user.
func (s *TaskService) Create(ctx context.Context, authorID string, input TaskCreateInput) (*domain.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	if input.ExecutorID != nil {
		if _, err := s.users.GetByID(ctx, *input.ExecutorID); err != nil {
			return nil, apperrors.NewNotFound("executor", map[string]any{"user_id": *input.ExecutorID})
		}
	}

	task := &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TaskStatusPending,
		Priority:    priority,
		AuthorID:    authorID,
		ExecutorID:  input.ExecutorID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTaskCreated, task.ID, authorID, events.TaskCreatedPayload{
		Title:    task.Title,
		Priority: task.Priority,
		Status:   task.Status,
	})
	return task, nil
}

// Update edits title and description.
func (s *TaskService) Update(ctx context.Context, id string, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title must not be empty", nil)
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.evict(ctx, task.ID)
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

// GetByID loads a single task, preferring the cache. Cache failures fall
// back to the repository silently.
func (s *TaskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, taskCacheKey(id)).Bytes(); err == nil {
			var task domain.Task
			if err := json.Unmarshal(raw, &task); err == nil {
				return &task, nil
			}
		}
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if raw, err := json.Marshal(task); err == nil {
			s.cache.Set(ctx, taskCacheKey(id), raw, taskCacheTTL)
		}
	}
	return task, nil
}

// List returns tasks with pagination.
func (s *TaskService) List(ctx context.Context, limit, offset int) ([]domain.Task, error) {
	return s.tasks.List(ctx, clampLimit(limit), offset)
}

// ListByAuthor returns the tasks the user created.
func (s *TaskService) ListByAuthor(ctx context.Context, userID string, limit, offset int) ([]domain.Task, error) {
	return s.tasks.ListByAuthor(ctx, userID, clampLimit(limit), offset)
}

// ListAuthoredAndExecuted returns tasks where the user is both author and executor.
func (s *TaskService) ListAuthoredAndExecuted(ctx context.Context, userID string, limit, offset int) ([]domain.Task, error) {
	return s.tasks.ListByAuthorAndExecutor(ctx, userID, clampLimit(limit), offset)
}

// SetStatus transitions a task's status.
func (s *TaskService) SetStatus(ctx context.Context, id string, status domain.TaskStatus, actorID string) (*domain.Task, error) {
	switch status {
	case domain.TaskStatusPending, domain.TaskStatusInProgress, domain.TaskStatusCompleted:
	default:
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := task.Status
	task.Status = status
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.evict(ctx, task.ID)

	s.publish(ctx, events.EventTaskStatusChanged, task.ID, actorID, events.TaskStatusChangedPayload{
		OldStatus: old,
		NewStatus: status,
	})
	return task, nil
}

// SetPriority changes a task's priority.
func (s *TaskService) SetPriority(ctx context.Context, id string, priority domain.TaskPriority, actorID string) (*domain.Task, error) {
	switch priority {
	case domain.TaskPriorityHigh, domain.TaskPriorityMedium, domain.TaskPriorityLow:
	default:
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := task.Priority
	task.Priority = priority
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.evict(ctx, task.ID)

	s.publish(ctx, events.EventTaskPriorityChanged, task.ID, actorID, events.TaskPriorityChangedPayload{
		OldPriority: old,
		NewPriority: priority,
	})
	return task, nil
}

// SetExecutor assigns an executor to a task.
func (s *TaskService) SetExecutor(ctx context.Context, taskID, userID, actorID string) (*domain.Task, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, apperrors.NewNotFound("executor", map[string]any{"user_id": userID})
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.ExecutorID = &userID
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.evict(ctx, task.ID)

	s.publish(ctx, events.EventTaskAssigned, task.ID, actorID, events.TaskAssignedPayload{
		ExecutorID: &userID,
	})
	return task, nil
}

// SetAuthor reassigns the author of a task.
func (s *TaskService) SetAuthor(ctx context.Context, taskID, userID, actorID string) (*domain.Task, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, apperrors.NewNotFound("author", map[string]any{"user_id": userID})
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	task.AuthorID = userID
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.evict(ctx, task.ID)

	s.publish(ctx, events.EventTaskAssigned, task.ID, actorID, events.TaskAssignedPayload{
		AuthorID: &userID,
	})
	return task, nil
}

func (s *TaskService) publish(ctx context.Context, eventType events.EventType, taskID, actorID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TaskID:    taskID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func taskCacheKey(id string) string {
	return "task:" + id
}

func (s *TaskService) evict(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, taskCacheKey(id))
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
