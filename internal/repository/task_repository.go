package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskforge/task-service/internal/domain"
)

// TaskRepository defines persistence access for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, limit, offset int) ([]domain.Task, error)
	ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]domain.Task, error)
	ListByAuthorAndExecutor(ctx context.Context, userID string, limit, offset int) ([]domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, title, description, status, priority, author_id, executor_id, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (title, description, status, priority, author_id, executor_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AuthorID,
		task.ExecutorID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks
        SET title=$1, description=$2, status=$3, priority=$4, author_id=$5, executor_id=$6, updated_at=NOW()
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.AuthorID,
		task.ExecutorID,
		task.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id=$1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`

	var task domain.Task
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.AuthorID,
		&task.ExecutorID,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, limit, offset int) ([]domain.Task, error) {
	const query = `
        SELECT ` + taskColumns + ` FROM tasks
        ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	return r.queryTasks(ctx, query, limit, offset)
}

func (r *taskRepository) ListByAuthor(ctx context.Context, authorID string, limit, offset int) ([]domain.Task, error) {
	const query = `
        SELECT ` + taskColumns + ` FROM tasks
        WHERE author_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	return r.queryTasks(ctx, query, authorID, limit, offset)
}

func (r *taskRepository) ListByAuthorAndExecutor(ctx context.Context, userID string, limit, offset int) ([]domain.Task, error) {
	const query = `
        SELECT ` + taskColumns + ` FROM tasks
        WHERE author_id=$1 AND executor_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	return r.queryTasks(ctx, query, userID, limit, offset)
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.AuthorID,
			&task.ExecutorID,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
