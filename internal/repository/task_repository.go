package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acme-ops/opsboard/internal/domain"
)

// TaskFilter captures task search parameters.
type TaskFilter struct {
	ProjectID  *string
	AssignedTo *string
	Status     *domain.TaskStatus
	Priority   *domain.Priority
	Limit      int
	Offset     int
}

// TaskRepository encapsulates task persistence.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type taskRepository struct {
	q Querier
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(q Querier) TaskRepository {
	return &taskRepository{q: q}
}

const taskSelect = `
        SELECT t.task_id, t.project_id, p.name, t.title, t.description, t.assigned_to::text,
               COALESCE(u.first_name || ' ' || u.last_name, ''), t.status, t.priority, t.due_date,
               t.created_at, t.updated_at
        FROM tasks t
        JOIN projects p ON p.project_id = t.project_id
        LEFT JOIN users u ON u.user_id = t.assigned_to`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (project_id, title, description, assigned_to, status, priority, due_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING task_id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		task.ProjectID,
		task.Title,
		task.Description,
		task.AssignedTo,
		task.Status,
		task.Priority,
		task.DueDate,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET project_id=$1, title=$2, description=$3, assigned_to=$4, status=$5,
            priority=$6, due_date=$7, updated_at=NOW()
        WHERE task_id=$8
        RETURNING updated_at`
	return r.q.QueryRow(ctx, query,
		task.ProjectID,
		task.Title,
		task.Description,
		task.AssignedTo,
		task.Status,
		task.Priority,
		task.DueDate,
		task.ID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return scanTask(r.q.QueryRow(ctx, taskSelect+` WHERE t.task_id=$1`, id))
}

func (r *taskRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE task_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	query := taskSelect + ` WHERE 1=1`
	args := []any{}

	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		query += fmt.Sprintf(" AND t.project_id=$%d", len(args))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		query += fmt.Sprintf(" AND t.assigned_to=$%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND t.status=$%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		query += fmt.Sprintf(" AND t.priority=$%d", len(args))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY t.due_date NULLS LAST, t.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM tasks WHERE task_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.ProjectName,
		&task.Title,
		&task.Description,
		&task.AssignedTo,
		&task.AssigneeName,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}
