package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acme-ops/opsboard/internal/domain"
)

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	ManagerID *string
	Status    *domain.ProjectStatus
	Limit     int
	Offset    int
}

// ProjectRepository encapsulates project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type projectRepository struct {
	q Querier
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(q Querier) ProjectRepository {
	return &projectRepository{q: q}
}

const projectSelect = `
        SELECT p.project_id, p.name, p.description, COALESCE(p.manager_id::text, ''),
               COALESCE(u.first_name || ' ' || u.last_name, ''), p.status, p.start_date, p.due_date,
               p.created_at, p.updated_at
        FROM projects p
        LEFT JOIN users u ON u.user_id = p.manager_id`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (name, description, manager_id, status, start_date, due_date)
        VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6)
        RETURNING project_id, created_at, updated_at`
	return r.q.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.ManagerID,
		project.Status,
		project.StartDate,
		project.DueDate,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	const query = `
        UPDATE projects SET name=$1, description=$2, manager_id=NULLIF($3, '')::uuid, status=$4,
            start_date=$5, due_date=$6, updated_at=NOW()
        WHERE project_id=$7
        RETURNING updated_at`
	return r.q.QueryRow(ctx, query,
		project.Name,
		project.Description,
		project.ManagerID,
		project.Status,
		project.StartDate,
		project.DueDate,
		project.ID,
	).Scan(&project.UpdatedAt)
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return scanProject(r.q.QueryRow(ctx, projectSelect+` WHERE p.project_id=$1`, id))
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error) {
	query := projectSelect + ` WHERE 1=1`
	args := []any{}

	if filter.ManagerID != nil {
		args = append(args, *filter.ManagerID)
		query += fmt.Sprintf(" AND p.manager_id=$%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND p.status=$%d", len(args))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM projects WHERE project_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var project domain.Project
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ManagerID,
		&project.ManagerName,
		&project.Status,
		&project.StartDate,
		&project.DueDate,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}
