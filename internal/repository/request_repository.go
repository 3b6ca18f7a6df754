package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/acme-ops/opsboard/internal/domain"
)

// RequestFilter captures reviewer search parameters.
type RequestFilter struct {
	Status *domain.RequestStatus
	UserID *string
	Limit  int
	Offset int
}

// ReviewDecision is applied to a pending request by a reviewer.
type ReviewDecision struct {
	Status     domain.RequestStatus
	ReviewerID string
	Comment    *string
}

// RequestRepository encapsulates time-entry request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.RequestListItem, error)
	// MarkReviewed moves a pending request to decision.Status. It returns
	// pgx.ErrNoRows when the request is missing or no longer pending.
	MarkReviewed(ctx context.Context, id string, decision ReviewDecision) (*domain.Request, error)
}

type requestRepository struct {
	q Querier
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(q Querier) RequestRepository {
	return &requestRepository{q: q}
}

const requestColumns = `request_id, user_id, task_id, start_time, end_time, notes, priority, status,
               reviewed_by::text, reviewed_at, review_comment, created_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (user_id, task_id, start_time, end_time, notes, priority, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING request_id, created_at`
	return r.q.QueryRow(ctx, query,
		request.UserID,
		request.TaskID,
		request.StartTime,
		request.EndTime,
		request.Notes,
		request.Priority,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE request_id=$1`
	return scanRequest(r.q.QueryRow(ctx, query, id))
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.RequestListItem, error) {
	query := `
        SELECT r.request_id, r.user_id, r.task_id, r.start_time, r.end_time, r.notes, r.priority, r.status,
               r.reviewed_by::text, r.reviewed_at, r.review_comment, r.created_at,
               u.first_name, u.last_name, t.title
        FROM requests r
        JOIN users u ON u.user_id = r.user_id
        JOIN tasks t ON t.task_id = r.task_id
        WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND r.status=$%d", len(args))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND r.user_id=$%d", len(args))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RequestListItem
	for rows.Next() {
		var item domain.RequestListItem
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.TaskID,
			&item.StartTime,
			&item.EndTime,
			&item.Notes,
			&item.Priority,
			&item.Status,
			&item.ReviewedBy,
			&item.ReviewedAt,
			&item.ReviewComment,
			&item.CreatedAt,
			&item.SubmitterFirstName,
			&item.SubmitterLastName,
			&item.TaskTitle,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *requestRepository) MarkReviewed(ctx context.Context, id string, decision ReviewDecision) (*domain.Request, error) {
	query := `
        UPDATE requests SET status=$1, reviewed_by=$2, reviewed_at=NOW(), review_comment=$3
        WHERE request_id=$4 AND status='pending'
        RETURNING ` + requestColumns
	return scanRequest(r.q.QueryRow(ctx, query,
		decision.Status,
		decision.ReviewerID,
		decision.Comment,
		id,
	))
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var request domain.Request
	if err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.TaskID,
		&request.StartTime,
		&request.EndTime,
		&request.Notes,
		&request.Priority,
		&request.Status,
		&request.ReviewedBy,
		&request.ReviewedAt,
		&request.ReviewComment,
		&request.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}
