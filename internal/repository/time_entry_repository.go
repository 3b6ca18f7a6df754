package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/acme-ops/opsboard/internal/domain"
)

// TimeEntryFilter narrows a user's time entries.
type TimeEntryFilter struct {
	UserID string
	TaskID *string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// TimeEntryRepository encapsulates time entry persistence. Mutations are
// always keyed by (entry_id, user_id).
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *domain.TimeEntry) error
	GetByID(ctx context.Context, id string) (*domain.TimeEntry, error)
	GetBySourceRequest(ctx context.Context, requestID string) (*domain.TimeEntry, error)
	List(ctx context.Context, filter TimeEntryFilter) ([]domain.TimeEntry, error)
	Update(ctx context.Context, entry *domain.TimeEntry) error
	Delete(ctx context.Context, id, userID string) error
}

type timeEntryRepository struct {
	q Querier
}

// NewTimeEntryRepository instantiates repository.
func NewTimeEntryRepository(q Querier) TimeEntryRepository {
	return &timeEntryRepository{q: q}
}

const timeEntryColumns = `entry_id, user_id, task_id, start_time, end_time, notes, source_request_id::text, created_at`

func (r *timeEntryRepository) Create(ctx context.Context, entry *domain.TimeEntry) error {
	const query = `
        INSERT INTO time_entries (user_id, task_id, start_time, end_time, notes, source_request_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING entry_id, created_at`
	return r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.TaskID,
		entry.StartTime,
		entry.EndTime,
		entry.Notes,
		entry.SourceRequestID,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *timeEntryRepository) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE entry_id=$1`
	return scanTimeEntry(r.q.QueryRow(ctx, query, id))
}

func (r *timeEntryRepository) GetBySourceRequest(ctx context.Context, requestID string) (*domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE source_request_id=$1`
	return scanTimeEntry(r.q.QueryRow(ctx, query, requestID))
}

func (r *timeEntryRepository) List(ctx context.Context, filter TimeEntryFilter) ([]domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE user_id=$1`
	args := []any{filter.UserID}

	if filter.TaskID != nil {
		args = append(args, *filter.TaskID)
		query += fmt.Sprintf(" AND task_id=$%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND end_time <= $%d", len(args))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY start_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (r *timeEntryRepository) Update(ctx context.Context, entry *domain.TimeEntry) error {
	const query = `
        UPDATE time_entries SET task_id=$1, start_time=$2, end_time=$3, notes=$4
        WHERE entry_id=$5 AND user_id=$6`
	cmd, err := r.q.Exec(ctx, query,
		entry.TaskID,
		entry.StartTime,
		entry.EndTime,
		entry.Notes,
		entry.ID,
		entry.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *timeEntryRepository) Delete(ctx context.Context, id, userID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM time_entries WHERE entry_id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTimeEntry(row pgx.Row) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.TaskID,
		&entry.StartTime,
		&entry.EndTime,
		&entry.Notes,
		&entry.SourceRequestID,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &entry, nil
}
