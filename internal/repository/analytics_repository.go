package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
)

// ErrUnknownReport is returned for report names outside the catalog.
var ErrUnknownReport = errors.New("unknown report")

// AnalyticsRepository runs the fixed catalog of aggregate reports.
type AnalyticsRepository interface {
	Reports() []string
	Run(ctx context.Context, name string) ([]map[string]any, error)
}

type analyticsRepository struct {
	q Querier
}

// NewAnalyticsRepository instantiates repository.
func NewAnalyticsRepository(q Querier) AnalyticsRepository {
	return &analyticsRepository{q: q}
}

// ReportNames lists the catalog in stable order.
func ReportNames() []string {
	names := make([]string, 0, len(reportQueries))
	for name := range reportQueries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsReport reports whether name is in the catalog.
func IsReport(name string) bool {
	_, ok := reportQueries[name]
	return ok
}

func (r *analyticsRepository) Reports() []string {
	return ReportNames()
}

func (r *analyticsRepository) Run(ctx context.Context, name string) ([]map[string]any, error) {
	query, ok := reportQueries[name]
	if !ok {
		return nil, ErrUnknownReport
	}
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	result, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []map[string]any{}
	}
	return result, nil
}

const memberName = `u.first_name || ' ' || u.last_name`

var reportQueries = map[string]string{
	// users
	"user-count-by-role": `
        SELECT role, COUNT(*) AS user_count
        FROM users
        GROUP BY role
        ORDER BY user_count DESC`,
	"active-inactive-users": `
        SELECT is_active, COUNT(*) AS total_users
        FROM users
        GROUP BY is_active`,
	"users-created-per-month": `
        SELECT DATE_TRUNC('month', created_at) AS month, COUNT(*) AS new_users
        FROM users
        GROUP BY month
        ORDER BY month`,

	// projects
	"projects-by-status": `
        SELECT status, COUNT(*) AS project_count
        FROM projects
        GROUP BY status
        ORDER BY project_count DESC`,
	"projects-per-manager": `
        SELECT COALESCE(` + memberName + `, 'unassigned') AS manager_name, COUNT(p.project_id) AS project_count
        FROM projects p
        LEFT JOIN users u ON u.user_id = p.manager_id
        GROUP BY manager_name
        ORDER BY project_count DESC`,
	"projects-created-per-month": `
        SELECT DATE_TRUNC('month', created_at) AS month, COUNT(*) AS total_projects
        FROM projects
        GROUP BY month
        ORDER BY month`,

	// tasks
	"task-distribution-by-status": `
        SELECT status, COUNT(*) AS task_count
        FROM tasks
        GROUP BY status
        ORDER BY task_count DESC`,
	"task-distribution-by-priority": `
        SELECT priority, COUNT(*) AS total_tasks
        FROM tasks
        GROUP BY priority
        ORDER BY total_tasks DESC`,
	"tasks-assigned-to-users": `
        SELECT COALESCE(` + memberName + `, 'unassigned') AS assignee, COUNT(t.task_id) AS task_count
        FROM tasks t
        LEFT JOIN users u ON u.user_id = t.assigned_to
        GROUP BY assignee
        ORDER BY task_count DESC`,
	"tasks-per-project": `
        SELECT p.name AS project_name, COUNT(t.task_id) AS total_tasks
        FROM tasks t
        JOIN projects p ON p.project_id = t.project_id
        GROUP BY p.name
        ORDER BY total_tasks DESC`,

	// time entries
	"hours-logged-per-user": `
        SELECT ` + memberName + ` AS user_name, SUM(te.duration) AS total_hours
        FROM time_entries te
        JOIN users u ON u.user_id = te.user_id
        GROUP BY u.user_id, user_name
        ORDER BY total_hours DESC`,
	"hours-logged-per-project": `
        SELECT p.name AS project_name, SUM(te.duration) AS total_hours
        FROM time_entries te
        JOIN tasks t ON t.task_id = te.task_id
        JOIN projects p ON p.project_id = t.project_id
        GROUP BY p.project_id, p.name
        ORDER BY total_hours DESC`,
	"time-spent-per-task": `
        SELECT t.title AS task_title, SUM(te.duration) AS hours_logged
        FROM time_entries te
        JOIN tasks t ON t.task_id = te.task_id
        GROUP BY t.task_id, t.title
        ORDER BY hours_logged DESC`,
	"daily-activity-trend": `
        SELECT DATE(start_time) AS log_date, SUM(duration) AS total_hours
        FROM time_entries
        GROUP BY log_date
        ORDER BY log_date`,

	// requests
	"requests-count-by-status": `
        SELECT status, COUNT(*) AS total_requests
        FROM requests
        GROUP BY status
        ORDER BY total_requests DESC`,
	"requests-per-user": `
        SELECT ` + memberName + ` AS user_name, COUNT(r.request_id) AS request_count
        FROM requests r
        JOIN users u ON u.user_id = r.user_id
        GROUP BY u.user_id, user_name
        ORDER BY request_count DESC`,
	"request-processing-time": `
        SELECT request_id::text AS request_id, status,
               ROUND((EXTRACT(EPOCH FROM (reviewed_at - created_at)) / 3600)::numeric, 2) AS processing_hours
        FROM requests
        WHERE reviewed_at IS NOT NULL
        ORDER BY reviewed_at DESC`,
	"daily-requests-over-time": `
        SELECT DATE(created_at) AS request_date, COUNT(*) AS total_requests
        FROM requests
        GROUP BY request_date
        ORDER BY request_date`,

	// team member utilization
	"under-utilized-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username, COUNT(t.task_id) AS active_task_count
        FROM users u
        LEFT JOIN tasks t ON t.assigned_to = u.user_id AND t.status IN ('pending', 'in_progress')
        WHERE u.role = 'team_member' AND u.is_active
        GROUP BY u.user_id
        HAVING COUNT(t.task_id) < 3
        ORDER BY active_task_count ASC`,
	"over-utilized-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username, COUNT(t.task_id) AS active_task_count
        FROM users u
        LEFT JOIN tasks t ON t.assigned_to = u.user_id AND t.status IN ('pending', 'in_progress')
        WHERE u.role = 'team_member' AND u.is_active
        GROUP BY u.user_id
        HAVING COUNT(t.task_id) > 8
        ORDER BY active_task_count DESC`,
	"neglected-tasks-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username, COUNT(t.task_id) AS pending_count
        FROM users u
        JOIN tasks t ON t.assigned_to = u.user_id
        WHERE u.role = 'team_member'
          AND t.status = 'pending'
          AND t.updated_at < NOW() - INTERVAL '5 days'
        GROUP BY u.user_id
        ORDER BY pending_count DESC`,
	"mostly-low-priority-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username,
               COUNT(t.task_id) FILTER (WHERE t.priority = 'low') AS low_priority_tasks,
               COUNT(t.task_id) AS total_tasks
        FROM users u
        LEFT JOIN tasks t ON t.assigned_to = u.user_id
        WHERE u.role = 'team_member' AND u.is_active
        GROUP BY u.user_id
        HAVING COUNT(t.task_id) FILTER (WHERE t.priority = 'low') > 0
        ORDER BY low_priority_tasks DESC`,
	"urgent-task-candidates": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username,
               COUNT(t.task_id) FILTER (WHERE t.status IN ('pending', 'in_progress')) AS active_tasks
        FROM users u
        LEFT JOIN tasks t ON t.assigned_to = u.user_id
        WHERE u.role = 'team_member' AND u.is_active
        GROUP BY u.user_id
        ORDER BY active_tasks ASC`,
	"highest-completion-rate-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username,
               COUNT(t.task_id) FILTER (WHERE t.status = 'completed') AS completed_tasks,
               COUNT(t.task_id) AS total_assigned,
               ROUND((COUNT(t.task_id) FILTER (WHERE t.status = 'completed')::numeric
                      / GREATEST(COUNT(t.task_id), 1)) * 100, 2) AS completion_rate
        FROM users u
        LEFT JOIN tasks t ON t.assigned_to = u.user_id
        WHERE u.role = 'team_member'
        GROUP BY u.user_id
        ORDER BY completion_rate DESC`,
	"idle-users": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username
        FROM users u
        LEFT JOIN tasks t ON t.assigned_to = u.user_id
        WHERE u.role = 'team_member'
        GROUP BY u.user_id
        HAVING COUNT(t.task_id) = 0`,
	"too-many-high-priority-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username, COUNT(t.task_id) AS high_priority_count
        FROM users u
        JOIN tasks t ON t.assigned_to = u.user_id
        WHERE u.role = 'team_member'
          AND t.priority = 'high'
          AND t.status IN ('pending', 'in_progress')
        GROUP BY u.user_id
        ORDER BY high_priority_count DESC`,
	"avg-hours-per-task": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username, ROUND(AVG(te.duration), 2) AS avg_hours_per_task
        FROM users u
        JOIN tasks t ON t.assigned_to = u.user_id
        JOIN time_entries te ON te.task_id = t.task_id
        WHERE u.role = 'team_member'
        GROUP BY u.user_id
        ORDER BY avg_hours_per_task ASC`,
	// Reviewers are administrators and project managers; team members never review.
	"delaying-requests-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username,
               ROUND(AVG(EXTRACT(EPOCH FROM (r.reviewed_at - r.created_at)) / 3600)::numeric, 2) AS avg_hours_to_review
        FROM users u
        JOIN requests r ON r.reviewed_by = u.user_id
        WHERE u.role IN ('administrator', 'project_manager')
          AND r.status IN ('accepted', 'rejected')
        GROUP BY u.user_id
        ORDER BY avg_hours_to_review DESC`,
	"urgent-requests-handled-members": `
        SELECT u.user_id::text AS user_id, ` + memberName + ` AS username, COUNT(r.request_id) AS urgent_requests_handled
        FROM users u
        JOIN requests r ON r.reviewed_by = u.user_id
        WHERE u.role IN ('administrator', 'project_manager')
          AND r.status = 'accepted'
          AND r.priority = 'high'
        GROUP BY u.user_id
        ORDER BY urgent_requests_handled DESC`,
	"workload-heatmap": `
        SELECT p.name AS project_name, ` + memberName + ` AS username, COUNT(t.task_id) AS tasks_assigned
        FROM tasks t
        JOIN projects p ON p.project_id = t.project_id
        JOIN users u ON u.user_id = t.assigned_to
        WHERE u.role = 'team_member'
        GROUP BY p.project_id, p.name, u.user_id
        ORDER BY p.name, tasks_assigned DESC`,
}
