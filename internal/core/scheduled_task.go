package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sales440/ivy-ai-platform/internal/model"
	"github.com/sales440/ivy-ai-platform/internal/platform"
)

const scheduledTaskColumns = `id, company_id, task_type, task_data, status, scheduled_for,
	        executed_at, retry_count, max_retries, created_by, created_at, updated_at`

type ScheduledTaskService struct {
	db       DB
	validate *validator.Validate
}

func NewScheduledTaskService(db DB) *ScheduledTaskService {
	return &ScheduledTaskService{
		db:       db,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Create persists a new scheduled task in pending state. The payload is
// validated here, at the persistence boundary, so malformed delegations never
// reach a row.
func (s *ScheduledTaskService) Create(ctx context.Context, t *model.ScheduledTask) error {
	if err := s.validate.Struct(&t.TaskData); err != nil {
		return fmt.Errorf("validate task data: %w", err)
	}

	if t.ID == "" {
		t.ID = platform.NewName("stask")
	}
	now := time.Now()
	t.Status = model.ScheduledPending
	if t.MaxRetries == 0 {
		t.MaxRetries = model.DefaultMaxRetries
	}
	t.RetryCount = 0
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO scheduled_tasks (id, company_id, task_type, task_data, status, scheduled_for,
		                              retry_count, max_retries, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.CompanyID, t.TaskType, t.TaskData, t.Status, t.ScheduledFor,
		t.RetryCount, t.MaxRetries, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create scheduled task: %w", err)
	}
	return nil
}

// ListFailed returns failed tasks oldest-first, bounded.
func (s *ScheduledTaskService) ListFailed(ctx context.Context, limit int) ([]model.ScheduledTask, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+scheduledTaskColumns+`
		 FROM scheduled_tasks WHERE status = $1
		 ORDER BY updated_at ASC LIMIT $2`,
		model.ScheduledFailed, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list failed tasks: %w", err)
	}
	defer rows.Close()
	return scanScheduledTasks(rows)
}

// Reschedule moves a failed task back to pending with an incremented retry
// count. The update is conditional on the prior status and retry count so two
// overlapping repair passes cannot double-increment the same row. Returns
// true if this call performed the transition.
func (s *ScheduledTaskService) Reschedule(ctx context.Context, id string, priorRetryCount int, scheduledFor time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE scheduled_tasks
		 SET status = $1, scheduled_for = $2, retry_count = retry_count + 1, updated_at = $3
		 WHERE id = $4 AND status = $5 AND retry_count = $6`,
		model.ScheduledPending, scheduledFor, time.Now(), id, model.ScheduledFailed, priorRetryCount,
	)
	if err != nil {
		return false, fmt.Errorf("reschedule task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel moves an exhausted failed task to the terminal cancelled state,
// leaving retry_count untouched. Conditional for the same reason as
// Reschedule.
func (s *ScheduledTaskService) Cancel(ctx context.Context, id string, priorRetryCount int) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE scheduled_tasks SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4 AND retry_count = $5`,
		model.ScheduledCancelled, time.Now(), id, model.ScheduledFailed, priorRetryCount,
	)
	if err != nil {
		return false, fmt.Errorf("cancel task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountsByCompany returns per-status task counts for one company.
func (s *ScheduledTaskService) CountsByCompany(ctx context.Context, companyID string) (map[string]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT status, COUNT(*) FROM scheduled_tasks WHERE company_id = $1 GROUP BY status`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("count tasks by company: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan task count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountByStatus returns platform-wide per-status task counts.
func (s *ScheduledTaskService) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT status, COUNT(*) FROM scheduled_tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan task count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// RecentByCompany returns the most recent tasks for one company, newest first.
func (s *ScheduledTaskService) RecentByCompany(ctx context.Context, companyID string, limit int) ([]model.ScheduledTask, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+scheduledTaskColumns+`
		 FROM scheduled_tasks WHERE company_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		companyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent tasks: %w", err)
	}
	defer rows.Close()
	return scanScheduledTasks(rows)
}

// HasActive reports whether the company has any pending or processing task,
// i.e. an active campaign workflow.
func (s *ScheduledTaskService) HasActive(ctx context.Context, companyID string) (bool, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM scheduled_tasks
		 WHERE company_id = $1 AND status IN ($2, $3)`,
		companyID, model.ScheduledPending, model.ScheduledProcessing,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count active tasks: %w", err)
	}
	return n > 0, nil
}

// CompleteStale marks processing tasks executed before the cutoff as
// completed. The sync cycle uses a 7-day cutoff.
func (s *ScheduledTaskService) CompleteStale(ctx context.Context, executedBefore time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE scheduled_tasks SET status = $1, updated_at = $2
		 WHERE status = $3 AND executed_at IS NOT NULL AND executed_at < $4`,
		model.ScheduledCompleted, time.Now(), model.ScheduledProcessing, executedBefore,
	)
	if err != nil {
		return 0, fmt.Errorf("complete stale tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// FailUnresponsive marks pending tasks scheduled before the cutoff that never
// executed as failed. The sync cycle uses a 30-day cutoff.
func (s *ScheduledTaskService) FailUnresponsive(ctx context.Context, scheduledBefore time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE scheduled_tasks SET status = $1, updated_at = $2
		 WHERE status = $3 AND executed_at IS NULL AND scheduled_for < $4`,
		model.ScheduledFailed, time.Now(), model.ScheduledPending, scheduledBefore,
	)
	if err != nil {
		return 0, fmt.Errorf("fail unresponsive tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanScheduledTasks(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.ScheduledTask, error) {
	var tasks []model.ScheduledTask
	for rows.Next() {
		var t model.ScheduledTask
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.TaskType, &t.TaskData, &t.Status,
			&t.ScheduledFor, &t.ExecutedAt, &t.RetryCount, &t.MaxRetries,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
