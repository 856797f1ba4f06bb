package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"taskforge/api/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

const taskColumns = `id, user_id, title, description, status, priority, due_date, tags, created_at, updated_at`

// sortColumns whitelists client-facing sort keys to SQL order expressions.
// Priority is an ordinal, not text: low sorts below medium below high.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "LOWER(title)",
	"dueDate":   "due_date",
	"priority":  "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END",
}

// TaskQuery is a validated, owner-less query description. The owner scope is
// a separate mandatory argument so it can never be omitted or overridden by
// client-supplied parameters.
type TaskQuery struct {
	Search   string
	Status   string
	Priority string
	SortBy   string
	Order    string
}

// TaskUpdate carries partial-update fields. Nil means untouched; a non-nil
// empty Tags slice clears the tags.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	Tags        *[]string
}

type TaskRepository struct {
	db DB
}

func NewTaskRepository(db DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.Tags,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

func (r *TaskRepository) Create(ctx context.Context, task models.Task) error {
	const query = `
		INSERT INTO tasks (
			id, user_id, title, description, status, priority, due_date, tags, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.Tags,
	)
	return err
}

// GetByOwner looks a task up by id within the owner scope. A task owned by
// someone else scans the same as a missing one.
func (r *TaskRepository) GetByOwner(ctx context.Context, id, ownerID string) (models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks WHERE id = $1 AND user_id = $2
	`
	return scanTask(r.db.QueryRow(ctx, query, id, ownerID))
}

// escapeLike neutralizes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (r *TaskRepository) List(ctx context.Context, ownerID string, q TaskQuery) ([]models.Task, error) {
	sql := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{ownerID}

	if q.Status != "" {
		args = append(args, q.Status)
		sql += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if q.Priority != "" {
		args = append(args, q.Priority)
		sql += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		sql += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	direction := "DESC"
	if q.Order == "asc" {
		direction = "ASC"
	}
	orderExpr := column + " " + direction
	if q.SortBy == "dueDate" {
		// Undated tasks trail dated ones regardless of direction.
		orderExpr += " NULLS LAST"
	}
	// Equal sort keys fall back to creation order so repeated calls return
	// an identical sequence.
	sql += " ORDER BY " + orderExpr + ", created_at ASC, id ASC"

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// CountByStatus aggregates over the same owner scope List uses, ignoring any
// filter parameters.
func (r *TaskRepository) CountByStatus(ctx context.Context, ownerID string) (map[models.TaskStatus]int, error) {
	const query = `
		SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status models.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *TaskRepository) Update(ctx context.Context, id, ownerID string, upd TaskUpdate) (models.Task, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id, ownerID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.Priority != nil {
		add("priority", *upd.Priority)
	}
	if upd.DueDate != nil {
		add("due_date", *upd.DueDate)
	}
	if upd.Tags != nil {
		add("tags", *upd.Tags)
	}

	sql := fmt.Sprintf(
		"UPDATE tasks SET %s WHERE id = $1 AND user_id = $2 RETURNING %s",
		strings.Join(sets, ", "), taskColumns,
	)
	return scanTask(r.db.QueryRow(ctx, sql, args...))
}

func (r *TaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	const query = `
		DELETE FROM tasks WHERE id = $1 AND user_id = $2
	`
	cmd, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CountAll returns the task total across all users, for the jobs gauge.
func (r *TaskRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count)
	return count, err
}
