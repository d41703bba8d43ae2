package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/taskflow/backend/internal/errs"
	"github.com/taskflow/backend/internal/model"
)

// TaskRepo implements TaskRepository using PostgreSQL. All statements filter
// by user_id so a foreign task is indistinguishable from a missing one.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

// Create inserts a new task row owned by t.UserID.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const q = `
INSERT INTO tasks (id, user_id, title)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, t.ID, t.UserID, t.Title)
	return err
}

// ListByUser returns the owner's tasks in insertion order.
func (r *TaskRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	const q = `
SELECT id, user_id, title, created_at
FROM tasks
WHERE user_id=$1
ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTitle replaces the title of the owner's task and returns the updated row.
func (r *TaskRepo) UpdateTitle(ctx context.Context, userID, taskID uuid.UUID, title string) (*model.Task, error) {
	const q = `
UPDATE tasks SET title=$3
WHERE id=$1 AND user_id=$2
RETURNING id, user_id, title, created_at`
	var t model.Task
	err := r.db.Pool.QueryRow(ctx, q, taskID, userID, title).
		Scan(&t.ID, &t.UserID, &t.Title, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// Delete removes the owner's task permanently.
func (r *TaskRepo) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	const q = `DELETE FROM tasks WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, taskID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
