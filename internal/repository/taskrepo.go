package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/taskflow/backend/internal/model"
)

// TaskRepository provides owner-scoped access to tasks. Every lookup is keyed
// by (task, owner); a task owned by someone else behaves as if it did not exist.
type TaskRepository interface {
	// Create inserts a new task owned by t.UserID.
	Create(ctx context.Context, t *model.Task) error
	// ListByUser returns the owner's tasks in insertion order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	// UpdateTitle replaces the title of the owner's task.
	UpdateTitle(ctx context.Context, userID, taskID uuid.UUID, title string) (*model.Task, error)
	// Delete removes the owner's task permanently.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}
