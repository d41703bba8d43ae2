package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/taskflow/backend/internal/model"
	"github.com/taskflow/backend/internal/repository"
)

// TaskService defines owner-scoped CRUD over tasks. Callers must pass the
// user resolved from the request token; ownership is never inferred elsewhere.
type TaskService interface {
	// Create stores a new task owned by userID.
	Create(ctx context.Context, userID uuid.UUID, title string) (*model.Task, error)
	// List returns the owner's tasks in insertion order.
	List(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	// Update replaces the title of the owner's task.
	Update(ctx context.Context, userID, taskID uuid.UUID, title string) (*model.Task, error)
	// Delete removes the owner's task.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

type TaskServiceImpl struct {
	repo repository.TaskRepository
}

// NewTaskService constructs TaskService.
func NewTaskService(repo repository.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{repo: repo}
}

// Create stores a new task with the owner fixed at creation time. The title
// is accepted as-is; no length bound is imposed.
func (s *TaskServiceImpl) Create(ctx context.Context, userID uuid.UUID, title string) (*model.Task, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	if title == "" {
		return nil, errors.New("validation: empty title")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	t := &model.Task{ID: id, UserID: userID, Title: title}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns all tasks owned by userID.
func (s *TaskServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.repo.ListByUser(ctx, userID)
}

// Update replaces the title only. An absent or foreign task surfaces as
// errs.ErrNotFound from the repository.
func (s *TaskServiceImpl) Update(ctx context.Context, userID, taskID uuid.UUID, title string) (*model.Task, error) {
	if userID == uuid.Nil || taskID == uuid.Nil {
		return nil, errors.New("validation: empty userID/taskID")
	}
	if title == "" {
		return nil, errors.New("validation: empty title")
	}
	return s.repo.UpdateTitle(ctx, userID, taskID, title)
}

// Delete removes the owner's task permanently, with the same masking rule.
func (s *TaskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if userID == uuid.Nil || taskID == uuid.Nil {
		return errors.New("validation: empty userID/taskID")
	}
	return s.repo.Delete(ctx, userID, taskID)
}
