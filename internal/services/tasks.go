package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

type TaskStore interface {
	Query(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]models.Task, error)
	Insert(ctx context.Context, task *models.Task, ownerID uuid.UUID) error
	FindByIDAndOwner(ctx context.Context, id uint, ownerID uuid.UUID) (*models.Task, error)
	UpdateStatusByIDAndOwner(ctx context.Context, id uint, ownerID uuid.UUID, status models.TaskStatus) (*models.Task, error)
	DeleteByIDAndOwner(ctx context.Context, id uint, ownerID uuid.UUID) (int64, error)
}

// Tasks is the owner-scoped task API the HTTP layer talks to. Every method
// takes the authenticated user explicitly.
type Tasks interface {
	List(ctx context.Context, user *models.User, filter models.TaskFilter) ([]models.Task, error)
	Get(ctx context.Context, user *models.User, id uint) (*models.Task, error)
	Create(ctx context.Context, user *models.User, input CreateTaskInput) (*models.Task, error)
	UpdateStatus(ctx context.Context, user *models.User, id uint, status models.TaskStatus) (*models.Task, error)
	Delete(ctx context.Context, user *models.User, id uint) error
}

type CreateTaskInput struct {
	Title       string
	Description string
}

type TaskService struct {
	tasks TaskStore
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

var _ Tasks = (*TaskService)(nil)

func ownerOf(user *models.User) (uuid.UUID, error) {
	if user == nil || user.ID.IsNil() {
		return uuid.Nil, ErrUnauthorized
	}
	return user.ID, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTaskNotFound
	}
	return storeError(err)
}

func (s *TaskService) List(ctx context.Context, user *models.User, filter models.TaskFilter) (tasks []models.Task, err error) {
	start := time.Now()
	defer func() { observe(ctx, "list_tasks", start, err, "count", len(tasks)) }()

	owner, err := ownerOf(user)
	if err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, validationError("unknown status")
	}
	if filter.Search != nil && *filter.Search == "" {
		return nil, validationError("search must not be empty")
	}

	tasks, err = s.tasks.Query(ctx, owner, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, user *models.User, id uint) (task *models.Task, err error) {
	start := time.Now()
	defer func() { observe(ctx, "get_task", start, err, "task_id", id) }()

	owner, err := ownerOf(user)
	if err != nil {
		return nil, err
	}

	task, err = s.tasks.FindByIDAndOwner(ctx, id, owner)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return task, nil
}

func (s *TaskService) Create(ctx context.Context, user *models.User, input CreateTaskInput) (task *models.Task, err error) {
	start := time.Now()
	defer func() { observe(ctx, "create_task", start, err) }()

	owner, err := ownerOf(user)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, validationError("title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, validationError("description is required")
	}

	task = &models.Task{Title: input.Title, Description: input.Description}
	if err := s.tasks.Insert(ctx, task, owner); err != nil {
		return nil, storeError(err)
	}
	return task, nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, user *models.User, id uint, status models.TaskStatus) (task *models.Task, err error) {
	start := time.Now()
	defer func() { observe(ctx, "update_task_status", start, err, "task_id", id, "status", string(status)) }()

	owner, err := ownerOf(user)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, validationError("unknown status")
	}

	task, err = s.tasks.UpdateStatusByIDAndOwner(ctx, id, owner, status)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, user *models.User, id uint) (err error) {
	start := time.Now()
	defer func() { observe(ctx, "delete_task", start, err, "task_id", id) }()

	owner, err := ownerOf(user)
	if err != nil {
		return err
	}

	affected, err := s.tasks.DeleteByIDAndOwner(ctx, id, owner)
	if err != nil {
		return storeError(err)
	}
	if affected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
