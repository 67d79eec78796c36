package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
)

type TaskCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// CachedTaskService serves reads from Redis. Every key is namespaced by the
// owner id, and every successful write drops that owner's keys. Cache
// failures are logged and the call falls through to the wrapped service.
// A hit emits its own operation event since the wrapped service never runs.
type CachedTaskService struct {
	next  Tasks
	cache TaskCache
	ttl   time.Duration
}

func NewCachedTaskService(next Tasks, c TaskCache, ttl time.Duration) *CachedTaskService {
	return &CachedTaskService{next: next, cache: c, ttl: ttl}
}

var _ Tasks = (*CachedTaskService)(nil)

func ownerPrefix(owner uuid.UUID) string {
	return fmt.Sprintf("tasks:%s:", owner.String())
}

func listKey(owner uuid.UUID, filter models.TaskFilter) string {
	status, search := "-", "-"
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	if filter.Search != nil {
		search = "s" + base64.RawURLEncoding.EncodeToString([]byte(*filter.Search))
	}
	return ownerPrefix(owner) + "list:" + status + ":" + search
}

func itemKey(owner uuid.UUID, id uint) string {
	return fmt.Sprintf("%sitem:%d", ownerPrefix(owner), id)
}

func (s *CachedTaskService) List(ctx context.Context, user *models.User, filter models.TaskFilter) ([]models.Task, error) {
	owner, err := ownerOf(user)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	key := listKey(owner, filter)
	var cached []models.Task
	if s.lookup(ctx, key, &cached) {
		observe(ctx, "list_tasks", start, nil, "count", len(cached), "cache", "hit")
		return cached, nil
	}

	tasks, err := s.next.List(ctx, user, filter)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, tasks)
	return tasks, nil
}

func (s *CachedTaskService) Get(ctx context.Context, user *models.User, id uint) (*models.Task, error) {
	owner, err := ownerOf(user)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	key := itemKey(owner, id)
	var cached models.Task
	if s.lookup(ctx, key, &cached) {
		observe(ctx, "get_task", start, nil, "task_id", id, "cache", "hit")
		return &cached, nil
	}

	task, err := s.next.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, task)
	return task, nil
}

func (s *CachedTaskService) Create(ctx context.Context, user *models.User, input CreateTaskInput) (*models.Task, error) {
	task, err := s.next.Create(ctx, user, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)
	return task, nil
}

func (s *CachedTaskService) UpdateStatus(ctx context.Context, user *models.User, id uint, status models.TaskStatus) (*models.Task, error) {
	task, err := s.next.UpdateStatus(ctx, user, id, status)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, user.ID)
	return task, nil
}

func (s *CachedTaskService) Delete(ctx context.Context, user *models.User, id uint) error {
	if err := s.next.Delete(ctx, user, id); err != nil {
		return err
	}
	s.invalidate(ctx, user.ID)
	return nil
}

func (s *CachedTaskService) lookup(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logging.FromContext(ctx).Warn("task cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *CachedTaskService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logging.FromContext(ctx).Warn("task cache write failed", "key", key, "error", err)
	}
}

func (s *CachedTaskService) invalidate(ctx context.Context, owner uuid.UUID) {
	if err := s.cache.DeletePattern(ctx, ownerPrefix(owner)+"*"); err != nil {
		logging.FromContext(ctx).Warn("task cache invalidation failed", "owner", owner.String(), "error", err)
	}
}
