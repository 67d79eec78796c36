package repositories

import (
	"context"
	"time"

	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	store
}

func NewTaskRepository(db *gorm.DB, timeout time.Duration) *TaskRepository {
	return &TaskRepository{store{db: db, timeout: timeout}}
}

// Query returns the owner's tasks matching filter in insertion order.
func (r *TaskRepository) Query(ctx context.Context, ownerID uuid.UUID, filter models.TaskFilter) ([]models.Task, error) {
	db, ctx, cancel := r.session(ctx)
	defer cancel()

	tasks := make([]models.Task, 0)
	err := db.Scopes(filterScopes(ownerID, filter)...).
		Order("tasks.id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, translate(ctx, err)
	}
	return tasks, nil
}

// Insert stores task for ownerID. The status is always OPEN and any caller
// supplied id or owner is discarded.
func (r *TaskRepository) Insert(ctx context.Context, task *models.Task, ownerID uuid.UUID) error {
	db, ctx, cancel := r.session(ctx)
	defer cancel()

	task.ID = 0
	task.UserID = ownerID
	task.Status = models.TaskStatusOpen

	return translate(ctx, db.Create(task).Error)
}

func (r *TaskRepository) FindByIDAndOwner(ctx context.Context, id uint, ownerID uuid.UUID) (*models.Task, error) {
	db, ctx, cancel := r.session(ctx)
	defer cancel()

	var task models.Task
	if err := db.Scopes(OwnedBy(ownerID)).First(&task, id).Error; err != nil {
		return nil, translate(ctx, err)
	}
	return &task, nil
}

// UpdateStatusByIDAndOwner loads, mutates and saves the task in one
// transaction.
func (r *TaskRepository) UpdateStatusByIDAndOwner(ctx context.Context, id uint, ownerID uuid.UUID, status models.TaskStatus) (*models.Task, error) {
	db, ctx, cancel := r.session(ctx)
	defer cancel()

	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(OwnedBy(ownerID)).First(&task, id).Error; err != nil {
			return err
		}
		task.Status = status
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, translate(ctx, err)
	}
	return &task, nil
}

// DeleteByIDAndOwner reports how many rows were removed; zero means the task
// does not exist for this owner.
func (r *TaskRepository) DeleteByIDAndOwner(ctx context.Context, id uint, ownerID uuid.UUID) (int64, error) {
	db, ctx, cancel := r.session(ctx)
	defer cancel()

	result := db.Scopes(OwnedBy(ownerID)).Delete(&models.Task{}, id)
	if result.Error != nil {
		return 0, translate(ctx, result.Error)
	}
	return result.RowsAffected, nil
}
