package repositories

import (
	"context"
	"time"

	"task-tracker/backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	store
}

func NewUserRepository(db *gorm.DB, timeout time.Duration) *UserRepository {
	return &UserRepository{store{db: db, timeout: timeout}}
}

// Create inserts the user in a single statement. A taken username surfaces as
// ErrDuplicateKey from the unique index, so concurrent signups for the same
// name cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	db, ctx, cancel := r.session(ctx)
	defer cancel()

	return translate(ctx, db.Create(user).Error)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	db, ctx, cancel := r.session(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(ctx, err)
	}
	return &user, nil
}
