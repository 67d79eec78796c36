package repositories

import (
	"task-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// OwnedBy restricts a task query to one owner. Every task query starts here.
func OwnedBy(ownerID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.user_id = ?", ownerID)
	}
}

func WithStatus(status models.TaskStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tasks.status = ?", status)
	}
}

// Matching keeps tasks whose title or description contains term. The match
// is case-sensitive on every dialect, which rules out LIKE on SQLite.
func Matching(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db.Dialector.Name() == "postgres" {
			return db.Where("(strpos(tasks.title, ?) > 0 OR strpos(tasks.description, ?) > 0)", term, term)
		}
		return db.Where("(instr(tasks.title, ?) > 0 OR instr(tasks.description, ?) > 0)", term, term)
	}
}

func filterScopes(ownerID uuid.UUID, filter models.TaskFilter) []func(*gorm.DB) *gorm.DB {
	scopes := []func(*gorm.DB) *gorm.DB{OwnedBy(ownerID)}
	if filter.Status != nil {
		scopes = append(scopes, WithStatus(*filter.Status))
	}
	if filter.Search != nil {
		scopes = append(scopes, Matching(*filter.Search))
	}
	return scopes
}
