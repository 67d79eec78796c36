package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

var taskStatuses = []TaskStatus{TaskStatusOpen, TaskStatusInProgress, TaskStatusDone}

func (s TaskStatus) Valid() bool {
	for _, status := range taskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseTaskStatus accepts the exact upper-case status names.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	status := TaskStatus(raw)
	return status, status.Valid()
}

// Task is always owned by exactly one user. UserID never leaves the server.
type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      uuid.UUID  `json:"-" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description" gorm:"not null"`
	Status      TaskStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskFilter narrows a task listing. Nil fields are not applied.
type TaskFilter struct {
	Status *TaskStatus
	Search *string
}
