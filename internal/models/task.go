package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID                       uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ListID                   uuid.UUID      `json:"listId" gorm:"type:uuid;index;not null"`
	Title                    string         `json:"title" gorm:"not null"`
	Description              string         `json:"description"`
	DurationMinutes          int            `json:"durationMinutes" gorm:"default:0"`
	AllowMultipleCompletions bool           `json:"allowMultipleCompletions" gorm:"default:false"`
	SortOrder                int            `json:"sortOrder" gorm:"default:0"`
	CreatedAt                time.Time      `json:"createdAt"`
	UpdatedAt                time.Time      `json:"updatedAt"`
	DeletedAt                gorm.DeletedAt `json:"-" gorm:"index"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Task DTOs
type CreateTaskRequest struct {
	Title                    string `json:"title" validate:"required"`
	Description              string `json:"description"`
	DurationMinutes          int    `json:"durationMinutes"`
	AllowMultipleCompletions bool   `json:"allowMultipleCompletions"`
}

type UpdateTaskRequest struct {
	Title                    *string `json:"title"`
	Description              *string `json:"description"`
	DurationMinutes          *int    `json:"durationMinutes"`
	AllowMultipleCompletions *bool   `json:"allowMultipleCompletions"`
}

type ReorderTasksRequest struct {
	TaskIDs []uuid.UUID `json:"taskIds" validate:"required"`
}

// TaskStatus is a task plus its completion state for one period.
type TaskStatus struct {
	Task            Task       `json:"task"`
	CompletionCount int        `json:"completionCount"`
	IsCompleted     bool       `json:"isCompleted"`
	LastCompletedAt *string    `json:"lastCompletedAt"`
	LastCompletedBy *uuid.UUID `json:"lastCompletedBy"`
}
