package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimestampLayout is the local-time format completions are stored and
// compared in. Fixed-width, so lexical order equals chronological order.
const TimestampLayout = "2006-01-02 15:04:05"

// TaskCompletion is an append-only record of a user finishing a task.
// Rows are never updated; undo deletes the newest eligible row.
// CompletedBy is nullable for rows imported before authorship was recorded.
type TaskCompletion struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TaskID      uuid.UUID  `json:"taskId" gorm:"type:uuid;index;not null"`
	CompletedBy *uuid.UUID `json:"completedBy" gorm:"type:uuid;index"`
	CompletedAt string     `json:"completedAt" gorm:"not null;index"` // YYYY-MM-DD HH:MM:SS local time
	CreatedAt   time.Time  `json:"createdAt"`
}

func (tc *TaskCompletion) BeforeCreate(tx *gorm.DB) error {
	if tc.ID == uuid.Nil {
		tc.ID = uuid.New()
	}
	if tc.CompletedAt == "" {
		tc.CompletedAt = time.Now().Format(TimestampLayout)
	}
	return nil
}
