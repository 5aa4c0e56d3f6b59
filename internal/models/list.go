package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type List struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	ResetPeriod string         `json:"resetPeriod" gorm:"not null;default:'weekly'"` // daily, weekly, fortnightly, monthly, quarterly, annually, static
	CreatedBy   uuid.UUID      `json:"createdBy" gorm:"type:uuid;index;not null"`
	SortOrder   int            `json:"sortOrder" gorm:"default:0"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Tasks       []Task         `json:"tasks,omitempty" gorm:"foreignKey:ListID"`
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// List DTOs
type CreateListRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ResetPeriod string `json:"resetPeriod"`
}

type UpdateListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ResetPeriod *string `json:"resetPeriod"`
}

type ReorderListsRequest struct {
	ListIDs []uuid.UUID `json:"listIds" validate:"required"`
}

type ListSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ResetPeriod    string    `json:"resetPeriod"`
	SortOrder      int       `json:"sortOrder"`
	Permission     string    `json:"permission"`
	TaskCount      int       `json:"taskCount"`
	CompletedCount int       `json:"completedCount"`
}
